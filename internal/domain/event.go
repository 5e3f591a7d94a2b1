package domain

// Kind tags every Event variant. The ordering here is the canonical tag
// ordering used on the wire by internal/wire — client and server must agree
// on it.
type Kind uint8

const (
	KindJoinRoom Kind = iota
	KindLeaveRoom
	KindChangeName
	KindFetch
	KindPostMessage
	KindUserJoined
	KindUserLeft
	KindUsernameChanged
	KindHistory
	KindError
	KindLocalError
)

// String returns a human-readable name for logging.
func (k Kind) String() string {
	switch k {
	case KindJoinRoom:
		return "JoinRoom"
	case KindLeaveRoom:
		return "LeaveRoom"
	case KindChangeName:
		return "ChangeName"
	case KindFetch:
		return "Fetch"
	case KindPostMessage:
		return "PostMessage"
	case KindUserJoined:
		return "UserJoined"
	case KindUserLeft:
		return "UserLeft"
	case KindUsernameChanged:
		return "UsernameChanged"
	case KindHistory:
		return "History"
	case KindError:
		return "Error"
	case KindLocalError:
		return "LocalError"
	default:
		return "Unknown"
	}
}

// JoinRoom is sent by a client to enter a room.
type JoinRoom struct {
	Room     RoomId    `msgpack:"room"`
	User     UserId    `msgpack:"user"`
	Username Username  `msgpack:"username"`
	Ts       Timestamp `msgpack:"ts"`
}

// LeaveRoom is sent by a client to exit its current room.
type LeaveRoom struct {
	Room     RoomId    `msgpack:"room"`
	User     UserId    `msgpack:"user"`
	Username Username  `msgpack:"username"`
	Ts       Timestamp `msgpack:"ts"`
}

// ChangeName renames the user; the server resolves its current room itself.
type ChangeName struct {
	User        UserId    `msgpack:"user"`
	NewUsername Username  `msgpack:"new_username"`
	OldUsername Username  `msgpack:"old_username"`
	Ts          Timestamp `msgpack:"ts"`
}

// Fetch requests durable history for a room.
type Fetch struct {
	Room        RoomId    `msgpack:"room"`
	Limit       int64     `msgpack:"limit"`
	FetchBefore Timestamp `msgpack:"fetch_before"`
}

// Message is the payload shared by the client-originated and server-echoed
// PostMessage variant.
type Message struct {
	User     UserId    `msgpack:"user"`
	Username Username  `msgpack:"username"`
	Text     string    `msgpack:"text"`
	Room     RoomId    `msgpack:"room"`
	Ts       Timestamp `msgpack:"ts"`
}

// PostMessage carries a chat message, both from client to server and back.
type PostMessage struct {
	Message Message `msgpack:"message"`
}

// UserJoined is broadcast to a room when a client joins it.
type UserJoined struct {
	User     UserId    `msgpack:"user"`
	Username Username  `msgpack:"username"`
	Room     RoomId    `msgpack:"room"`
	Ts       Timestamp `msgpack:"ts"`
}

// UserLeft is broadcast to a room when a client leaves it.
type UserLeft struct {
	User     UserId    `msgpack:"user"`
	Username Username  `msgpack:"username"`
	Room     RoomId    `msgpack:"room"`
	Ts       Timestamp `msgpack:"ts"`
}

// UsernameChanged is broadcast to the user's current room on rename.
type UsernameChanged struct {
	User        UserId    `msgpack:"user"`
	NewUsername Username  `msgpack:"new_username"`
	OldUsername Username  `msgpack:"old_username"`
	Ts          Timestamp `msgpack:"ts"`
}

// History answers a Fetch with an ordered sequence of past events.
type History struct {
	Events []Event `msgpack:"events"`
}

// Error is a non-fatal, user-visible failure notice.
type Error struct {
	Code    string `msgpack:"code"`
	Message string `msgpack:"message"`
}

// LocalError never crosses the wire; it exists only so a client-side
// equivalent type can share the Kind enum with the server's Error variant.
type LocalError struct {
	Message string `msgpack:"message"`
}

// Event is a tagged union over every protocol variant. Exactly one of the
// pointer fields matching Kind is populated; the rest are nil. This mirrors
// the wire encoding, which also carries the tag as part of the serialized
// form (see internal/wire).
type Event struct {
	Kind Kind `msgpack:"kind"`

	JoinRoom        *JoinRoom        `msgpack:"join_room,omitempty"`
	LeaveRoom       *LeaveRoom       `msgpack:"leave_room,omitempty"`
	ChangeName      *ChangeName      `msgpack:"change_name,omitempty"`
	Fetch           *Fetch           `msgpack:"fetch,omitempty"`
	PostMessage     *PostMessage     `msgpack:"post_message,omitempty"`
	UserJoined      *UserJoined      `msgpack:"user_joined,omitempty"`
	UserLeft        *UserLeft        `msgpack:"user_left,omitempty"`
	UsernameChanged *UsernameChanged `msgpack:"username_changed,omitempty"`
	History         *History         `msgpack:"history,omitempty"`
	Error           *Error           `msgpack:"error,omitempty"`
	LocalError      *LocalError      `msgpack:"local_error,omitempty"`
}

// NewJoinRoom wraps a JoinRoom payload in an Event.
func NewJoinRoom(v JoinRoom) Event { return Event{Kind: KindJoinRoom, JoinRoom: &v} }

// NewLeaveRoom wraps a LeaveRoom payload in an Event.
func NewLeaveRoom(v LeaveRoom) Event { return Event{Kind: KindLeaveRoom, LeaveRoom: &v} }

// NewChangeName wraps a ChangeName payload in an Event.
func NewChangeName(v ChangeName) Event { return Event{Kind: KindChangeName, ChangeName: &v} }

// NewFetch wraps a Fetch payload in an Event.
func NewFetch(v Fetch) Event { return Event{Kind: KindFetch, Fetch: &v} }

// NewPostMessage wraps a PostMessage payload in an Event.
func NewPostMessage(v PostMessage) Event { return Event{Kind: KindPostMessage, PostMessage: &v} }

// NewUserJoined wraps a UserJoined payload in an Event.
func NewUserJoined(v UserJoined) Event { return Event{Kind: KindUserJoined, UserJoined: &v} }

// NewUserLeft wraps a UserLeft payload in an Event.
func NewUserLeft(v UserLeft) Event { return Event{Kind: KindUserLeft, UserLeft: &v} }

// NewUsernameChanged wraps a UsernameChanged payload in an Event.
func NewUsernameChanged(v UsernameChanged) Event {
	return Event{Kind: KindUsernameChanged, UsernameChanged: &v}
}

// NewHistory wraps a History payload in an Event.
func NewHistory(v History) Event { return Event{Kind: KindHistory, History: &v} }

// NewError wraps an Error payload in an Event.
func NewError(code, message string) Event {
	return Event{Kind: KindError, Error: &Error{Code: code, Message: message}}
}

// KindTag maps the five persistable server-originated variants to their database
// kind_tag column value. The bool is false for any other variant.
func KindTag(k Kind) (int16, bool) {
	switch k {
	case KindUserJoined:
		return 0, true
	case KindUserLeft:
		return 1, true
	case KindUsernameChanged:
		return 2, true
	case KindError:
		return 3, true
	case KindPostMessage:
		return 4, true
	default:
		return 0, false
	}
}

// PersistedEvent is the database row shape for the durable events stream.
type PersistedEvent struct {
	ID       int64
	Room     RoomId
	User     UserId
	Username Username
	Text     string
	Ts       Timestamp
	KindTag  int16
}

// ToEvent reconstructs the wire-facing Event a PersistedEvent represents,
// for inclusion in a History response.
func (p PersistedEvent) ToEvent() Event {
	switch p.KindTag {
	case 0:
		return NewUserJoined(UserJoined{User: p.User, Username: p.Username, Room: p.Room, Ts: p.Ts})
	case 1:
		return NewUserLeft(UserLeft{User: p.User, Username: p.Username, Room: p.Room, Ts: p.Ts})
	case 2:
		return NewUsernameChanged(UsernameChanged{User: p.User, NewUsername: p.Username, OldUsername: p.Text, Ts: p.Ts})
	case 3:
		return NewError("", p.Text)
	case 4:
		return NewPostMessage(PostMessage{Message: Message{User: p.User, Username: p.Username, Text: p.Text, Room: p.Room, Ts: p.Ts}})
	default:
		return Event{}
	}
}
