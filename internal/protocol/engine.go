// Package protocol implements the per-connection state machine over client
// commands: it issues room-change, publish, persist, and fetch actions in
// response to each decoded domain.Event.
package protocol

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"roomrelay/internal/domain"
	"roomrelay/internal/queue"
	"roomrelay/internal/roomsub"
	"roomrelay/internal/wire"
)

// Engine is the Protocol Engine: a state machine over the implicit
// per-connection state {subscribedRoom}. It runs inline with the Reader —
// every Handle call is synchronous with respect to the caller, though it may
// itself await I/O (room-change ack, publish, persist).
type Engine struct {
	publisher  domain.Publisher
	store      domain.Store
	roomChange *queue.Unbounded[roomsub.ChangeRequest]
	outbound   *queue.Unbounded[[]byte]
	logger     *slog.Logger

	mu             sync.Mutex
	subscribedRoom *domain.RoomId
}

// New creates an Engine wired to the given Publisher, Store, and this
// connection's RoomChangeQ/OutboundQ.
func New(publisher domain.Publisher, store domain.Store, roomChange *queue.Unbounded[roomsub.ChangeRequest], outbound *queue.Unbounded[[]byte], logger *slog.Logger) *Engine {
	return &Engine{
		publisher:  publisher,
		store:      store,
		roomChange: roomChange,
		outbound:   outbound,
		logger:     logger,
	}
}

// SubscribedRoom reports the room the engine currently believes it is
// subscribed to, or false before the first successful JoinRoom ack. Exposed
// for tests verifying the single-room invariant.
func (e *Engine) SubscribedRoom() (domain.RoomId, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.subscribedRoom == nil {
		return 0, false
	}
	return *e.subscribedRoom, true
}

// Handle dispatches a single decoded Event. A non-nil error means the
// transition could not complete in a way that leaves the connection usable
// (currently: only a failed room-change request) and the caller must
// terminate the connection. Every other failure mode (publish, persist,
// lookup) is logged and absorbed here.
func (e *Engine) Handle(ctx context.Context, ev domain.Event) error {
	switch ev.Kind {
	case domain.KindJoinRoom:
		return e.handleJoinRoom(ctx, *ev.JoinRoom)
	case domain.KindLeaveRoom:
		e.handleLeaveRoom(ctx, *ev.LeaveRoom)
		return nil
	case domain.KindChangeName:
		e.handleChangeName(ctx, *ev.ChangeName)
		return nil
	case domain.KindFetch:
		e.handleFetch(ctx, *ev.Fetch)
		return nil
	case domain.KindPostMessage:
		e.handlePostMessage(ctx, *ev.PostMessage)
		return nil
	default:
		e.logger.Warn("protocol: ignoring server-facing variant from client", slog.String("kind", ev.Kind.String()))
		return nil
	}
}

// handleJoinRoom switches the connection's subscription before publishing:
// the room-change request and its acknowledgement strictly precede the
// publish, so the server's own UserJoined can never arrive on a stale
// subscription.
func (e *Engine) handleJoinRoom(ctx context.Context, in domain.JoinRoom) error {
	ack := make(chan error, 1)
	e.roomChange.Push(roomsub.ChangeRequest{Room: in.Room, Ack: ack})

	var ackErr error
	select {
	case ackErr = <-ack:
	case <-ctx.Done():
		ackErr = ctx.Err()
	}
	if ackErr != nil {
		return fmt.Errorf("%w: join room %d: %v", domain.ErrSubscribe, in.Room, ackErr)
	}

	e.mu.Lock()
	room := in.Room
	e.subscribedRoom = &room
	e.mu.Unlock()

	e.publish(ctx, in.Room, domain.NewUserJoined(domain.UserJoined{
		User: in.User, Username: in.Username, Room: in.Room, Ts: in.Ts,
	}))
	e.persist(ctx, in.Room, in.User, in.Username, "", in.Ts, 0)

	if err := e.store.InsertUser(ctx, in.Room, in.User); err != nil {
		e.logger.Error("protocol: insert user row failed",
			slog.String("user", in.User.String()), slog.String("error", err.Error()))
	}

	return nil
}

// handleLeaveRoom publishes and persists the departure. The Room Subscriber
// is deliberately not told to unsubscribe here; the next JoinRoom replaces
// the subscription atomically.
func (e *Engine) handleLeaveRoom(ctx context.Context, in domain.LeaveRoom) {
	e.publish(ctx, in.Room, domain.NewUserLeft(domain.UserLeft{
		User: in.User, Username: in.Username, Room: in.Room, Ts: in.Ts,
	}))
	e.persist(ctx, in.Room, in.User, in.Username, "", in.Ts, 1)

	if _, err := e.store.DeleteUser(ctx, in.User); err != nil {
		e.logger.Error("protocol: delete user row failed",
			slog.String("user", in.User.String()), slog.String("error", err.Error()))
	}
}

// handleChangeName resolves the user's current room and publishes a rename
// notice to it. UsernameChanged is deliberately not persisted — see
// DESIGN.md's open-question decisions. If the user's room can't be resolved
// (e.g. it already left), the event is silently dropped.
func (e *Engine) handleChangeName(ctx context.Context, in domain.ChangeName) {
	room, found, err := e.store.RoomOfUser(ctx, in.User)
	if err != nil {
		e.logger.Error("protocol: room lookup for change_name failed",
			slog.String("user", in.User.String()), slog.String("error", err.Error()))
		return
	}
	if !found {
		e.logger.Debug("protocol: change_name dropped, no room for user",
			slog.String("user", in.User.String()))
		return
	}

	e.publish(ctx, room, domain.NewUsernameChanged(domain.UsernameChanged{
		User: in.User, NewUsername: in.NewUsername, OldUsername: in.OldUsername, Ts: in.Ts,
	}))
}

// handleFetch answers with the requested history directly on OutboundQ,
// never back through Redis.
func (e *Engine) handleFetch(ctx context.Context, in domain.Fetch) {
	rows, err := e.store.History(ctx, in.Room, in.Limit, in.FetchBefore)
	if err != nil {
		e.logger.Error("protocol: fetch failed",
			slog.Int("room", int(in.Room)), slog.String("error", err.Error()))
		e.sendDirect(domain.NewError("E_FETCH", err.Error()))
		return
	}

	events := make([]domain.Event, len(rows))
	for i, row := range rows {
		events[i] = row.ToEvent()
	}
	e.sendDirect(domain.NewHistory(domain.History{Events: events}))
}

// handlePostMessage publishes and persists a chat message. The server does
// not enforce the 250-character limit; the client is expected to.
func (e *Engine) handlePostMessage(ctx context.Context, in domain.PostMessage) {
	e.publish(ctx, in.Message.Room, domain.NewPostMessage(in))
	e.persist(ctx, in.Message.Room, in.Message.User, in.Message.Username, in.Message.Text, in.Message.Ts, 4)
}

// publish is a thin wrapper that logs, but never surfaces, Publisher
// failures as a terminal error: publish errors are non-fatal.
func (e *Engine) publish(ctx context.Context, room domain.RoomId, ev domain.Event) {
	if err := e.publisher.Publish(ctx, room, ev); err != nil {
		e.logger.Error("protocol: publish failed",
			slog.Int("room", int(room)), slog.String("kind", ev.Kind.String()), slog.String("error", err.Error()))
		e.sendDirect(domain.NewError("E_PUBLISH", err.Error()))
	}
}

// persist records kindTag, absorbing any Store failure as a logged,
// non-fatal event.
func (e *Engine) persist(ctx context.Context, room domain.RoomId, user domain.UserId, username domain.Username, text string, ts domain.Timestamp, kindTag int16) {
	if err := e.store.InsertEvent(ctx, room, user, username, text, ts, kindTag); err != nil {
		e.logger.Error("protocol: persist failed",
			slog.Int("room", int(room)), slog.Int("kind_tag", int(kindTag)), slog.String("error", err.Error()))
	}
}

// sendDirect encodes ev and enqueues it directly on OutboundQ, bypassing
// Redis. Encoding failures are logged; they cannot happen for well-formed
// domain values, but the engine never panics on a local serialization bug.
func (e *Engine) sendDirect(ev domain.Event) {
	frame, err := wire.Encode(ev)
	if err != nil {
		e.logger.Error("protocol: encode direct reply failed", slog.String("error", err.Error()))
		return
	}
	e.outbound.Push(frame)
}
