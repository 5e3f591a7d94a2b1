package domain

import "context"

// EventStore persists the durable events stream and serves history fetches.
type EventStore interface {
	// InsertEvent records a single persistable server-originated event.
	InsertEvent(ctx context.Context, room RoomId, user UserId, username Username, text string, ts Timestamp, kindTag int16) error

	// History returns the limit most recent events strictly older than
	// fetchBefore, in ascending ts order. limit <= 0 returns an empty slice.
	History(ctx context.Context, room RoomId, limit int64, fetchBefore Timestamp) ([]PersistedEvent, error)
}

// UserStore tracks which room each connected user currently occupies.
type UserStore interface {
	InsertUser(ctx context.Context, room RoomId, user UserId) error
	DeleteUser(ctx context.Context, user UserId) (int64, error)
	RoomOfUser(ctx context.Context, user UserId) (RoomId, bool, error)
}

// Store bundles EventStore and UserStore behind a single shared,
// mutex-guarded connection.
type Store interface {
	EventStore
	UserStore
}
