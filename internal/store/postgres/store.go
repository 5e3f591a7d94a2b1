package postgres

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"

	"roomrelay/internal/domain"
)

// Store implements domain.Store over the single shared connection. Every
// statement is serialized through mu: the relay deliberately runs one
// connection per instance, not a pool, so there is no concurrency to exploit
// here and every caller simply waits its turn.
type Store struct {
	mu     sync.Mutex
	client *Client
}

// NewStore wraps an already-connected Client.
func NewStore(client *Client) *Store {
	return &Store{client: client}
}

var _ domain.Store = (*Store)(nil)

// InsertEvent records a single persistable event row.
func (s *Store) InsertEvent(ctx context.Context, room domain.RoomId, user domain.UserId, username domain.Username, text string, ts domain.Timestamp, kindTag int16) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	const q = `
		INSERT INTO events (ts, text, username, room, "user", kind_tag)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.client.conn.Exec(ctx, q, int64(ts), text, string(username), int32(room), user, kindTag)
	if err != nil {
		return fmt.Errorf("%w: insert event: %v", domain.ErrPersist, err)
	}
	return nil
}

// History returns the limit most recent events strictly older than
// fetchBefore, in ascending ts order. limit <= 0 returns an empty slice.
// fetchBefore == 0 is treated as unbounded — the caller has no prior cursor
// and wants the newest events in the room.
func (s *Store) History(ctx context.Context, room domain.RoomId, limit int64, fetchBefore domain.Timestamp) ([]domain.PersistedEvent, error) {
	if limit <= 0 {
		return []domain.PersistedEvent{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var rows pgx.Rows
	var err error
	if fetchBefore == 0 {
		const q = `
			SELECT id, room, "user", username, text, ts, kind_tag
			FROM events
			WHERE room = $1
			ORDER BY ts DESC, id DESC
			LIMIT $2`
		rows, err = s.client.conn.Query(ctx, q, int32(room), limit)
	} else {
		const q = `
			SELECT id, room, "user", username, text, ts, kind_tag
			FROM events
			WHERE room = $1 AND ts < $2
			ORDER BY ts DESC, id DESC
			LIMIT $3`
		rows, err = s.client.conn.Query(ctx, q, int32(room), int64(fetchBefore), limit)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: history query: %v", domain.ErrPersist, err)
	}
	defer rows.Close()

	var descending []domain.PersistedEvent
	for rows.Next() {
		var (
			p        domain.PersistedEvent
			roomCol  int32
			ts       int64
			username string
		)
		if err := rows.Scan(&p.ID, &roomCol, &p.User, &username, &p.Text, &ts, &p.KindTag); err != nil {
			return nil, fmt.Errorf("%w: history scan: %v", domain.ErrPersist, err)
		}
		p.Room = domain.RoomId(roomCol)
		p.Ts = domain.Timestamp(ts)
		p.Username = domain.Username(username)
		descending = append(descending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: history rows: %v", domain.ErrPersist, err)
	}

	// Flip the (ts DESC, id DESC) rows so rows with equal ts are in insertion
	// order before reorderHistory's stable sort.
	for i, j := 0, len(descending)-1; i < j; i, j = i+1, j-1 {
		descending[i], descending[j] = descending[j], descending[i]
	}

	return reorderHistory(descending, limit), nil
}

// InsertUser records that user now occupies room, replacing any prior row
// for the same user.
func (s *Store) InsertUser(ctx context.Context, room domain.RoomId, user domain.UserId) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	const q = `
		INSERT INTO room_users (room, "user")
		VALUES ($1, $2)
		ON CONFLICT ("user") DO UPDATE SET room = EXCLUDED.room`
	_, err := s.client.conn.Exec(ctx, q, int32(room), user)
	if err != nil {
		return fmt.Errorf("%w: insert user: %v", domain.ErrPersist, err)
	}
	return nil
}

// DeleteUser removes user's room-occupancy row, if any. The returned count
// is 0 when the user had no row to delete.
func (s *Store) DeleteUser(ctx context.Context, user domain.UserId) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tag, err := s.client.conn.Exec(ctx, `DELETE FROM room_users WHERE "user" = $1`, user)
	if err != nil {
		return 0, fmt.Errorf("%w: delete user: %v", domain.ErrPersist, err)
	}
	return tag.RowsAffected(), nil
}

// RoomOfUser reports the room user currently occupies, if any.
func (s *Store) RoomOfUser(ctx context.Context, user domain.UserId) (domain.RoomId, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var room int32
	err := s.client.conn.QueryRow(ctx, `SELECT room FROM room_users WHERE "user" = $1`, user).Scan(&room)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("%w: room lookup: %v", domain.ErrPersist, err)
	}
	return domain.RoomId(room), true, nil
}
