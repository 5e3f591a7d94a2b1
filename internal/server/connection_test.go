package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomrelay/internal/domain"
	"roomrelay/internal/wire"
)

// fakeConn is a wsConn double. ReadMessage serves pre-queued frames in order,
// then blocks until Close is called, mirroring how a real socket read
// blocks until the peer or a local Close unblocks it.
type fakeConn struct {
	mu          sync.Mutex
	inbox       [][]byte
	idx         int
	closeCount  int
	closeSignal chan struct{}
	written     [][]byte
}

func newFakeConn(inbox ...[]byte) *fakeConn {
	return &fakeConn{inbox: inbox, closeSignal: make(chan struct{})}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	f.mu.Lock()
	if f.idx < len(f.inbox) {
		data := f.inbox[f.idx]
		f.idx++
		f.mu.Unlock()
		return websocket.BinaryMessage, data, nil
	}
	f.mu.Unlock()

	<-f.closeSignal
	return 0, nil, errors.New("fakeConn: closed")
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, data)
	return nil
}

func (f *fakeConn) SetWriteDeadline(t time.Time) error { return nil }

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeCount++
	select {
	case <-f.closeSignal:
	default:
		close(f.closeSignal)
	}
	return nil
}

func (f *fakeConn) consumedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.idx
}

func (f *fakeConn) writtenFrames() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.written))
	copy(out, f.written)
	return out
}

type noopPublisher struct{}

func (noopPublisher) Publish(ctx context.Context, room domain.RoomId, ev domain.Event) error {
	return nil
}

type noopStore struct{}

func (noopStore) InsertEvent(ctx context.Context, room domain.RoomId, user domain.UserId, username domain.Username, text string, ts domain.Timestamp, kindTag int16) error {
	return nil
}
func (noopStore) History(ctx context.Context, room domain.RoomId, limit int64, fetchBefore domain.Timestamp) ([]domain.PersistedEvent, error) {
	return nil, nil
}
func (noopStore) InsertUser(ctx context.Context, room domain.RoomId, user domain.UserId) error {
	return nil
}
func (noopStore) DeleteUser(ctx context.Context, user domain.UserId) (int64, error) { return 0, nil }
func (noopStore) RoomOfUser(ctx context.Context, user domain.UserId) (domain.RoomId, bool, error) {
	return 0, false, nil
}

type fakeRoomSubscription struct {
	out chan []byte
}

func (f *fakeRoomSubscription) Subscribe(ctx context.Context, room domain.RoomId) error { return nil }
func (f *fakeRoomSubscription) Messages() <-chan []byte                                 { return f.out }
func (f *fakeRoomSubscription) Close() error                                           { return nil }

type fakeSubscriptionFactory struct{}

func (fakeSubscriptionFactory) NewSubscription(ctx context.Context) domain.RoomSubscription {
	return &fakeRoomSubscription{out: make(chan []byte)}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestConnectionSurvivesMalformedFrameThenProcessesValidOne(t *testing.T) {
	valid, err := wire.Encode(domain.NewJoinRoom(domain.JoinRoom{Room: 1, User: uuid.New(), Username: "a", Ts: 1}))
	require.NoError(t, err)

	conn := newFakeConn([]byte("not msgpack"), valid)
	c := NewConnection(conn, noopPublisher{}, noopStore{}, fakeSubscriptionFactory{}, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	// Give the reader time to process both frames, then close the conn to
	// end the run the way a real disconnect would.
	time.Sleep(50 * time.Millisecond)
	conn.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Connection.Run never returned")
	}

	assert.GreaterOrEqual(t, conn.consumedCount(), 2, "both frames should have been consumed, not just the malformed one")
}

func TestConnectionDisconnectIsIdempotent(t *testing.T) {
	conn := newFakeConn()
	c := NewConnection(conn, noopPublisher{}, noopStore{}, fakeSubscriptionFactory{}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	conn.Close()
	conn.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Connection.Run never returned after cancellation")
	}

	assert.GreaterOrEqual(t, conn.closeCount, 1)
}
