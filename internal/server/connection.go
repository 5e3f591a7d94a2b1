// Package server implements the network-facing half of the relay: accepting
// WebSocket connections and running each one's Connection Handler, Reader,
// and Writer tasks alongside a dedicated protocol.Engine and roomsub.Subscriber.
package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"roomrelay/internal/domain"
	"roomrelay/internal/protocol"
	"roomrelay/internal/queue"
	"roomrelay/internal/roomsub"
)

// wsConn is the subset of *websocket.Conn the Connection Handler depends on.
// Narrowing it to an interface lets tests exercise the handler with an
// in-memory double instead of a real socket.
type wsConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Connection is the Connection Handler for a single accepted peer. It owns
// the socket and the per-connection OutboundQ/RoomChangeQ, and runs three
// concurrent tasks — Reader (inline), the Room Subscriber, and the Writer —
// tearing all three down together the moment any one of them stops.
type Connection struct {
	conn       wsConn
	publisher  domain.Publisher
	store      domain.Store
	subFactory domain.SubscriptionFactory
	logger     *slog.Logger
}

// NewConnection builds a Connection Handler around an already-upgraded
// socket and the relay's process-wide collaborators.
func NewConnection(conn wsConn, publisher domain.Publisher, store domain.Store, subFactory domain.SubscriptionFactory, logger *slog.Logger) *Connection {
	return &Connection{
		conn:       conn,
		publisher:  publisher,
		store:      store,
		subFactory: subFactory,
		logger:     logger,
	}
}

// Run drives the connection to completion: it blocks until the peer
// disconnects, a fatal protocol error occurs, or ctx is cancelled. Every
// task's termination tears down the other two — there is no independent
// lifetime past the first failure, matching the single-room, single-socket
// invariant the protocol layer assumes.
func (c *Connection) Run(ctx context.Context) {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	roomChange := queue.New[roomsub.ChangeRequest]()
	outbound := queue.New[[]byte]()

	sub := c.subFactory.NewSubscription(connCtx)
	subscriber := roomsub.New(sub, roomChange, outbound, c.logger)
	engine := protocol.New(c.publisher, c.store, roomChange, outbound, c.logger)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		defer cancel()
		if err := subscriber.Run(connCtx); err != nil {
			c.logger.Warn("server: room subscriber stopped", slog.String("error", err.Error()))
		}
	}()

	go func() {
		defer wg.Done()
		defer cancel()
		c.writeLoop(outbound)
	}()

	go func() {
		<-connCtx.Done()
		_ = c.conn.Close()
		outbound.Close()
		roomChange.Close()
	}()

	c.readLoop(connCtx, engine)
	cancel()
	wg.Wait()
}
