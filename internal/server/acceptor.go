package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"roomrelay/internal/domain"
)

// Acceptor is the Acceptor component: it listens for incoming HTTP
// connections, upgrades each to a WebSocket, and spawns a Connection Handler
// for it. One Acceptor serves the whole process; every connection it
// accepts shares the same Publisher, Store, and SubscriptionFactory.
type Acceptor struct {
	addr       string
	publisher  domain.Publisher
	store      domain.Store
	subFactory domain.SubscriptionFactory
	logger     *slog.Logger

	upgrader websocket.Upgrader
	srv      *http.Server

	wg sync.WaitGroup
}

// NewAcceptor builds an Acceptor bound to addr. CORS is wide open by
// design: the relay has no notion of an origin whitelist, since any client
// capable of completing the wire handshake is a legitimate peer.
func NewAcceptor(addr string, publisher domain.Publisher, store domain.Store, subFactory domain.SubscriptionFactory, logger *slog.Logger) *Acceptor {
	return &Acceptor{
		addr:       addr,
		publisher:  publisher,
		store:      store,
		subFactory: subFactory,
		logger:     logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Run starts the listener and blocks until ctx is cancelled or the listener
// fails. On return, every in-flight connection has been signaled to close,
// but Run does not wait for their goroutines to exit — callers that need a
// drained shutdown should track connections externally.
func (a *Acceptor) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", a.handleUpgrade(ctx))

	a.srv = &http.Server{
		Addr:              a.addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server: listening", slog.String("addr", a.addr))
		if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server: listen: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.srv.Shutdown(shutCtx)
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}

// handleUpgrade upgrades each incoming request to a WebSocket and runs its
// Connection Handler in its own goroutine, scoped to ctx.
func (a *Acceptor) handleUpgrade(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := a.upgrader.Upgrade(w, r, nil)
		if err != nil {
			a.logger.Warn("server: upgrade failed", slog.String("error", err.Error()))
			return
		}

		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			c := NewConnection(conn, a.publisher, a.store, a.subFactory, a.logger)
			c.Run(ctx)
		}()
	}
}
