// Package app provides the top-level application lifecycle management for
// the room relay: wiring the Redis and PostgreSQL backends and running the
// WebSocket Acceptor until shutdown is requested.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"roomrelay/internal/config"
	"roomrelay/internal/server"
)

// App is the root application object. It owns the configuration, logger, and
// a list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	addr    string
	logger  *slog.Logger
	closers []func()
}

// New creates a new App bound to addr, the listen address the Acceptor will
// serve on.
func New(cfg *config.Config, addr string, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		addr:   addr,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires the Redis and PostgreSQL dependencies, starts the Acceptor, and
// blocks until ctx is cancelled or the Acceptor fails. It registers the
// dependencies' cleanup function; Close runs it.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("addr", a.addr),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	acceptor := server.NewAcceptor(a.addr, deps.Publisher, deps.Store, deps.SubFactory, a.logger)
	return acceptor.Run(ctx)
}

// Close tears down all resources in reverse registration order. It is safe
// to call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
