// Command roomrelay is the entry point for the room chat relay. It loads
// configuration from the environment, validates it, wires dependencies, sets
// up signal handling, and serves WebSocket connections until shutdown.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"roomrelay/internal/app"
	"roomrelay/internal/config"
	"roomrelay/internal/logging"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [listen-addr]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	addr := "0.0.0.0:8080"
	if flag.NArg() > 0 {
		addr = flag.Arg(0)
	}

	logger := logging.New(slog.LevelInfo)
	slog.SetDefault(logger)

	cfg := config.Load()

	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger = logging.New(level)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("room relay starting", slog.String("addr", addr))

	application := app.New(cfg, addr, logger)
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		if err == context.Canceled {
			logger.Info("room relay shut down gracefully")
		} else {
			logger.Error("room relay exited with error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("room relay stopped")
}
