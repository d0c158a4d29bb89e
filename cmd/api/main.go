// Command api serves theme discovery and interview simulation over HTTP.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/formbricks/insights/internal/config"
	"github.com/formbricks/insights/internal/observability"
)

const shutdownTimeout = 30 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)

		return 1
	}

	observability.SetupLogging(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	if err := cfg.ValidateServer(); err != nil {
		slog.Error("Invalid server configuration", "error", err)

		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)

		return 1
	}

	code := 0

	if err := app.Run(ctx); err != nil {
		slog.Error("Server failed", "error", err)

		code = 1
	}

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.Shutdown(shutdownCtx); err != nil {
		slog.Error("Shutdown failed", "error", err)

		code = 1
	}

	slog.Info("Server exited")

	return code
}
