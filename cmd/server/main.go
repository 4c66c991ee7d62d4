package main

import (
	"log/slog"
	"os"

	"booknest/internal/app"
	"booknest/internal/config"
	"booknest/internal/logger"
)

func main() {
	// Colored output until the configured level is known.
	slog.SetDefault(slog.New(logger.NewPrettyHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(logger.NewPrettyHandler(os.Stdout, &slog.HandlerOptions{
		Level: logger.ParseLevel(cfg.LogLevel),
	})))

	application, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}
