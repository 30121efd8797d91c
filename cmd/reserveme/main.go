package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/kirinyoku/reserveme/docs"
	"github.com/kirinyoku/reserveme/internal/app"
	"github.com/kirinyoku/reserveme/internal/config"
)

// @title ReserveMe API
// @version 1.0
// @description Table reservations with capacity-checked admission.
// @host localhost:8080
// @BasePath /
func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	cfg, err := config.New()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	level.Set(cfg.LogLevel)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(context.Background()); err != nil {
		logger.Error("application finished with error", "error", err)
		os.Exit(1)
	}
}
