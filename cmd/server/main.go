package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"mkulima/internal/logger"
	"mkulima/internal/server"
)

func main() {
	slog.SetDefault(logger.New(os.Stdout,
		os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT")))

	cfg, err := server.LoadConfigFromEnv()
	if err != nil {
		slog.Error("Invalid configuration", "error", err.Error())
		os.Exit(1)
	}

	app, err := server.New(cfg)
	if err != nil {
		slog.Error("Failed to start", "error", err.Error())
		os.Exit(1)
	}

	srv := app.HTTPServer()

	go func() {
		slog.Info("Server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Forced shutdown", "error", err.Error())
	}
	if err := app.Close(); err != nil {
		slog.Error("Failed to close resources", "error", err.Error())
	}

	slog.Info("Server stopped")
}
