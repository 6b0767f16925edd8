package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"

	"github.com/Yuqi1124/TownRecord/internal/api"
	"github.com/Yuqi1124/TownRecord/internal/factory"
)

func main() {
	// A missing .env is fine; the environment may already be set
	_ = godotenv.Load()

	cfg := factory.DefaultConfig()
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(2)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// Create application factory
	app, err := factory.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	created, err := app.CreateDefaultTown(context.Background(), cfg.DefaultTownName)
	if err != nil {
		logger.Error("failed to create default town", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if created != nil {
		logger.Info("default town ready",
			slog.String("town", string(created.Controller.ID())),
			slog.String("update_password", created.Password),
		)
	}

	// Create server
	server := api.NewServer(app.Router(), cfg.ServerConfig(), logger)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started", slog.String("addr", server.Addr()))

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		// Close live connections first; http.Server.Shutdown does not wait for hijacked ones
		if err := app.Registry.Shutdown(context.Background()); err != nil {
			logger.Warn("failed to disconnect towns", slog.String("error", err.Error()))
		}
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}
