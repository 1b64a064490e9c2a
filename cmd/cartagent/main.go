// Cart Agent - Exposes the commerce session engines (cart, promo, wishlist)
// as MCP tools for shopping agents. Designed for Cloud Run deployment.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cartsync/internal/api"
	"cartsync/internal/cart"
	"cartsync/internal/config"
	"cartsync/internal/handler"
	"cartsync/internal/identity"
	"cartsync/internal/middleware"
	"cartsync/internal/storage"
	"cartsync/internal/wishlist"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Initialize structured logger
	logger := initLogger()

	// Load configuration
	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.String("base_url", cfg.Store.BaseURL),
		slog.String("state_path", cfg.StatePath),
	)

	// Durable fallback store: SQLite when a path is configured, otherwise
	// in-memory state that lasts for the process lifetime.
	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening state store: %w", err)
	}
	defer store.Close()

	// Identity, remote client, and the engines
	ids := identity.NewManager(store)
	remote, err := api.New(api.Config{
		BaseURL:          cfg.Store.BaseURL,
		Identity:         ids,
		MinServerVersion: cfg.Store.MinServerVersion,
	})
	if err != nil {
		return fmt.Errorf("creating cart service client: %w", err)
	}

	carts := cart.NewSyncEngine(remote, store, cfg.Pricing(), logger)
	wishes := wishlist.NewEngine(remote, ids, logger)
	merges := cart.NewMergeResolver(remote, ids, store, carts, logger)

	// Warm the cart state; a down service just means degraded mode.
	if _, err := carts.Load(ctx); err != nil {
		logger.Warn("initial cart load failed", slog.String("error", err.Error()))
	}

	// Setup routes
	h := handler.New(carts, wishes, merges, ids, logger)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// Apply middleware chain: recovery → request id → logging → handler.
	// Recovery must be outermost to catch panics from logging middleware.
	httpHandler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logging(logger),
	)(mux)

	// Create HTTP server with timeouts
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Channel for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Channel for server errors
	serverErr := make(chan error, 1)

	go func() {
		logger.Info("server starting",
			slog.String("port", cfg.Port),
			slog.String("addr", server.Addr),
		)
		serverErr <- server.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give outstanding requests time to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// openStore creates the local fallback store from configuration.
func openStore(cfg *config.Config) (storage.Store, error) {
	if cfg.StatePath == "" {
		return storage.NewMemory(), nil
	}
	return storage.OpenSQLite(cfg.StatePath)
}

// initLogger creates a structured logger configured for the environment.
// Production uses JSON format for GCP Cloud Logging compatibility.
// Development uses text format for readability.
func initLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	if os.Getenv("ENVIRONMENT") == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
