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

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"zest/internal/browser"
	"zest/internal/cache"
	"zest/internal/config"
	"zest/internal/recipes"
	"zest/internal/spoonacular"
	"zest/internal/static"
	"zest/internal/templates"
)

const sweepEvery = time.Minute

func runServer(cfg *config.Config, addr string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	kv, err := cache.MakeCache(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("failed to create cache: %w", err)
	}
	defer closeCache(kv)

	client, err := spoonacular.NewClient(cfg.Spoonacular)
	if err != nil {
		return fmt.Errorf("failed to create recipe client: %w", err)
	}

	mux, sessions, err := newMux(cfg, client, kv)
	if err != nil {
		return err
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go sessions.Run(sweepCtx, sweepEvery)

	server := &http.Server{
		Addr:              addr,
		Handler:           WithMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	go func() {
		slog.Info("Serving Zest", "address", addr, "storage", cfg.Storage.Backend)
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-shutdown:
		slog.Info("Shutdown signal received", "signal", sig)
		stopSweep()
		return gracefulShutdown(server, sessions.Close)
	}
}

// newMux wires every route. It is shared with the end to end tests.
func newMux(cfg *config.Config, source browser.RecipeSource, kv cache.Cache) (*http.ServeMux, *browser.Sessions, error) {
	static.Init()
	if err := templates.Init(cfg, static.SiteAssetPath); err != nil {
		return nil, nil, fmt.Errorf("failed to load templates: %w", err)
	}

	sessions := browser.NewSessions(source, kv, cfg.Browser.PageSize, cfg.Browser.SessionTTL)

	mux := http.NewServeMux()
	static.Register(mux)
	recipes.NewHandler(cfg, sessions).Register(mux)

	ro := &readyOnce{}
	if r, ok := kv.(Readyable); ok {
		ro.Add(r)
	}
	mux.Handle("/ready", ro)
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux, sessions, nil
}

func gracefulShutdown(svr *http.Server, sessionsClose func()) error {
	// Give outstanding requests 25 seconds to complete (kubernetes has 30 second grace period)
	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	if err := svr.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown error", "error", err)
		if closeErr := svr.Close(); closeErr != nil {
			slog.Error("Server close error", "error", closeErr)
		}
		return err
	}

	done := make(chan struct{})
	go func() {
		sessionsClose()
		close(done)
	}()

	slog.Info("Waiting for recipe fetches to finish")

	select {
	case <-done:
		slog.Info("All browser sessions closed")
	case <-ctx.Done():
		slog.Warn("Timeout waiting for browser sessions to close")
		return ctx.Err()
	}
	return nil
}
