// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

// Package guard wires the scanning pipeline into the HTTP service: settings,
// secret resolution, the service container, the request orchestrator, the
// decision cache, and the API handlers.
package guard

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"clawguard/platform/audit"
)

// shutdownTimeout bounds the drain of in-flight requests on shutdown.
const shutdownTimeout = 10 * time.Second

// App is the assembled service: container, router, and HTTP server.
type App struct {
	settings  Settings
	container *Container
	server    *http.Server
	ready     atomic.Bool
	logger    *log.Logger
}

// NewApp builds the container and the full route table. The returned App is
// not yet serving; call Run.
func NewApp(ctx context.Context, settings Settings) (*App, error) {
	lg := log.Default()

	container, err := NewContainer(ctx, settings, lg)
	if err != nil {
		return nil, err
	}

	app := &App{
		settings:  settings,
		container: container,
		logger:    lg,
	}

	r := mux.NewRouter()
	r.Use(RequestIDMiddleware)

	auth := NewAdminAuth(settings.AuthSecret, lg)
	NewHandler(container, auth, &app.ready, lg).RegisterRoutes(r)
	audit.NewHandler(container.Audit, lg).RegisterRoutes(r)
	NewDashboardHandler(container, lg).RegisterRoutes(r)
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // Configure for production
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	app.server = &http.Server{
		Addr:         settings.Addr(),
		Handler:      corsHandler.Handler(r),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return app, nil
}

// Run serves until ctx is canceled or the listener fails, then drains
// in-flight requests and closes the backing stores.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.ListenAndServe()
	}()

	a.ready.Store(true)
	a.logger.Printf("[App] ClawGuard %s listening on %s (auth=%t cache=%t)",
		Version, a.settings.Addr(), a.settings.AuthSecret != "", a.container.Cache != nil)

	var runErr error
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	case <-ctx.Done():
		a.logger.Printf("[App] shutdown signal received, draining requests")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			runErr = err
		}
	}

	a.ready.Store(false)
	if err := a.container.Close(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// Run is the exported entry point for the guard service. It loads settings,
// resolving AWS Secrets Manager references when any are configured, builds
// the app, and serves until SIGINT or SIGTERM.
func Run() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var resolver SecretsManager
	for _, key := range []string{"CLAWGUARD_DATABASE_URL", "CLAWGUARD_REDIS_URL", "CLAWGUARD_AUTH_SECRET"} {
		if IsSecretRef(os.Getenv(key)) {
			sm, err := NewAWSSecretsManager(ctx)
			if err != nil {
				log.Fatalf("Failed to initialize secrets manager: %v", err)
			}
			resolver = sm
			break
		}
	}

	settings, err := LoadSettings(ctx, resolver)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}

	app, err := NewApp(ctx, settings)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	if err := app.Run(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
