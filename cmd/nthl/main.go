package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/vietdungregister/nthl/internal/api"
	"github.com/vietdungregister/nthl/internal/catalog"
	"github.com/vietdungregister/nthl/internal/config"
	"github.com/vietdungregister/nthl/internal/librarian"
	"github.com/vietdungregister/nthl/internal/logger"
	"github.com/vietdungregister/nthl/internal/models"
	"github.com/vietdungregister/nthl/internal/observability"
	"github.com/vietdungregister/nthl/internal/ratelimit"
	"github.com/vietdungregister/nthl/internal/storage"
	"github.com/vietdungregister/nthl/internal/version"
)

var configFile = flag.String("config", "", "Path to configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ver := version.GetInfo()

	log, closer, err := logger.Setup(cfg.Logging, ver)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}
	slog.SetDefault(log)

	otelProvider, err := observability.Setup(cfg.Metrics, cfg.Observability, ver)
	if err != nil {
		slog.Error("Failed to initialize observability", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown observability", "error", err)
		}
	}()

	storageInstance, err := storage.NewStorage(context.Background(), cfg.Storage)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer storageInstance.Close()

	// Wrap storage with instrumentation if metrics are enabled
	var activeStorage storage.Storage = storageInstance
	if cfg.Metrics.Enabled {
		instrumented, err := observability.NewInstrumentedStorage(storageInstance)
		if err != nil {
			slog.Error("Failed to create instrumented storage", "error", err)
			os.Exit(1)
		}
		activeStorage = instrumented
	}

	if err := seedAdminUser(context.Background(), activeStorage); err != nil {
		slog.Error("Failed to seed admin user", "error", err)
		os.Exit(1)
	}

	if cfg.Librarian.Enabled && cfg.Librarian.APIKey == "" {
		slog.Warn("Librarian is enabled but no OpenAI API key is set; AI search will fail upstream")
	}

	catalogService := catalog.NewService(activeStorage)
	librarianService := librarian.NewService(cfg.Librarian, catalogService, slog.Default())

	var searchLimiter ratelimit.Limiter
	if cfg.RateLimits.Search.Enabled {
		searchLimiter = ratelimit.NewWindowLimiter(
			cfg.RateLimits.Search.MaxPerKey,
			cfg.RateLimits.Search.MaxGlobal,
			cfg.RateLimits.Search.Window,
		)
		defer searchLimiter.Close()
	}
	var commentLimiter ratelimit.Limiter
	if cfg.RateLimits.Comments.Enabled {
		commentLimiter = ratelimit.NewWindowLimiter(
			cfg.RateLimits.Comments.MaxPerKey,
			cfg.RateLimits.Comments.MaxGlobal,
			cfg.RateLimits.Comments.Window,
		)
		defer commentLimiter.Close()
	}

	sessions := api.NewSessionStore(cfg.Security.SessionTTL)
	handlers := api.NewHandlers(activeStorage, librarianService, searchLimiter, sessions, cfg, ver)

	routeOpts := []api.RouteOption{}
	if cfg.Observability.Tracing.Enabled {
		routeOpts = append(routeOpts, api.WithOTelMiddleware(cfg.Observability.ServiceName))
	}

	router := api.SetupRoutes(handlers, cfg, commentLimiter, routeOpts...)

	// Start metrics server if enabled
	var metricsServer *observability.MetricsServer
	if cfg.Metrics.Enabled {
		metricsServer = observability.NewMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path, otelProvider)
		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("Starting server", "addr", server.Addr, "version", ver.Version)

		var err error
		if cfg.Server.TLSEnabled {
			if cfg.Server.TLSCertFile == "" || cfg.Server.TLSKeyFile == "" {
				slog.Error("TLS is enabled but cert file or key file is not specified")
				os.Exit(1)
			}
			slog.Info("Starting HTTPS server with TLS")
			err = server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			slog.Info("Starting HTTP server")
			err = server.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			slog.Error("Metrics server forced to shutdown", "error", err)
		}
	}

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server shutdown complete")
}

// seedAdminUser creates the admin account from ADMIN_EMAIL/ADMIN_PASSWORD
// if it does not exist yet. It is a no-op when ADMIN_PASSWORD is unset;
// full content seeding lives in cmd/seed.
func seedAdminUser(ctx context.Context, store storage.Storage) error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return nil
	}

	if _, err := store.GetAdminUserByEmail(ctx, email); err == nil {
		// Already seeded - idempotent.
		return nil
	}

	user := &models.AdminUser{
		ID:        uuid.New().String(),
		Email:     email,
		CreatedAt: time.Now(),
	}
	if err := user.SetPassword(password); err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	if err := store.CreateAdminUser(ctx, user); err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	slog.Info("Admin user seeded", "email", email)
	return nil
}
