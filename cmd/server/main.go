package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/kushch-a/car-service-crm/internal/api"
	"github.com/kushch-a/car-service-crm/internal/config"
	"github.com/kushch-a/car-service-crm/internal/database"
	"github.com/kushch-a/car-service-crm/internal/middleware"
	"github.com/kushch-a/car-service-crm/pkg/jwt"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	// Initialize database connection
	db, err := database.Open(ctx, database.Config{
		Driver:       cfg.Database.Driver,
		URL:          cfg.Database.URL,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	})
	if err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Migrate(ctx); err != nil {
		slog.Error("failed to migrate database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("connected to database", slog.String("driver", db.Driver()))

	// Development runs get a fresh key pair on first start
	if cfg.IsDevelopment() {
		if err := ensureKeyPair(cfg.JWT.PrivateKeyPath, cfg.JWT.PublicKeyPath); err != nil {
			slog.Error("failed to generate JWT keys", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// Initialize JWT service
	jwtService, err := jwt.NewService(jwt.Config{
		PrivateKeyPath: cfg.JWT.PrivateKeyPath,
		PublicKeyPath:  cfg.JWT.PublicKeyPath,
		Issuer:         cfg.JWT.Issuer,
		ExpirationMins: cfg.JWT.ExpirationMins,
	})
	if err != nil {
		slog.Error("failed to initialize JWT service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Request governance state lives for the life of the process
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Requests:          cfg.RateLimit.Requests,
		Window:            cfg.RateLimit.Window,
		IdleTTL:           cfg.RateLimit.IdleTTL,
		Cleanup:           cfg.RateLimit.Cleanup,
		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
	})
	defer rateLimiter.Stop()

	idempotencyGuard := middleware.NewIdempotencyGuard(middleware.IdempotencyConfig{
		TTL:        cfg.Idempotency.TTL,
		Cleanup:    cfg.Idempotency.Cleanup,
		MaxEntries: cfg.Idempotency.MaxEntries,
	})
	defer idempotencyGuard.Stop()

	router := api.NewRouter(api.Config{
		DB:             db,
		JWT:            jwtService,
		RateLimiter:    rateLimiter,
		Idempotency:    idempotencyGuard,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	// Bootstrap admin account
	if _, err := router.Auth().EnsureAdmin(ctx,
		cfg.Bootstrap.AdminUsername,
		cfg.Bootstrap.AdminPassword,
		cfg.Bootstrap.AdminEmail,
	); err != nil {
		slog.Error("failed to create bootstrap admin", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	slog.Info("server exited")
}

// ensureKeyPair writes a new RSA key pair when the private key is missing
func ensureKeyPair(privateKeyPath, publicKeyPath string) error {
	if _, err := os.Stat(privateKeyPath); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(privateKeyPath), 0o700); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(publicKeyPath), 0o755); err != nil {
		return err
	}
	if err := jwt.GenerateKeyPair(privateKeyPath, publicKeyPath); err != nil {
		return err
	}

	slog.Warn("generated development JWT key pair", slog.String("path", privateKeyPath))
	return nil
}
