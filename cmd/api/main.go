package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"konduktv_backend/internal/accounts"
	"konduktv_backend/internal/accounts/adapters"
	accountsvalidator "konduktv_backend/internal/accounts/validator"
	"konduktv_backend/internal/authgw"
	"konduktv_backend/internal/domains"
	"konduktv_backend/internal/email"
	"konduktv_backend/internal/events"
	apphttp "konduktv_backend/internal/http"
	"konduktv_backend/internal/http/router"
	"konduktv_backend/internal/notification"
	"konduktv_backend/platform/config"
	"konduktv_backend/platform/db"
	"konduktv_backend/platform/logger"
	"konduktv_backend/platform/ratelimit"
	"konduktv_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Hosted auth gateway
	identityGateway := authgw.New(cfg, log)

	// Cleanup rate counter: redis when configured, in-process otherwise
	counter, closeCounter := newCleanupCounter(cfg, log)
	if closeCounter != nil {
		defer closeCounter()
	}

	sender := newEmailSender(cfg, log)

	// Shared validator instance for dependency injection
	val := validator.New()
	if err := accountsvalidator.Register(val); err != nil {
		log.Error("failed to register validators", "error", err)
		panic("failed to register validators: " + err.Error())
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.New(sender, log)
	notificationModule.Subscribe(eventBus)

	domainsModule := domains.NewModule(pool, log, val)

	// The provisioning workflow spans both contexts; the adapter gives the
	// accounts module its tenant and membership stores without a direct
	// dependency on the domains internals.
	domainStore := adapters.NewDomainStore(domainsModule.Repository())
	accountsModule := accounts.NewModule(pool, identityGateway, domainStore, domainStore, counter, cfg, eventBus, log, val)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:         cfg,
		Logger:         log,
		Health:         db.NewPoolAdapter(pool),
		TokenRefresher: identityGateway,
		EventBus:       eventBus,
		Modules: []apphttp.Module{
			accountsModule,
			domainsModule,
		},
	}

	engine := router.New(app)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func newCleanupCounter(cfg *config.Config, log *logger.Logger) (ratelimit.Counter, func()) {
	if cfg.GetRedisURL() == "" {
		return ratelimit.NewMemoryCounter(cfg.GetCleanupWindow()), nil
	}

	counter, err := ratelimit.NewRedisCounter(cfg.GetRedisURL(), cfg.GetCleanupWindow())
	if err != nil {
		log.Warn("failed to connect to redis; falling back to in-memory rate counter", "error", err)
		return ratelimit.NewMemoryCounter(cfg.GetCleanupWindow()), nil
	}

	log.Info("redis rate counter initialized")
	return counter, func() {
		_ = counter.Close()
	}
}

func newEmailSender(cfg *config.Config, log *logger.Logger) email.Sender {
	if !cfg.GetEmailEnabled() {
		log.Warn("SMTP not configured; notification emails disabled")
		return email.NoopSender{}
	}
	return email.NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, lastErr)
}
