package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/upb/onboarding-platform/backend/auth"
	"github.com/upb/onboarding-platform/backend/config"
	"github.com/upb/onboarding-platform/backend/internal/observability"
	"github.com/upb/onboarding-platform/backend/middleware"
	"github.com/upb/onboarding-platform/backend/repositories/postgres"
	"github.com/upb/onboarding-platform/backend/services/ratelimit"
	"go.uber.org/zap"
)

// Cleanup cadence for the rate limit stores
const (
	sweepInterval    = time.Minute
	cleanupInterval  = time.Hour
	cleanupRetention = 24 * time.Hour
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Settings config.Settings
	DB       *postgres.DB // nil when DATABASE_URL is not set
	Logger   *zap.Logger

	// Observability
	Metrics        *observability.Metrics
	MetricsHandler http.Handler // nil when metrics are disabled

	// Services
	Limiter        ratelimit.Limiter
	AuthMiddleware *middleware.AuthMiddleware

	// Background workers started by Start
	workers []func(ctx context.Context)
	running sync.WaitGroup
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, settings config.Settings, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Settings: settings,
		Logger:   logger,
	}

	if err := deps.initMetrics(settings); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	if err := deps.initDatabase(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initRateLimiter(settings)
	deps.initAuth(settings)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

func (d *Dependencies) initMetrics(settings config.Settings) error {
	if !settings.Observability.MetricsEnabled {
		d.Logger.Info("metrics disabled")
		return nil
	}
	metrics, handler, err := observability.NewMetrics()
	if err != nil {
		return err
	}
	d.Metrics = metrics
	d.MetricsHandler = handler
	return nil
}

// initDatabase opens the shared rate limit store when DATABASE_URL is set
func (d *Dependencies) initDatabase(ctx context.Context, settings config.Settings) error {
	if !settings.Database.Enabled() {
		d.Logger.Info("no database configured, rate limits are kept in memory")
		return nil
	}

	db, err := postgres.NewDB(ctx, settings.Database, d.Logger)
	if err != nil {
		return err
	}
	if err := db.InitSchema(ctx); err != nil {
		_ = db.Close()
		return err
	}

	d.DB = db
	return nil
}

func (d *Dependencies) initRateLimiter(settings config.Settings) {
	policy := ratelimit.PolicyFromSettings(settings.RateLimit)
	if !policy.Enabled() {
		d.Logger.Warn("rate limiting disabled",
			zap.Int("window_ms", settings.RateLimit.WindowMillis),
			zap.Int("max_requests", settings.RateLimit.MaxRequests))
	}

	if d.DB != nil {
		limiter := ratelimit.NewPostgresLimiter(d.DB.DB, policy, d.Logger)
		d.Limiter = limiter
		d.workers = append(d.workers, func(ctx context.Context) {
			limiter.StartCleanupWorker(ctx, cleanupInterval, maxDuration(cleanupRetention, policy.Window))
		})
		return
	}

	limiter := ratelimit.NewMemoryLimiter(policy, d.Logger)
	d.Limiter = limiter
	d.workers = append(d.workers, func(ctx context.Context) {
		limiter.StartSweeper(ctx, sweepInterval)
	})
}

func (d *Dependencies) initAuth(settings config.Settings) {
	if settings.Supabase.JWTSecret == "" {
		d.Logger.Warn("SUPABASE_JWT_SECRET not set, authenticated endpoints disabled")
		d.AuthMiddleware = middleware.NewAuthMiddleware(auth.DisabledValidator{}, d.Logger)
		return
	}
	d.AuthMiddleware = middleware.NewAuthMiddleware(auth.NewSupabaseValidator(settings.Supabase), d.Logger)
	d.Logger.Info("token authentication enabled", zap.String("issuer", auth.Issuer(settings.Supabase.URL)))
}

// Start launches background workers. They stop when ctx is done; cancel
// ctx before calling Close.
func (d *Dependencies) Start(ctx context.Context) {
	for _, worker := range d.workers {
		d.running.Add(1)
		go func(run func(context.Context)) {
			defer d.running.Done()
			run(ctx)
		}(worker)
	}
}

// Close waits for background workers to stop, bounded by ctx, then closes
// the database.
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	stopped := make(chan struct{})
	go func() {
		d.running.Wait()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("background workers did not stop: %w", ctx.Err()))
	}

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	_ = d.Logger.Sync()

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
