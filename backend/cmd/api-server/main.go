package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/upb/onboarding-platform/backend/app"
	"github.com/upb/onboarding-platform/backend/config"
	"github.com/upb/onboarding-platform/backend/internal/observability"
	"github.com/upb/onboarding-platform/backend/routes"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	env, err := config.LoadEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load environment: %v\n", err)
		stop()
		os.Exit(1)
	}

	code := run(ctx, env, os.Stderr)
	stop()
	os.Exit(code)
}

// run validates the environment, wires dependencies and serves until ctx is
// cancelled. It returns the process exit code.
func run(ctx context.Context, env config.Env, stderr io.Writer) int {
	settings, err := config.Load(env)
	if err != nil {
		var cfgErr *config.ConfigurationError
		if errors.As(err, &cfgErr) {
			fmt.Fprint(stderr, cfgErr.Report())
		} else {
			fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		}
		return 1
	}

	logger, err := observability.NewLogger(settings.Observability)
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting api server",
		zap.String("environment", settings.Environment),
		zap.String("address", settings.Server.Address()),
		zap.String("frontend_url", settings.Server.FrontendURL),
		zap.Bool("huggingface_configured", settings.HuggingFace.Configured),
		zap.Duration("rate_limit_window", settings.RateLimit.Window()),
		zap.Int("rate_limit_max_requests", settings.RateLimit.MaxRequests))
	if !settings.HuggingFace.Configured {
		logger.Warn("HUGGINGFACE_API_TOKEN not set, inference features are unavailable")
	}
	if settings.Database.Enabled() {
		logger.Info("using database rate limit store", zap.String("database", settings.Database.LogString()))
	}

	deps, err := app.NewDependencies(ctx, settings, logger)
	if err != nil {
		logger.Error("failed to initialize dependencies", zap.Error(err))
		return 1
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), settings.Server.ShutdownTimeout)
		defer cancel()
		if err := deps.Close(closeCtx); err != nil {
			logger.Error("failed to close dependencies", zap.Error(err))
		}
	}()

	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	deps.Start(workerCtx)

	srv := &http.Server{
		Addr:              settings.Server.Address(),
		Handler:           routes.SetupRoutes(deps),
		ReadTimeout:       settings.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      settings.Server.WriteTimeout,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		logger.Error("failed to listen", zap.String("address", srv.Addr), zap.Error(err))
		return 1
	}

	if err := serve(ctx, srv, ln, settings.Server.ShutdownTimeout, logger); err != nil {
		logger.Error("server error", zap.Error(err))
		return 1
	}

	logger.Info("server stopped")
	return 0
}

// serve runs srv on ln until ctx is done, then shuts it down gracefully
// within shutdownTimeout.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, shutdownTimeout time.Duration, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("address", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return <-errCh
}
