package routes

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/onboarding-platform/backend/app"
	"github.com/upb/onboarding-platform/backend/handlers"
	"github.com/upb/onboarding-platform/backend/middleware"
	"github.com/upb/onboarding-platform/backend/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID(deps.Logger))
	r.Use(chimw.RealIP)
	r.Use(middleware.AccessLog(deps.Logger, deps.Metrics))
	r.Use(middleware.Recoverer(deps.Logger))

	// CORS: only the configured frontend may call the API with credentials
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{allowedOrigin(deps.Settings.Server.FrontendURL)},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", middleware.HeaderRateLimitLimit, middleware.HeaderRateLimitRemaining, middleware.HeaderRateLimitReset, middleware.HeaderRetryAfter},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	var db handlers.HealthChecker
	if deps.DB != nil {
		db = deps.DB
	}
	health := handlers.NewHealthHandler(db, deps.Settings, deps.Logger)
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Inline so the limiter runs after routing and sees the full route pattern
		limited := r.With()
		if deps.Limiter != nil {
			limited = r.With(middleware.RateLimit(deps.Limiter, deps.Logger, deps.Metrics))
		}

		limited.Get("/status", handlers.StatusHandler(deps.Settings))
		limited.With(deps.AuthMiddleware.RequireAuth).Get("/me", handlers.GetCurrentUserHandler)
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})

	return r
}

// allowedOrigin reduces a frontend URL to the scheme://host[:port] form
// browsers send in the Origin header.
func allowedOrigin(frontendURL string) string {
	u, err := url.Parse(frontendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return frontendURL
	}
	return u.Scheme + "://" + u.Host
}
