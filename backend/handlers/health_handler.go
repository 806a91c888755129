package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/onboarding-platform/backend/config"
	"github.com/upb/onboarding-platform/backend/internal/observability"
	"github.com/upb/onboarding-platform/backend/utils"
	"go.uber.org/zap"
)

// Check results reported by the readiness endpoint
const (
	CheckHealthy       = "healthy"
	CheckUnhealthy     = "unhealthy"
	CheckConfigured    = "configured"
	CheckNotConfigured = "not_configured"
)

// HealthChecker is implemented by dependencies that can report their health
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db       HealthChecker
	settings config.Settings
	logger   *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. db may be nil when no
// database is configured.
func NewHealthHandler(db HealthChecker, settings config.Settings, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:       db,
		settings: settings,
		logger:   logger,
	}
}

// HandleHealth handles GET /healthz
// Liveness check - always returns 200 if the process is serving
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    CheckHealthy,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	_ = utils.WriteOK(w, response)
}

// HandleReadiness handles GET /readyz
// Readiness check - verifies the database when one is configured and
// reports which external services are configured.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	logger := observability.LoggerFromContext(ctx, h.logger)

	checks := map[string]string{
		"supabase":    CheckConfigured,
		"huggingface": CheckNotConfigured,
		"database":    CheckNotConfigured,
	}
	if h.settings.HuggingFace.Configured {
		checks["huggingface"] = CheckConfigured
	}

	allHealthy := true
	if h.db != nil {
		if err := h.db.HealthCheck(ctx); err != nil {
			logger.Warn("database health check failed", zap.Error(err))
			checks["database"] = CheckUnhealthy
			allHealthy = false
		} else {
			checks["database"] = CheckHealthy
		}
	}

	response := HealthResponse{
		Status:    CheckHealthy,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	var err error
	if allHealthy {
		err = utils.WriteOK(w, response)
	} else {
		response.Status = CheckUnhealthy
		err = utils.WriteServiceUnavailable(w, response)
	}
	if err != nil {
		logger.Error("failed to write readiness response", zap.Error(err))
	}
}
