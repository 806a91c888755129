package handlers

import (
	"net/http"

	"github.com/upb/onboarding-platform/backend/config"
	"github.com/upb/onboarding-platform/backend/utils"
)

// Version is the API version reported by the status endpoint
const Version = "0.1.0"

// StatusResponse describes the running service. It never includes secrets.
type StatusResponse struct {
	Version     string          `json:"version"`
	Environment string          `json:"environment"`
	Features    map[string]bool `json:"features"`
	RateLimit   RateLimitStatus `json:"rate_limit"`
}

// RateLimitStatus is the public view of the rate limit policy
type RateLimitStatus struct {
	WindowMillis int    `json:"window_ms"`
	MaxRequests  int    `json:"max_requests"`
	Store        string `json:"store"`
}

// StatusHandler returns application status information
func StatusHandler(settings config.Settings) http.HandlerFunc {
	store := "memory"
	if settings.Database.Enabled() {
		store = "postgres"
	}

	response := StatusResponse{
		Version:     Version,
		Environment: settings.Environment,
		Features: map[string]bool{
			"huggingface": settings.HuggingFace.Configured,
			"auth":        settings.Supabase.JWTSecret != "",
			"metrics":     settings.Observability.MetricsEnabled,
		},
		RateLimit: RateLimitStatus{
			WindowMillis: settings.RateLimit.WindowMillis,
			MaxRequests:  settings.RateLimit.MaxRequests,
			Store:        store,
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteOK(w, response)
	}
}
