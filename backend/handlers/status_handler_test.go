package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/upb/onboarding-platform/backend/config"
)

func TestStatusHandler(t *testing.T) {
	settings := config.Build(config.Env{
		"SUPABASE_URL":              "https://abcd.supabase.co",
		"SUPABASE_ANON_KEY":         "anon-key",
		"SUPABASE_SERVICE_ROLE_KEY": "service-role-key",
		"SUPABASE_JWT_SECRET":       "jwt-secret",
		"HUGGINGFACE_API_TOKEN":     "hf_secret_token",
		"FRONTEND_URL":              "http://localhost:5173",
		"DATABASE_URL":              "postgres://app:pw@localhost/limits",
		"RATE_LIMIT_MAX_REQUESTS":   "25",
	})

	w := httptest.NewRecorder()
	StatusHandler(settings)(w, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	for _, secret := range []string{"anon-key", "service-role-key", "jwt-secret", "hf_secret_token", "pw@"} {
		assert.NotContains(t, body, secret)
	}

	data := decodeData(t, w)
	assert.Equal(t, Version, data["version"])
	assert.Equal(t, "development", data["environment"])

	features := data["features"].(map[string]interface{})
	assert.Equal(t, true, features["huggingface"])
	assert.Equal(t, true, features["auth"])

	rateLimit := data["rate_limit"].(map[string]interface{})
	assert.Equal(t, float64(900000), rateLimit["window_ms"])
	assert.Equal(t, float64(25), rateLimit["max_requests"])
	assert.Equal(t, "postgres", rateLimit["store"])
}
