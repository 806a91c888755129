package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/onboarding-platform/backend/services/ratelimit"
	"go.uber.org/zap"
)

// MockLimiter is a mock implementation of ratelimit.Limiter
type MockLimiter struct {
	mock.Mock
}

func (m *MockLimiter) Allow(ctx context.Context, key string) (*ratelimit.Decision, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ratelimit.Decision), args.Error(1)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimit(t *testing.T) {
	logger := zap.NewNop()
	resetAt := time.Now().Add(10 * time.Minute).Truncate(time.Second)

	t.Run("allowed request passes with headers", func(t *testing.T) {
		limiter := new(MockLimiter)
		limiter.On("Allow", mock.Anything, "ip:192.0.2.10").
			Return(&ratelimit.Decision{Allowed: true, Limit: 100, Remaining: 99, ResetAt: resetAt}, nil)

		handler := RateLimit(limiter, logger, nil)(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
		req.RemoteAddr = "192.0.2.10:54321"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "100", w.Header().Get(HeaderRateLimitLimit))
		assert.Equal(t, "99", w.Header().Get(HeaderRateLimitRemaining))
		assert.Equal(t, strconv.FormatInt(resetAt.Unix(), 10), w.Header().Get(HeaderRateLimitReset))
		limiter.AssertExpectations(t)
	})

	t.Run("rejected request gets 429", func(t *testing.T) {
		limiter := new(MockLimiter)
		limiter.On("Allow", mock.Anything, "ip:192.0.2.10").
			Return(&ratelimit.Decision{Allowed: false, Limit: 100, Remaining: 0, ResetAt: resetAt}, nil)

		handler := RateLimit(limiter, logger, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
		req.RemoteAddr = "192.0.2.10:54321"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "0", w.Header().Get(HeaderRateLimitRemaining))
		assert.NotEmpty(t, w.Header().Get(HeaderRetryAfter))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "rate_limit_exceeded", body["error"])
	})

	t.Run("unlimited decision sets no headers", func(t *testing.T) {
		limiter := new(MockLimiter)
		limiter.On("Allow", mock.Anything, mock.Anything).Return(&ratelimit.Decision{Allowed: true}, nil)

		handler := RateLimit(limiter, logger, nil)(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get(HeaderRateLimitLimit))
	})

	t.Run("limiter error fails open", func(t *testing.T) {
		limiter := new(MockLimiter)
		limiter.On("Allow", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

		handler := RateLimit(limiter, logger, nil)(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("works with the memory limiter", func(t *testing.T) {
		limiter := ratelimit.NewMemoryLimiter(ratelimit.Policy{Window: time.Minute, MaxRequests: 2}, logger)
		handler := RateLimit(limiter, logger, nil)(okHandler())

		codes := make([]int, 0, 3)
		for i := 0; i < 3; i++ {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
			req.RemoteAddr = "198.51.100.7:1000"
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			codes = append(codes, w.Code)
		}

		assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	})
}

func TestScopeKey(t *testing.T) {
	tests := []struct {
		remoteAddr string
		want       string
	}{
		{"192.0.2.1:1234", "ip:192.0.2.1"},
		{"[2001:db8::1]:443", "ip:2001:db8::1"},
		{"192.0.2.1", "ip:192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.remoteAddr, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			assert.Equal(t, tt.want, ScopeKey(req))
		})
	}
}
