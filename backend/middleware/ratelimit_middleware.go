package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/upb/onboarding-platform/backend/internal/observability"
	"github.com/upb/onboarding-platform/backend/services/ratelimit"
	"github.com/upb/onboarding-platform/backend/utils"
	"go.uber.org/zap"
)

// Rate limit response headers
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
	HeaderRetryAfter         = "Retry-After"
)

var now = time.Now

// RateLimit throttles requests per client IP using limiter. Place it after
// chi's RealIP so RemoteAddr reflects the client, and mount it inline
// (chi's With) so rejections are recorded under the matched route. Limiter
// failures are logged and the request is let through.
func RateLimit(limiter ratelimit.Limiter, logger *zap.Logger, metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := ScopeKey(r)

			decision, err := limiter.Allow(ctx, key)
			if err != nil {
				observability.LoggerFromContext(ctx, logger).Error("rate limit check failed",
					zap.String("scope_key", key),
					zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			if decision.Limit > 0 {
				w.Header().Set(HeaderRateLimitLimit, strconv.Itoa(decision.Limit))
				w.Header().Set(HeaderRateLimitRemaining, strconv.Itoa(decision.Remaining))
				w.Header().Set(HeaderRateLimitReset, strconv.FormatInt(decision.ResetAt.Unix(), 10))
			}

			if !decision.Allowed {
				retryAfter := int64(decision.ResetAt.Sub(now()).Seconds()) + 1
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set(HeaderRetryAfter, strconv.FormatInt(retryAfter, 10))

				metrics.RecordRateLimited(ctx, routePattern(r))
				observability.LoggerFromContext(ctx, logger).Warn("rate limit exceeded",
					zap.String("scope_key", key),
					zap.Int("limit", decision.Limit))

				_ = utils.WriteTooManyRequests(w, "Too many requests, please try again later.", map[string]interface{}{
					"limit":    decision.Limit,
					"reset_at": decision.ResetAt.UTC(),
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ScopeKey returns the rate limit scope for a request: the client IP
func ScopeKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
