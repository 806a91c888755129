package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/upb/onboarding-platform/backend/internal/observability"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request ID in both directions
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLength = 128

// RequestID assigns every request an ID, reusing a sane inbound
// X-Request-ID when present. The ID is echoed in the response and attached
// to a request-scoped logger.
func RequestID(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" || len(requestID) > maxRequestIDLength {
				requestID = uuid.NewString()
			}

			w.Header().Set(RequestIDHeader, requestID)

			ctx := WithRequestID(r.Context(), requestID)
			ctx = observability.WithLogger(ctx, logger.With(zap.String("request_id", requestID)))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
