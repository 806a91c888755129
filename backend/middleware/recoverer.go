package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/upb/onboarding-platform/backend/internal/observability"
	"github.com/upb/onboarding-platform/backend/utils"
	"go.uber.org/zap"
)

// Recoverer turns a handler panic into a logged JSON 500. Like chi's
// Recoverer it re-panics http.ErrAbortHandler so the server aborts the
// response.
func Recoverer(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				observability.LoggerFromContext(r.Context(), logger).Error("panic recovered",
					zap.Any("panic", rec),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.ByteString("stack", debug.Stack()))

				if r.Header.Get("Connection") != "Upgrade" {
					_ = utils.WriteInternalServerError(w, "")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
