package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/upb/onboarding-platform/backend/auth"
	"github.com/upb/onboarding-platform/backend/internal/observability"
	"github.com/upb/onboarding-platform/backend/utils"
	"go.uber.org/zap"
)

// TokenValidator defines the interface for validating access tokens
type TokenValidator interface {
	// ValidateToken validates a token and returns its claims
	ValidateToken(ctx context.Context, token string) (*auth.Claims, error)
}

// AuthMiddleware provides authentication middleware functionality
type AuthMiddleware struct {
	validator TokenValidator
	logger    *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(validator TokenValidator, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		validator: validator,
		logger:    logger,
	}
}

// accessTokenCookieName is the cookie the frontend stores the Supabase
// session token in. The Authorization header takes precedence.
const accessTokenCookieName = "sb-access-token"

// RequireAuth is a middleware that requires a valid access token
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := observability.LoggerFromContext(ctx, m.logger)

		token := extractToken(r)
		if token == "" {
			logger.Warn("missing token")
			_ = utils.WriteUnauthorized(w, "Missing or invalid authorization")
			return
		}

		claims, err := m.validator.ValidateToken(ctx, token)
		if err != nil {
			logger.Warn("token validation failed", zap.Error(err))
			_ = utils.WriteUnauthorized(w, "Invalid or expired token")
			return
		}

		logger.Debug("authentication successful",
			zap.String("user_id", claims.UserID.String()),
			zap.String("email", claims.Email))

		next.ServeHTTP(w, r.WithContext(WithClaims(ctx, claims)))
	})
}

// extractToken extracts the token from the Authorization header ("Bearer TOKEN")
// or, failing that, the access token cookie.
func extractToken(r *http.Request) string {
	if token := extractBearerToken(r); token != "" {
		return token
	}
	if cookie, err := r.Cookie(accessTokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
