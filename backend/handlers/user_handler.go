package handlers

import (
	"net/http"
	"time"

	"github.com/upb/onboarding-platform/backend/middleware"
	"github.com/upb/onboarding-platform/backend/utils"
)

// CurrentUserResponse is the identity of the authenticated caller
type CurrentUserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

// GetCurrentUserHandler handles GET /api/v1/me. It must run behind RequireAuth.
func GetCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		_ = utils.WriteUnauthorized(w, "")
		return
	}

	response := CurrentUserResponse{
		ID:    claims.UserID.String(),
		Email: claims.Email,
		Role:  claims.Role,
	}
	if !claims.ExpiresAt.IsZero() {
		response.ExpiresAt = claims.ExpiresAt.UTC().Format(time.RFC3339)
	}

	_ = utils.WriteOK(w, response)
}
