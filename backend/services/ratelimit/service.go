package ratelimit

import (
	"context"
	"time"

	"github.com/upb/onboarding-platform/backend/config"
)

// Policy is the throttling policy applied to every scope: at most
// MaxRequests requests per Window.
type Policy struct {
	Window      time.Duration
	MaxRequests int
}

// PolicyFromSettings converts the configured rate limit into a Policy
func PolicyFromSettings(s config.RateLimitSettings) Policy {
	return Policy{
		Window:      s.Window(),
		MaxRequests: s.MaxRequests,
	}
}

// Enabled reports whether the policy limits anything. A non-positive window
// or request count disables limiting.
func (p Policy) Enabled() bool {
	return p.Window > 0 && p.MaxRequests > 0
}

// Decision is the outcome of a single rate limit check
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter decides whether a request for a scope key may proceed. A call to
// Allow that returns an allowed decision counts against the scope.
type Limiter interface {
	Allow(ctx context.Context, key string) (*Decision, error)
}

func unlimited() *Decision {
	return &Decision{Allowed: true}
}
