package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Environment keys
const (
	KeySupabaseURL            = "SUPABASE_URL"
	KeySupabaseAnonKey        = "SUPABASE_ANON_KEY"
	KeySupabaseServiceRoleKey = "SUPABASE_SERVICE_ROLE_KEY"
	KeySupabaseJWTSecret      = "SUPABASE_JWT_SECRET"
	KeyFrontendURL            = "FRONTEND_URL"
	KeyHuggingFaceAPIToken    = "HUGGINGFACE_API_TOKEN"
	KeyPort                   = "PORT"
	KeyRateLimitWindowMS      = "RATE_LIMIT_WINDOW_MS"
	KeyRateLimitMaxRequests   = "RATE_LIMIT_MAX_REQUESTS"
	KeyDatabaseURL            = "DATABASE_URL"
)

// RequiredKeys must be present and non-empty for the service to start.
var RequiredKeys = []string{
	KeySupabaseURL,
	KeySupabaseAnonKey,
	KeySupabaseServiceRoleKey,
	KeyFrontendURL,
}

var (
	urlKeys     = []string{KeySupabaseURL, KeyFrontendURL, KeyDatabaseURL}
	numericKeys = []string{KeyPort, KeyRateLimitWindowMS, KeyRateLimitMaxRequests}

	validate = validator.New()
)

// Rule identifies the kind of check a variable failed.
type Rule string

const (
	RuleMissing       Rule = "missing"
	RuleInvalidURL    Rule = "invalid_url"
	RuleInvalidNumber Rule = "invalid_number"
)

// Violation is a single failed rule for a single variable.
type Violation struct {
	Key  string
	Rule Rule
}

// Message returns the human-readable description of the violation.
func (v Violation) Message() string {
	switch v.Rule {
	case RuleMissing:
		return fmt.Sprintf("%s is missing", v.Key)
	case RuleInvalidURL:
		return fmt.Sprintf("%s is not a valid URL format", v.Key)
	case RuleInvalidNumber:
		return fmt.Sprintf("%s must be a valid number", v.Key)
	default:
		return fmt.Sprintf("%s failed %s", v.Key, v.Rule)
	}
}

// Result is the outcome of Validate: either OK or a non-empty, ordered list
// of violations.
type Result struct {
	violations []Violation
}

// OK reports whether no violations were found.
func (r Result) OK() bool {
	return len(r.violations) == 0
}

// Violations returns the violations in the order they were found.
func (r Result) Violations() []Violation {
	out := make([]Violation, len(r.violations))
	copy(out, r.violations)
	return out
}

// Err returns nil when the result is OK, otherwise a *ConfigurationError.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return &ConfigurationError{Violations: r.Violations()}
}

func (r *Result) add(key string, rule Rule) {
	r.violations = append(r.violations, Violation{Key: key, Rule: rule})
}

// ConfigurationError is returned when the environment fails validation.
// Violations is ordered and never empty.
type ConfigurationError struct {
	Violations []Violation
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", strings.Join(e.Messages(), "; "))
}

// Messages returns one message per violation.
func (e *ConfigurationError) Messages() []string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message())
	}
	return msgs
}

// Report renders the multi-line startup diagnostic.
func (e *ConfigurationError) Report() string {
	var b strings.Builder
	b.WriteString("\nConfiguration Error:\n")
	for _, msg := range e.Messages() {
		b.WriteString("  - ")
		b.WriteString(msg)
		b.WriteString("\n")
	}
	b.WriteString("Please fix these in your .env file before restarting the server.\n")
	return b.String()
}

// Validate checks env and reports every violation at once. Checks run in a
// fixed order: presence of required keys, URL format, then numeric format.
// Format checks only apply to keys that are set.
func Validate(env Env) Result {
	var result Result

	for _, key := range RequiredKeys {
		if _, ok := env.Lookup(key); !ok {
			result.add(key, RuleMissing)
		}
	}

	for _, key := range urlKeys {
		value, ok := env.Lookup(key)
		if !ok {
			continue
		}
		if !isURL(value) {
			result.add(key, RuleInvalidURL)
		}
	}

	for _, key := range numericKeys {
		value, ok := env.Lookup(key)
		if !ok {
			continue
		}
		if _, err := parseInt(value); err != nil {
			result.add(key, RuleInvalidNumber)
		}
	}

	return result
}

// isURL reports whether s is an absolute URL (scheme and host).
func isURL(s string) bool {
	return validate.Var(s, "url") == nil
}
