package config

import (
	"fmt"
	"net/url"
	"time"
)

// Defaults applied by Build when a variable is not set
const (
	DefaultPort                 = 3001
	DefaultFrontendURL          = "http://localhost:3000"
	DefaultRateLimitWindowMS    = 900000
	DefaultRateLimitMaxRequests = 100
)

// Settings represents the complete resolved application configuration.
// It is built once at startup and passed around by value; every nested
// field is a value type, so no consumer can mutate another's copy.
type Settings struct {
	Environment   string
	Supabase      SupabaseSettings
	HuggingFace   HuggingFaceSettings
	Server        ServerSettings
	RateLimit     RateLimitSettings
	Database      DatabaseSettings
	Observability ObservabilitySettings
}

// SupabaseSettings holds the storage service credentials
type SupabaseSettings struct {
	URL            string
	AnonKey        string
	ServiceRoleKey string
	JWTSecret      string // Optional: enables bearer token auth when set
}

// HuggingFaceSettings holds the optional inference service credential
type HuggingFaceSettings struct {
	APIToken   string
	Configured bool
}

// ServerSettings holds HTTP server configuration
type ServerSettings struct {
	Host            string
	Port            int
	FrontendURL     string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// RateLimitSettings holds the request throttling policy
type RateLimitSettings struct {
	WindowMillis int
	MaxRequests  int
}

// DatabaseSettings holds the optional PostgreSQL connection used for the
// shared rate limit store. An empty URL means limits are kept in memory.
type DatabaseSettings struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ObservabilitySettings holds logging and metrics configuration
type ObservabilitySettings struct {
	LogLevel       string
	LogFormat      string // json or console
	MetricsEnabled bool
}

// Load validates env and, when it passes, builds the Settings from it.
// On failure the returned error is a *ConfigurationError.
func Load(env Env) (Settings, error) {
	if err := Validate(env).Err(); err != nil {
		return Settings{}, err
	}
	return Build(env), nil
}

// Build resolves Settings from env, applying defaults for anything unset.
// It never fails: unparseable numbers fall back to their defaults and
// required values that are absent become empty strings. Call Validate (or
// use Load) first to reject such environments.
func Build(env Env) Settings {
	apiToken, hasToken := env.Lookup(KeyHuggingFaceAPIToken)

	return Settings{
		Environment: env.get("ENVIRONMENT", "development"),
		Supabase: SupabaseSettings{
			URL:            env.get(KeySupabaseURL, ""),
			AnonKey:        env.get(KeySupabaseAnonKey, ""),
			ServiceRoleKey: env.get(KeySupabaseServiceRoleKey, ""),
			JWTSecret:      env.get(KeySupabaseJWTSecret, ""),
		},
		HuggingFace: HuggingFaceSettings{
			APIToken:   apiToken,
			Configured: hasToken,
		},
		Server: ServerSettings{
			Host:            env.get("SERVER_HOST", "0.0.0.0"),
			Port:            env.getInt(KeyPort, DefaultPort),
			FrontendURL:     env.get(KeyFrontendURL, DefaultFrontendURL),
			ReadTimeout:     env.getDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    env.getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: env.getDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		RateLimit: RateLimitSettings{
			WindowMillis: env.getInt(KeyRateLimitWindowMS, DefaultRateLimitWindowMS),
			MaxRequests:  env.getInt(KeyRateLimitMaxRequests, DefaultRateLimitMaxRequests),
		},
		Database: DatabaseSettings{
			URL:             env.get(KeyDatabaseURL, ""),
			MaxOpenConns:    env.getInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    env.getInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: env.getDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Observability: ObservabilitySettings{
			LogLevel:       env.get("LOG_LEVEL", "info"),
			LogFormat:      env.get("LOG_FORMAT", "json"),
			MetricsEnabled: env.getBool("METRICS_ENABLED", true),
		},
	}
}

// IsProduction returns true if running in production environment
func (s Settings) IsProduction() bool {
	return s.Environment == "production" || s.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (s Settings) IsDevelopment() bool {
	return s.Environment == "development" || s.Environment == "dev"
}

// Address returns the HTTP server address
func (s ServerSettings) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Window returns the rate limit window as a duration
func (r RateLimitSettings) Window() time.Duration {
	return time.Duration(r.WindowMillis) * time.Millisecond
}

// Enabled reports whether a database is configured
func (d DatabaseSettings) Enabled() bool {
	return d.URL != ""
}

// LogString returns a safe string for logging (no credentials).
func (d DatabaseSettings) LogString() string {
	u, err := url.Parse(d.URL)
	if err != nil || u.Host == "" {
		return "host=<from DATABASE_URL>"
	}
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	db := u.Path
	if len(db) > 0 && db[0] == '/' {
		db = db[1:]
	}
	return fmt.Sprintf("host=%s port=%s database=%s", u.Hostname(), port, db)
}
