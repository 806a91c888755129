package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Env is an explicit snapshot of environment variables. Validation and
// building read from an Env instead of the process environment so both can
// be exercised deterministically.
type Env map[string]string

// DefaultEnvFiles are the dotenv files read by LoadEnv when none are given
// (backend/.env when run from the project root, .env when run from backend/).
var DefaultEnvFiles = []string{"backend/.env", ".env"}

// FromOS returns a snapshot of the current process environment.
func FromOS() Env {
	return fromPairs(os.Environ())
}

// LoadEnv reads the given dotenv files and overlays the process environment
// on top of them, so variables that are already set always win over file
// values. Files that do not exist are skipped.
func LoadEnv(files ...string) (Env, error) {
	if len(files) == 0 {
		files = DefaultEnvFiles
	}

	env := Env{}
	for _, file := range files {
		values, err := godotenv.Read(file)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read env file %s: %w", file, err)
		}
		for k, v := range values {
			// earlier files take precedence, matching godotenv.Load
			if _, ok := env[k]; !ok {
				env[k] = v
			}
		}
	}

	for k, v := range FromOS() {
		env[k] = v
	}
	return env, nil
}

func fromPairs(pairs []string) Env {
	env := make(Env, len(pairs))
	for _, kv := range pairs {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		env[key] = value
	}
	return env
}

// Lookup returns the value for key and whether it is set to a non-empty value.
func (e Env) Lookup(key string) (string, bool) {
	value, ok := e[key]
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// Helper functions

func (e Env) get(key, defaultValue string) string {
	if value, ok := e.Lookup(key); ok {
		return value
	}
	return defaultValue
}

func (e Env) getInt(key string, defaultValue int) int {
	valueStr, ok := e.Lookup(key)
	if !ok {
		return defaultValue
	}
	value, err := parseInt(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func (e Env) getBool(key string, defaultValue bool) bool {
	valueStr, ok := e.Lookup(key)
	if !ok {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func (e Env) getDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr, ok := e.Lookup(key)
	if !ok {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// parseInt parses a base-10 integer, ignoring surrounding whitespace.
func parseInt(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
