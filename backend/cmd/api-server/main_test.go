package main

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/onboarding-platform/backend/config"
	"go.uber.org/zap/zaptest"
)

func validEnv() config.Env {
	return config.Env{
		"SUPABASE_URL":              "https://abcd.supabase.co",
		"SUPABASE_ANON_KEY":         "anon-key",
		"SUPABASE_SERVICE_ROLE_KEY": "service-role-key",
		"FRONTEND_URL":              "http://localhost:5173",
		"SERVER_HOST":               "127.0.0.1",
		"PORT":                      "0",
		"LOG_LEVEL":                 "error",
	}
}

func TestRun_InvalidConfiguration(t *testing.T) {
	env := config.Env{
		"SUPABASE_URL": "not-a-url",
		"PORT":         "abc",
	}
	var stderr bytes.Buffer

	code := run(context.Background(), env, &stderr)

	assert.Equal(t, 1, code)
	want := "\nConfiguration Error:\n" +
		"  - SUPABASE_ANON_KEY is missing\n" +
		"  - SUPABASE_SERVICE_ROLE_KEY is missing\n" +
		"  - FRONTEND_URL is missing\n" +
		"  - SUPABASE_URL is not a valid URL format\n" +
		"  - PORT must be a valid number\n" +
		"Please fix these in your .env file before restarting the server.\n"
	assert.Equal(t, want, stderr.String())
}

func TestRun_InvalidLogLevel(t *testing.T) {
	env := validEnv()
	env["LOG_LEVEL"] = "loud"
	var stderr bytes.Buffer

	code := run(context.Background(), env, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "invalid log level")
}

func TestRun_ServesUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	var stderr bytes.Buffer

	code := run(ctx, validEnv(), &stderr)

	assert.Equal(t, 0, code)
	assert.Empty(t, stderr.String())
}

func TestServe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, ln, time.Second, zaptest.NewLogger(t)) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String())
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusNoContent
	}, 2*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not return after cancellation")
	}
}
