package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadEnv(t *testing.T) {
	t.Run("reads dotenv file", func(t *testing.T) {
		dir := t.TempDir()
		path := writeEnvFile(t, dir, ".env", "ONBOARDING_TEST_A=from-file\nONBOARDING_TEST_B=\"quoted value\"\n")

		env, err := LoadEnv(path)
		require.NoError(t, err)

		assert.Equal(t, "from-file", env["ONBOARDING_TEST_A"])
		assert.Equal(t, "quoted value", env["ONBOARDING_TEST_B"])
	})

	t.Run("process environment wins over file", func(t *testing.T) {
		dir := t.TempDir()
		path := writeEnvFile(t, dir, ".env", "ONBOARDING_TEST_C=from-file\n")
		t.Setenv("ONBOARDING_TEST_C", "from-process")

		env, err := LoadEnv(path)
		require.NoError(t, err)

		assert.Equal(t, "from-process", env["ONBOARDING_TEST_C"])
	})

	t.Run("earlier file wins over later file", func(t *testing.T) {
		dir := t.TempDir()
		first := writeEnvFile(t, dir, "first.env", "ONBOARDING_TEST_D=first\n")
		second := writeEnvFile(t, dir, "second.env", "ONBOARDING_TEST_D=second\nONBOARDING_TEST_E=second\n")

		env, err := LoadEnv(first, second)
		require.NoError(t, err)

		assert.Equal(t, "first", env["ONBOARDING_TEST_D"])
		assert.Equal(t, "second", env["ONBOARDING_TEST_E"])
	})

	t.Run("missing file is skipped", func(t *testing.T) {
		t.Setenv("ONBOARDING_TEST_F", "set")

		env, err := LoadEnv(filepath.Join(t.TempDir(), "does-not-exist.env"))
		require.NoError(t, err)

		assert.Equal(t, "set", env["ONBOARDING_TEST_F"])
	})
}

func TestFromOS(t *testing.T) {
	t.Setenv("ONBOARDING_TEST_G", "a=b=c")

	env := FromOS()

	assert.Equal(t, "a=b=c", env["ONBOARDING_TEST_G"])
}

func TestEnv_Lookup(t *testing.T) {
	env := Env{"SET": "value", "EMPTY": ""}

	value, ok := env.Lookup("SET")
	assert.True(t, ok)
	assert.Equal(t, "value", value)

	_, ok = env.Lookup("EMPTY")
	assert.False(t, ok)

	_, ok = env.Lookup("UNSET")
	assert.False(t, ok)
}

func TestEnv_GetInt(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue int
		want         int
	}{
		{"valid int", "42", 10, 42},
		{"empty value", "", 10, 10},
		{"invalid int", "not-a-number", 10, 10},
		{"float is not an int", "3.5", 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := Env{"TEST_INT": tt.value}
			assert.Equal(t, tt.want, env.getInt("TEST_INT", tt.defaultValue))
		})
	}
}

func TestEnv_GetBool(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue bool
		want         bool
	}{
		{"true", "true", false, true},
		{"false", "false", true, false},
		{"empty value", "", true, true},
		{"invalid bool", "not-a-bool", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := Env{"TEST_BOOL": tt.value}
			assert.Equal(t, tt.want, env.getBool("TEST_BOOL", tt.defaultValue))
		})
	}
}
