package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	for key, val := range map[string]string{
		"RMQ_USER":           "hub",
		"RMQ_PASSWORD":       "hub",
		"RMQ_HOST":           "127.0.0.1",
		"RMQ_EXCHANGE":       "serhub",
		"POSTGRES_HOST":      "127.0.0.1",
		"POSTGRES_PORT":      "1",
		"POSTGRES_PASSWORD":  "hub",
		"AVAILABLE_SERVICES": "7",
		"AVAILABLE_SYSTEMS":  "1",
		"CONNECT_RETRIES":    "0",
		"LOG_LEVEL":          "error",
	} {
		t.Setenv(key, val)
	}
}

func TestRealMainExitCodes(t *testing.T) {
	t.Run("unknown flag", func(t *testing.T) {
		assert.Equal(t, 2, realMain([]string{"--no-such-flag"}))
	})

	t.Run("missing env file", func(t *testing.T) {
		assert.Equal(t, 1, realMain([]string{"--env-file", filepath.Join(t.TempDir(), "absent.env")}))
	})

	t.Run("bad log level", func(t *testing.T) {
		setRequiredEnv(t)
		assert.Equal(t, 1, realMain([]string{"--log-level", "chatty"}))
	})

	t.Run("database unreachable", func(t *testing.T) {
		setRequiredEnv(t)
		assert.Equal(t, 1, realMain(nil))
	})

	t.Run("add operator without database", func(t *testing.T) {
		setRequiredEnv(t)
		assert.Equal(t, 1, realMain([]string{"--add-operator", "ops"}))
	})
}
