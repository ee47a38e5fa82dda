package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "session_key: s3cret\n")

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8011", c.Listen)
	assert.Equal(t, 48*time.Hour, c.SessionMaxAgeDuration())
	assert.True(t, c.SpeechInput)
	assert.Equal(t, "sqlite", c.Storage.Backend)
	assert.Equal(t, "admin@nutripal.ai", c.Admin.Email)
	assert.Equal(t, "Password1!", c.Admin.Password)
	assert.Equal(t, 60*time.Second, c.AI.TimeoutDuration())
	assert.Equal(t, 30, c.AI.RequestsPerMinute)
}

func TestLoadFileValues(t *testing.T) {
	path := writeConfig(t, `
listen: 127.0.0.1:9000
session_key: s3cret
speech_input: false
storage:
  backend: bolt
  path: /tmp/np.bolt
ai:
  gateway_url: http://gateway:9876
  model: test/model
  requests_per_minute: 0
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", c.Listen)
	assert.False(t, c.SpeechInput)
	assert.Equal(t, "bolt", c.Storage.Backend)
	assert.Equal(t, "/tmp/np.bolt", c.Storage.Path)
	assert.Equal(t, "http://gateway:9876", c.AI.GatewayURL)
	assert.Equal(t, "test/model", c.AI.Model)
	assert.Zero(t, c.AI.RequestsPerMinute)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "session_key: s3cret\nai:\n  model: file/model\n")
	t.Setenv("NUTRIPAL_AI_MODEL", "env/model")
	t.Setenv("NUTRIPAL_STORAGE_BACKEND", "bolt")
	t.Setenv("MCP_PROXY_API_KEY", "proxy-key")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env/model", c.AI.Model)
	assert.Equal(t, "bolt", c.Storage.Backend)
	assert.Equal(t, "proxy-key", c.AI.APIKey)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing session key", body: "listen: :8080\n"},
		{name: "unknown backend", body: "session_key: k\nstorage:\n  backend: postgres\n"},
		{name: "empty storage path", body: "session_key: k\nstorage:\n  path: \"\"\n"},
		{name: "negative rate", body: "session_key: k\nai:\n  requests_per_minute: -1\n"},
		{name: "zero timeout", body: "session_key: k\nai:\n  timeout: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
