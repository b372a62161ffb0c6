package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"bskyrss/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bskyrss.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
appview = "https://appview.example.com"
timeout = "10s"
user_agent = "bskyrss/test"
log_level = "debug"

[server]
port = 8080
allow_origins = ["https://reader.example.com", "https://other.example.com"]
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://appview.example.com", cfg.AppView)
	assert.Equal(t, "bskyrss/test", cfg.UserAgent)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"https://reader.example.com", "https://other.example.com"}, cfg.Server.AllowOrigins)

	timeout, err := cfg.RequestTimeout()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, timeout)
}

func TestLoadConfigEmpty(t *testing.T) {
	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Empty(t, cfg.AppView)
	assert.Zero(t, cfg.Server.Port)

	timeout, err := cfg.RequestTimeout()
	require.NoError(t, err)
	assert.Zero(t, timeout)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "invalid toml", content: `appview = `},
		{name: "invalid timeout", content: `timeout = "soon"`},
		{name: "negative timeout", content: `timeout = "-5s"`},
		{name: "wrong type", content: "[server]\nport = \"eighty\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorContains(t, err, "error reading config file")
}
