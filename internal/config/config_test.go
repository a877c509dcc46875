package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	// Empty values fall back to the defaults of the typed helpers.
	for _, k := range []string{"CHAT_POLL_INTERVAL", "BACKEND_TIMEOUT", "MAX_UPLOAD_MB", "SECURE_COOKIES"} {
		t.Setenv(k, "")
	}
	LoadConfig()

	assert.Equal(t, 5*time.Second, AppConfig.ChatPollInterval)
	assert.Equal(t, 30*time.Second, AppConfig.BackendTimeout)
	assert.Equal(t, 25, AppConfig.MaxUploadMB)
	assert.False(t, AppConfig.SecureCookies)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("BACKEND_URL", "https://backend.example")
	t.Setenv("CHAT_POLL_INTERVAL", "2")
	t.Setenv("BACKEND_TIMEOUT", "1m")
	t.Setenv("MAX_UPLOAD_MB", "5")
	t.Setenv("SECURE_COOKIES", "true")

	LoadConfig()

	assert.Equal(t, "9090", AppConfig.HTTPPort)
	assert.Equal(t, "https://backend.example", AppConfig.BackendURL)
	assert.Equal(t, 2*time.Second, AppConfig.ChatPollInterval)
	assert.Equal(t, time.Minute, AppConfig.BackendTimeout)
	assert.Equal(t, int64(5<<20), AppConfig.MaxUploadBytes())
	assert.True(t, AppConfig.SecureCookies)
}

func TestValidate(t *testing.T) {
	valid := Config{
		BackendURL:       "http://127.0.0.1:8000",
		SessionSecret:    strings.Repeat("s", 32),
		ChatPollInterval: time.Second,
		MaxUploadMB:      1,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"short secret", func(c *Config) { c.SessionSecret = "short" }, "SESSION_SECRET"},
		{"no backend", func(c *Config) { c.BackendURL = "" }, "BACKEND_URL"},
		{"zero poll", func(c *Config) { c.ChatPollInterval = 0 }, "CHAT_POLL_INTERVAL"},
		{"zero upload", func(c *Config) { c.MaxUploadMB = 0 }, "MAX_UPLOAD_MB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
