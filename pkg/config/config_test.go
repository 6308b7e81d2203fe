package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 800*time.Millisecond, cfg.Agent.PollInterval)
	assert.Equal(t, 120*time.Second, cfg.Agent.PollTimeout)
	assert.False(t, cfg.Agent.Configured())
}

func TestNewInvalidPort(t *testing.T) {
	t.Setenv("PORT", "70000")

	_, err := New()
	assert.Error(t, err)

	t.Setenv("PORT", "0")
	_, err = New()
	assert.Error(t, err)
}

func TestAllowedOriginsParsing(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:5173, https://chat.example.com ,")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://localhost:5173", "https://chat.example.com"}, cfg.Security.AllowedOrigins)
}

func TestAgentConfiguredRequiresWholeGroup(t *testing.T) {
	t.Setenv("AGENT_ENDPOINT", "https://agents.example.com/")
	t.Setenv("AGENT_PROJECT", "demo-project")
	t.Setenv("AGENT_ID", "asst_123")
	t.Setenv("AGENT_TENANT_ID", "tenant-1")
	t.Setenv("AGENT_CLIENT_ID", "client-1")

	cfg, err := New()
	require.NoError(t, err)
	assert.False(t, cfg.Agent.Configured(), "missing client secret should leave the group unconfigured")

	t.Setenv("AGENT_CLIENT_SECRET", "s3cret")
	cfg, err = New()
	require.NoError(t, err)
	assert.True(t, cfg.Agent.Configured())
	assert.Equal(t, "https://agents.example.com", cfg.Agent.Endpoint, "trailing slash trimmed")
}
