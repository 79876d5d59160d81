package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "servicedesk", cfg.App.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, 60, cfg.Auth.AccessTokenTTLMinutes)
	assert.Equal(t, "INR", cfg.Payment.Currency)
	assert.Equal(t, 30*time.Minute, cfg.Payment.OrderTTL())
	assert.False(t, cfg.Seed.Enabled)
}

func TestAdminAllowList(t *testing.T) {
	t.Setenv("AUTH_ADMIN_EMAILS", "admin@servicedesk.com, ops@servicedesk.com ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"admin@servicedesk.com", "ops@servicedesk.com"}, cfg.Auth.AdminEmails)
	assert.True(t, cfg.Auth.IsAdminEmail("admin@servicedesk.com"))
	assert.True(t, cfg.Auth.IsAdminEmail("ADMIN@ServiceDesk.com"))
	assert.False(t, cfg.Auth.IsAdminEmail("user@demo.com"))
}

func TestSeedFlag(t *testing.T) {
	t.Setenv("SEED_DEMO_DATA", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Seed.Enabled)
}
