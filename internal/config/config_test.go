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

	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr)
	assert.Equal(t, 20, cfg.PageSize)
	assert.Equal(t, 12*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 30*time.Minute, cfg.ChatSessionTTL)
	assert.False(t, cfg.WhatsAppEnabled)
	assert.Equal(t, time.UTC, cfg.ExportLocation())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PAGE_SIZE", "50")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("WHATSAPP_ENABLED", "true")
	t.Setenv("EXPORT_TIMEZONE", "Europe/Berlin")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.PageSize)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.True(t, cfg.WhatsAppEnabled)
	assert.Equal(t, "Europe/Berlin", cfg.ExportLocation().String())
}

func TestLoadParseError(t *testing.T) {
	t.Setenv("PAGE_SIZE", "twenty")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{JWTSecret: "s", PageSize: 20, TokenTTL: time.Hour, ExportTimezone: "UTC"}
	}

	cfg := base()
	require.NoError(t, cfg.Validate())

	cfg = base()
	cfg.JWTSecret = "  "
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.PageSize = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.ExportTimezone = "Mars/Olympus"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.AdminEmail = "ops@example.com"
	assert.Error(t, cfg.Validate(), "password missing")
}
