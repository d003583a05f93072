package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Environment)
	assert.Equal(t, 12, cfg.Claims.MinProofLen)
	assert.Equal(t, 8, cfg.Claims.MinSecretLen)
	assert.Equal(t, 5*time.Minute, cfg.Notify.ServiceTokenTTL)
	assert.Equal(t, 100, cfg.RateLimit.Requests)
	assert.Equal(t, 60*time.Second, cfg.RateLimit.Window)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MIN_PROOF_LEN", "20")
	t.Setenv("RATE_LIMIT_WINDOW", "30")
	t.Setenv("SERVICE_TOKEN_TTL", "2m")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 20, cfg.Claims.MinProofLen)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, 2*time.Minute, cfg.Notify.ServiceTokenTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestParseHelpers(t *testing.T) {
	assert.Equal(t, 7, parseInt("7", 1))
	assert.Equal(t, 1, parseInt("x", 1))
	assert.Equal(t, 90*time.Second, parseDuration("90", time.Second))
	assert.Equal(t, 3*time.Minute, parseDuration("3m", time.Second))
	assert.Equal(t, time.Second, parseDuration("soon", time.Second))
	assert.Empty(t, parseStringSlice(""))
}
