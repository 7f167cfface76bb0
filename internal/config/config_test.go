package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 25*time.Second, cfg.Engine.ProviderTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Engine.HealthCheckInterval)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 30, cfg.RateLimit.RequestsPerMinute)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PROVIDER_TIMEOUT", "10s")
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("GROQ_MODEL", "llama-3.1-8b-instant")
	t.Setenv("RATE_LIMIT_REQUESTS_PER_MINUTE", "5")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Engine.ProviderTimeout)
	assert.Equal(t, "gsk-test", cfg.Providers["groq"].APIKey)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.Providers["groq"].Model)
	assert.Equal(t, 5, cfg.RateLimit.RequestsPerMinute)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("PROVIDER_TIMEOUT", "not-a-duration")
	t.Setenv("MAX_TOKENS", "many")

	cfg := Load()

	assert.Equal(t, 25*time.Second, cfg.Engine.ProviderTimeout)
	assert.Equal(t, 2048, cfg.Engine.MaxTokens)
}

func TestLoad_EveryKnownProviderConfigured(t *testing.T) {
	cfg := Load()

	for _, name := range ProviderNames {
		pc, ok := cfg.Providers[name]
		assert.True(t, ok, "provider %s missing from config", name)
		assert.Greater(t, pc.Tier, 0, "provider %s has no tier", name)
	}
}

func TestProviderTiers_AreMonotonicAndUnique(t *testing.T) {
	cfg := Load()

	seen := make(map[int]string)
	for name, pc := range cfg.Providers {
		prev, dup := seen[pc.Tier]
		assert.False(t, dup, "providers %s and %s share tier %d", prev, name, pc.Tier)
		seen[pc.Tier] = name
	}
}
