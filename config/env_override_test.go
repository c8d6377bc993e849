package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvOverrides_API(t *testing.T) {
	t.Run("KIOSK_API_URL replaces base url", func(t *testing.T) {
		t.Setenv("KIOSK_API_URL", "https://env.example")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "https://env.example", cfg.API.BaseURL)
	})

	t.Run("unparsable rate limit is ignored", func(t *testing.T) {
		t.Setenv("KIOSK_RATE_LIMIT", "fast")
		cfg := &Config{API: APIConfig{RateLimit: 2}}
		cfg.applyEnvOverrides()
		assert.Equal(t, 2.0, cfg.API.RateLimit)
	})
}

func TestEnvOverrides_Storage(t *testing.T) {
	t.Setenv("KIOSK_STORAGE", BackendRedis)
	t.Setenv("KIOSK_REDIS_ADDR", "cache:6380")
	t.Setenv("KIOSK_REDIS_DB", "3")
	t.Setenv("KIOSK_PROFILE", "seller-laptop")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, "cache:6380", cfg.Storage.RedisAddr)
	assert.Equal(t, 3, cfg.Storage.RedisDB)
	assert.Equal(t, "seller-laptop", cfg.Storage.Profile)
}

func TestEnvOverrides_EmptyLeavesFile(t *testing.T) {
	t.Setenv("KIOSK_MERCHANT_ID", "")
	cfg := &Config{Pay: PayConfig{MerchantID: "from-file"}}
	cfg.applyEnvOverrides()
	assert.Equal(t, "from-file", cfg.Pay.MerchantID)
}
