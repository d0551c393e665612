package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv_OverlaysOnlySetVariables(t *testing.T) {
	t.Setenv("SHOPAUTH_HTTP_ADDR", ":7000")
	t.Setenv("SHOPAUTH_REGISTRY_BACKEND", "redis")
	t.Setenv("SHOPAUTH_VERIFICATION_CODE_TTL", "15m")
	t.Setenv("SHOPAUTH_COOKIE_SECURE", "true")
	t.Setenv("SHOPAUTH_REDIS_DB", "3")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, ":7000", cfg.HTTPAddr)
	assert.Equal(t, RegistryRedis, cfg.RegistryBackend)
	assert.Equal(t, 15*time.Minute, cfg.VerificationCodeTTL)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, 3, cfg.RedisDB)

	// untouched
	assert.Equal(t, ":50051", cfg.GRPCAddr)
	assert.Equal(t, "secretKey", cfg.SecretKey)
}

func TestParseEnv_BadValuePanics(t *testing.T) {
	t.Setenv("SHOPAUTH_SESSION_TOKEN_VALIDITY", "a week")

	cfg := &Config{}
	require.Panics(t, func() { parseEnv(cfg) })
}

func TestLoadConfig_FlagsWinOverEnv(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Setenv("SHOPAUTH_HTTP_ADDR", ":7000")
	os.Args = []string{"testbin", "-a", ":9000"}

	cfg := LoadConfig()
	assert.Equal(t, ":9000", cfg.HTTPAddr)
}
