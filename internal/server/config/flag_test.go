package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	base := func() *Config {
		c := &Config{}
		c.LoadDefaults()
		return c
	}

	tests := []struct {
		name        string
		args        []string
		mutate      func(c *Config)
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd",
				"-a", "127.0.0.1:8080", "-g", "127.0.0.1:9090", "-b", "mongo", "-d", "db", "-m", "mongodb://m:27017",
				"-s", "secret", "-t", "24", "-r", "redis", "-e", "5", "-x", "smtp", "-l", "debug",
			},
			mutate: func(c *Config) {
				c.HTTPAddr = "127.0.0.1:8080"
				c.GRPCAddr = "127.0.0.1:9090"
				c.StorageBackend = StorageMongo
				c.DatabaseDSN = "db"
				c.MongoURI = "mongodb://m:27017"
				c.SecretKey = "secret"
				c.SessionTokenValidityDuration = 24 * time.Hour
				c.RegistryBackend = RegistryRedis
				c.VerificationCodeTTL = 5 * time.Minute
				c.MailBackend = MailSMTP
				c.LogLevel = "debug"
			},
		},
		{
			name:   "foreign flags ignored",
			args:   []string{"cmd", "-c", "cfg.json", "-unknown", "1"},
			mutate: func(c *Config) {},
		},
		{
			name:        "bad int panics",
			args:        []string{"cmd", "-t", "week"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			config := base()

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}

			require.NotPanics(t, func() { parseFlags(config) })
			expected := base()
			tt.mutate(expected)
			assert.Empty(t, cmp.Diff(expected, config))
		})
	}
}

func TestParseFlags_KeepsSubUnitDurationsWhenNotGiven(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"cmd"}

	c := &Config{VerificationCodeTTL: 90 * time.Second, SessionTokenValidityDuration: 30 * time.Minute}
	parseFlags(c)

	assert.Equal(t, 90*time.Second, c.VerificationCodeTTL)
	assert.Equal(t, 30*time.Minute, c.SessionTokenValidityDuration)
}
