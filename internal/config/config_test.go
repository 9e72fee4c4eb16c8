package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/complaints")
	t.Setenv("JWT_SECRET", strings.Repeat("k", 64))
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("REVOKE_ON_DISABLE", "")

	cfg := Load()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10*time.Hour, cfg.TokenTTL)
	assert.False(t, cfg.RevokeOnDisable)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.False(t, cfg.BootstrapAdmin.Enabled())
}

func TestValidate(t *testing.T) {
	base := Config{
		DBDriver:    "sqlite",
		DatabaseURL: "file::memory:",
		JWTSecret:   []byte(strings.Repeat("k", MinSecretBytes)),
		TokenTTL:    time.Hour,
	}
	require.NoError(t, base.Validate())

	short := base
	short.JWTSecret = []byte("too-short")
	require.Error(t, short.Validate())

	noDB := base
	noDB.DatabaseURL = ""
	require.Error(t, noDB.Validate())

	badDriver := base
	badDriver.DBDriver = "mysql"
	require.Error(t, badDriver.Validate())

	zeroTTL := base
	zeroTTL.TokenTTL = 0
	require.Error(t, zeroTTL.Validate())
}

func TestLoadRateLimit_Clamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "1m")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	rl := loadRateLimit()
	assert.Equal(t, 1, rl.Capacity)
	assert.Equal(t, 5*time.Minute, rl.TTL)
}
