package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	for k, v := range map[string]string{
		"APP_ENV":              "test",
		"APP_PORT":             "8080",
		"DB_USER":              "acct",
		"DB_HOST":              "localhost",
		"DB_PORT":              "3306",
		"DB_NAME":              "accounts",
		"ACCESS_TOKEN_SECRET":  "access-secret",
		"ACCESS_TOKEN_EXPIRY":  "15m",
		"REFRESH_TOKEN_SECRET": "refresh-secret",
		"REFRESH_TOKEN_EXPIRY": "240h",
		"BCRYPT_COST":          "10",
		"MEDIA_UPLOAD_URL":     "https://media.example/upload",
	} {
		t.Setenv(k, v)
	}
}

func TestLoadParsesExpiries(t *testing.T) {
	setRequired(t)

	cfg := Load()
	assert.Equal(t, 15*time.Minute, cfg.AccessExpiry)
	assert.Equal(t, 240*time.Hour, cfg.RefreshExpiry)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, TokenSourceCookie, cfg.TokenSource, "cookie is the default carrier")
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, 15*time.Second, cfg.MediaTimeout)
}

func TestLoadHonorsOptionalOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("AUTH_TOKEN_SOURCE", "header")
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("MEDIA_UPLOAD_TIMEOUT", "3s")

	cfg := Load()
	assert.Equal(t, TokenSourceHeader, cfg.TokenSource)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, 3*time.Second, cfg.MediaTimeout)
}

func TestRateLimitConfigFloors(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "0s")

	cfg := LoadRateLimitConfig()
	require.GreaterOrEqual(t, cfg.Capacity, 1)
	require.Greater(t, cfg.RefillInterval, time.Duration(0))
	assert.GreaterOrEqual(t, cfg.TTL, 5*cfg.RefillInterval)
}
