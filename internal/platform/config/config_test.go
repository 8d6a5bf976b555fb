package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "user", cfg.Audience)
	assert.Equal(t, 5*time.Minute, cfg.Session.RefreshThreshold)
	assert.Equal(t, "cg_session", cfg.Cookie.Name)
	assert.False(t, cfg.OAuth.Configured())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("CAREGATE_ADDR", ":9090")
	t.Setenv("CAREGATE_AUDIENCE", "provider")
	t.Setenv("CAREGATE_REFRESH_THRESHOLD", "2m")
	t.Setenv("CAREGATE_REDIS_POOL_SIZE", "25")
	t.Setenv("CAREGATE_OAUTH_CLIENT_ID", "client-id")
	t.Setenv("CAREGATE_OAUTH_CLIENT_SECRET", "client-secret")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "provider", cfg.Audience)
	assert.Equal(t, 2*time.Minute, cfg.Session.RefreshThreshold)
	assert.Equal(t, 25, cfg.Redis.PoolSize)
	assert.True(t, cfg.OAuth.Configured())
}

func TestFromEnvIgnoresMalformedValues(t *testing.T) {
	t.Setenv("CAREGATE_REFRESH_THRESHOLD", "not-a-duration")
	t.Setenv("CAREGATE_REDIS_POOL_SIZE", "not-an-int")

	cfg := FromEnv()

	assert.Equal(t, 5*time.Minute, cfg.Session.RefreshThreshold)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
}
