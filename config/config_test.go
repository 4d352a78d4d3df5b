package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := GetConfig()
		require.NoError(t, err)

		assert.Equal(t, ":5000", cfg.Address)
		assert.Equal(t, "mongo", cfg.Store.Driver)
		assert.Equal(t, 5*time.Second, cfg.Store.Timeout)
		assert.Equal(t, 60*time.Second, cfg.Redis.CacheTTL)
		assert.Equal(t, 587, cfg.Smtp.Port)
		assert.Equal(t, "smtp.ethereal.email", cfg.Smtp.Host)
		assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
		assert.False(t, cfg.Redis.Enabled())
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("PORT", "8080")
		t.Setenv("STORE_DRIVER", "sqlite")
		t.Setenv("STORE_TIMEOUT", "250ms")
		t.Setenv("REDIS_HOST", "cache")
		t.Setenv("CASSANDRA_HOSTS", "c1, c2,,")

		cfg, err := GetConfig()
		require.NoError(t, err)

		assert.Equal(t, ":8080", cfg.Address)
		assert.Equal(t, "sqlite", cfg.Store.Driver)
		assert.Equal(t, 250*time.Millisecond, cfg.Store.Timeout)
		assert.True(t, cfg.Redis.Enabled())
		assert.Equal(t, "cache:6379", cfg.Redis.Addr())
		assert.Equal(t, []string{"c1", "c2"}, cfg.Cassandra.HostList())
	})
}
