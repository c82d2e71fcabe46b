package app

import (
	"testing"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T) (*Config, error) {
	t.Helper()
	return loadConfig(aconfig.Config{
		EnvPrefix: "TTN",
		SkipFlags: true,
		SkipFiles: true,
	})
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://ttn@localhost/ttn")
	t.Setenv("REDIS_URL", "")
	t.Setenv("PORT", "")

	cfg, err := load(t)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr)
	assert.Equal(t, StoragePostgres, cfg.Storage)
	assert.Equal(t, "postgres://ttn@localhost/ttn", cfg.DatabaseURL)
	assert.Equal(t, CacheRedis, cfg.Cache.Driver)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 250*time.Millisecond, cfg.Cache.Timeout)
	assert.Equal(t, 100, cfg.RateLimit.Max)
	assert.Equal(t, 15*time.Second, cfg.Graceful.ShutdownTimeout)
}

func TestLoadConfig_PlatformFallbacks(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://platform/db")
	t.Setenv("REDIS_URL", "redis://cache:6379/2")
	t.Setenv("PORT", "9000")

	cfg, err := load(t)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr)
	assert.Equal(t, "redis://cache:6379/2", cfg.Cache.RedisURL)
}

func TestLoadConfig_Prefixed(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("TTN_STORAGE", "memory")
	t.Setenv("TTN_CACHE_DRIVER", "none")

	cfg, err := load(t)
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, CacheNone, cfg.Cache.Driver)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Storage:     StoragePostgres,
			DatabaseURL: "postgres://x",
			Cache:       CacheConfig{Driver: CacheMemory, Size: 10},
		}
	}
	for _, tc := range []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "Valid", mutate: func(*Config) {}, ok: true},
		{name: "MemoryWithoutDatabase", mutate: func(c *Config) { c.Storage = StorageMemory; c.DatabaseURL = "" }, ok: true},
		{name: "PostgresWithoutDatabase", mutate: func(c *Config) { c.DatabaseURL = "" }},
		{name: "UnknownStorage", mutate: func(c *Config) { c.Storage = "sqlite" }},
		{name: "UnknownCache", mutate: func(c *Config) { c.Cache.Driver = "memcached" }},
		{name: "ZeroCacheSize", mutate: func(c *Config) { c.Cache.Size = 0 }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			err := cfg.validate()
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}
