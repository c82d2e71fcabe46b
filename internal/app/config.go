package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Cache drivers.
const (
	CacheRedis  = "redis"
	CacheMemory = "memory"
	CacheNone   = "none"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (TTN_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (TTN_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Storage     string `default:"postgres" usage:"Storage driver: postgres or memory"`
	Cache       CacheConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// CacheConfig selects and tunes the read-through cache.
type CacheConfig struct {
	Driver        string        `default:"redis" usage:"Cache driver: redis, memory or none"`
	RedisURL      string        `usage:"Redis URL, falls back to REDIS_URL and overrides the address fields" flag:"redis-url"`
	RedisAddr     string        `default:"localhost:6379" usage:"Redis address" flag:"redis-addr"`
	RedisPassword string        `usage:"Redis password" flag:"redis-password"`
	RedisDB       int           `default:"0" usage:"Redis database" flag:"redis-db"`
	Size          int           `default:"4096" usage:"Entry limit of the in-memory cache"`
	TTL           time.Duration `default:"1h" usage:"Entry lifetime"`
	Timeout       time.Duration `default:"250ms" usage:"Deadline of each cache call"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max      int           `default:"100" usage:"Max read requests per window"`
	WriteMax int           `default:"30" usage:"Max write requests per window" flag:"write-max"`
	Window   time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{
		EnvPrefix: "TTN",
		Files:     []string{"config.yaml", "/etc/ttn/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

func loadConfig(ac aconfig.Config) (*Config, error) {
	var cfg Config
	if err := aconfig.LoaderFor(&cfg, ac).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables that use
// standard names like DATABASE_URL, REDIS_URL and PORT to the TTN_ config.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.Cache.RedisURL == "" {
		c.Cache.RedisURL = os.Getenv("REDIS_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

func (c *Config) validate() error {
	switch c.Storage {
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("database URL is required: set TTN_DATABASE_URL or DATABASE_URL")
		}
	case StorageMemory:
	default:
		return errors.Errorf("unknown storage driver %q", c.Storage)
	}
	switch c.Cache.Driver {
	case CacheRedis, CacheMemory, CacheNone:
	default:
		return errors.Errorf("unknown cache driver %q", c.Cache.Driver)
	}
	if c.Cache.Driver == CacheMemory && c.Cache.Size <= 0 {
		return errors.New("cache size must be positive")
	}
	return nil
}
