package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port          string `env:"PORT,           default=3000"`
	Env           string `env:"ENV,            default=development"`
	LogLevel      string `env:"LOG_LEVEL,      default=info"`
	BackendURL    string `env:"BACKEND_URL,    default=http://localhost:8080"`
	SessionSecret string `env:"SESSION_SECRET"`

	// SessionTTL bounds the browser session cookie, not the bearer token:
	// token expiry stays the backend's responsibility.
	SessionTTL time.Duration `env:"SESSION_TTL, default=24h"`

	Health HealthConfig
	Mongo  MongoConfig
	Redis  RedisConfig
}

type HealthConfig struct {
	CacheWindow  time.Duration `env:"HEALTH_CACHE_WINDOW,  default=10s"`
	ProbeTimeout time.Duration `env:"HEALTH_PROBE_TIMEOUT, default=5s"`
}

// MongoConfig locates the activity-log store. An empty URI disables it.
type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DB, default=bmo_portal"`
}

// RedisConfig locates the login-throttle store. An empty Addr disables it.
type RedisConfig struct {
	Addr string `env:"REDIS_ADDR"`
	DB   int    `env:"REDIS_DB, default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("config: SESSION_SECRET is required")
	}
	return &cfg, nil
}
