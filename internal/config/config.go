// internal/config/config.go
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config is the server configuration, read from the environment.
type Config struct {
	Port     int    `env:"PORT" envDefault:"3000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	DecksDir string `env:"DECKS_DIR" envDefault:"decks"`

	StoreBackend string `env:"STORE_BACKEND" envDefault:"memory"`
	SQLitePath   string `env:"SQLITE_PATH" envDefault:"lobbies.db"`
	DatabaseURL  string `env:"DATABASE_URL"`
	RedisAddr    string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB      int    `env:"REDIS_DB" envDefault:"0"`

	PublishActions  bool   `env:"PUBLISH_ACTIONS" envDefault:"false"`
	ActionQueueName string `env:"ACTION_QUEUE_NAME" envDefault:"partydeck_actions"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	OutboxSize     int      `env:"OUTBOX_SIZE" envDefault:"64"`
}

// Load parses the environment into a Config. It does not validate.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Addr is the listen address for Port.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate reports settings the server cannot start with.
func (c Config) Validate() error {
	switch strings.ToLower(c.StoreBackend) {
	case BackendMemory, BackendRedis:
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite backend requires SQLITE_PATH")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("postgres backend requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.OutboxSize <= 0 {
		return fmt.Errorf("OUTBOX_SIZE must be positive, got %d", c.OutboxSize)
	}
	return nil
}

// HistorianConfig configures the action log consumer.
type HistorianConfig struct {
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseURL     string `env:"DATABASE_URL,required"`
	RedisAddr       string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB         int    `env:"REDIS_DB" envDefault:"0"`
	ActionQueueName string `env:"ACTION_QUEUE_NAME" envDefault:"partydeck_actions"`
	BatchSize       int    `env:"HISTORIAN_BATCH_SIZE" envDefault:"20"`
	FlushMS         int    `env:"HISTORIAN_FLUSH_MS" envDefault:"500"`
}

// LoadHistorian parses the historian's environment.
func LoadHistorian() (HistorianConfig, error) {
	var cfg HistorianConfig
	if err := env.Parse(&cfg); err != nil {
		return HistorianConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
