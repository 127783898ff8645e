package main

import (
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration, read from RAMPART_* variables.
type Config struct {
	Addr            string        `envconfig:"ADDR" default:":8080"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	CookieName   string        `envconfig:"COOKIE_NAME" default:"sessionid"`
	CookieDomain string        `envconfig:"COOKIE_DOMAIN"`
	CookieSecure bool          `envconfig:"COOKIE_SECURE" default:"false"`
	Workers      int           `envconfig:"WORKERS" default:"4"`
	SessionTTL   time.Duration `envconfig:"SESSION_TTL" default:"336h"`

	// IdentityCacheTTL caches resolved identities; zero disables it.
	IdentityCacheTTL time.Duration `envconfig:"IDENTITY_CACHE_TTL" default:"30s"`

	// RedisAddr moves sessions to Redis when set.
	RedisAddr string `envconfig:"REDIS_ADDR"`

	// MongoURI serves the data models from MongoDB when set.
	MongoURI      string `envconfig:"MONGO_URI"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"rampart"`

	AdminUsername string `envconfig:"ADMIN_USERNAME" default:"admin"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`

	TickInterval time.Duration `envconfig:"TICK_INTERVAL" default:"5s"`
}

// LoadConfig reads configuration from the environment.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("RAMPART", &cfg); err != nil {
		return nil, err
	}
	if cfg.Workers <= 0 {
		return nil, errors.New("workers must be positive")
	}
	return &cfg, nil
}

// NewLogger builds the process logger.
func NewLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
