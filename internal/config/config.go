// Package config loads server settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/mcoot/backgammon-go/internal/api"
	"github.com/mcoot/backgammon-go/internal/services/auth"
	"github.com/mcoot/backgammon-go/internal/services/game"
	redisstorage "github.com/mcoot/backgammon-go/internal/storage/redis"
)

// Config is the full server configuration. Environment variables override
// values from the file.
type Config struct {
	LogLevel string  `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTP     HTTP    `yaml:"http"`
	Storage  string  `yaml:"storage" env:"STORAGE_TYPE" env-default:"memory"`
	Redis    Redis   `yaml:"redis"`
	Game     Game    `yaml:"game"`
	Auth     Auth    `yaml:"auth"`
	Cleanup  Cleanup `yaml:"cleanup"`
}

type HTTP struct {
	Host            string        `yaml:"host" env:"HTTP_HOST" env-default:""`
	Port            int           `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read-timeout" env:"HTTP_READ_TIMEOUT" env-default:"15s"`
	ShutdownTimeout time.Duration `yaml:"shutdown-timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"30s"`
}

type Redis struct {
	URL              string        `yaml:"url" env:"REDIS_URL" env-default:"redis://localhost:6379"`
	PoolSize         int           `yaml:"pool-size" env:"REDIS_POOL_SIZE" env-default:"10"`
	MinIdleConns     int           `yaml:"min-idle-conns" env:"REDIS_MIN_IDLE_CONNS" env-default:"2"`
	SessionTTL       time.Duration `yaml:"session-ttl" env:"REDIS_SESSION_TTL" env-default:"24h"`
	ParticipantTTL   time.Duration `yaml:"participant-ttl" env:"REDIS_PARTICIPANT_TTL" env-default:"24h"`
	MaxUpdateRetries int           `yaml:"max-update-retries" env:"REDIS_MAX_UPDATE_RETRIES" env-default:"10"`
}

type Game struct {
	BlockedTurnDelay time.Duration `yaml:"blocked-turn-delay" env:"GAME_BLOCKED_TURN_DELAY" env-default:"2s"`
}

type Auth struct {
	SessionDuration time.Duration `yaml:"session-duration" env:"AUTH_SESSION_DURATION" env-default:"24h"`
}

type Cleanup struct {
	// Interval between sweeps of idle push hubs and expired guests. Zero disables them.
	Interval time.Duration `yaml:"interval" env:"CLEANUP_INTERVAL" env-default:"5m"`
}

// Load reads path if it exists, otherwise the environment alone
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, cfg); err != nil {
				return nil, fmt.Errorf("unable to load config file: %w", err)
			}
			return cfg, cfg.validate()
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("unable to stat config file: %w", err)
		}
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("unable to load config from environment: %w", err)
	}
	return cfg, cfg.validate()
}

// MustLoad is Load that panics on error
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) validate() error {
	switch c.Storage {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown storage type %q", c.Storage)
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http port %d", c.HTTP.Port)
	}
	if c.Cleanup.Interval < 0 {
		return fmt.Errorf("invalid cleanup interval %s", c.Cleanup.Interval)
	}
	return nil
}

// SlogLevel parses LogLevel, falling back to info
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) ServerConfig() api.ServerConfig {
	cfg := api.DefaultServerConfig()
	cfg.Host = c.HTTP.Host
	cfg.Port = c.HTTP.Port
	cfg.ReadTimeout = c.HTTP.ReadTimeout
	cfg.ShutdownTimeout = c.HTTP.ShutdownTimeout
	return cfg
}

func (c *Config) RedisConfig() redisstorage.Config {
	return redisstorage.Config{
		URL:              c.Redis.URL,
		PoolSize:         c.Redis.PoolSize,
		MinIdleConns:     c.Redis.MinIdleConns,
		ParticipantTTL:   c.Redis.ParticipantTTL,
		SessionTTL:       c.Redis.SessionTTL,
		MaxUpdateRetries: c.Redis.MaxUpdateRetries,
	}
}

func (c *Config) GameConfig() game.Config {
	return game.Config{BlockedTurnDelay: c.Game.BlockedTurnDelay}
}

func (c *Config) AuthConfig() auth.Config {
	return auth.Config{SessionDuration: c.Auth.SessionDuration}
}
