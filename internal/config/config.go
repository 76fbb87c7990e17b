package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port        string     `env:"PORT"        envDefault:"8080"`
	Environment string     `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    slog.Level `env:"LOG_LEVEL"   envDefault:"info"`

	RedisURL       string        `env:"REDIS_URL"        envDefault:"localhost:6379"`
	DataDir        string        `env:"DATA_DIR"         envDefault:"./data"`
	SessionTTL     time.Duration `env:"SESSION_TTL"      envDefault:"24h"`
	SessionLockTTL time.Duration `env:"SESSION_LOCK_TTL" envDefault:"30s"`

	RoomSuccessProbability float64       `env:"ROOM_SUCCESS_PROBABILITY" envDefault:"0.7"`
	RoomGracePeriod        time.Duration `env:"ROOM_GRACE_PERIOD"        envDefault:"60s"`
	RoomScoreLimit         int           `env:"ROOM_SCORE_LIMIT"         envDefault:"0"`

	CommandDelayMin time.Duration `env:"COMMAND_DELAY_MIN" envDefault:"100ms"`
	CommandDelayMax time.Duration `env:"COMMAND_DELAY_MAX" envDefault:"500ms"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.SessionLockTTL <= 0 {
		errs = append(errs, errors.New("SESSION_LOCK_TTL must be positive"))
	}
	if c.RoomSuccessProbability <= 0 || c.RoomSuccessProbability > 1 {
		errs = append(errs, fmt.Errorf("ROOM_SUCCESS_PROBABILITY %v must be in (0, 1]", c.RoomSuccessProbability))
	}
	if c.RoomGracePeriod <= 0 {
		errs = append(errs, errors.New("ROOM_GRACE_PERIOD must be positive"))
	}
	if c.RoomScoreLimit < 0 {
		errs = append(errs, errors.New("ROOM_SCORE_LIMIT must not be negative"))
	}
	if c.CommandDelayMin < 0 || c.CommandDelayMax < c.CommandDelayMin {
		errs = append(errs, fmt.Errorf("command delay range %s..%s is invalid", c.CommandDelayMin, c.CommandDelayMax))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
