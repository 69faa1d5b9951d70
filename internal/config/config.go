// internal/config/config.go
//
// Environment configuration for the game server.
// Order of precedence: process environment, then .env file values, then the
// envDefault tags below. Positional CLI arguments (port, delay) are parsed
// by the command, not here.

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/robalobadob/battleship/internal/game"
)

// Config holds every environment setting.
type Config struct {
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	LeaderboardFile string `env:"LEADERBOARD_FILE" envDefault:"leaderboard.txt"`
	ConnLogFile     string `env:"CONNLOG_FILE"     envDefault:"logs.txt"`
	ConnLogDSN      string `env:"CONNLOG_DSN"`
	BoardsDir       string `env:"BOARDS_DIR"`

	GridRows int    `env:"GRID_ROWS" envDefault:"7"`
	GridCols int    `env:"GRID_COLS" envDefault:"7"`
	Scoring  string `env:"SCORING"   envDefault:"bonus"`

	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"0s"`

	OpsAddr string `env:"OPS_ADDR"`

	AdmitPerMinute int    `env:"ADMIT_PER_MINUTE" envDefault:"0"`
	RedisAddr      string `env:"REDIS_ADDR"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB" envDefault:"0"`
}

// Load reads dotenv files (".env" when none are given; a missing default
// file is fine) and parses the environment into a validated Config.
func Load(dotenv ...string) (Config, error) {
	if len(dotenv) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load .env: %w", err)
		}
	} else if err := godotenv.Load(dotenv...); err != nil {
		return Config{}, fmt.Errorf("load %s: %w", strings.Join(dotenv, ","), err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges that the env tags cannot express.
func (c Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.LogFormat) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat))
	}
	if c.GridRows < 1 || c.GridRows > 26 {
		errs = append(errs, fmt.Errorf("GRID_ROWS must be between 1 and 26, got %d", c.GridRows))
	}
	if c.GridCols < 1 {
		errs = append(errs, fmt.Errorf("GRID_COLS must be positive, got %d", c.GridCols))
	}
	if _, err := game.ParseScoring(c.Scoring); err != nil {
		errs = append(errs, fmt.Errorf("SCORING: %w", err))
	}
	if c.SessionIdleTimeout < 0 {
		errs = append(errs, errors.New("SESSION_IDLE_TIMEOUT must not be negative"))
	}
	if c.AdmitPerMinute < 0 {
		errs = append(errs, errors.New("ADMIT_PER_MINUTE must not be negative"))
	}
	if c.LeaderboardFile == "" {
		errs = append(errs, errors.New("LEADERBOARD_FILE must not be empty"))
	}
	return errors.Join(errs...)
}

// ScoringMode returns the parsed SCORING value. Call after Validate.
func (c Config) ScoringMode() game.Scoring {
	s, _ := game.ParseScoring(c.Scoring)
	return s
}
