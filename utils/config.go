package utils

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configurable game and server parameters.
type Config struct {
	// Game rules
	GridSize    int           `json:"gridSize"`    // Cells along one side of the square board
	KeyInterval time.Duration `json:"keyInterval"` // Time between key spawns once the game started
	GameTimeout time.Duration `json:"gameTimeout"` // One-shot forcing tick after the game started

	// Actor plumbing
	AskTimeout time.Duration `json:"askTimeout"` // How long callers wait for the game actor to answer
	MaxRooms   int           `json:"maxRooms"`   // Concurrent rooms held by the room manager

	// Server & clients
	Addr         string        `json:"addr"`         // HTTP listen address
	PollInterval time.Duration `json:"pollInterval"` // Client state polling cadence
	LogLevel     string        `json:"logLevel"`
	LogFormat    string        `json:"logFormat"` // "json" or "console"
}

// DefaultConfig returns a Config struct with default values.
func DefaultConfig() Config {
	return Config{
		GridSize:     GridSize,
		KeyInterval:  KeyInterval,
		GameTimeout:  GameTimeout,
		AskTimeout:   AskTimeout,
		MaxRooms:     MaxRooms,
		Addr:         ":3001",
		PollInterval: PollInterval,
		LogLevel:     "info",
		LogFormat:    "json",
	}
}

var ErrInvalidConfig = errors.New("invalid config")

// LoadConfig starts from DefaultConfig, loads the given .env files (missing
// files are ignored) and applies KEYPASS_* / LOG_* environment overrides.
func LoadConfig(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := DefaultConfig()
	var err error
	if v := os.Getenv("KEYPASS_ADDR"); v != "" {
		cfg.Addr = v
	}
	if cfg.GridSize, err = envInt("KEYPASS_GRID_SIZE", cfg.GridSize); err != nil {
		return Config{}, err
	}
	if cfg.MaxRooms, err = envInt("KEYPASS_MAX_ROOMS", cfg.MaxRooms); err != nil {
		return Config{}, err
	}
	if cfg.KeyInterval, err = envDuration("KEYPASS_KEY_INTERVAL", cfg.KeyInterval); err != nil {
		return Config{}, err
	}
	if cfg.GameTimeout, err = envDuration("KEYPASS_GAME_TIMEOUT", cfg.GameTimeout); err != nil {
		return Config{}, err
	}
	if cfg.AskTimeout, err = envDuration("KEYPASS_ASK_TIMEOUT", cfg.AskTimeout); err != nil {
		return Config{}, err
	}
	if cfg.PollInterval, err = envDuration("KEYPASS_POLL_INTERVAL", cfg.PollInterval); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	return cfg, cfg.Validate()
}

// Validate rejects configurations the game cannot run with.
func (c Config) Validate() error {
	switch {
	case c.GridSize <= 0:
		return fmt.Errorf("%w: gridSize must be positive, got %d", ErrInvalidConfig, c.GridSize)
	case c.KeyInterval <= 0:
		return fmt.Errorf("%w: keyInterval must be positive, got %v", ErrInvalidConfig, c.KeyInterval)
	case c.GameTimeout <= 0:
		return fmt.Errorf("%w: gameTimeout must be positive, got %v", ErrInvalidConfig, c.GameTimeout)
	case c.AskTimeout <= 0:
		return fmt.Errorf("%w: askTimeout must be positive, got %v", ErrInvalidConfig, c.AskTimeout)
	case c.MaxRooms <= 0:
		return fmt.Errorf("%w: maxRooms must be positive, got %d", ErrInvalidConfig, c.MaxRooms)
	}
	return nil
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, key, v, err)
	}
	return n, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, key, v, err)
	}
	return d, nil
}
