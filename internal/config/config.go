package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config keeps runtime settings for the bot.
type Config struct {
	TelegramToken   string        `yaml:"telegram_token"`
	DatabaseURL     string        `yaml:"database_url"`
	CheckInterval   time.Duration `yaml:"check_interval"`
	SweepTimeout    time.Duration `yaml:"sweep_timeout"`
	SweepWorkers    int           `yaml:"sweep_workers"`
	DefaultTimezone string        `yaml:"default_timezone"`
	LogMode         string        `yaml:"log_mode"`
	Port            string        `yaml:"port"`
	HealthDisabled  bool          `yaml:"health_disabled"`
}

// Location returns the loaded default zone. Load has already validated the name.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func defaults() Config {
	return Config{
		DatabaseURL:     "nagger.db",
		CheckInterval:   time.Minute,
		SweepTimeout:    50 * time.Second,
		SweepWorkers:    4,
		DefaultTimezone: "UTC",
		LogMode:         "dev",
		Port:            "10000",
	}
}

// Load reads the optional YAML file named by CONFIG_FILE and then applies
// environment variables on top of it.
func Load() (Config, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString("TELEGRAM_TOKEN", &cfg.TelegramToken)
	setString("DATABASE_URL", &cfg.DatabaseURL)
	setString("DEFAULT_TIMEZONE", &cfg.DefaultTimezone)
	setString("LOG_MODE", &cfg.LogMode)
	setString("PORT", &cfg.Port)

	if err := setDuration("CHECK_INTERVAL", &cfg.CheckInterval); err != nil {
		return err
	}
	if err := setDuration("SWEEP_TIMEOUT", &cfg.SweepTimeout); err != nil {
		return err
	}
	if raw := strings.TrimSpace(os.Getenv("SWEEP_WORKERS")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid SWEEP_WORKERS %q: %w", raw, err)
		}
		cfg.SweepWorkers = n
	}
	if raw := strings.TrimSpace(os.Getenv("HEALTH_DISABLED")); raw != "" {
		disabled, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid HEALTH_DISABLED %q: %w", raw, err)
		}
		cfg.HealthDisabled = disabled
	}
	return nil
}

func (c Config) validate() error {
	if c.TelegramToken == "" {
		return errors.New("TELEGRAM_TOKEN is required")
	}
	if c.CheckInterval < time.Second {
		return fmt.Errorf("check interval must be at least 1s, got %s", c.CheckInterval)
	}
	if c.SweepTimeout <= 0 {
		return fmt.Errorf("sweep timeout must be positive, got %s", c.SweepTimeout)
	}
	if c.SweepWorkers <= 0 {
		return fmt.Errorf("sweep workers must be positive, got %d", c.SweepWorkers)
	}
	if _, err := time.LoadLocation(c.DefaultTimezone); err != nil {
		return fmt.Errorf("invalid DEFAULT_TIMEZONE %q: %w", c.DefaultTimezone, err)
	}
	return nil
}

func setString(key string, dst *string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setDuration(key string, dst *time.Duration) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	*dst = d
	return nil
}
