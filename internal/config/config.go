package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/papapumpkin/sleigh/internal/ctxlog"
	"github.com/papapumpkin/sleigh/internal/sched"
)

// Config holds all runtime configuration for a simulation.
// Values are populated from .sleigh.yaml, SLEIGH_* env vars, and CLI flags.
type Config struct {
	Workers       int    `mapstructure:"workers"`
	BaseCost      int    `mapstructure:"base_cost"`
	StepCost      int    `mapstructure:"step_cost"`
	Readiness     string `mapstructure:"readiness"`
	LogLevel      string `mapstructure:"log_level"`
	LogFormat     string `mapstructure:"log_format"`
	TelemetryPath string `mapstructure:"telemetry_path"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags, and validates the
// result.
func Load() (Config, error) {
	viper.SetDefault("workers", 5)
	viper.SetDefault("base_cost", 60)
	viper.SetDefault("step_cost", 1)
	viper.SetDefault("readiness", "scan")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")
	viper.SetDefault("telemetry_path", "")

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	var errs []error
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.BaseCost < 0 {
		errs = append(errs, fmt.Errorf("base_cost must not be negative, got %d", c.BaseCost))
	}
	if c.StepCost < 0 {
		errs = append(errs, fmt.Errorf("step_cost must not be negative, got %d", c.StepCost))
	}
	if c.BaseCost+c.StepCost < 1 {
		errs = append(errs, errors.New("base_cost + step_cost must be at least 1 so every task takes time"))
	}
	if _, err := sched.ParseReadiness(c.Readiness); err != nil {
		errs = append(errs, err)
	}
	if _, err := ctxlog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}
