// Package config loads the jeep service configuration: defaults, then an
// optional YAML file, then JEEP_* environment overrides, then validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/kiotasks/jeep/internal/eval"
	"github.com/kiotasks/jeep/internal/gate"
	"github.com/kiotasks/jeep/internal/task"
)

var validate = validator.New()

// #region types
// Config is the full service configuration.
type Config struct {
	Level        int    `json:"level" yaml:"level" validate:"gte=0"`
	DBPath       string `json:"db" yaml:"db" validate:"required"`
	HostAddr     string `json:"host_addr" yaml:"host_addr" validate:"omitempty,hostname_port"` // empty disables host reporting
	HTTPAddr     string `json:"http_addr" yaml:"http_addr" validate:"required,hostname_port"`
	ResourceBase string `json:"resource_base" yaml:"resource_base"`

	Log      LogConfig      `json:"log" yaml:"log"`
	Gate     GateConfig     `json:"gate" yaml:"gate"`
	Goals    GoalConfig     `json:"goals" yaml:"goals"`
	Sessions SessionsConfig `json:"sessions" yaml:"sessions"`
}

// LogConfig configures the service logger.
type LogConfig struct {
	Level string `json:"level" yaml:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `json:"json" yaml:"json"`
}

// GateConfig bounds the edits a session may make.
type GateConfig struct {
	MaxSteps int `json:"max_steps" yaml:"max_steps" validate:"gte=0"`
}

// GoalConfig sets the informational budgets results are checked against.
type GoalConfig struct {
	RequireReturn bool `json:"require_return" yaml:"require_return"`
	MaxTotalFuel  int  `json:"max_total_fuel" yaml:"max_total_fuel" validate:"gte=0"`
	MaxSteps      int  `json:"max_steps" yaml:"max_steps" validate:"gte=0"`
}

// SessionsConfig bounds the HTTP session registry.
type SessionsConfig struct {
	Max int `json:"max" yaml:"max" validate:"gte=1"`
}

// #endregion types

// #region defaults
// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Level:    0,
		DBPath:   "jeep.db",
		HTTPAddr: "localhost:8080",
		Log: LogConfig{
			Level: "info",
		},
		Gate: GateConfig{
			MaxSteps: gate.DefaultGateConfig().MaxSteps,
		},
		Sessions: SessionsConfig{
			Max: 256,
		},
	}
}

// #endregion defaults

// #region load
// Load reads path (a missing file means defaults), applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := loadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("load config env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func loadEnv(cfg *Config) error {
	if v := os.Getenv("JEEP_LEVEL"); v != "" {
		level, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("JEEP_LEVEL: %w", err)
		}
		cfg.Level = level
	}
	if v := os.Getenv("JEEP_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("JEEP_HOST_ADDR"); v != "" {
		cfg.HostAddr = v
	}
	if v := os.Getenv("JEEP_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("JEEP_RESOURCE_BASE"); v != "" {
		cfg.ResourceBase = v
	}
	if v := os.Getenv("JEEP_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("JEEP_LOG_JSON"); v != "" {
		cfg.Log.JSON = v == "true" || v == "1"
	}
	return nil
}

// #endregion load

// #region validate
// Validate checks field constraints.
func (c Config) Validate() error {
	return validate.Struct(c)
}

// #endregion validate

// #region derived
// Settings returns the task settings of the configured level.
func (c Config) Settings() task.Settings {
	return task.Settings{Level: c.Level}
}

// GateConfig returns the edit limits.
func (c Config) GateConfig() gate.GateConfig {
	return gate.GateConfig{MaxSteps: c.Gate.MaxSteps}
}

// EvalConfig returns the goals of a level under this configuration.
func (c Config) EvalConfig(level int) eval.EvalConfig {
	cfg := eval.DefaultEvalConfig(task.LevelFor(level).Cells)
	if c.Goals.RequireReturn {
		cfg.TargetFarWithReturn = cfg.TargetFar
	}
	cfg.MaxTotalFuel = c.Goals.MaxTotalFuel
	cfg.MaxSteps = c.Goals.MaxSteps
	return cfg
}

// #endregion derived
