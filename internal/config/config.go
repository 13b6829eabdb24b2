// Package config loads and saves the umlcalc YAML configuration.
//
// The file lives at ~/.umlcalc/config.yaml and is created with defaults on
// first run. Every load is validated before it is returned.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the full on-disk configuration.
type Config struct {
	Theme   string        `yaml:"theme" validate:"oneof=default dark light"`
	Log     LogConfig     `yaml:"log"`
	Plot    PlotConfig    `yaml:"plot"`
	History HistoryConfig `yaml:"history"`
	Batch   BatchConfig   `yaml:"batch"`
	Solve   SolveConfig   `yaml:"solve"`
	Server  ServerConfig  `yaml:"server"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	Dir   string `yaml:"dir"`
}

// PlotConfig holds the defaults of the plot command and its ASCII preview.
type PlotConfig struct {
	Points int     `yaml:"points" validate:"gte=2,lte=1000000"`
	XMin   float64 `yaml:"x_min" validate:"ltfield=XMax"`
	XMax   float64 `yaml:"x_max"`
	Width  int     `yaml:"width" validate:"gte=10,lte=400"`
	Height int     `yaml:"height" validate:"gte=3,lte=200"`
}

type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir" validate:"required_if=Enabled true"`
}

type BatchConfig struct {
	Workers int `yaml:"workers" validate:"gte=1,lte=256"`
}

// SolveConfig bounds the numeric root scan for non-polynomial equations.
type SolveConfig struct {
	SearchMin float64 `yaml:"search_min" validate:"ltfield=SearchMax"`
	SearchMax float64 `yaml:"search_max"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required,hostname_port"`
}

// Default returns the configuration written on first run.
func Default() Config {
	return Config{
		Theme: "default",
		Log:   LogConfig{Level: "info", Dir: "~/.umlcalc/logs"},
		Plot: PlotConfig{
			Points: 500,
			XMin:   -10,
			XMax:   10,
			Width:  50,
			Height: 10,
		},
		History: HistoryConfig{Enabled: true, Dir: "~/.umlcalc/history"},
		Batch:   BatchConfig{Workers: 4},
		Solve:   SolveConfig{SearchMin: -100, SearchMax: 100},
		Server:  ServerConfig{Addr: "127.0.0.1:8080"},
	}
}

var validate = validator.New()

// Validate checks field constraints and reports every violation.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]error, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Errorf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %w", errors.Join(msgs...))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// DefaultPath returns ~/.umlcalc/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find the user's home directory: %w", err)
	}
	return filepath.Join(home, ".umlcalc", "config.yaml"), nil
}

// Load reads path, creating it with Default() if it does not exist. Keys
// missing from the file keep their default values.
func Load(path string) (Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := Save(path, Default()); err != nil {
			return Config{}, err
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read the config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save validates cfg and writes it to path, creating parent directories.
func Save(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ExpandPath resolves a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
