package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the server configuration. Defaults come from DefaultConfig, a
// YAML file may override them and command-line flags override both.
type Config struct {
	Addr          string        `yaml:"addr"`
	ClientDir     string        `yaml:"client_dir"`
	DBPath        string        `yaml:"db_path"` // empty disables persistence
	PublicURL     string        `yaml:"public_url"`
	TickRate      int           `yaml:"tick_rate"`
	MaxFrameDelta time.Duration `yaml:"max_frame_delta"`
	MaxSessions   int           `yaml:"max_sessions"`
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
	PowerupDrops  bool          `yaml:"powerup_drops"`
	Log           LogConfig     `yaml:"log"`
}

// LogConfig selects the logger level and encoding
type LogConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"` // json or console
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() Config {
	return Config{
		Addr:          ":8080",
		ClientDir:     "../client",
		DBPath:        "spaceblaster.db",
		TickRate:      TickRate,
		MaxFrameDelta: 250 * time.Millisecond,
		MaxSessions:   100,
		IdleTimeout:   5 * time.Minute,
		PowerupDrops:  true,
		Log: LogConfig{
			Level:    "info",
			Encoding: "json",
		},
	}
}

// LoadConfig reads path over the defaults. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr must be set"))
	}
	if c.TickRate < 1 || c.TickRate > 240 {
		errs = append(errs, fmt.Errorf("tick_rate %d out of range 1-240", c.TickRate))
	}
	if c.MaxFrameDelta < 0 {
		errs = append(errs, errors.New("max_frame_delta must not be negative"))
	}
	if c.MaxSessions < 1 {
		errs = append(errs, errors.New("max_sessions must be at least 1"))
	}
	if c.IdleTimeout <= 0 {
		errs = append(errs, errors.New("idle_timeout must be positive"))
	}
	switch c.Log.Encoding {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.encoding %q must be json or console", c.Log.Encoding))
	}
	return errors.Join(errs...)
}
