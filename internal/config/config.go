// Package config loads focuskit settings from defaults, an optional YAML
// file and FOCUSKIT_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultListen  = "127.0.0.1:7421"
	DefaultPlayer  = "ffplay -nodisp -loglevel quiet -loop 0 -volume {volume} {file}"
	configFileName = "config.yaml"
	envPrefix      = "FOCUSKIT_"
)

type Config struct {
	// Dir holds the lockfile, logs and the default database.
	Dir    string `yaml:"-" validate:"required"`
	Listen string `yaml:"listen" validate:"required,hostname_port"`
	// Store is a SQLite path or a postgres:// URL.
	Store  string `yaml:"store" validate:"required"`
	Debug  bool   `yaml:"debug"`
	Notify Notify `yaml:"notify"`
	Sound  Sound  `yaml:"sound"`
}

type Notify struct {
	Webhook string `yaml:"webhook" validate:"omitempty,url"`
}

type Sound struct {
	Player string `yaml:"player"`
	Dir    string `yaml:"dir"`
}

var validate = validator.New()

// Default returns the built-in settings rooted at dir.
func Default(dir string) *Config {
	return &Config{
		Dir:    dir,
		Listen: DefaultListen,
		Store:  filepath.Join(dir, "focuskit.db"),
		Sound: Sound{
			Player: DefaultPlayer,
			Dir:    filepath.Join(dir, "sounds"),
		},
	}
}

// Load reads dir/config.yaml when present, applies environment overrides and
// validates the result.
func Load(dir string) (*Config, error) {
	cfg := Default(dir)

	data, err := os.ReadFile(filepath.Join(dir, configFileName))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configFileName, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read %s: %w", configFileName, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := getEnv("LISTEN", ""); v != "" {
		c.Listen = v
	}
	if v := getEnv("STORE", ""); v != "" {
		c.Store = v
	}
	if v := getEnv("WEBHOOK", ""); v != "" {
		c.Notify.Webhook = v
	}
	if v := getEnv("SOUND_PLAYER", ""); v != "" {
		c.Sound.Player = v
	}
	if v := getEnv("DEBUG", ""); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sDEBUG: %w", envPrefix, err)
		}
		c.Debug = debug
	}
	return nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Save writes c to dir/config.yaml.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.Dir, configFileName), data, 0o644)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(envPrefix + key); v != "" {
		return v
	}
	return fallback
}
