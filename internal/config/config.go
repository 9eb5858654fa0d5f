package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr string `yaml:"http_addr"`

	Env     string `yaml:"env"`     // "dev" | "prod"
	Backend string `yaml:"backend"` // "memory" | "sqlite"
	DBPath  string `yaml:"db_path"` // e.g. "./data/custodia.db"

	// DevAdmin, when set in a dev environment, is a hex identity granted an
	// admin record at startup so local clients can write immediately.
	DevAdmin string `yaml:"dev_admin"`
}

// Load builds the configuration from an optional YAML file overlaid with
// environment variables.  Env always wins; path may be empty.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if cfg.Env != "dev" && cfg.Env != "prod" {
		// fail-soft: treat unknown as dev
		cfg.Env = "dev"
	}
	switch cfg.Backend {
	case "memory", "sqlite":
	default:
		return Config{}, fmt.Errorf("unknown backend %q (want memory or sqlite)", cfg.Backend)
	}

	return cfg, nil
}

func defaults() Config {
	return Config{
		HTTPAddr: ":8080",
		Env:      "dev",
		Backend:  "sqlite",
		DBPath:   "./data/custodia.db",
	}
}

func applyEnv(cfg *Config) {
	setIfEnv(&cfg.HTTPAddr, "CUSTODIA_HTTP_ADDR")
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("CUSTODIA_ENV"))); v != "" {
		cfg.Env = v
	}
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("CUSTODIA_BACKEND"))); v != "" {
		cfg.Backend = v
	}
	setIfEnv(&cfg.DBPath, "CUSTODIA_DB_PATH")
	setIfEnv(&cfg.DevAdmin, "CUSTODIA_DEV_ADMIN")
}

func setIfEnv(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}
