// Package config loads service configuration. An optional YAML file
// (TICKETS_CONFIG) provides a base; environment variables always win.
package config

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port               string `yaml:"port"`
	DatabaseURL        string `yaml:"db_dsn"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_min"`
	RateLimitBurst     int    `yaml:"rate_limit_burst"`
	RecentCallsLimit   int    `yaml:"recent_calls_limit"`
}

func Load() Config {
	cfg := Config{
		Port:               "8080",
		RateLimitPerMinute: 120,
		RateLimitBurst:     30,
		RecentCallsLimit:   10,
	}

	if path := os.Getenv("TICKETS_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			log.Printf("config file path=%s error=%v", path, err)
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		cfg.DatabaseURL = dsn
	}
	cfg.RateLimitPerMinute = readInt("RATE_LIMIT_PER_MIN", cfg.RateLimitPerMinute)
	cfg.RateLimitBurst = readInt("RATE_LIMIT_BURST", cfg.RateLimitBurst)
	cfg.RecentCallsLimit = readInt("RECENT_CALLS_LIMIT", cfg.RecentCallsLimit)

	return cfg
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return yaml.NewDecoder(f).Decode(cfg)
}

func readInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
