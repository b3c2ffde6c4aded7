package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"TICKETS_CONFIG", "PORT", "DB_DSN", "RATE_LIMIT_PER_MIN", "RATE_LIMIT_BURST", "RECENT_CALLS_LIMIT"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.RateLimitPerMinute != 120 || cfg.RateLimitBurst != 30 {
		t.Fatalf("unexpected rate limit defaults %+v", cfg)
	}
	if cfg.RecentCallsLimit != 10 {
		t.Fatalf("expected recent calls limit 10, got %d", cfg.RecentCallsLimit)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickets.yaml")
	content := "port: \"9090\"\ndb_dsn: postgres://config-file\nrecent_calls_limit: 5\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("TICKETS_CONFIG", path)

	cfg := Load()

	if cfg.Port != "9090" {
		t.Fatalf("expected port from file, got %s", cfg.Port)
	}
	if cfg.DatabaseURL != "postgres://config-file" {
		t.Fatalf("expected dsn from file, got %s", cfg.DatabaseURL)
	}
	if cfg.RecentCallsLimit != 5 {
		t.Fatalf("expected recent calls limit from file, got %d", cfg.RecentCallsLimit)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickets.yaml")
	content := "port: \"9090\"\ndb_dsn: postgres://config-file\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("TICKETS_CONFIG", path)
	t.Setenv("PORT", "7070")
	t.Setenv("DB_DSN", "postgres://env-wins")
	t.Setenv("RATE_LIMIT_PER_MIN", "10")

	cfg := Load()

	if cfg.Port != "7070" {
		t.Fatalf("env should override file port, got %s", cfg.Port)
	}
	if cfg.DatabaseURL != "postgres://env-wins" {
		t.Fatalf("env should override file dsn, got %s", cfg.DatabaseURL)
	}
	if cfg.RateLimitPerMinute != 10 {
		t.Fatalf("env should override rate limit, got %d", cfg.RateLimitPerMinute)
	}
}

func TestBadIntFallsBack(t *testing.T) {
	t.Setenv("TICKETS_CONFIG", "")
	t.Setenv("RATE_LIMIT_BURST", "not-a-number")

	cfg := Load()

	if cfg.RateLimitBurst != 30 {
		t.Fatalf("bad int should fall back, got %d", cfg.RateLimitBurst)
	}
}
