package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadReadsSections(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
log:
  level: debug
  format: console
catalog:
  path: data/catalog.json
  ttl: 0s
session:
  idle_ttl: 30m
  test_size: 20
leaderboard:
  backend: sqlite
  timezone: Asia/Kuala_Lumpur
  limit: 50
sqlite:
  path: scores.db
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Session.TestSize != 20 || cfg.Leaderboard.Limit != 50 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Backend() != BackendSQLite {
		t.Fatalf("expected sqlite backend, got %s", cfg.Backend())
	}
	loc, err := cfg.Location()
	if err != nil || loc.String() != "Asia/Kuala_Lumpur" {
		t.Fatalf("unexpected location %v err=%v", loc, err)
	}
	if got := TTLDuration(cfg.Session.IdleTTL, time.Hour); got != 30*time.Minute {
		t.Fatalf("unexpected idle ttl %v", got)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "leaderboard:\n  backend: memory\n")
	t.Setenv("LEADERBOARD_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("TEST_SIZE", "12")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend() != BackendRedis || cfg.Redis.Addr != "localhost:6379" || cfg.Session.TestSize != 12 {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown backend":    "leaderboard:\n  backend: mongo\n",
		"bad timezone":       "leaderboard:\n  timezone: Mars/Olympus\n",
		"redis without addr": "leaderboard:\n  backend: redis\n",
		"pg without url":     "leaderboard:\n  backend: postgres\n",
		"negative size":      "session:\n  test_size: -1\n",
		"bad log level":      "log:\n  level: loud\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestDefaults(t *testing.T) {
	var cfg Config
	if cfg.Backend() != BackendMemory {
		t.Fatalf("expected memory default")
	}
	if loc, _ := cfg.Location(); loc != time.UTC {
		t.Fatalf("expected utc default")
	}
	if TTLDuration("nonsense", time.Second) != time.Second {
		t.Fatalf("expected fallback for bad duration")
	}
}
