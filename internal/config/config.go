package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Backend names accepted for leaderboard.backend.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
		Format string `yaml:"format" validate:"omitempty,oneof=json console"`
	} `yaml:"log"`
	Catalog struct {
		Path string `yaml:"path"`
		TTL  string `yaml:"ttl"`
	} `yaml:"catalog"`
	Session struct {
		IdleTTL       string `yaml:"idle_ttl"`
		SweepInterval string `yaml:"sweep_interval"`
		TestSize      int    `yaml:"test_size" validate:"gte=0"`
	} `yaml:"session"`
	Leaderboard struct {
		Backend  string `yaml:"backend" validate:"omitempty,oneof=memory redis postgres sqlite"`
		Timezone string `yaml:"timezone"`
		Limit    int    `yaml:"limit" validate:"gte=0"`
	} `yaml:"leaderboard"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
}

// Load reads YAML config from path, then applies environment overrides.
// A .env file in the working directory is loaded first when present.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks enumerated and numeric fields.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	switch c.Backend() {
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("invalid config: redis backend needs redis.addr")
		}
	case BackendPostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("invalid config: postgres backend needs postgres.url")
		}
	}
	return nil
}

// Backend is the leaderboard backend, memory when unset.
func (c Config) Backend() string {
	if c.Leaderboard.Backend == "" {
		return BackendMemory
	}
	return c.Leaderboard.Backend
}

// Location is the time zone used for leaderboard date labels; UTC when unset.
func (c Config) Location() (*time.Location, error) {
	if c.Leaderboard.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Leaderboard.Timezone)
}

func applyEnv(cfg *Config) {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setString("LOG_LEVEL", &cfg.Log.Level)
	setString("CATALOG_PATH", &cfg.Catalog.Path)
	setString("LEADERBOARD_BACKEND", &cfg.Leaderboard.Backend)
	setString("LEADERBOARD_TIMEZONE", &cfg.Leaderboard.Timezone)
	setString("REDIS_ADDR", &cfg.Redis.Addr)
	setString("REDIS_PASSWORD", &cfg.Redis.Password)
	setString("DATABASE_URL", &cfg.Postgres.URL)
	setString("SQLITE_PATH", &cfg.SQLite.Path)
	if v := os.Getenv("TEST_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Session.TestSize = n
		}
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
