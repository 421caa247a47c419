// Package config reads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is built once at startup and passed to every component that needs it.
type Config struct {
	Port   string
	DBPath string
	Env    string

	Cache   CacheConfig
	Session SessionConfig
}

// CacheConfig holds the engine-wide cache settings and the default store definition.
type CacheConfig struct {
	Enabled          bool
	MinEngineVersion string
	DefaultStore     string
	DefaultTTL       time.Duration
	MaxEntries       int
	SweepInterval    time.Duration
}

// SessionConfig holds the session store settings.
type SessionConfig struct {
	Timeout     time.Duration
	MaxSessions int
	GCInterval  time.Duration
}

// IsDevelopment reports whether APP_ENV selects development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads the configuration from environment variables, falling back to defaults.
func Load() (Config, error) {
	var (
		cfg Config
		err error
	)
	cfg.Port = getEnv("PORT", "8008")
	cfg.DBPath = getEnv("DB_PATH", "usercache.db")
	cfg.Env = getEnv("APP_ENV", "production")

	if cfg.Cache.Enabled, err = getBool("CACHE_ENABLED", true); err != nil {
		return Config{}, err
	}
	cfg.Cache.MinEngineVersion = getEnv("CACHE_MIN_ENGINE_VERSION", "v1.1.0")
	cfg.Cache.DefaultStore = getEnv("CACHE_DEFAULT_STORE", "default")
	if cfg.Cache.DefaultTTL, err = getDuration("CACHE_DEFAULT_TTL", 0); err != nil {
		return Config{}, err
	}
	if cfg.Cache.MaxEntries, err = getInt("CACHE_MAX_ENTRIES", 0); err != nil {
		return Config{}, err
	}
	if cfg.Cache.SweepInterval, err = getDuration("CACHE_SWEEP_INTERVAL", time.Minute); err != nil {
		return Config{}, err
	}

	if cfg.Session.Timeout, err = getDuration("SESSION_TIMEOUT", 2*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.Session.MaxSessions, err = getInt("SESSION_MAX", 0); err != nil {
		return Config{}, err
	}
	if cfg.Session.GCInterval, err = getDuration("SESSION_GC_INTERVAL", 5*time.Minute); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", key, err)
	}
	return b, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("config: %s must not be negative", key)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config: %s must not be negative", key)
	}
	return d, nil
}
