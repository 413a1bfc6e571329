package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting. Values come from the environment with
// defaults matching the production deployment against pass.rw.by.
type Config struct {
	HTTPAddr    string
	DatabaseDSN string
	RailBaseURL string
	Timezone    string

	PollInterval       time.Duration
	PollJitter         float64
	FailureCeiling     int
	MaxSearchesPerUser int
	ProbeTimeout       time.Duration
	QuiesceTimeout     time.Duration
}

// Load reads a .env file when present, then the environment. Malformed
// values fail loudly instead of silently falling back.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:    getString("HTTP_ADDR", ":8080"),
		DatabaseDSN: getString("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=postgres port=5432 sslmode=disable TimeZone=UTC"),
		RailBaseURL: getString("RAIL_BASE_URL", "https://pass.rw.by"),
		Timezone:    getString("TIMEZONE", "Europe/Minsk"),
	}

	var err error
	if cfg.PollInterval, err = getDuration("POLL_INTERVAL", 5*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.PollJitter, err = getFloat("POLL_JITTER", 0.25); err != nil {
		return Config{}, err
	}
	if cfg.FailureCeiling, err = getInt("FAILURE_CEILING", 8); err != nil {
		return Config{}, err
	}
	if cfg.MaxSearchesPerUser, err = getInt("MAX_SEARCHES_PER_USER", 3); err != nil {
		return Config{}, err
	}
	if cfg.ProbeTimeout, err = getDuration("PROBE_TIMEOUT", 7*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.QuiesceTimeout, err = getDuration("QUIESCE_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Location resolves the configured timezone used for departure validation
// and expiry checks.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func getString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid int for %s: %q", key, v)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float for %s: %q", key, v)
	}
	return f, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q", key, v)
	}
	return d, nil
}
