// Package config loads engine configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the full runtime configuration for the sync engine.
type Config struct {
	// HTTP surface
	APIAddr     string
	MetricsAddr string

	// Upstream backend serving itinerary and route payloads
	BackendBaseURL string
	BackendTimeout time.Duration

	// Poll cadence
	NormalInterval time.Duration
	FastInterval   time.Duration
	FastWindow     time.Duration

	// Optional snapshot archive; in-memory store when empty
	DatabaseURL string

	// Optional NATS fan-out; disabled when empty
	NATSURL           string
	NATSSubjectPrefix string

	// Optional Pub/Sub signal bridge; disabled when ProjectID is empty
	PubSubProjectID    string
	PubSubSubscription string

	// Optional bearer auth for the API; disabled when empty
	JWTSigningKey string

	LogLevel string
}

// Load reads configuration from a .env file (if present) and the
// environment.
func Load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	cfg := &Config{
		APIAddr:            getenvDefault("API_ADDR", ":8080"),
		MetricsAddr:        getenvDefault("METRICS_ADDR", ":9090"),
		BackendBaseURL:     getenvDefault("BACKEND_BASE_URL", "http://localhost:8000"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		NATSURL:            os.Getenv("NATS_URL"),
		NATSSubjectPrefix:  getenvDefault("NATS_SUBJECT_PREFIX", "tripsync"),
		PubSubProjectID:    os.Getenv("PUBSUB_PROJECT_ID"),
		PubSubSubscription: getenvDefault("PUBSUB_SUBSCRIPTION", "itinerary-requests"),
		JWTSigningKey:      os.Getenv("JWT_SIGNING_KEY"),
		LogLevel:           getenvDefault("LOG_LEVEL", "info"),
	}

	var err error

	cfg.BackendTimeout, err = durationFromEnv("BACKEND_TIMEOUT_MS", 10*time.Second)
	if err != nil {
		return nil, err
	}

	cfg.NormalInterval, err = durationFromEnv("POLL_INTERVAL_MS", 3000*time.Millisecond)
	if err != nil {
		return nil, err
	}

	cfg.FastInterval, err = durationFromEnv("POLL_FAST_INTERVAL_MS", 300*time.Millisecond)
	if err != nil {
		return nil, err
	}

	cfg.FastWindow, err = durationFromEnv("POLL_FAST_WINDOW_MS", 30000*time.Millisecond)
	if err != nil {
		return nil, err
	}

	if cfg.FastInterval >= cfg.NormalInterval {
		return nil, fmt.Errorf("POLL_FAST_INTERVAL_MS (%s) must be shorter than POLL_INTERVAL_MS (%s)",
			cfg.FastInterval, cfg.NormalInterval)
	}

	return cfg, nil
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}

	ms, err := strconv.Atoi(v)
	if err != nil || ms <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}

	return time.Duration(ms) * time.Millisecond, nil
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
