// Package config loads MerchSync configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the offline core and its desktop server need.
type Config struct {
	DataDir        string
	BackendBaseURL string
	BackendToken   string
	ProbeURL       string
	ProbeInterval  time.Duration
	CacheDuration  time.Duration
	QueueCapacity  int
	ReplayTimeout  time.Duration
	ReplayRPS      float64
	Port           string
}

// Load reads configuration from a .env file (if present) and the
// environment, applying development fallbacks.
func Load() Config {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	return Config{
		DataDir:        getEnv("DATA_DIR", "./data"),
		BackendBaseURL: getEnv("BACKEND_BASE_URL", "http://localhost:3000"),
		BackendToken:   getEnv("BACKEND_TOKEN", ""),
		ProbeURL:       getEnv("PROBE_URL", getEnv("BACKEND_BASE_URL", "http://localhost:3000")+"/api/health"),
		ProbeInterval:  getDuration("PROBE_INTERVAL", 15*time.Second),
		CacheDuration:  getDuration("CACHE_DURATION", 24*time.Hour),
		QueueCapacity:  getInt("QUEUE_CAPACITY", 500),
		ReplayTimeout:  getDuration("REPLAY_TIMEOUT", 15*time.Second),
		ReplayRPS:      getFloat("REPLAY_RPS", 5),
		Port:           getEnv("PORT", "8090"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
