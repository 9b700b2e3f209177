package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	Env            string
	ListenAddr     string
	DatabaseURL    string
	LogJSON        bool
	Debug          bool
	GeminiAPIKey   string
	GeminiModel    string
	GeocoderURL    string
	GeocoderAPIKey string
	ParseWorkers   int
	PollInterval   time.Duration
	MaxDistanceM   float64
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func Load() (Config, error) {
	cfg := Config{
		Env:            getenv("APP_ENV", "development"),
		ListenAddr:     getenv("LISTEN_ADDR", ":8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		LogJSON:        getenv("LOG_FORMAT", "console") == "json",
		Debug:          getenv("LOG_LEVEL", "info") == "debug",
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    getenv("GEMINI_MODEL", ""),
		GeocoderURL:    getenv("GEOCODER_URL", "https://maps.googleapis.com/maps/api/geocode/json"),
		GeocoderAPIKey: os.Getenv("GEOCODER_API_KEY"),
		ParseWorkers:   getenvInt("PARSE_WORKERS", 0),
		PollInterval:   getenvDuration("PARSE_POLL_INTERVAL", 2*time.Second),
		MaxDistanceM:   float64(getenvInt("DEFAULT_MAX_DISTANCE_M", 40000)),
	}
	if cfg.DatabaseURL == "" {
		// Not fatal for early local runs; warn via error value so callers can decide.
		return cfg, fmt.Errorf("DATABASE_URL not set")
	}
	return cfg, nil
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var out int
		_, err := fmt.Sscanf(v, "%d", &out)
		if err == nil {
			return out
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
