// Package config holds runtime settings for the tilepath CLI and HTTP service.
// Defaults live here; environment variables override them.
package config

import (
	"os"
	"strconv"
	"strings"
)

// RateLimit bounds requests per client IP
type RateLimit struct {
	RequestsPerSecond float64 // Sustained requests per second per IP
	Burst             int     // Maximum burst size
}

// Config is the complete service configuration
type Config struct {
	ListenAddr    string    // HTTP listen address
	ScenarioPath  string    // Scenario file served by the path endpoint
	MaxExpansions int       // Expansion budget per search, 0 for unbounded
	RateLimit     RateLimit // Per-IP request limits
	CORSOrigins   []string  // Allowed browser origins
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		ListenAddr:    ":8080",
		ScenarioPath:  "scenarios/courtyard.yaml",
		MaxExpansions: 0,
		RateLimit: RateLimit{
			RequestsPerSecond: 20,
			Burst:             40,
		},
		CORSOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
	}
}

// FromEnv returns the default configuration with environment variable overrides
func FromEnv() Config {
	cfg := Default()

	if addr := os.Getenv("TILEPATH_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}
	if path := os.Getenv("TILEPATH_SCENARIO"); path != "" {
		cfg.ScenarioPath = path
	}
	if n := getEnvInt("TILEPATH_MAX_EXPANSIONS", -1); n >= 0 {
		cfg.MaxExpansions = n
	}
	if rps := getEnvFloat("TILEPATH_RPS", 0); rps > 0 {
		cfg.RateLimit.RequestsPerSecond = rps
	}
	if burst := getEnvInt("TILEPATH_BURST", 0); burst > 0 {
		cfg.RateLimit.Burst = burst
	}
	if origins := getEnvList("TILEPATH_CORS_ORIGINS"); len(origins) > 0 {
		cfg.CORSOrigins = origins
	}

	return cfg
}

// Helper functions

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
