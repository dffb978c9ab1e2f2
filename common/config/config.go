// Package config loads ambient service configuration for the petrinet
// CLI adapter. The core engine packages never import this package —
// they take explicit config structs as arguments.
package config

import (
	"os"
)

// Config holds CLI-level settings, a trimmed ServiceConfig with the
// database/queue/telemetry sections dropped:
// this repository has none of those external collaborators.
type Config struct {
	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment, falling back to
// sensible defaults for local/CI use.
func Load() *Config {
	return &Config{
		LogLevel:  getEnv("PETRINET_LOG_LEVEL", "info"),
		LogFormat: getEnv("PETRINET_LOG_FORMAT", "console"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
