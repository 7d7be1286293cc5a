// Package config loads runtime configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration.
type Config struct {
	// Upstream OAuth app (confidential client)
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Session cookie / vault sealing
	SessionSecret string
	CookieSecure  bool

	// Server
	Port int

	// Storage; empty means in-memory only
	DBPath string

	// Polling cadence
	PollEngaged time.Duration
	PollIdle    time.Duration

	// Beat detection
	BeatRefractory time.Duration

	// Whether the user granted loopback (display-audio) capture
	CaptureGranted bool
}

// Load reads configuration from environment variables with sane defaults.
// Required values are validated by the caller.
func Load() Config {
	return Config{
		ClientID:     envStr("SPOTIFY_CLIENT_ID", ""),
		ClientSecret: envStr("SPOTIFY_CLIENT_SECRET", ""),
		RedirectURL:  envStr("SPOTIFY_REDIRECT_URL", "http://127.0.0.1:8080/auth/callback"),

		SessionSecret: envStr("SESSION_SECRET", ""),
		CookieSecure:  envBool("COOKIE_SECURE", false),

		Port:   envInt("PORT", 8080),
		DBPath: envStr("WAVELINE_DB_PATH", "waveline.db"),

		PollEngaged: envDurationMs("POLL_INTERVAL_MS", 1500),
		PollIdle:    envDurationMs("POLL_IDLE_INTERVAL_MS", 3000),

		BeatRefractory: envDurationMs("BEAT_REFRACTORY_MS", 180),

		CaptureGranted: envBool("CAPTURE_ENABLED", false),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationMs(key string, fallbackMs int) time.Duration {
	return time.Duration(envInt(key, fallbackMs)) * time.Millisecond
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
