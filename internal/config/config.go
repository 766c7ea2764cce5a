// Package config loads server settings from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the server settings.
type Config struct {
	// DBPath is the SQLite database file path.
	DBPath string
	// Addr is the HTTP listen address.
	Addr string
	// LogPath is the rotating log file path, empty for stdout only.
	LogPath string
	// AdminUser is the admin username created on first run.
	AdminUser string
	// OfferSweepInterval is how often pending offers past their expiry
	// are swept to EXPIRED.
	OfferSweepInterval time.Duration
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first if present; real environment
// variables win over it.
func Load() (*Config, error) {
	// Missing .env is fine, the environment alone is a valid source.
	_ = godotenv.Load()

	cfg := &Config{
		DBPath:             envOr("SCRAPLINE_DB", "scrapline.sqlite3"),
		Addr:               envOr("SCRAPLINE_ADDR", ":8080"),
		LogPath:            os.Getenv("SCRAPLINE_LOG"),
		AdminUser:          envOr("SCRAPLINE_ADMIN_USER", "admin"),
		OfferSweepInterval: 15 * time.Minute,
	}

	if v := os.Getenv("SCRAPLINE_OFFER_SWEEP_MINUTES"); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil || minutes < 1 {
			return nil, fmt.Errorf("SCRAPLINE_OFFER_SWEEP_MINUTES must be a positive integer, got %q", v)
		}
		cfg.OfferSweepInterval = time.Duration(minutes) * time.Minute
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
