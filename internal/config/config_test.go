package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "scrapline.sqlite3" {
		t.Errorf("unexpected default db path %q", cfg.DBPath)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("unexpected default addr %q", cfg.Addr)
	}
	if cfg.OfferSweepInterval != 15*time.Minute {
		t.Errorf("unexpected default sweep interval %v", cfg.OfferSweepInterval)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SCRAPLINE_DB", "/tmp/test.sqlite3")
	t.Setenv("SCRAPLINE_ADDR", ":9090")
	t.Setenv("SCRAPLINE_OFFER_SWEEP_MINUTES", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/tmp/test.sqlite3" {
		t.Errorf("unexpected db path %q", cfg.DBPath)
	}
	if cfg.Addr != ":9090" {
		t.Errorf("unexpected addr %q", cfg.Addr)
	}
	if cfg.OfferSweepInterval != 5*time.Minute {
		t.Errorf("unexpected sweep interval %v", cfg.OfferSweepInterval)
	}
}

func TestLoadRejectsBadSweepInterval(t *testing.T) {
	t.Setenv("SCRAPLINE_OFFER_SWEEP_MINUTES", "soon")

	if _, err := Load(); err == nil {
		t.Error("expected error for non-numeric sweep interval")
	}
}
