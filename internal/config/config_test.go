package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_DSN", "host=localhost user=telemetry dbname=telemetry sslmode=disable")
	t.Setenv("JWT_ACCESS_SECRET", "test-secret")
	t.Setenv("INGEST_API_KEY", "test-ingest-key")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.HTTP.Port != 7090 {
		t.Errorf("http port = %d, want 7090", cfg.HTTP.Port)
	}
	if cfg.Environment != "development" {
		t.Errorf("environment = %q, want development", cfg.Environment)
	}

	tel := cfg.Telemetry
	if tel.SpeedMovingKmh != 5 {
		t.Errorf("speed threshold = %v, want 5", tel.SpeedMovingKmh)
	}
	if tel.DwellMinPings != 2 {
		t.Errorf("dwell pings = %d, want 2", tel.DwellMinPings)
	}
	if tel.MinTripDisplacementM != 50 {
		t.Errorf("min displacement = %v, want 50", tel.MinTripDisplacementM)
	}
	if tel.FuelLookback != 30*time.Minute {
		t.Errorf("fuel lookback = %v, want 30m", tel.FuelLookback)
	}
	if tel.TankCapacityLiters != 400 {
		t.Errorf("tank capacity = %v, want 400", tel.TankCapacityLiters)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("HTTP_PORT", "9001")
	t.Setenv("DWELL_MIN_PINGS", "3")
	t.Setenv("RAPID_WINDOW", "5m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != 9001 {
		t.Errorf("http port = %d, want 9001", cfg.HTTP.Port)
	}
	if cfg.Telemetry.DwellMinPings != 3 {
		t.Errorf("dwell pings = %d, want 3", cfg.Telemetry.DwellMinPings)
	}
	if cfg.Telemetry.RapidWindow != 5*time.Minute {
		t.Errorf("rapid window = %v, want 5m", cfg.Telemetry.RapidWindow)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("JWT_ACCESS_SECRET", "s")
	t.Setenv("INGEST_API_KEY", "k")

	if _, err := Load(); err == nil {
		t.Fatal("Load succeeded without DB_DSN")
	}
}
