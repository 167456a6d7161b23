package config

import (
	"os"
	"testing"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	os.Unsetenv("DATABASE_URL")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL is missing")
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost/test")
	defer os.Unsetenv("DATABASE_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %q", cfg.Port)
	}
	if cfg.ReportQueue != "report_generation" {
		t.Errorf("expected default queue report_generation, got %q", cfg.ReportQueue)
	}
	if cfg.DBMaxConns != 10 {
		t.Errorf("expected DB_MAX_CONNS default 10, got %d", cfg.DBMaxConns)
	}
	if !cfg.IsDev() {
		t.Error("expected default environment to be development")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost/test")
	os.Setenv("PORT", "9090")
	os.Setenv("QUEUE_PREFIX", "dev")
	defer func() {
		os.Unsetenv("DATABASE_URL")
		os.Unsetenv("PORT")
		os.Unsetenv("QUEUE_PREFIX")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %q", cfg.Port)
	}
	// The queue name stays raw here; the AMQP client applies the prefix.
	if cfg.QueuePrefix != "dev" || cfg.ReportQueue != "report_generation" {
		t.Errorf("expected prefix dev and raw queue report_generation, got %q %q",
			cfg.QueuePrefix, cfg.ReportQueue)
	}
}

func TestValidate_BucketRequiredOutsideDev(t *testing.T) {
	cfg := &Config{Env: "production", ReportQueue: "report_generation"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing GCS_BUCKET in production")
	}
	cfg.GCSBucket = "mcu-reports"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
