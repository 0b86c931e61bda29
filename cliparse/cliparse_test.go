// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseFlags_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 3318 {
		t.Errorf("expected default port 3318, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("expected sqlite default, got %q", cfg.DatabaseType)
	}
	if cfg.DatabaseURL != filepath.Join("data", "polls.db") {
		t.Errorf("expected sqlite path under data dir, got %q", cfg.DatabaseURL)
	}
	if cfg.RetentionDays != 30 {
		t.Errorf("expected 30 day retention, got %d", cfg.RetentionDays)
	}
	if cfg.RefreshMinutes != 1 {
		t.Errorf("expected 1 minute refresh, got %d", cfg.RefreshMinutes)
	}
	if cfg.NotifyCooldownSeconds != 600 {
		t.Errorf("expected 600s cooldown, got %d", cfg.NotifyCooldownSeconds)
	}
}

func TestParseFlags_EnvVars(t *testing.T) {
	os.Setenv("PORT", "9000")
	os.Setenv("DATA_DIR", "/var/lib/pollwarden")
	os.Setenv("RETENTION_DAYS", "7")
	os.Setenv("NOTIFY_COOLDOWN_SECONDS", "120")
	defer os.Clearenv()

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DataDir != "/var/lib/pollwarden" {
		t.Errorf("expected env data dir, got %q", cfg.DataDir)
	}
	if cfg.RetentionDays != 7 {
		t.Errorf("expected 7 day retention, got %d", cfg.RetentionDays)
	}
	if cfg.NotifyCooldownSeconds != 120 {
		t.Errorf("expected 120s cooldown, got %d", cfg.NotifyCooldownSeconds)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	os.Setenv("PORT", "9000")
	defer os.Clearenv()

	cfg, err := ParseFlags([]string{"-p", "8080", "-data", "/tmp/pw"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.DataDir != "/tmp/pw" {
		t.Errorf("CLI should override env: expected /tmp/pw, got %q", cfg.DataDir)
	}
}

func TestParseFlags_PostgresRequiresURL(t *testing.T) {
	os.Clearenv()

	_, err := ParseFlags([]string{"-t", "postgres"})
	if err == nil {
		t.Fatal("expected error for postgres without database URL")
	}

	cfg, err := ParseFlags([]string{"-t", "postgres", "-d", "postgres://test"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DatabaseURL != "postgres://test" {
		t.Errorf("unexpected database URL %q", cfg.DatabaseURL)
	}
}

func TestParseFlags_RejectsUnknownDatabaseType(t *testing.T) {
	os.Clearenv()

	if _, err := ParseFlags([]string{"-t", "mysql"}); err == nil {
		t.Fatal("expected error for unsupported database type")
	}
}
