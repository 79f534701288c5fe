package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":8080" || cfg.RefreshCron != "@hourly" {
		t.Errorf("defaults: got %+v", cfg)
	}
	if cfg.Reminders.OwnerHoursBefore != 6 {
		t.Errorf("owner hours: got %d", cfg.Reminders.OwnerHoursBefore)
	}
}

func TestLoadPartialFileNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "listen: \":9090\"\nreminders:\n  owner_hours_before: 0\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":9090" {
		t.Errorf("listen: got %s", cfg.Listen)
	}
	if cfg.MeetsCSV != "meets.csv" {
		t.Errorf("meets csv not defaulted: got %s", cfg.MeetsCSV)
	}
	if cfg.Reminders.OwnerHoursBefore != 6 {
		t.Errorf("zero owner hours should fall back to 6, got %d", cfg.Reminders.OwnerHoursBefore)
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listen: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
