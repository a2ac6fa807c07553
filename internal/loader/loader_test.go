package loader

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "beacond.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Listen != "0.0.0.0:8080" {
		t.Errorf("listen: got %s", cfg.Listen)
	}
	if cfg.Database.Path != "beacon.db" {
		t.Errorf("database path: got %s", cfg.Database.Path)
	}
	if cfg.Log.Level != "info" || cfg.Log.JSON {
		t.Errorf("log: got %+v", cfg.Log)
	}
	if cfg.Metrics.IntervalSec != 60 {
		t.Errorf("metrics interval: got %d", cfg.Metrics.IntervalSec)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
listen: "127.0.0.1:9090"
database:
  path: /var/lib/beacon/data.db
log:
  level: debug
  json: true
metrics:
  interval_sec: 5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Listen != "127.0.0.1:9090" {
		t.Errorf("listen: got %s", cfg.Listen)
	}
	if cfg.Database.Path != "/var/lib/beacon/data.db" {
		t.Errorf("database path: got %s", cfg.Database.Path)
	}
	if cfg.Log.Level != "debug" || !cfg.Log.JSON {
		t.Errorf("log: got %+v", cfg.Log)
	}
	if cfg.Metrics.IntervalSec != 5 {
		t.Errorf("metrics interval: got %d", cfg.Metrics.IntervalSec)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
listen: ":7070"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Listen != ":7070" {
		t.Errorf("listen: got %s", cfg.Listen)
	}
	if cfg.Database.Path != "beacon.db" {
		t.Errorf("database path should keep default, got %s", cfg.Database.Path)
	}
	if cfg.Metrics.IntervalSec != 60 {
		t.Errorf("metrics interval should keep default, got %d", cfg.Metrics.IntervalSec)
	}
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("BEACON_DB_DIR", "/tmp/beacon-test")

	path := writeConfig(t, `
database:
  path: ${BEACON_DB_DIR}/data.db
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Path != "/tmp/beacon-test/data.db" {
		t.Errorf("database path: got %s", cfg.Database.Path)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "listen: [unclosed")

	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
