package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
  name: sentinel
  user: sentinel
  password: secret
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Capture.FPS != 20 || cfg.Capture.FrameWidth != 640 {
		t.Errorf("unexpected capture defaults: %+v", cfg.Capture)
	}
	if cfg.Capture.StreamPollInterval.Std() != 50*time.Millisecond {
		t.Errorf("expected 50ms poll interval, got %v", cfg.Capture.StreamPollInterval)
	}
	if cfg.Detection.Interval.Std() != 500*time.Millisecond {
		t.Errorf("expected 500ms detection interval, got %v", cfg.Detection.Interval)
	}
	if cfg.Detection.MinConfidence != 0.25 {
		t.Errorf("expected 0.25 confidence floor, got %v", cfg.Detection.MinConfidence)
	}
	if cfg.Alert.Cooldown.Std() != 30*time.Second {
		t.Errorf("expected 30s cooldown, got %v", cfg.Alert.Cooldown)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadFileValues(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  api_key: sekrit
detection:
  service_url: http://detector:8090
  interval: 250ms
alert:
  cooldown: 45s
  notify_url: http://notifier:8091
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 9090 || cfg.Server.APIKey != "sekrit" {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Detection.ServiceURL != "http://detector:8090" {
		t.Errorf("unexpected detection url %q", cfg.Detection.ServiceURL)
	}
	if cfg.Detection.Interval.Std() != 250*time.Millisecond {
		t.Errorf("expected 250ms interval, got %v", cfg.Detection.Interval)
	}
	if cfg.Alert.Cooldown.Std() != 45*time.Second {
		t.Errorf("expected 45s cooldown, got %v", cfg.Alert.Cooldown)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  host: filehost
  password: filepass
alert:
  cooldown: 45s
`)

	t.Setenv("SENTINEL_SERVER_PORT", "7070")
	t.Setenv("SENTINEL_DB_HOST", "envhost")
	t.Setenv("SENTINEL_DB_PASSWORD", "envpass")
	t.Setenv("SENTINEL_ALERT_COOLDOWN", "90s")
	t.Setenv("SENTINEL_DETECTION_INTERVAL", "1s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("env must override file port, got %d", cfg.Server.Port)
	}
	if cfg.Database.Host != "envhost" || cfg.Database.Password != "envpass" {
		t.Errorf("env must override database config: %+v", cfg.Database)
	}
	if cfg.Alert.Cooldown.Std() != 90*time.Second {
		t.Errorf("env must override cooldown, got %v", cfg.Alert.Cooldown)
	}
	if cfg.Detection.Interval.Std() != time.Second {
		t.Errorf("env must override detection interval, got %v", cfg.Detection.Interval)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: 5433, Name: "sentinel", User: "app", Password: "pw"}
	want := "postgres://app:pw@db:5433/sentinel?sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("dsn mismatch:\n got %q\nwant %q", got, want)
	}
}
