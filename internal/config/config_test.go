package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerAddr != ":8080" {
		t.Errorf("server addr = %q", cfg.ServerAddr)
	}
	if cfg.APIBaseURL != "https://p.savenow.to/ajax/download.php" {
		t.Errorf("api base url = %q", cfg.APIBaseURL)
	}
	if cfg.RequestTimeoutSeconds != 120 || cfg.RetryAttempts != 3 || cfg.RetryDelayMillis != 1000 {
		t.Errorf("retry policy = %d/%d/%d", cfg.RequestTimeoutSeconds, cfg.RetryAttempts, cfg.RetryDelayMillis)
	}
	if cfg.MonitorAttempts != 30 || cfg.MonitorDelaySeconds != 2 {
		t.Errorf("monitor policy = %d/%d", cfg.MonitorAttempts, cfg.MonitorDelaySeconds)
	}
}

func TestLoadFromFileWithEnvOverride(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("server_addr: ':9090'\napi_key: file-key\nmonitor_attempts: 10\n")
	if err := os.WriteFile(file, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CONFIG_FILE", file)
	t.Setenv("VIDEO_DOWNLOAD_API_KEY", "env-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerAddr != ":9090" {
		t.Errorf("server addr = %q, want file value", cfg.ServerAddr)
	}
	if cfg.MonitorAttempts != 10 {
		t.Errorf("monitor attempts = %d, want file value", cfg.MonitorAttempts)
	}
	if cfg.APIKey != "env-key" {
		t.Errorf("api key = %q, want env override", cfg.APIKey)
	}
}

func TestLoadRejectsBadFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(file, []byte("{invalid"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", file)

	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}
