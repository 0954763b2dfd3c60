package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds runtime settings for the server.
type Config struct {
	ServerAddr             string
	DataFile               string
	APIKey                 string
	APIBaseURL             string
	ProgressEndpoint       string
	LegacyProgressEndpoint string
	RequestTimeoutSeconds  int
	RetryAttempts          int
	RetryDelayMillis       int
	MonitorAttempts        int
	MonitorDelaySeconds    int
	InfoCacheTTLSeconds    int
}

type fileConfig struct {
	ServerAddr             string `yaml:"server_addr"`
	DataFile               string `yaml:"data_file"`
	APIKey                 string `yaml:"api_key"`
	APIBaseURL             string `yaml:"api_base_url"`
	ProgressEndpoint       string `yaml:"progress_endpoint"`
	LegacyProgressEndpoint string `yaml:"legacy_progress_endpoint"`
	RequestTimeoutSeconds  int    `yaml:"request_timeout_seconds"`
	RetryAttempts          int    `yaml:"retry_attempts"`
	RetryDelayMillis       int    `yaml:"retry_delay_ms"`
	MonitorAttempts        int    `yaml:"monitor_attempts"`
	MonitorDelaySeconds    int    `yaml:"monitor_delay_seconds"`
	InfoCacheTTLSeconds    int    `yaml:"info_cache_ttl_seconds"`
}

// Load builds runtime config from an optional YAML file (CONFIG_FILE) with
// environment variables taking precedence over file values.
func Load() (Config, error) {
	cfg := Config{
		ServerAddr:             ":8080",
		DataFile:               "./data/downloads.json",
		APIBaseURL:             "https://p.savenow.to/ajax/download.php",
		ProgressEndpoint:       "https://p.savenow.to/api/progress",
		LegacyProgressEndpoint: "https://p.savenow.to/ajax/progress",
		RequestTimeoutSeconds:  120,
		RetryAttempts:          3,
		RetryDelayMillis:       1000,
		MonitorAttempts:        30,
		MonitorDelaySeconds:    2,
		InfoCacheTTLSeconds:    3600,
	}

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	cfg.ServerAddr = getEnv("SERVER_ADDR", cfg.ServerAddr)
	cfg.DataFile = getEnv("DATA_FILE", cfg.DataFile)
	cfg.APIKey = getEnv("VIDEO_DOWNLOAD_API_KEY", cfg.APIKey)
	cfg.APIBaseURL = getEnv("VIDEO_DOWNLOAD_API_BASE_URL", cfg.APIBaseURL)
	cfg.ProgressEndpoint = getEnv("VIDEO_DOWNLOAD_API_PROGRESS_URL", cfg.ProgressEndpoint)
	cfg.LegacyProgressEndpoint = getEnv("VIDEO_DOWNLOAD_API_LEGACY_PROGRESS_URL", cfg.LegacyProgressEndpoint)
	cfg.RequestTimeoutSeconds = getEnvInt("VIDEO_DOWNLOAD_API_TIMEOUT", cfg.RequestTimeoutSeconds)
	cfg.RetryAttempts = getEnvInt("VIDEO_DOWNLOAD_API_RETRY", cfg.RetryAttempts)
	cfg.RetryDelayMillis = getEnvInt("VIDEO_DOWNLOAD_API_RETRY_DELAY_MS", cfg.RetryDelayMillis)
	cfg.MonitorAttempts = getEnvInt("MONITOR_ATTEMPTS", cfg.MonitorAttempts)
	cfg.MonitorDelaySeconds = getEnvInt("MONITOR_DELAY_SECONDS", cfg.MonitorDelaySeconds)
	cfg.InfoCacheTTLSeconds = getEnvInt("CACHE_VIDEO_INFO_TTL", cfg.InfoCacheTTLSeconds)

	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	applyString(&cfg.ServerAddr, fc.ServerAddr)
	applyString(&cfg.DataFile, fc.DataFile)
	applyString(&cfg.APIKey, fc.APIKey)
	applyString(&cfg.APIBaseURL, fc.APIBaseURL)
	applyString(&cfg.ProgressEndpoint, fc.ProgressEndpoint)
	applyString(&cfg.LegacyProgressEndpoint, fc.LegacyProgressEndpoint)
	applyInt(&cfg.RequestTimeoutSeconds, fc.RequestTimeoutSeconds)
	applyInt(&cfg.RetryAttempts, fc.RetryAttempts)
	applyInt(&cfg.RetryDelayMillis, fc.RetryDelayMillis)
	applyInt(&cfg.MonitorAttempts, fc.MonitorAttempts)
	applyInt(&cfg.MonitorDelaySeconds, fc.MonitorDelaySeconds)
	applyInt(&cfg.InfoCacheTTLSeconds, fc.InfoCacheTTLSeconds)
	return nil
}

func applyString(dst *string, value string) {
	if strings.TrimSpace(value) != "" {
		*dst = strings.TrimSpace(value)
	}
}

func applyInt(dst *int, value int) {
	if value > 0 {
		*dst = value
	}
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	var out int
	_, err := fmt.Sscanf(value, "%d", &out)
	if err != nil || out <= 0 {
		return fallback
	}
	return out
}
