package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader handles loading configuration from files and the environment.
type Loader struct {
	envPrefix   string
	configPaths []string
}

// NewLoader creates a configuration loader with the default search paths.
func NewLoader() *Loader {
	return &Loader{
		envPrefix:   "HANDLERSWAP_",
		configPaths: defaultConfigPaths(),
	}
}

// defaultConfigPaths returns default configuration file paths to check
func defaultConfigPaths() []string {
	return []string{
		"handlerswap.yaml",
		"handlerswap.yml",
		"handlerswap.json",
		"/etc/handlerswap/config.yaml",
		"/etc/handlerswap/config.json",
	}
}

// Load loads configuration from all available sources: defaults first, then
// the first readable config file, then environment overrides. The merged
// result is validated before it is returned.
func (l *Loader) Load() (*Settings, error) {
	settings := NewSettings()

	if fileSettings, err := l.LoadFromFile(); err == nil && fileSettings != nil {
		settings = fileSettings
	}

	l.applyEnv(settings)

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

// LoadFromFile loads configuration from the first existing file among the
// given paths (or the default search paths). The HANDLERSWAP_CONFIG_FILE
// environment variable takes precedence over all of them.
func (l *Loader) LoadFromFile(paths ...string) (*Settings, error) {
	searchPaths := paths
	if len(searchPaths) == 0 {
		searchPaths = l.configPaths
	}
	if envPath := os.Getenv(l.envPrefix + "CONFIG_FILE"); envPath != "" {
		searchPaths = append([]string{envPath}, searchPaths...)
	}

	for _, path := range searchPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		settings := NewSettings()
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, settings)
		case ".json":
			err = json.Unmarshal(data, settings)
		default:
			err = yaml.Unmarshal(data, settings)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		return settings, nil
	}

	return nil, nil
}

// applyEnv overrides settings from HANDLERSWAP_* environment variables.
func (l *Loader) applyEnv(s *Settings) {
	if v := os.Getenv(l.envPrefix + "LOG_LEVEL"); v != "" {
		s.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv(l.envPrefix + "POST_FINALIZE_POLICY"); v != "" {
		s.PostFinalizePolicy = strings.ToLower(v)
	}
	if v := os.Getenv(l.envPrefix + "REPORT_SINK"); v != "" {
		s.Reporting.Sink = strings.ToLower(v)
	}
	if v := os.Getenv(l.envPrefix + "REDIS_ADDR"); v != "" {
		s.Reporting.Redis.Addr = v
	}
	if v := os.Getenv(l.envPrefix + "REDIS_PASSWORD"); v != "" {
		s.Reporting.Redis.Password = v
	}
	if v := os.Getenv(l.envPrefix + "REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			s.Reporting.Redis.DB = db
		}
	}
	if v := os.Getenv(l.envPrefix + "REDIS_KEY_PREFIX"); v != "" {
		s.Reporting.Redis.KeyPrefix = v
	}
	if v := os.Getenv(l.envPrefix + "REPORT_RATE"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			s.Reporting.RatePerSecond = rate
		}
	}
	if v := os.Getenv(l.envPrefix + "REPORT_BURST"); v != "" {
		if burst, err := strconv.Atoi(v); err == nil {
			s.Reporting.Burst = burst
		}
	}
}
