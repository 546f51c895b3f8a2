package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the pdfsmith service configuration.
type Config struct {
	// Data directory: content files and the session database live here
	DataDir string `json:"data_dir" mapstructure:"data_dir"`

	// Temp directory for staged uploads
	TempDir string `json:"temp_dir" mapstructure:"temp_dir"`

	// Maximum upload size in megabytes
	MaxUploadMB int `json:"max_upload_mb" mapstructure:"max_upload_mb"`

	// Session time-to-live in hours; cold sessions older than this are reaped
	SessionTTLHours int `json:"session_ttl_hours" mapstructure:"session_ttl_hours"`

	// Reap interval in minutes
	ReapIntervalMinutes int `json:"reap_interval_minutes" mapstructure:"reap_interval_minutes"`

	// Metrics listen address; empty disables the endpoint
	MetricsAddr string `json:"metrics_addr" mapstructure:"metrics_addr"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `json:"level" mapstructure:"level"` // debug, info, warn, error
	File    string `json:"file" mapstructure:"file"`
	Console bool   `json:"console" mapstructure:"console"`
	Pretty  bool   `json:"pretty" mapstructure:"pretty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		DataDir:             filepath.Join(home, ".pdfsmith", "storage"),
		TempDir:             os.TempDir(),
		MaxUploadMB:         50,
		SessionTTLHours:     24,
		ReapIntervalMinutes: 15,
		MetricsAddr:         "",
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			Pretty:  true,
		},
	}
}

// Validate checks the configuration for usable values
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir cannot be empty")
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("max_upload_mb must be positive, got %d", c.MaxUploadMB)
	}
	if c.SessionTTLHours <= 0 {
		return fmt.Errorf("session_ttl_hours must be positive, got %d", c.SessionTTLHours)
	}
	if c.ReapIntervalMinutes <= 0 {
		return fmt.Errorf("reap_interval_minutes must be positive, got %d", c.ReapIntervalMinutes)
	}
	return nil
}
