// Package config handles Murmur configuration.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds all configuration
type Config struct {
	// Paths
	DataDir string `json:"data_dir"`

	// Server
	Server ServerConfig `json:"server"`

	// Weekly digest job
	Digest DigestConfig `json:"digest"`

	// Notifications
	Notifications NotificationConfig `json:"notifications"`

	// Logging
	LogLevel string `json:"log_level"`
}

// ServerConfig for HTTP server
type ServerConfig struct {
	Port int    `json:"port"`
	Host string `json:"host"`
}

// DigestConfig for the scheduled weekly reflection job
type DigestConfig struct {
	Enabled bool `json:"enabled"`

	// Cron expression with a seconds field. The default fires shortly
	// after midnight UTC every Monday, once the previous week has closed.
	Schedule string `json:"schedule"`

	Format string `json:"format"`
}

// NotificationConfig for notification retention
type NotificationConfig struct {
	RetentionDays int `json:"retention_days"`
}

// Default returns default configuration
func Default() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		DataDir: filepath.Join(home, ".murmur"),
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Digest: DigestConfig{
			Enabled:  true,
			Schedule: "0 10 0 * * MON",
			Format:   "text",
		},
		Notifications: NotificationConfig{
			RetentionDays: 30,
		},
		LogLevel: "info",
	}
}

// Load loads config from file, falling back to defaults. Environment
// variables MURMUR_DATA_DIR, MURMUR_PORT and MURMUR_LOG_LEVEL override
// whatever the file says.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = filepath.Join(cfg.DataDir, "config.json")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil // Use defaults
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()

	return cfg, nil
}

func (c *Config) applyEnv() {
	if dir := os.Getenv("MURMUR_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}
	if port := os.Getenv("MURMUR_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if level := os.Getenv("MURMUR_LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
}

// DatabasePath returns the SQLite file location inside the data dir
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "murmur.db")
}

// Save saves config to file
func (c *Config) Save(path string) error {
	if path == "" {
		path = filepath.Join(c.DataDir, "config.json")
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
