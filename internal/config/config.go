/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package config provides a comprehensive configuration management system for FlyRec.

The configuration system supports multiple sources with clear precedence:
 1. Command-line flags (highest priority)
 2. Environment variables
 3. Configuration file
 4. Default values (lowest priority)

Configuration File Format:
The configuration file uses TOML format for readability and ease of use.

Example configuration file:

	# FlyRec Configuration
	data_dir = "/var/lib/flyrec"
	buffer_pool_size = 64    # Frames per table buffer pool
	buffer_policy = "lru"    # fifo, lru, clock, or lfu
	string_encoding = "utf8" # utf8, latin1, or ascii
	log_level = "info"
	log_json = false

Environment Variables:
  - FLYREC_DATA_DIR: Directory for table files
  - FLYREC_BUFFER_POOL_SIZE: Buffer pool capacity in frames
  - FLYREC_BUFFER_POLICY: Page replacement policy (fifo, lru, clock, lfu)
  - FLYREC_STRING_ENCODING: Character encoding for string attributes
  - FLYREC_COLLATION_LOCALE: Locale for collated string comparisons
  - FLYREC_LOG_LEVEL: Log level (debug, info, warn, error)
  - FLYREC_LOG_JSON: Enable JSON logging (true/false)
  - FLYREC_CONFIG_FILE: Path to configuration file
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Environment variable names for configuration.
const (
	EnvDataDir         = "FLYREC_DATA_DIR"
	EnvBufferPoolSize  = "FLYREC_BUFFER_POOL_SIZE"
	EnvBufferPolicy    = "FLYREC_BUFFER_POLICY"
	EnvStringEncoding  = "FLYREC_STRING_ENCODING"
	EnvCollationLocale = "FLYREC_COLLATION_LOCALE"
	EnvLogLevel        = "FLYREC_LOG_LEVEL"
	EnvLogJSON         = "FLYREC_LOG_JSON"
	EnvConfigFile      = "FLYREC_CONFIG_FILE"
)

// GetDefaultDataDir returns the default directory for table storage.
// For root users, it uses /var/lib/flyrec (Filesystem Hierarchy Standard).
// For non-root users, it uses ~/.local/share/flyrec (XDG Base Directory).
func GetDefaultDataDir() string {
	// Check if running as root
	if os.Getuid() == 0 {
		return "/var/lib/flyrec"
	}
	// Use XDG data directory for non-root users
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "flyrec")
	}
	// Fall back to ~/.local/share/flyrec
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".local", "share", "flyrec")
	}
	// Last resort: current directory
	return "./data"
}

// Default configuration file paths (searched in order).
var DefaultConfigPaths = []string{
	"/etc/flyrec/flyrec.conf",
	"$HOME/.config/flyrec/flyrec.conf",
	"./flyrec.conf",
}

// Config holds all configuration values for FlyRec.
type Config struct {
	// Storage configuration
	DataDir        string `toml:"data_dir" json:"data_dir"`                 // Directory for table files
	BufferPoolSize int    `toml:"buffer_pool_size" json:"buffer_pool_size"` // Buffer pool capacity in frames
	BufferPolicy   string `toml:"buffer_policy" json:"buffer_policy"`       // Page replacement policy

	// String handling configuration
	StringEncoding  string `toml:"string_encoding" json:"string_encoding"`   // Encoding for string attributes
	CollationLocale string `toml:"collation_locale" json:"collation_locale"` // Locale for collated comparisons

	// Logging configuration
	LogLevel string `toml:"log_level" json:"log_level"`
	LogJSON  bool   `toml:"log_json" json:"log_json"`

	// Metadata
	ConfigFile string `toml:"-" json:"-"` // Path to loaded config file
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		DataDir:         GetDefaultDataDir(),
		BufferPoolSize:  64,
		BufferPolicy:    "lru",
		StringEncoding:  "utf8",
		CollationLocale: "",
		LogLevel:        "info",
		LogJSON:         false,
	}
}

// Manager handles configuration loading, validation, and access.
type Manager struct {
	config *Config
	mu     sync.RWMutex

	// Callbacks for configuration changes (for hot-reload support)
	onReload []func(*Config)
}

// NewManager creates a new configuration manager with default values.
func NewManager() *Manager {
	return &Manager{
		config:   DefaultConfig(),
		onReload: make([]func(*Config), 0),
	}
}

// Global manager instance for convenience.
var globalManager = NewManager()

// Global returns the global configuration manager.
func Global() *Manager {
	return globalManager
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	// Return a copy to prevent external modification
	cfg := *m.config
	return &cfg
}

// Set updates the configuration.
func (m *Manager) Set(cfg *Config) {
	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
}

// OnReload registers a callback to be called when configuration is reloaded.
func (m *Manager) OnReload(fn func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onReload = append(m.onReload, fn)
}

// notifyReload calls all registered reload callbacks.
func (m *Manager) notifyReload() {
	m.mu.RLock()
	callbacks := make([]func(*Config), len(m.onReload))
	copy(callbacks, m.onReload)
	cfg := m.config
	m.mu.RUnlock()

	for _, fn := range callbacks {
		fn(cfg)
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []string

	// Validate data_dir
	if c.DataDir == "" {
		errs = append(errs, "data_dir cannot be empty")
	}

	// Validate buffer pool size
	if c.BufferPoolSize < 1 {
		errs = append(errs, fmt.Sprintf("invalid buffer_pool_size: %d (must be at least 1)", c.BufferPoolSize))
	}

	// Validate replacement policy
	switch strings.ToLower(c.BufferPolicy) {
	case "fifo", "lru", "clock", "lfu":
		// Valid policies
	default:
		errs = append(errs, fmt.Sprintf("invalid buffer_policy: %s (must be fifo, lru, clock, or lfu)", c.BufferPolicy))
	}

	// Validate string encoding
	switch strings.ToLower(c.StringEncoding) {
	case "utf8", "latin1", "ascii":
		// Valid encodings
	default:
		errs = append(errs, fmt.Sprintf("invalid string_encoding: %s (must be utf8, latin1, or ascii)", c.StringEncoding))
	}

	// Validate log level
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
		// Valid log levels
	default:
		errs = append(errs, fmt.Sprintf("invalid log_level: %s (must be debug, info, warn, or error)", c.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// LoadFromFile loads configuration from a TOML file.
func (m *Manager) LoadFromFile(path string) error {
	// Expand environment variables in path
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := parseTOML(string(data), cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ConfigFile = path
	m.Set(cfg)
	return nil
}

// LoadFromEnv loads configuration from environment variables.
// This merges with existing configuration (env vars override file values).
func (m *Manager) LoadFromEnv() {
	cfg := m.Get()

	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv(EnvBufferPoolSize); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			cfg.BufferPoolSize = size
		}
	}
	if v := os.Getenv(EnvBufferPolicy); v != "" {
		cfg.BufferPolicy = v
	}
	if v := os.Getenv(EnvStringEncoding); v != "" {
		cfg.StringEncoding = v
	}
	if v := os.Getenv(EnvCollationLocale); v != "" {
		cfg.CollationLocale = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvLogJSON); v != "" {
		cfg.LogJSON = strings.ToLower(v) == "true" || v == "1"
	}

	m.Set(cfg)
}

// FindConfigFile searches for a configuration file in default locations.
// Returns the path to the first file found, or empty string if none found.
func FindConfigFile() string {
	// Check environment variable first
	if envPath := os.Getenv(EnvConfigFile); envPath != "" {
		if _, err := os.Stat(os.ExpandEnv(envPath)); err == nil {
			return os.ExpandEnv(envPath)
		}
	}

	// Search default paths
	for _, path := range DefaultConfigPaths {
		expandedPath := os.ExpandEnv(path)
		if _, err := os.Stat(expandedPath); err == nil {
			return expandedPath
		}
	}

	return ""
}

// Load loads configuration from all sources with proper precedence.
// Order: defaults -> config file -> environment variables
// Command-line flags should be applied after calling this function.
func (m *Manager) Load() error {
	// Start with defaults (already set in NewManager)

	// Try to load from config file
	configPath := FindConfigFile()
	if configPath != "" {
		if err := m.LoadFromFile(configPath); err != nil {
			return err
		}
	}

	// Apply environment variables (override file values)
	m.LoadFromEnv()

	return nil
}

// Reload reloads configuration from file and environment.
func (m *Manager) Reload() error {
	cfg := m.Get()
	configPath := cfg.ConfigFile

	if configPath == "" {
		configPath = FindConfigFile()
	}

	// Reset to defaults
	m.Set(DefaultConfig())

	// Reload from file if available
	if configPath != "" {
		if err := m.LoadFromFile(configPath); err != nil {
			return err
		}
	}

	// Apply environment variables
	m.LoadFromEnv()

	// Notify listeners
	m.notifyReload()

	return nil
}

// parseTOML is a simple TOML parser for our configuration format.
// It handles the subset of TOML we need without external dependencies.
func parseTOML(data string, cfg *Config) error {
	lines := strings.Split(data, "\n")

	for lineNum, line := range lines {
		// Remove comments
		if idx := strings.Index(line, "#"); idx != -1 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)

		// Skip empty lines
		if line == "" {
			continue
		}

		// Parse key = value
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("line %d: invalid syntax: %s", lineNum+1, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes from string values
		if len(value) >= 2 && ((value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'')) {
			value = value[1 : len(value)-1]
		}

		// Apply value to config
		if err := applyConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("line %d: %w", lineNum+1, err)
		}
	}

	return nil
}

// applyConfigValue applies a key-value pair to the configuration.
func applyConfigValue(cfg *Config, key, value string) error {
	switch key {
	case "data_dir":
		cfg.DataDir = value
	case "buffer_pool_size":
		size, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid buffer_pool_size value: %s", value)
		}
		cfg.BufferPoolSize = size
	case "buffer_policy":
		cfg.BufferPolicy = value
	case "string_encoding":
		cfg.StringEncoding = value
	case "collation_locale":
		cfg.CollationLocale = value
	case "log_level":
		cfg.LogLevel = value
	case "log_json":
		cfg.LogJSON = strings.ToLower(value) == "true" || value == "1"
	default:
		// Ignore unknown keys for forward compatibility
	}

	return nil
}

// String returns a string representation of the configuration.
func (c *Config) String() string {
	var sb strings.Builder
	sb.WriteString("FlyRec Configuration:\n")
	sb.WriteString(fmt.Sprintf("  Data Dir:         %s\n", c.DataDir))
	sb.WriteString(fmt.Sprintf("  Buffer Pool Size: %d\n", c.BufferPoolSize))
	sb.WriteString(fmt.Sprintf("  Buffer Policy:    %s\n", c.BufferPolicy))
	sb.WriteString(fmt.Sprintf("  String Encoding:  %s\n", c.StringEncoding))
	if c.CollationLocale != "" {
		sb.WriteString(fmt.Sprintf("  Collation Locale: %s\n", c.CollationLocale))
	}
	sb.WriteString(fmt.Sprintf("  Log Level:        %s\n", c.LogLevel))
	sb.WriteString(fmt.Sprintf("  Log JSON:         %v\n", c.LogJSON))
	if c.ConfigFile != "" {
		sb.WriteString(fmt.Sprintf("  Config File:      %s\n", c.ConfigFile))
	}
	return sb.String()
}

// ToTOML returns the configuration as a TOML string.
func (c *Config) ToTOML() string {
	var sb strings.Builder
	sb.WriteString("# FlyRec Configuration File\n")
	sb.WriteString("# Generated by FlyRec\n\n")
	sb.WriteString(fmt.Sprintf("# Directory for table files\n"))
	sb.WriteString(fmt.Sprintf("data_dir = \"%s\"\n\n", c.DataDir))
	sb.WriteString(fmt.Sprintf("# Buffer pool capacity in frames\n"))
	sb.WriteString(fmt.Sprintf("buffer_pool_size = %d\n\n", c.BufferPoolSize))
	sb.WriteString(fmt.Sprintf("# Page replacement policy: fifo, lru, clock, or lfu\n"))
	sb.WriteString(fmt.Sprintf("buffer_policy = \"%s\"\n\n", c.BufferPolicy))
	sb.WriteString(fmt.Sprintf("# Character encoding for string attributes: utf8, latin1, or ascii\n"))
	sb.WriteString(fmt.Sprintf("string_encoding = \"%s\"\n", c.StringEncoding))
	if c.CollationLocale != "" {
		sb.WriteString(fmt.Sprintf("collation_locale = \"%s\"\n", c.CollationLocale))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("# Logging\n"))
	sb.WriteString(fmt.Sprintf("log_level = \"%s\"\n", c.LogLevel))
	sb.WriteString(fmt.Sprintf("log_json = %v\n", c.LogJSON))
	return sb.String()
}

// SaveToFile saves the configuration to a file.
func (c *Config) SaveToFile(path string) error {
	// Expand environment variables
	path = os.ExpandEnv(path)

	// Create directory if needed
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Write file
	if err := os.WriteFile(path, []byte(c.ToTOML()), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
