// Package settings manages persistent user settings for the bootcfg CLI.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// DefaultAuditLog is used when no audit log path is configured
const DefaultAuditLog = "/var/log/bootcfg/audit.log"

// Settings holds persistent user preferences. Empty fields fall back to
// the platform facts or the built-in defaults.
type Settings struct {
	// Release overrides the installed release read from the platform
	Release string `json:"release,omitempty"`

	// SystemType overrides the configured system type read from the platform
	SystemType string `json:"system_type,omitempty"`

	// ConfigType is the default --type for validate and check
	ConfigType string `json:"config_type,omitempty"`

	// OutputFormat is the default -o format (ini, yaml, json)
	OutputFormat string `json:"output_format,omitempty"`

	AuditLog  string `json:"audit_log,omitempty"`
	RedisAddr string `json:"redis_addr,omitempty"`
}

// DefaultSettingsPath returns the default path for the settings file
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "bootcfg_settings.json"
	}
	return filepath.Join(home, ".bootcfg", "settings.json")
}

// Load reads settings from the default location
func Load() (*Settings, error) {
	return LoadFrom(DefaultSettingsPath())
}

// LoadFrom reads settings from path. A missing file yields empty settings.
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return s, nil
}

// Save writes settings to the default location
func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

// SaveTo writes settings to path, creating its directory
func (s *Settings) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// fields maps the user-facing setting names to their storage
func (s *Settings) fields() map[string]*string {
	return map[string]*string{
		"release":       &s.Release,
		"system_type":   &s.SystemType,
		"config_type":   &s.ConfigType,
		"output_format": &s.OutputFormat,
		"audit_log":     &s.AuditLog,
		"redis_addr":    &s.RedisAddr,
	}
}

// Keys returns the setting names accepted by Set, sorted
func Keys() []string {
	var keys []string
	for k := range (&Settings{}).fields() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set assigns one setting by name. An empty value clears it.
func (s *Settings) Set(key, value string) error {
	f, ok := s.fields()[key]
	if !ok {
		return fmt.Errorf("unknown setting %q (valid: %v)", key, Keys())
	}
	*f = value
	return nil
}

// Get returns one setting by name
func (s *Settings) Get(key string) (string, bool) {
	f, ok := s.fields()[key]
	if !ok {
		return "", false
	}
	return *f, true
}

// GetAuditLog returns the audit log path (with fallback)
func (s *Settings) GetAuditLog() string {
	if s.AuditLog != "" {
		return s.AuditLog
	}
	return DefaultAuditLog
}

// Clear resets all settings to defaults
func (s *Settings) Clear() {
	*s = Settings{}
}
