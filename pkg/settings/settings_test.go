package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSettingsDefaults(t *testing.T) {
	s := &Settings{}
	if got := s.GetAuditLog(); got != DefaultAuditLog {
		t.Errorf("GetAuditLog() = %q, want %q", got, DefaultAuditLog)
	}
	s.AuditLog = "/tmp/a.log"
	if got := s.GetAuditLog(); got != "/tmp/a.log" {
		t.Errorf("GetAuditLog() = %q, want /tmp/a.log", got)
	}
}

func TestSettingsSetGet(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		wantErr bool
	}{
		{"release", "22.12", false},
		{"system_type", "All-in-one", false},
		{"config_type", "region", false},
		{"output_format", "yaml", false},
		{"audit_log", "/var/tmp/audit.log", false},
		{"redis_addr", "127.0.0.1:6379", false},
		{"spec_dir", "/etc", true},
	}

	s := &Settings{}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := s.Set(tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Set(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got, ok := s.Get(tt.key); !ok || got != tt.value {
				t.Errorf("Get(%q) = %q, %v; want %q", tt.key, got, ok, tt.value)
			}
		})
	}

	if s.Release != "22.12" || s.RedisAddr != "127.0.0.1:6379" {
		t.Errorf("fields not updated: %+v", s)
	}
	if _, ok := s.Get("bogus"); ok {
		t.Error("Get(bogus) should not be found")
	}
}

func TestKeys(t *testing.T) {
	keys := Keys()
	if len(keys) != 6 {
		t.Fatalf("Keys() = %v, want 6 entries", keys)
	}
	for i := 1; i < len(keys); i++ {
		if keys[i-1] > keys[i] {
			t.Errorf("Keys() not sorted: %v", keys)
		}
	}
}

func TestSettingsClear(t *testing.T) {
	s := &Settings{Release: "22.12", SystemType: "Standard", RedisAddr: "x"}
	s.Clear()
	if *s != (Settings{}) {
		t.Errorf("Clear() left %+v", s)
	}
}

func TestSettingsSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")

	s := &Settings{Release: "22.12", ConfigType: "subcloud", OutputFormat: "json"}
	if err := s.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if *loaded != *s {
		t.Errorf("LoadFrom() = %+v, want %+v", loaded, s)
	}
}

func TestLoadFromMissing(t *testing.T) {
	s, err := LoadFrom(filepath.Join(t.TempDir(), "none.json"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if *s != (Settings{}) {
		t.Errorf("LoadFrom(missing) = %+v, want empty", s)
	}
}

func TestLoadFromInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("LoadFrom() should fail on invalid JSON")
	}
}

func TestDefaultSettingsPath(t *testing.T) {
	p := DefaultSettingsPath()
	if filepath.Base(p) != "settings.json" {
		t.Errorf("DefaultSettingsPath() = %q", p)
	}
}
