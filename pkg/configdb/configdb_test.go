package configdb

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	if got := Key(Table, "cMGMT"); got != "BOOTSTRAP_CONFIG|cMGMT" {
		t.Errorf("Key() = %q", got)
	}
}

func TestMetadataFields(t *testing.T) {
	m := Metadata{
		ID:         "4f1c",
		Source:     "system.ini",
		ConfigType: "system",
		Published:  time.Unix(1700000000, 0),
		Sections:   []string{"cSYSTEM", "cMGMT", "cEXT_OAM"},
	}
	raw := m.fields()
	vals := make(map[string]string, len(raw))
	for k, v := range raw {
		vals[k] = v.(string)
	}
	if vals["sections"] != "cSYSTEM,cMGMT,cEXT_OAM" || vals["published"] != "1700000000" {
		t.Errorf("fields() = %v", vals)
	}

	got, err := parseMetadata(vals)
	if err != nil {
		t.Fatalf("parseMetadata() error = %v", err)
	}
	if !reflect.DeepEqual(got, m) {
		t.Errorf("parseMetadata() = %+v, want %+v", got, m)
	}
}

func TestParseMetadataErrors(t *testing.T) {
	if _, err := parseMetadata(map[string]string{"published": "yesterday"}); err == nil {
		t.Error("parseMetadata() should reject a bad timestamp")
	}
	m, err := parseMetadata(map[string]string{"id": "x"})
	if err != nil {
		t.Fatalf("parseMetadata() error = %v", err)
	}
	if !m.Published.IsZero() || len(m.Sections) != 0 {
		t.Errorf("parseMetadata() = %+v", m)
	}
}

func TestTunnelClientConfig(t *testing.T) {
	dir := t.TempDir()
	badKey := filepath.Join(dir, "id_bad")
	if err := os.WriteFile(badKey, []byte("not a key"), 0600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		cfg     TunnelConfig
		wantErr string
	}{
		{"password", TunnelConfig{Host: "c0", User: "sysadmin", Password: "pw"}, ""},
		{"no credentials", TunnelConfig{Host: "c0", User: "sysadmin"}, "no SSH credentials"},
		{"missing key", TunnelConfig{Host: "c0", User: "sysadmin", KeyFile: filepath.Join(dir, "none")}, "reading key"},
		{"bad key", TunnelConfig{Host: "c0", User: "sysadmin", KeyFile: badKey}, "parsing key"},
		{"missing known hosts", TunnelConfig{Host: "c0", User: "u", Password: "pw", KnownHosts: filepath.Join(dir, "kh")}, "known hosts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := tt.cfg.clientConfig()
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("clientConfig() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("clientConfig() error = %v", err)
			}
			if cfg.User != tt.cfg.User || len(cfg.Auth) != 1 || cfg.Timeout != 10*time.Second {
				t.Errorf("clientConfig() = %+v", cfg)
			}
		})
	}
}
