package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"seconds", "30s", 30 * time.Second, false},
		{"minutes", "5m", 5 * time.Minute, false},
		{"invalid", "invalid", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Errorf("UnmarshalText() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && d.Duration != tt.expected {
				t.Errorf("UnmarshalText() = %v, want %v", d.Duration, tt.expected)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Env != "production" {
		t.Errorf("Env = %v, want production", cfg.Env)
	}
	if cfg.Syntax.ID != "UNOC" || cfg.Syntax.Version != "3" {
		t.Errorf("Syntax = %+v, want UNOC/3", cfg.Syntax)
	}
	if cfg.Transport != TransportDir {
		t.Errorf("Transport = %v, want %v", cfg.Transport, TransportDir)
	}
	if cfg.Odoo.Timeout.Duration != 30*time.Second {
		t.Errorf("Odoo.Timeout = %v, want 30s", cfg.Odoo.Timeout.Duration)
	}
	if cfg.Wamas.Source != "ODOO" || cfg.Wamas.Destination != "WAMAS" {
		t.Errorf("Wamas = %+v", cfg.Wamas)
	}
}

func TestLoadTOML(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "config.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %v, want development", cfg.Env)
	}
	if cfg.Transport != TransportOdoo {
		t.Errorf("Transport = %v, want odoo", cfg.Transport)
	}
	if cfg.Odoo.URL != "http://localhost:8069" {
		t.Errorf("Odoo.URL = %v", cfg.Odoo.URL)
	}
	if cfg.Odoo.Timeout.Duration != 5*time.Second {
		t.Errorf("Odoo.Timeout = %v, want 5s", cfg.Odoo.Timeout.Duration)
	}
	if p := cfg.SenderParty(); p.ID != "5412345000013" || p.Qualifier != "14" {
		t.Errorf("SenderParty() = %+v", p)
	}
	if s := cfg.SyntaxIdentifier(); s.ID != "UNOA" || s.Version != "2" {
		t.Errorf("SyntaxIdentifier() = %+v", s)
	}
	if cfg.Wamas.Source != "ERP" {
		t.Errorf("Wamas.Source = %v, want ERP", cfg.Wamas.Source)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "config.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Sender.ID != "5412345000013" {
		t.Errorf("Sender.ID = %v", cfg.Sender.ID)
	}
	if cfg.Sender.Qualifier != "14" {
		t.Errorf("Sender.Qualifier = %v, want default 14", cfg.Sender.Qualifier)
	}
	if cfg.InboxDir != "/var/edi/in" {
		t.Errorf("InboxDir = %v", cfg.InboxDir)
	}
	if cfg.Odoo.Timeout.Duration != time.Minute {
		t.Errorf("Odoo.Timeout = %v, want 1m", cfg.Odoo.Timeout.Duration)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "missing.toml"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	_, err = Load(filepath.Join("testdata", "config.ini"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(bad, []byte("env = "), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err = Load(bad); err == nil {
		t.Errorf("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("EDIFACT_SENDER_ID", "OVERRIDE")
	t.Setenv("EDIFACT_ODOO_PASSWORD", "secret")
	t.Setenv("EDIFACT_INBOX_DIR", "/tmp/in")

	cfg, err := Load(filepath.Join("testdata", "config.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Sender.ID != "OVERRIDE" {
		t.Errorf("Sender.ID = %v, want OVERRIDE", cfg.Sender.ID)
	}
	if cfg.Odoo.Password != "secret" {
		t.Errorf("Odoo.Password = %v, want secret", cfg.Odoo.Password)
	}
	if cfg.InboxDir != "/tmp/in" {
		t.Errorf("InboxDir = %v, want /tmp/in", cfg.InboxDir)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("EDIFACT_CONFIG", "")
	t.Setenv("EDIFACT_SENDER_ID", "ENVONLY")
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if cfg.Sender.ID != "ENVONLY" {
		t.Errorf("Sender.ID = %v, want ENVONLY", cfg.Sender.ID)
	}

	t.Setenv("EDIFACT_CONFIG", filepath.Join("testdata", "config.yaml"))
	cfg, err = LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if cfg.InboxDir != "/var/edi/in" {
		t.Errorf("InboxDir = %v", cfg.InboxDir)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing sender", func(c *Config) { c.Sender.ID = "" }, true},
		{"unknown transport", func(c *Config) { c.Transport = "ftp" }, true},
		{"odoo without url", func(c *Config) {
			c.Transport = TransportOdoo
			c.Odoo.DB = "edi"
			c.Odoo.Username = "admin"
		}, true},
		{"odoo complete", func(c *Config) {
			c.Transport = TransportOdoo
			c.Odoo.URL = "http://odoo"
			c.Odoo.DB = "edi"
			c.Odoo.Username = "admin"
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Sender.ID = "SENDER"
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}
