package config

import (
	"errors"
	"path/filepath"
	"testing"
)

func newTestManager(t *testing.T) (*ConfigManager, *Config, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Default()
	if err := Save(cfg, path); err != nil {
		t.Fatal(err)
	}
	return NewConfigManager(cfg, path), cfg, path
}

func TestConfigManager_SetPersists(t *testing.T) {
	mgr, cfg, path := newTestManager(t)

	tests := []struct {
		key   string
		value string
	}{
		{"compress.crf", "30"},
		{"library.drive.share_links", "true"},
		{"Relay.Channel", "  jobs  "},
		{"prober", "opencv"},
	}
	for _, tt := range tests {
		if err := mgr.Set(tt.key, tt.value); err != nil {
			t.Fatalf("Set(%q) error: %v", tt.key, err)
		}
	}

	if cfg.Compress.CRF != 30 || !cfg.Library.Drive.ShareLinks || cfg.Relay.Channel != "jobs" {
		t.Errorf("in-memory config not updated: %+v", cfg)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Compress.CRF != 30 || loaded.Prober != ProberOpenCV {
		t.Errorf("saved config = %+v", loaded)
	}
}

func TestConfigManager_SetRejects(t *testing.T) {
	mgr, cfg, _ := newTestManager(t)

	tests := []struct {
		name    string
		key     string
		value   string
		wantErr error
	}{
		{"unknown key", "email.from", "x", ErrUnknownKey},
		{"not an integer", "compress.crf", "high", ErrInvalidValue},
		{"not a boolean", "library.s3.use_ssl", "maybe", ErrInvalidValue},
		{"fails validation", "compress.crf", "99", ErrInvalidValue},
		{"bad provider", "library.provider", "ftp", ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mgr.Set(tt.key, tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Set() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if cfg.Compress.CRF != 23 || cfg.Library.Provider != ProviderNone {
		t.Errorf("config changed after rejected Set: %+v", cfg)
	}
}

func TestConfigManager_GetAndList(t *testing.T) {
	mgr, cfg, _ := newTestManager(t)
	cfg.Relay.RedisPassword = "hunter2"

	v, err := mgr.Get("ffmpeg.cancel_grace")
	if err != nil || v != "5s" {
		t.Errorf("Get() = %q, %v", v, err)
	}
	if _, err := mgr.Get("nope"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Get(nope) error = %v", err)
	}

	entries := mgr.List()
	if len(entries) != len(Keys()) {
		t.Fatalf("List() returned %d entries, want %d", len(entries), len(Keys()))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Key > entries[i].Key {
			t.Fatalf("entries not sorted at %d", i)
		}
	}
	for _, e := range entries {
		if e.Key == "relay.redis_password" && e.Value != "********" {
			t.Errorf("secret not masked: %q", e.Value)
		}
		if e.Key == "library.s3.secret_key" && e.Value != "" {
			t.Errorf("empty secret should stay empty, got %q", e.Value)
		}
	}
}
