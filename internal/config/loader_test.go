package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Domain.GlobalAdminLabel != "samurai" {
		t.Errorf("global admin label = %q, want samurai", cfg.Domain.GlobalAdminLabel)
	}
	if cfg.Domain.AuthLabel != "login" {
		t.Errorf("auth label = %q, want login", cfg.Domain.AuthLabel)
	}
}

func TestLoadFromYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokyoflo.yaml")
	data := []byte(`
server:
  port: "9090"
domain:
  base_domain: example.test
  global_admin_label: hq
availability:
  debounce: 150ms
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("port = %q, want 9090", cfg.Server.Port)
	}
	if cfg.Domain.BaseDomain != "example.test" {
		t.Errorf("base domain = %q", cfg.Domain.BaseDomain)
	}
	if cfg.Domain.GlobalAdminLabel != "hq" {
		t.Errorf("global admin label = %q", cfg.Domain.GlobalAdminLabel)
	}
	// Untouched keys keep defaults.
	if cfg.Domain.AuthLabel != "login" {
		t.Errorf("auth label = %q, want login", cfg.Domain.AuthLabel)
	}
	if cfg.Availability.Debounce != 150*time.Millisecond {
		t.Errorf("debounce = %v", cfg.Availability.Debounce)
	}
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokyoflo.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: \"9090\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TOKYOFLO_PORT", "7070")
	t.Setenv("TOKYOFLO_AVAILABILITY_DEBOUNCE", "200ms")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("port = %q, want env value 7070", cfg.Server.Port)
	}
	if cfg.Availability.Debounce != 200*time.Millisecond {
		t.Errorf("debounce = %v, want 200ms", cfg.Availability.Debounce)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty port", func(c *Config) { c.Server.Port = "" }},
		{"empty base domain", func(c *Config) { c.Domain.BaseDomain = "" }},
		{"labels collide", func(c *Config) { c.Domain.AuthLabel = c.Domain.GlobalAdminLabel }},
		{"bad dev fallback", func(c *Config) { c.Domain.DevFallback = "whatever" }},
		{"zero debounce", func(c *Config) { c.Availability.Debounce = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.mutate(&cfg)
			if err := validate(&cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
