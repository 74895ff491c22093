package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.RateLimit.Window != time.Minute || cfg.RateLimit.Limit != 100 || cfg.RateLimit.Grace != time.Second {
		t.Errorf("RateLimit = %+v", cfg.RateLimit)
	}
	if !cfg.RateLimit.Enabled || !cfg.RateLimit.FailOpen {
		t.Errorf("RateLimit enabled/fail_open = %v/%v, want true/true", cfg.RateLimit.Enabled, cfg.RateLimit.FailOpen)
	}
	if cfg.Cache.TTL != 120*time.Hour {
		t.Errorf("Cache.TTL = %v, want 120h", cfg.Cache.TTL)
	}
	if cfg.Cache.MaxEntryBytes != 25*1024*1024 {
		t.Errorf("Cache.MaxEntryBytes = %d", cfg.Cache.MaxEntryBytes)
	}
	if cfg.Store.Type != "memory" || cfg.Generator.Type != "static" {
		t.Errorf("store/generator = %q/%q", cfg.Store.Type, cfg.Generator.Type)
	}
	if len(cfg.Content.LocaleRegions) != 5 {
		t.Errorf("Content.LocaleRegions = %v", cfg.Content.LocaleRegions)
	}
	if cfg.Events.ErrorTTL != 7*24*time.Hour {
		t.Errorf("Events.ErrorTTL = %v", cfg.Events.ErrorTTL)
	}
}

func TestLoadFile_YAMLAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 9000
  admin_port: 0
rate_limit:
  limit: 20
  window: 30s
  fail_open: false
content:
  language: en
  locale_regions: [US, GB]
generator:
  type: openai
  api_key: ${EDGE_TEST_API_KEY}
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("EDGE_TEST_API_KEY", "sk-test")
	t.Setenv("EDGE_RATE_LIMIT__LIMIT", "50")
	t.Setenv("EDGE_CACHE__DEFAULT_REGION", "SA")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Server.Port != 9000 || cfg.Server.AdminPort != 0 {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.RateLimit.Limit != 50 {
		t.Errorf("RateLimit.Limit = %d, want env override 50", cfg.RateLimit.Limit)
	}
	if cfg.RateLimit.Window != 30*time.Second {
		t.Errorf("RateLimit.Window = %v, want 30s", cfg.RateLimit.Window)
	}
	if cfg.RateLimit.FailOpen {
		t.Error("RateLimit.FailOpen = true, want false from file")
	}
	if cfg.Cache.DefaultRegion != "SA" {
		t.Errorf("Cache.DefaultRegion = %q", cfg.Cache.DefaultRegion)
	}
	if got := strings.Join(cfg.Content.LocaleRegions, ","); got != "US,GB" {
		t.Errorf("Content.LocaleRegions = %q", got)
	}
	if cfg.Generator.APIKey != "sk-test" {
		t.Errorf("Generator.APIKey = %q, want substituted value", cfg.Generator.APIKey)
	}
}

func TestLoadFile_EnvList(t *testing.T) {
	t.Setenv("EDGE_CONTENT__LOCALE_REGIONS", "SA,AE")

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if got := strings.Join(cfg.Content.LocaleRegions, "|"); got != "SA|AE" {
		t.Errorf("Content.LocaleRegions = %q, want SA|AE", got)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"unknown store", map[string]string{"EDGE_STORE__TYPE": "etcd"}, "store.type"},
		{"redis without address", map[string]string{"EDGE_STORE__TYPE": "redis"}, "store.redis.url"},
		{"unknown generator", map[string]string{"EDGE_GENERATOR__TYPE": "llama"}, "generator.type"},
		{"zero limit", map[string]string{"EDGE_RATE_LIMIT__LIMIT": "0"}, "rate_limit.limit"},
		{"admin port collides", map[string]string{"EDGE_SERVER__ADMIN_PORT": "8080"}, "admin_port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadFile("")
			if err == nil {
				t.Fatal("LoadFile() error = nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestLoadFile_DisabledRateLimitSkipsValidation(t *testing.T) {
	t.Setenv("EDGE_RATE_LIMIT__ENABLED", "false")
	t.Setenv("EDGE_RATE_LIMIT__LIMIT", "0")

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.RateLimit.Enabled {
		t.Error("RateLimit.Enabled = true")
	}
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR", "test_value")
	t.Setenv("ANOTHER_VAR", "another_value")

	tests := []struct {
		input    string
		expected string
	}{
		{"${TEST_VAR}", "test_value"},
		{"prefix_${TEST_VAR}_suffix", "prefix_test_value_suffix"},
		{"${TEST_VAR}_${ANOTHER_VAR}", "test_value_another_value"},
		{"no_vars", "no_vars"},
		{"${NONEXISTENT_VAR}", ""},
	}

	for _, tt := range tests {
		result := substituteEnvVars(tt.input)
		if result != tt.expected {
			t.Errorf("substituteEnvVars(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}
