package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	apierrors "github.com/diogo/docchat/internal/errors"
	"github.com/diogo/docchat/internal/models"
)

// withTempHome points the config directory at a fresh temp dir
func withTempHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvAPIBaseURL, "")
	t.Setenv(EnvCognitoDomain, "")
	t.Setenv(EnvCognitoClient, "")
	t.Setenv(EnvCognitoPool, "")
	t.Setenv(EnvAWSRegion, "")
	return home
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.RequestTimeoutSeconds != 300 {
		t.Errorf("Expected timeout 300, got %d", cfg.RequestTimeoutSeconds)
	}
	if cfg.AttachToken {
		t.Error("Expected AttachToken to default to false")
	}
	if !cfg.Auth.Required {
		t.Error("Expected auth to be required by default")
	}
	if cfg.Markdown.Style != "dark" {
		t.Errorf("Expected markdown style 'dark', got %q", cfg.Markdown.Style)
	}
}

func TestResolveAPIBaseURL(t *testing.T) {
	withTempHome(t)

	cfg := DefaultConfig()
	if got := cfg.ResolveAPIBaseURL(); got != models.DefaultAPIBaseURL {
		t.Errorf("fallback = %q, want %q", got, models.DefaultAPIBaseURL)
	}

	cfg.APIBaseURL = "https://config.example.com/prod/"
	if got := cfg.ResolveAPIBaseURL(); got != "https://config.example.com/prod" {
		t.Errorf("config value = %q", got)
	}

	t.Setenv(EnvAPIBaseURL, "https://env.example.com/dev")
	if got := cfg.ResolveAPIBaseURL(); got != "https://env.example.com/dev" {
		t.Errorf("env override = %q", got)
	}
}

func TestRequestTimeout(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.RequestTimeout() != 300*time.Second {
		t.Errorf("unexpected default timeout %v", cfg.RequestTimeout())
	}
	cfg.RequestTimeoutSeconds = 0
	if cfg.RequestTimeout() != 300*time.Second {
		t.Errorf("zero should fall back to default, got %v", cfg.RequestTimeout())
	}
	cfg.RequestTimeoutSeconds = 15
	if cfg.RequestTimeout() != 15*time.Second {
		t.Errorf("unexpected timeout %v", cfg.RequestTimeout())
	}
}

func TestResolveAuth(t *testing.T) {
	withTempHome(t)

	cfg := DefaultConfig()
	cfg.Auth.Domain = "my-chatbot.auth.us-east-1.amazoncognito.com/"
	cfg.Auth.UserPoolID = "us-east-1_ABC"

	a := cfg.ResolveAuth()
	if a.Domain != "https://my-chatbot.auth.us-east-1.amazoncognito.com" {
		t.Errorf("Domain = %q", a.Domain)
	}
	if a.Issuer() != "https://cognito-idp.us-east-1.amazonaws.com/us-east-1_ABC" {
		t.Errorf("Issuer() = %q", a.Issuer())
	}

	t.Setenv(EnvCognitoClient, "client-from-env")
	t.Setenv(EnvAWSRegion, "eu-west-1")
	a = cfg.ResolveAuth()
	if a.ClientID != "client-from-env" {
		t.Errorf("ClientID = %q", a.ClientID)
	}
	if a.Region != "eu-west-1" {
		t.Errorf("Region = %q", a.Region)
	}

	if (AuthConfig{}).Issuer() != "" {
		t.Error("Issuer without pool should be empty")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	withTempHome(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	home := withTempHome(t)

	cfg := DefaultConfig()
	cfg.APIBaseURL = "https://api.example.com/dev"
	cfg.AttachToken = true
	cfg.Auth.ClientID = "abc123"

	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() error: %v", err)
	}

	info, err := os.Stat(filepath.Join(home, ".docchat", "config.json"))
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("config file mode = %o, want 600", info.Mode().Perm())
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if !reflect.DeepEqual(loaded, cfg) {
		t.Errorf("loaded = %+v, want %+v", loaded, cfg)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	home := withTempHome(t)
	dir := filepath.Join(home, ".docchat")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(); err == nil {
		t.Error("expected parse error")
	}

	data, _ := json.Marshal(map[string]any{"api_base_url": "not a url"})
	if err := os.WriteFile(filepath.Join(dir, "config.json"), data, 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := LoadConfig()
	var cfgErr *apierrors.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("expected ConfigError, got %v", err)
	}
}

func TestConfigSet(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		wantErr bool
		check   func(Config) bool
	}{
		{"api_base_url", "https://x.example.com", false, func(c Config) bool { return c.APIBaseURL == "https://x.example.com" }},
		{"api_base_url", "relative/path", true, nil},
		{"request_timeout_seconds", "42", false, func(c Config) bool { return c.RequestTimeoutSeconds == 42 }},
		{"request_timeout_seconds", "soon", true, nil},
		{"attach_token", "true", false, func(c Config) bool { return c.AttachToken }},
		{"attach_token", "maybe", true, nil},
		{"markdown.style", "light", false, func(c Config) bool { return c.Markdown.Style == "light" }},
		{"auth.required", "false", false, func(c Config) bool { return !c.Auth.Required }},
		{"auth.client_id", "cid", false, func(c Config) bool { return c.Auth.ClientID == "cid" }},
		{"nope", "x", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg := DefaultConfig()
			err := cfg.Set(tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Set() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil && !tt.check(cfg) {
				t.Errorf("Set(%q, %q) did not apply: %+v", tt.key, tt.value, cfg)
			}
		})
	}
}
