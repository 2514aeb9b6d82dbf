// Package config handles configuration and credential storage for docchat.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	apierrors "github.com/diogo/docchat/internal/errors"
	"github.com/diogo/docchat/internal/models"
)

// Environment variables that override the config file
const (
	EnvAPIBaseURL     = "DOCCHAT_API_BASE_URL"
	EnvCognitoDomain  = "DOCCHAT_COGNITO_DOMAIN"
	EnvCognitoClient  = "DOCCHAT_COGNITO_CLIENT_ID"
	EnvCognitoPool    = "DOCCHAT_COGNITO_USER_POOL_ID"
	EnvAWSRegion      = "DOCCHAT_AWS_REGION"
	configDirName     = ".docchat"
	configFileName    = "config.json"
	defaultRedirect   = "http://localhost:8976/callback"
	defaultAWSRegion  = "us-east-1"
	defaultTimeoutSec = 300
)

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style"`              // glamour style name or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji"`       // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines"`  // Preserve original line breaks
	TableWrap        bool   `json:"table_wrap"`         // Enable word wrap in table cells
	InlineTableLinks bool   `json:"inline_table_links"` // Render links inline in tables
}

// AuthConfig describes the hosted identity provider
type AuthConfig struct {
	// Required gates the chat view behind a signed-in user
	Required    bool     `json:"required"`
	Domain      string   `json:"domain,omitempty"` // hosted UI base, e.g. https://x.auth.us-east-1.amazoncognito.com
	ClientID    string   `json:"client_id,omitempty"`
	Region      string   `json:"region,omitempty"`
	UserPoolID  string   `json:"user_pool_id,omitempty"`
	RedirectURL string   `json:"redirect_url,omitempty"`
	Scopes      []string `json:"scopes,omitempty"`
}

// Config represents the user configuration
type Config struct {
	APIBaseURL string `json:"api_base_url,omitempty"`
	// RequestTimeoutSeconds bounds a single call to the answering service.
	RequestTimeoutSeconds int `json:"request_timeout_seconds"`
	// AttachToken sends the signed-in user's id token as a bearer
	// credential on every request. Off by default.
	AttachToken     bool           `json:"attach_token"`
	Verbose         bool           `json:"verbose"`
	CopyToClipboard bool           `json:"copy_to_clipboard"`
	TUITheme        string         `json:"tui_theme,omitempty"`
	Markdown        MarkdownConfig `json:"markdown,omitempty"`
	Auth            AuthConfig     `json:"auth"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}

// DefaultAuthConfig returns the default identity provider settings
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		Required:    true,
		Region:      defaultAWSRegion,
		RedirectURL: defaultRedirect,
		Scopes:      []string{"openid", "email", "phone", "profile"},
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		RequestTimeoutSeconds: defaultTimeoutSec,
		AttachToken:           false,
		Verbose:               false,
		CopyToClipboard:       false,
		TUITheme:              "tokyonight",
		Markdown:              DefaultMarkdownConfig(),
		Auth:                  DefaultAuthConfig(),
	}
}

// ResolveAPIBaseURL picks the answering service base URL: environment first,
// then the config file, then the built-in fallback. Trailing slashes are
// trimmed.
func (c Config) ResolveAPIBaseURL() string {
	base := os.Getenv(EnvAPIBaseURL)
	if base == "" {
		base = c.APIBaseURL
	}
	if base == "" {
		base = models.DefaultAPIBaseURL
	}
	return strings.TrimRight(base, "/")
}

// RequestTimeout returns the per-request timeout
func (c Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return defaultTimeoutSec * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// ResolveAuth returns the auth settings with environment overrides applied
func (c Config) ResolveAuth() AuthConfig {
	a := c.Auth
	if v := os.Getenv(EnvCognitoDomain); v != "" {
		a.Domain = v
	}
	if v := os.Getenv(EnvCognitoClient); v != "" {
		a.ClientID = v
	}
	if v := os.Getenv(EnvCognitoPool); v != "" {
		a.UserPoolID = v
	}
	if v := os.Getenv(EnvAWSRegion); v != "" {
		a.Region = v
	}
	if a.Region == "" {
		a.Region = defaultAWSRegion
	}
	if a.RedirectURL == "" {
		a.RedirectURL = defaultRedirect
	}
	if len(a.Scopes) == 0 {
		a.Scopes = DefaultAuthConfig().Scopes
	}
	if a.Domain != "" && !strings.HasPrefix(a.Domain, "http") {
		a.Domain = "https://" + a.Domain
	}
	a.Domain = strings.TrimRight(a.Domain, "/")
	return a
}

// Issuer returns the OIDC issuer of the configured user pool, or ""
func (a AuthConfig) Issuer() string {
	if a.UserPoolID == "" {
		return ""
	}
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", a.Region, a.UserPoolID)
}

// Validate checks the configuration for values that cannot work
func (c Config) Validate() error {
	if c.APIBaseURL != "" {
		u, err := url.Parse(c.APIBaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return apierrors.NewConfigError("api_base_url", "must be an absolute URL")
		}
	}
	if c.RequestTimeoutSeconds < 0 {
		return apierrors.NewConfigError("request_timeout_seconds", "must not be negative")
	}
	return nil
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, configDirName), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	// 0o700: the directory holds credentials
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFileName), nil
}

// LoadConfig loads the configuration from disk
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return DefaultConfig(), err
	}

	return cfg, nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(configDir, configFileName), data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SettableKeys lists the keys accepted by Set, in display order
func SettableKeys() []string {
	return []string{
		"api_base_url",
		"request_timeout_seconds",
		"attach_token",
		"verbose",
		"copy_to_clipboard",
		"tui_theme",
		"markdown.style",
		"auth.required",
		"auth.domain",
		"auth.client_id",
		"auth.region",
		"auth.user_pool_id",
		"auth.redirect_url",
	}
}

// Set assigns a single key from its string form
func (c *Config) Set(key, value string) error {
	parseBool := func() (bool, error) {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false, apierrors.NewConfigError(key, "expected true or false")
		}
		return b, nil
	}

	var err error
	switch key {
	case "api_base_url":
		c.APIBaseURL = value
	case "request_timeout_seconds":
		n, convErr := strconv.Atoi(value)
		if convErr != nil {
			return apierrors.NewConfigError(key, "expected a whole number of seconds")
		}
		c.RequestTimeoutSeconds = n
	case "attach_token":
		c.AttachToken, err = parseBool()
	case "verbose":
		c.Verbose, err = parseBool()
	case "copy_to_clipboard":
		c.CopyToClipboard, err = parseBool()
	case "tui_theme":
		c.TUITheme = value
	case "markdown.style":
		c.Markdown.Style = value
	case "auth.required":
		c.Auth.Required, err = parseBool()
	case "auth.domain":
		c.Auth.Domain = value
	case "auth.client_id":
		c.Auth.ClientID = value
	case "auth.region":
		c.Auth.Region = value
	case "auth.user_pool_id":
		c.Auth.UserPoolID = value
	case "auth.redirect_url":
		c.Auth.RedirectURL = value
	default:
		return apierrors.NewConfigError(key, "unknown key")
	}
	if err != nil {
		return err
	}
	return c.Validate()
}
