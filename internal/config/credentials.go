package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const credentialsFileName = "credentials.json"

// Credentials holds the tokens and profile of the signed-in user
type Credentials struct {
	mu           sync.RWMutex `json:"-"`
	IDToken      string       `json:"id_token"`
	AccessToken  string       `json:"access_token,omitempty"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	Email        string       `json:"email,omitempty"`
	Username     string       `json:"username,omitempty"`
	ExpiresAt    time.Time    `json:"expires_at,omitempty"`
}

// GetIDToken returns the id token in a thread-safe manner
func (c *Credentials) GetIDToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.IDToken
}

// Label returns the claim shown as the current user: email, else username
func (c *Credentials) Label() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.Email != "" {
		return c.Email
	}
	return c.Username
}

// Expired reports whether the id token has passed its expiry.
// A zero expiry never expires.
func (c *Credentials) Expired(now time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// GetCredentialsPath returns the path to the credentials file
func GetCredentialsPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, credentialsFileName), nil
}

// LoadCredentials loads the stored credentials. It returns os.ErrNotExist
// (wrapped) when nobody is signed in.
func LoadCredentials() (*Credentials, error) {
	path, err := GetCredentialsPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no stored credentials: %w", err)
		}
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	if err := ValidateCredentials(&creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// SaveCredentials writes credentials with owner-only permissions
func SaveCredentials(creds *Credentials) error {
	if err := ValidateCredentials(creds); err != nil {
		return err
	}

	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	creds.mu.RLock()
	data, err := json.MarshalIndent(creds, "", "  ")
	creds.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	if err := os.WriteFile(filepath.Join(configDir, credentialsFileName), data, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}

// DeleteCredentials removes the stored credentials. Missing files are fine.
func DeleteCredentials() error {
	path, err := GetCredentialsPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credentials file: %w", err)
	}
	return nil
}

// ValidateCredentials checks that credentials identify a user
func ValidateCredentials(creds *Credentials) error {
	if creds == nil {
		return fmt.Errorf("credentials are nil")
	}
	if creds.GetIDToken() == "" {
		return fmt.Errorf("missing required field: id_token")
	}
	return nil
}
