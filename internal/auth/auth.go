// Package auth signs the user in against the Cognito hosted UI and exposes the
// signed-in identity to the rest of the client.
package auth

import (
	"context"
	"errors"
	"os"

	"github.com/diogo/docchat/internal/config"
)

// Authenticator is the capability the chat session needs from auth
type Authenticator interface {
	IsAuthenticated() bool
	CurrentUserLabel() string
	SignIn(ctx context.Context) error
	SignOut() error
}

// State is the lifecycle of the auth status
type State string

const (
	StateLoading         State = "loading"
	StateAuthenticated   State = "authenticated"
	StateUnauthenticated State = "unauthenticated"
	StateError           State = "error"
)

// Status is a snapshot of the auth state
type Status struct {
	State    State
	Email    string
	Username string
	Err      error
}

// IsAuthenticated reports whether the snapshot is signed in
func (s Status) IsAuthenticated() bool {
	return s.State == StateAuthenticated
}

// Label returns the email claim, falling back to the username
func (s Status) Label() string {
	if s.Email != "" {
		return s.Email
	}
	return s.Username
}

// CredentialStore persists credentials between runs
type CredentialStore interface {
	Load() (*config.Credentials, error)
	Save(creds *config.Credentials) error
	Delete() error
}

// FileStore keeps credentials in ~/.docchat/credentials.json
type FileStore struct{}

func (FileStore) Load() (*config.Credentials, error)   { return config.LoadCredentials() }
func (FileStore) Save(creds *config.Credentials) error { return config.SaveCredentials(creds) }
func (FileStore) Delete() error                        { return config.DeleteCredentials() }

// MemoryStore keeps credentials in memory, for tests and --no-auth runs
type MemoryStore struct {
	Creds *config.Credentials
}

func (m *MemoryStore) Load() (*config.Credentials, error) {
	if m.Creds == nil {
		return nil, os.ErrNotExist
	}
	return m.Creds, nil
}

func (m *MemoryStore) Save(creds *config.Credentials) error {
	if err := config.ValidateCredentials(creds); err != nil {
		return err
	}
	m.Creds = creds
	return nil
}

func (m *MemoryStore) Delete() error {
	m.Creds = nil
	return nil
}

// isNotSignedIn reports whether a store error only means nobody signed in yet
func isNotSignedIn(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
