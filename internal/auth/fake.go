package auth

import (
	"context"
	"sync"
)

// Fake is an in-memory Authenticator for tests and --no-auth sessions
type Fake struct {
	User      string
	SignedIn  bool
	SignInErr error

	mu           sync.Mutex
	signInCalls  int
	signOutCalls int
}

var _ Authenticator = (*Fake)(nil)

func (f *Fake) IsAuthenticated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.SignedIn
}

func (f *Fake) CurrentUserLabel() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.SignedIn {
		return ""
	}
	return f.User
}

func (f *Fake) SignIn(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signInCalls++
	if f.SignInErr != nil {
		return f.SignInErr
	}
	f.SignedIn = true
	return nil
}

func (f *Fake) SignOut() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOutCalls++
	f.SignedIn = false
	return nil
}

// SignOutCalls returns how many times SignOut ran
func (f *Fake) SignOutCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signOutCalls
}
