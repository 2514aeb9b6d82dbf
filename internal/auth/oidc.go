package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/diogo/docchat/internal/config"
	apierrors "github.com/diogo/docchat/internal/errors"
)

// Cognito hosted UI paths relative to the domain
const (
	authorizePath = "/oauth2/authorize"
	tokenPath     = "/oauth2/token"
	logoutPath    = "/logout"
)

// Provider signs in with the Cognito hosted UI using the authorization code
// flow with PKCE and a loopback redirect.
type Provider struct {
	cfg    config.AuthConfig
	store  CredentialStore
	logger *zap.Logger
	now    func() time.Time
	notify func(signInURL string)
	listen func(network, addr string) (net.Listener, error)

	mu     sync.RWMutex
	creds  *config.Credentials
	status Status
}

// ProviderOption is a function that configures the provider
type ProviderOption func(*Provider)

// WithStore replaces the credentials file, mostly for tests
func WithStore(store CredentialStore) ProviderOption {
	return func(p *Provider) {
		p.store = store
	}
}

// WithLogger sets the operational logger
func WithLogger(logger *zap.Logger) ProviderOption {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) ProviderOption {
	return func(p *Provider) {
		p.now = now
	}
}

// WithSignInHandler is called with the hosted UI URL the user must open
func WithSignInHandler(fn func(signInURL string)) ProviderOption {
	return func(p *Provider) {
		if fn != nil {
			p.notify = fn
		}
	}
}

// NewProvider creates a provider for the resolved auth settings
func NewProvider(cfg config.AuthConfig, opts ...ProviderOption) *Provider {
	p := &Provider{
		cfg:    cfg,
		store:  FileStore{},
		logger: zap.NewNop(),
		now:    time.Now,
		notify: func(string) {},
		listen: net.Listen,
		status: Status{State: StateLoading},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Load reads stored credentials and settles the status
func (p *Provider) Load() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status = Status{State: StateLoading}
	creds, err := p.store.Load()
	switch {
	case (err != nil && isNotSignedIn(err)) || (err == nil && creds == nil):
		p.creds = nil
		p.status = Status{State: StateUnauthenticated}
	case err != nil:
		p.logger.Warn("failed to read stored credentials", zap.Error(err))
		p.creds = nil
		p.status = Status{State: StateError, Err: err}
	case creds.Expired(p.now()):
		p.logger.Info("stored credentials expired", zap.Time("expires_at", creds.ExpiresAt))
		p.creds = nil
		p.status = Status{State: StateUnauthenticated, Err: apierrors.ErrTokenExpired}
	default:
		p.setCreds(creds)
	}
	return p.status
}

// setCreds must be called with mu held
func (p *Provider) setCreds(creds *config.Credentials) {
	p.creds = creds
	p.status = Status{
		State:    StateAuthenticated,
		Email:    creds.Email,
		Username: creds.Username,
	}
}

// Status returns the current auth snapshot
func (p *Provider) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// IsAuthenticated reports whether unexpired credentials are loaded
func (p *Provider) IsAuthenticated() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.creds != nil && !p.creds.Expired(p.now())
}

// CurrentUserLabel returns the email of the signed-in user, else the username
func (p *Provider) CurrentUserLabel() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.creds == nil {
		return ""
	}
	return p.creds.Label()
}

// IDToken returns the raw id token, or "" when signed out
func (p *Provider) IDToken() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.creds == nil || p.creds.Expired(p.now()) {
		return ""
	}
	return p.creds.GetIDToken()
}

// Configured reports whether the hosted UI can be used
func (p *Provider) Configured() bool {
	return p.cfg.Domain != "" && p.cfg.ClientID != ""
}

func (p *Provider) oauthConfig(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID: p.cfg.ClientID,
		Endpoint: oauth2.Endpoint{
			AuthURL:   p.cfg.Domain + authorizePath,
			TokenURL:  p.cfg.Domain + tokenPath,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: redirectURL,
		Scopes:      p.cfg.Scopes,
	}
}

// SignIn runs the hosted UI flow and stores the resulting credentials.
// It blocks until the browser hits the redirect or ctx is done.
func (p *Provider) SignIn(ctx context.Context) error {
	if !p.Configured() {
		return apierrors.ErrMissingAuthSetup
	}

	redirect, err := url.Parse(p.cfg.RedirectURL)
	if err != nil || redirect.Host == "" {
		return apierrors.NewConfigError("auth.redirect_url", "must be an absolute loopback URL")
	}

	ln, err := p.listen("tcp", redirect.Host)
	if err != nil {
		return fmt.Errorf("failed to listen for the sign-in redirect: %w", err)
	}
	if redirect.Port() == "0" {
		redirect.Host = ln.Addr().String()
	}

	oc := p.oauthConfig(redirect.String())
	verifier := oauth2.GenerateVerifier()
	state := oauth2.GenerateVerifier()

	cb := newCallbackServer(ln, redirect.Path, state)
	defer cb.Close()

	signInURL := oc.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	p.logger.Info("waiting for hosted UI sign-in", zap.String("redirect", redirect.String()))
	p.notify(signInURL)

	var code string
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-cb.Results():
		if res.err != nil {
			p.logger.Warn("sign-in redirect rejected", zap.Error(res.err))
			return res.err
		}
		code = res.code
	}

	tok, err := oc.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		p.logger.Warn("token exchange failed", zap.Error(err))
		return fmt.Errorf("token exchange failed: %w", errors.Join(apierrors.ErrAuthFailed, err))
	}

	idToken, _ := tok.Extra("id_token").(string)
	if idToken == "" {
		return apierrors.NewAuthError("token response has no id_token")
	}
	creds, err := credentialsFromTokens(idToken, tok.AccessToken, tok.RefreshToken)
	if err != nil {
		return err
	}
	return p.Import(creds)
}

// ImportTokens stores tokens taken from a browser session
func (p *Provider) ImportTokens(idToken, accessToken, refreshToken string) error {
	creds, err := credentialsFromTokens(idToken, accessToken, refreshToken)
	if err != nil {
		return err
	}
	return p.Import(creds)
}

// Import stores credentials obtained elsewhere and marks the user signed in
func (p *Provider) Import(creds *config.Credentials) error {
	if err := config.ValidateCredentials(creds); err != nil {
		return err
	}
	if creds.Expired(p.now()) {
		return apierrors.ErrTokenExpired
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.store.Save(creds); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	p.setCreds(creds)
	p.logger.Info("signed in", zap.String("user", creds.Label()))
	return nil
}

// SignOut removes the stored credentials
func (p *Provider) SignOut() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.store.Delete(); err != nil {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	p.creds = nil
	p.status = Status{State: StateUnauthenticated}
	p.logger.Info("signed out")
	return nil
}

// LogoutURL returns the hosted UI URL that ends the browser session, or ""
func (p *Provider) LogoutURL() string {
	if !p.Configured() {
		return ""
	}
	v := url.Values{}
	v.Set("client_id", p.cfg.ClientID)
	if logoutURI := strings.TrimSpace(p.cfg.RedirectURL); logoutURI != "" {
		v.Set("logout_uri", logoutURI)
	}
	return p.cfg.Domain + logoutPath + "?" + v.Encode()
}
