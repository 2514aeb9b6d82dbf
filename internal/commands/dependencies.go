package commands

import (
	"context"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/diogo/docchat/internal/api"
	"github.com/diogo/docchat/internal/auth"
	"github.com/diogo/docchat/internal/browser"
	"github.com/diogo/docchat/internal/config"
	"github.com/diogo/docchat/internal/models"
	"github.com/diogo/docchat/internal/session"
	"github.com/diogo/docchat/internal/tui"
)

// ChatClient is the part of the API client the commands use
type ChatClient interface {
	Submit(ctx context.Context, query string) models.Message
	UploadDocument(ctx context.Context, filename string, content []byte) (*models.UploadResult, error)
	FetchStatus(ctx context.Context, sessionID string) (*models.FetchResult, error)
}

var _ ChatClient = (*api.Client)(nil)

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// StdinIsPipe reports whether a question is piped in
	StdinIsPipe func() bool
	// IsTTY reports whether stdout is a terminal
	IsTTY func() bool

	LoadConfig  func() (config.Config, error)
	SaveConfig  func(config.Config) error
	LoadPrompts func() ([]string, error)
	Store       auth.CredentialStore

	// Logger replaces the file logger when set
	Logger *zap.Logger

	NewClient       func(baseURL string, opts ...api.ClientOption) (ChatClient, error)
	RunChat         func(ctx context.Context, engine *session.Engine, opts ...tui.Option) (signedOut bool, err error)
	ExtractTokens   func(ctx context.Context, b browser.SupportedBrowser, q browser.Query) (*browser.ExtractResult, error)
	CopyToClipboard func(text string) error
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		StdinIsPipe: func() bool {
			stat, err := os.Stdin.Stat()
			return err == nil && stat.Mode()&os.ModeCharDevice == 0
		},
		IsTTY: func() bool {
			return term.IsTerminal(int(os.Stdout.Fd()))
		},
		LoadConfig:  config.LoadConfig,
		SaveConfig:  config.SaveConfig,
		LoadPrompts: config.LoadPrompts,
		Store:       auth.FileStore{},
		NewClient: func(baseURL string, opts ...api.ClientOption) (ChatClient, error) {
			c, err := api.NewClient(baseURL, opts...)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		RunChat:         tui.RunChat,
		ExtractTokens:   browser.ExtractCognitoTokens,
		CopyToClipboard: clipboard.WriteAll,
	}
}

// withDefaults fills unset fields, so tests only set what they care about
func (d *Dependencies) withDefaults() *Dependencies {
	out := *d
	def := NewDependencies()
	if out.Stdin == nil {
		out.Stdin = def.Stdin
	}
	if out.Stdout == nil {
		out.Stdout = def.Stdout
	}
	if out.Stderr == nil {
		out.Stderr = def.Stderr
	}
	if out.StdinIsPipe == nil {
		out.StdinIsPipe = def.StdinIsPipe
	}
	if out.IsTTY == nil {
		out.IsTTY = def.IsTTY
	}
	if out.LoadConfig == nil {
		out.LoadConfig = def.LoadConfig
	}
	if out.SaveConfig == nil {
		out.SaveConfig = def.SaveConfig
	}
	if out.LoadPrompts == nil {
		out.LoadPrompts = def.LoadPrompts
	}
	if out.Store == nil {
		out.Store = def.Store
	}
	if out.NewClient == nil {
		out.NewClient = def.NewClient
	}
	if out.RunChat == nil {
		out.RunChat = def.RunChat
	}
	if out.ExtractTokens == nil {
		out.ExtractTokens = def.ExtractTokens
	}
	if out.CopyToClipboard == nil {
		out.CopyToClipboard = def.CopyToClipboard
	}
	return &out
}
