package commands

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	"go.uber.org/zap/zaptest"

	"github.com/diogo/docchat/internal/api"
	"github.com/diogo/docchat/internal/auth"
	"github.com/diogo/docchat/internal/browser"
	"github.com/diogo/docchat/internal/config"
	"github.com/diogo/docchat/internal/session"
	"github.com/diogo/docchat/internal/tui"
)

// cannedResponse is what the fake service answers on one path
type cannedResponse struct {
	status int
	body   string
	err    error
}

// recordingDoer is an api.HTTPDoer that answers by URL path suffix, so the
// stage prefix of the base URL does not matter
type recordingDoer struct {
	mu        sync.Mutex
	responses map[string]cannedResponse
	requests  []*fhttp.Request
	bodies    []string
}

func (d *recordingDoer) Do(req *fhttp.Request) (*fhttp.Response, error) {
	var sent []byte
	if req.Body != nil {
		sent, _ = io.ReadAll(req.Body)
	}

	d.mu.Lock()
	d.requests = append(d.requests, req)
	d.bodies = append(d.bodies, string(sent))
	var canned cannedResponse
	ok := false
	for path, r := range d.responses {
		if strings.HasSuffix(req.URL.Path, path) {
			canned, ok = r, true
			break
		}
	}
	d.mu.Unlock()

	if !ok {
		canned = cannedResponse{status: 404, body: `{"message":"not found"}`}
	}
	if canned.err != nil {
		return nil, canned.err
	}
	return &fhttp.Response{
		StatusCode: canned.status,
		Status:     fmt.Sprintf("%d %s", canned.status, fhttp.StatusText(canned.status)),
		Header:     fhttp.Header{},
		Body:       io.NopCloser(strings.NewReader(canned.body)),
		Request:    req,
	}, nil
}

func (d *recordingDoer) calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.requests)
}

func (d *recordingDoer) lastRequest() (*fhttp.Request, string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.requests) == 0 {
		return nil, ""
	}
	return d.requests[len(d.requests)-1], d.bodies[len(d.bodies)-1]
}

// harness runs command trees against in-memory collaborators
type harness struct {
	t      *testing.T
	deps   *Dependencies
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	doer   *recordingDoer
	store  *auth.MemoryStore

	cfg       config.Config
	saved     []config.Config
	baseURLs  []string
	clipboard []string
	prompts   []string

	chatEngine    *session.Engine
	chatSignedOut bool
	chatScript    func(ctx context.Context, e *session.Engine)

	extracted  []browser.Query
	extractRes *browser.ExtractResult
	extractErr error
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, env := range []string{config.EnvAPIBaseURL, config.EnvCognitoDomain, config.EnvCognitoClient, config.EnvCognitoPool, config.EnvAWSRegion} {
		t.Setenv(env, "")
	}

	h := &harness{
		t:      t,
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		doer:   &recordingDoer{responses: map[string]cannedResponse{}},
		store:  &auth.MemoryStore{},
		cfg:    config.DefaultConfig(),
	}
	h.cfg.APIBaseURL = "https://api.example.test/dev"
	h.cfg.Auth.Required = false

	h.deps = &Dependencies{
		Stdin:       strings.NewReader(""),
		Stdout:      h.stdout,
		Stderr:      h.stderr,
		StdinIsPipe: func() bool { return false },
		IsTTY:       func() bool { return false },
		LoadConfig:  func() (config.Config, error) { return h.cfg, nil },
		SaveConfig: func(cfg config.Config) error {
			h.saved = append(h.saved, cfg)
			return nil
		},
		LoadPrompts: func() ([]string, error) {
			if h.prompts == nil {
				return []string{"first prompt", "second prompt"}, nil
			}
			return h.prompts, nil
		},
		Store:  h.store,
		Logger: zaptest.NewLogger(t),
		NewClient: func(baseURL string, opts ...api.ClientOption) (ChatClient, error) {
			h.baseURLs = append(h.baseURLs, baseURL)
			c, err := api.NewClient(baseURL, append(opts, api.WithHTTPClient(h.doer))...)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		RunChat: func(ctx context.Context, e *session.Engine, opts ...tui.Option) (bool, error) {
			h.chatEngine = e
			if h.chatScript != nil {
				h.chatScript(ctx, e)
			}
			return h.chatSignedOut, nil
		},
		ExtractTokens: func(ctx context.Context, b browser.SupportedBrowser, q browser.Query) (*browser.ExtractResult, error) {
			h.extracted = append(h.extracted, q)
			return h.extractRes, h.extractErr
		},
		CopyToClipboard: func(text string) error {
			h.clipboard = append(h.clipboard, text)
			return nil
		},
	}
	return h
}

func (h *harness) respond(path string, status int, body string) {
	h.doer.responses[path] = cannedResponse{status: status, body: body}
}

func (h *harness) signIn(email string) {
	h.store.Creds = &config.Credentials{IDToken: "header.payload.sig", Email: email}
}

func (h *harness) run(args ...string) error {
	h.t.Helper()
	root := NewRootCmd(h.deps)
	root.SetArgs(args)
	return root.Execute()
}

// makeIDToken builds an unsigned JWT with the given claims
func makeIDToken(email string, exp time.Time) string {
	enc := base64.RawURLEncoding
	payload := fmt.Sprintf(`{"sub":"u-1","email":%q,"cognito:username":"jane","exp":%d}`, email, exp.Unix())
	return enc.EncodeToString([]byte(`{"alg":"RS256"}`)) + "." + enc.EncodeToString([]byte(payload)) + ".c2ln"
}

func TestRootCommandHelp(t *testing.T) {
	h := newHarness(t)
	if err := h.run(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(h.stdout.String(), "docchat [question]") {
		t.Errorf("help not printed:\n%s", h.stdout.String())
	}
	if h.doer.calls() != 0 {
		t.Error("help reached the service")
	}
}

func TestRootCommandVersion(t *testing.T) {
	h := newHarness(t)
	if err := h.run("--version"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(h.stdout.String(), "docchat "+Version) {
		t.Errorf("version output = %q", h.stdout.String())
	}
}

func TestRootCommandRejectsExtraArgs(t *testing.T) {
	h := newHarness(t)
	if err := h.run("one", "two"); err == nil {
		t.Error("two positional arguments should be rejected")
	}
}

func TestBaseURLResolution(t *testing.T) {
	tests := []struct {
		name string
		env  string
		flag string
		want string
	}{
		{name: "config file", want: "https://api.example.test/dev"},
		{name: "environment", env: "https://env.example.test/", want: "https://env.example.test"},
		{name: "flag wins", env: "https://env.example.test", flag: "https://flag.example.test/v2/", want: "https://flag.example.test/v2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			t.Setenv(config.EnvAPIBaseURL, tt.env)
			h.respond("/chat", 200, `{"answer":"ok"}`)

			args := []string{"question"}
			if tt.flag != "" {
				args = append(args, "--base-url", tt.flag)
			}
			if err := h.run(args...); err != nil {
				t.Fatal(err)
			}
			if len(h.baseURLs) != 1 || h.baseURLs[0] != tt.want {
				t.Errorf("base urls = %v, want %q", h.baseURLs, tt.want)
			}
		})
	}
}

func TestAttachTokenSendsBearer(t *testing.T) {
	for _, attach := range []bool{false, true} {
		t.Run(fmt.Sprintf("attach=%v", attach), func(t *testing.T) {
			h := newHarness(t)
			h.cfg.AttachToken = attach
			h.signIn("jane@example.com")
			h.respond("/chat", 200, `{"answer":"ok"}`)

			if err := h.run("question"); err != nil {
				t.Fatal(err)
			}
			req, _ := h.doer.lastRequest()
			got := req.Header.Get("Authorization")
			if attach && got != "Bearer header.payload.sig" {
				t.Errorf("Authorization = %q", got)
			}
			if !attach && got != "" {
				t.Errorf("token attached without attach_token: %q", got)
			}
		})
	}
}

func TestExecuteReportedErrorIsUnwrapped(t *testing.T) {
	inner := fmt.Errorf("boom")
	err := error(&reportedError{err: inner})
	if err.Error() != "boom" {
		t.Errorf("Error() = %q", err.Error())
	}
	if u, ok := err.(interface{ Unwrap() error }); !ok || u.Unwrap() != inner {
		t.Error("reportedError should unwrap to the original error")
	}
}
