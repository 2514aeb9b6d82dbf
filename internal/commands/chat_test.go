package commands

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	apierrors "github.com/diogo/docchat/internal/errors"
	"github.com/diogo/docchat/internal/models"
	"github.com/diogo/docchat/internal/session"
)

func TestChatWithoutAuth(t *testing.T) {
	h := newHarness(t)
	h.cfg.Auth.Required = true

	if err := h.run("chat", "--no-auth"); err != nil {
		t.Fatal(err)
	}
	if h.chatEngine == nil {
		t.Fatal("chat view was not started")
	}
	if h.chatEngine.IsAuthenticated() || h.chatEngine.User() != "" {
		t.Errorf("--no-auth engine reports user %q", h.chatEngine.User())
	}
}

func TestChatRequiresAuthSetup(t *testing.T) {
	h := newHarness(t)
	h.cfg.Auth.Required = true

	err := h.run("chat")
	if !errors.Is(err, apierrors.ErrMissingAuthSetup) {
		t.Fatalf("err = %v, want ErrMissingAuthSetup", err)
	}
	if h.chatEngine != nil {
		t.Error("chat view started without a signed-in user")
	}
}

func TestChatSignedInUser(t *testing.T) {
	h := newHarness(t)
	h.cfg.Auth.Required = true
	h.signIn("jane@example.com")

	if err := h.run("chat"); err != nil {
		t.Fatal(err)
	}
	if !h.chatEngine.IsAuthenticated() {
		t.Error("engine should see the signed-in user")
	}
	if got := h.chatEngine.User(); got != "jane@example.com" {
		t.Errorf("User() = %q", got)
	}
}

func TestChatPrompts(t *testing.T) {
	t.Run("configured", func(t *testing.T) {
		h := newHarness(t)
		h.prompts = []string{"What changed last week?"}
		if err := h.run("chat"); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(h.prompts, h.chatEngine.Prompts()); diff != "" {
			t.Errorf("prompts mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unreadable file falls back", func(t *testing.T) {
		h := newHarness(t)
		h.deps.LoadPrompts = func() ([]string, error) { return nil, errors.New("bad prompts file") }
		if err := h.run("chat"); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(models.DefaultPrompts(), h.chatEngine.Prompts()); diff != "" {
			t.Errorf("prompts mismatch (-want +got):\n%s", diff)
		}
		if !strings.Contains(h.stderr.String(), "bad prompts file") {
			t.Errorf("stderr = %q", h.stderr.String())
		}
	})
}

func TestChatTurnsReachService(t *testing.T) {
	h := newHarness(t)
	h.respond("/chat", 200, `{"answer":"Deploy with the pipeline.","context":[{"filename":"deploy.md"}]}`)
	h.chatScript = func(ctx context.Context, e *session.Engine) {
		e.OnInputChange("How do I deploy?")
		e.OnSubmit(ctx)
	}

	if err := h.run("chat"); err != nil {
		t.Fatal(err)
	}

	msgs := h.chatEngine.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Kind() != models.KindUser || msgs[1].Kind() != models.KindAnswer {
		t.Errorf("kinds = %s, %s", msgs[0].Kind(), msgs[1].Kind())
	}
	if diff := cmp.Diff([]string{"deploy.md"}, msgs[1].Citations); diff != "" {
		t.Errorf("citations mismatch (-want +got):\n%s", diff)
	}
	if h.chatEngine.State() != session.StateIdle {
		t.Errorf("state = %s", h.chatEngine.State())
	}
}

func TestChatSignOutPrintsLogoutURL(t *testing.T) {
	h := newHarness(t)
	h.cfg.Auth.Required = true
	h.cfg.Auth.Domain = "https://auth.example.test"
	h.cfg.Auth.ClientID = "client-1"
	h.signIn("jane@example.com")
	h.chatSignedOut = true
	h.chatScript = func(ctx context.Context, e *session.Engine) {
		if err := e.SignOut(); err != nil {
			t.Errorf("SignOut: %v", err)
		}
	}

	if err := h.run("chat"); err != nil {
		t.Fatal(err)
	}
	if h.store.Creds != nil {
		t.Error("credentials should be removed")
	}
	out := h.stdout.String()
	if !strings.Contains(out, "Signed out") || !strings.Contains(out, "client_id=client-1") {
		t.Errorf("stdout = %q", out)
	}
}
