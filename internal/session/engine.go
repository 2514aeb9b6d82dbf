// Package session holds the chat session engine: the draft, the single
// pending submission and the conversation it appends to.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/diogo/docchat/internal/auth"
	"github.com/diogo/docchat/internal/history"
	"github.com/diogo/docchat/internal/models"
)

// Transport sends one question and always answers with a message
type Transport interface {
	Submit(ctx context.Context, query string) models.Message
}

// State is the submission state of the engine
type State int

const (
	StateIdle State = iota
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Engine turns user input into conversation turns. Only the engine appends
// to its conversation, and at most one submission is in flight.
type Engine struct {
	transport Transport
	conv      *history.Conversation
	prompts   []string
	auth      auth.Authenticator
	logger    *zap.Logger

	mu      sync.Mutex
	draft   string
	state   State
	started time.Time
}

// New creates an engine. A nil conversation starts a fresh one, nil prompts
// use the built-in catalog, and a nil authenticator means nobody is signed in.
func New(transport Transport, conv *history.Conversation, prompts []string, authn auth.Authenticator, logger *zap.Logger) *Engine {
	if conv == nil {
		conv = history.NewConversation()
	}
	if prompts == nil {
		prompts = models.DefaultPrompts()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		transport: transport,
		conv:      conv,
		prompts:   append([]string(nil), prompts...),
		auth:      authn,
		logger: logger.With(
			zap.String("conversation", conv.ID),
			zap.Time("conversation_started", conv.CreatedAt)),
	}
}

// OnInputChange stores the draft verbatim
func (e *Engine) OnInputChange(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft = text
}

// OnPromptSelected replaces the draft with a catalog entry. Nothing is sent.
func (e *Engine) OnPromptSelected(text string) {
	e.OnInputChange(text)
}

// Begin accepts the draft as a new turn: it appends the user message, clears
// the draft and enters StateSubmitting. It reports false, changing nothing,
// when the trimmed draft is empty or a submission is already pending.
func (e *Engine) Begin() (query string, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	query = strings.TrimSpace(e.draft)
	if query == "" || e.state == StateSubmitting {
		return "", false
	}

	e.conv.Append(models.NewUserMessage(query))
	e.draft = ""
	e.state = StateSubmitting
	e.started = time.Now()

	e.logger.Debug("turn submitted", zap.Int("query_len", len(query)))
	return query, true
}

// Complete appends the transport's reply and returns to StateIdle
func (e *Engine) Complete(msg models.Message) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateSubmitting {
		e.logger.Warn("reply without a pending submission dropped", zap.String("kind", string(msg.Kind())))
		return
	}
	if msg.Text == "" {
		msg = models.NewErrorMessage(models.ErrorPrefix + models.GenericFailureText)
	}

	e.conv.Append(msg)
	e.state = StateIdle

	e.logger.Info("turn completed",
		zap.String("kind", string(msg.Kind())),
		zap.Int("citations", len(msg.Citations)),
		zap.Duration("elapsed", time.Since(e.started)))
}

// OnSubmit runs a whole turn synchronously. It reports whether the draft was
// accepted; a rejected submit is a silent no-op.
func (e *Engine) OnSubmit(ctx context.Context) bool {
	query, ok := e.Begin()
	if !ok {
		return false
	}

	reply := models.NewErrorMessage(models.ErrorPrefix + models.GenericFailureText)
	defer func() {
		e.Complete(reply)
	}()
	reply = e.transport.Submit(ctx, query)
	return true
}

// Submit sends a query through the transport without touching engine state.
// It must only be called between an accepted Begin and the matching
// Complete; it does not check that a submission is pending.
func (e *Engine) Submit(ctx context.Context, query string) models.Message {
	return e.transport.Submit(ctx, query)
}

// Draft returns the current input
func (e *Engine) Draft() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft
}

// State returns the submission state
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Pending reports whether a submission is in flight
func (e *Engine) Pending() bool {
	return e.State() == StateSubmitting
}

// Messages returns a copy of the conversation
func (e *Engine) Messages() []models.Message {
	return e.conv.All()
}

// LastMessage returns the most recent turn, if any
func (e *Engine) LastMessage() (models.Message, bool) {
	return e.conv.Last()
}

// ConversationID identifies the conversation in logs
func (e *Engine) ConversationID() string {
	return e.conv.ID
}

// Prompts returns the suggestion catalog in order
func (e *Engine) Prompts() []string {
	return append([]string(nil), e.prompts...)
}

// User returns the signed-in user's label, or ""
func (e *Engine) User() string {
	if e.auth == nil {
		return ""
	}
	return e.auth.CurrentUserLabel()
}

// IsAuthenticated reports whether a user is signed in
func (e *Engine) IsAuthenticated() bool {
	return e.auth != nil && e.auth.IsAuthenticated()
}

// SignOut signs the current user out
func (e *Engine) SignOut() error {
	if e.auth == nil {
		return nil
	}
	if err := e.auth.SignOut(); err != nil {
		return err
	}
	e.logger.Info("user signed out from chat")
	return nil
}
