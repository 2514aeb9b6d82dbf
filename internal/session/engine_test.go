package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/diogo/docchat/internal/api"
	"github.com/diogo/docchat/internal/auth"
	"github.com/diogo/docchat/internal/history"
	"github.com/diogo/docchat/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var _ Transport = (*api.MockClient)(nil)

// ignoreTime compares messages without their timestamps
var ignoreTime = cmpopts.IgnoreFields(models.Message{}, "Timestamp")

func newTestEngine(t *testing.T, transport Transport) *Engine {
	t.Helper()
	return New(transport, history.NewConversation(), nil, &auth.Fake{User: "jane@example.com", SignedIn: true}, zaptest.NewLogger(t))
}

func TestEmptySubmitIsNoop(t *testing.T) {
	for _, draft := range []string{"", "   ", "\n\t "} {
		mock := &api.MockClient{}
		e := newTestEngine(t, mock)
		e.OnInputChange(draft)

		if e.OnSubmit(context.Background()) {
			t.Errorf("OnSubmit(%q) accepted an empty draft", draft)
		}
		if len(e.Messages()) != 0 {
			t.Errorf("draft %q appended messages", draft)
		}
		if mock.Calls() != 0 {
			t.Errorf("draft %q reached the transport", draft)
		}
		if e.Draft() != draft {
			t.Errorf("rejected submit changed the draft to %q", e.Draft())
		}
	}
}

func TestSubmitAppendsTurnPair(t *testing.T) {
	mock := &api.MockClient{Responses: []models.Message{
		models.NewAnswerMessage("Use the pipeline.", []string{"a.md", "a.md", "b.md"}),
	}}
	e := newTestEngine(t, mock)

	e.OnInputChange("  How do I deploy?  ")
	if !e.OnSubmit(context.Background()) {
		t.Fatal("OnSubmit rejected a valid draft")
	}

	want := []models.Message{
		{Sender: models.SenderUser, Text: "How do I deploy?"},
		{Sender: models.SenderAnswer, Text: "Use the pipeline.", Citations: []string{"a.md", "b.md"}},
	}
	if diff := cmp.Diff(want, e.Messages(), ignoreTime); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"How do I deploy?"}, mock.Queries()); diff != "" {
		t.Errorf("queries mismatch (-want +got):\n%s", diff)
	}
	if e.Draft() != "" {
		t.Errorf("draft not cleared: %q", e.Draft())
	}
	if e.State() != StateIdle {
		t.Errorf("state = %s, want idle", e.State())
	}
}

func TestEveryAcceptedSubmitAppendsTwo(t *testing.T) {
	mock := &api.MockClient{Responses: []models.Message{
		models.NewAnswerMessage("one", nil),
		models.NewErrorMessage("Error: API error: 500 Internal Server Error"),
		models.NewAnswerMessage("Sorry, I can't help.", []string{"x.md"}),
	}}
	e := newTestEngine(t, mock)

	for i, q := range []string{"first", "second", "third"} {
		e.OnInputChange(q)
		e.OnSubmit(context.Background())
		if got := len(e.Messages()); got != 2*(i+1) {
			t.Fatalf("after %d submits got %d messages", i+1, got)
		}
	}

	msgs := e.Messages()
	for i := 0; i < len(msgs); i += 2 {
		if msgs[i].Sender != models.SenderUser {
			t.Errorf("message %d should be a user turn", i)
		}
		if msgs[i+1].Sender == models.SenderUser {
			t.Errorf("message %d should be a reply", i+1)
		}
	}
	if got := msgs[5].Kind(); got != models.KindRefusal {
		t.Errorf("last reply kind = %s, want refusal", got)
	}
}

func TestDraftClearedRegardlessOfOutcome(t *testing.T) {
	replies := []models.Message{
		models.NewAnswerMessage("ok", nil),
		models.NewErrorMessage("Error: dial tcp: connection refused"),
		models.NewErrorMessage("Error: Invalid response from server."),
	}
	for _, reply := range replies {
		e := newTestEngine(t, &api.MockClient{Responses: []models.Message{reply}})
		e.OnInputChange("question")
		e.OnSubmit(context.Background())
		if e.Draft() != "" {
			t.Errorf("draft %q left after %q", e.Draft(), reply.Text)
		}
		if e.Pending() {
			t.Error("engine still pending after the reply")
		}
	}
}

func TestSubmitWhilePendingIsNoop(t *testing.T) {
	mock := &api.MockClient{
		Gate:    make(chan struct{}),
		Started: make(chan string, 1),
	}
	e := newTestEngine(t, mock)

	e.OnInputChange("first")
	done := make(chan bool)
	go func() {
		done <- e.OnSubmit(context.Background())
	}()

	select {
	case <-mock.Started:
	case <-time.After(5 * time.Second):
		t.Fatal("transport was never called")
	}

	if !e.Pending() || e.State() != StateSubmitting {
		t.Fatal("engine should be submitting")
	}

	e.OnInputChange("second")
	if e.OnSubmit(context.Background()) {
		t.Error("second submit accepted while pending")
	}
	if _, ok := e.Begin(); ok {
		t.Error("Begin accepted while pending")
	}
	if mock.Calls() != 1 {
		t.Errorf("transport called %d times", mock.Calls())
	}
	if got := len(e.Messages()); got != 1 {
		t.Errorf("pending conversation has %d messages, want 1", got)
	}
	if e.Draft() != "second" {
		t.Errorf("rejected submit changed the draft to %q", e.Draft())
	}

	close(mock.Gate)
	if !<-done {
		t.Error("first submit should have been accepted")
	}
	if got := len(e.Messages()); got != 2 {
		t.Errorf("conversation has %d messages, want 2", got)
	}
	if e.State() != StateIdle {
		t.Errorf("state = %s, want idle", e.State())
	}
}

func TestBeginComplete(t *testing.T) {
	mock := &api.MockClient{}
	e := newTestEngine(t, mock)

	e.OnInputChange("  hello ")
	query, ok := e.Begin()
	if !ok || query != "hello" {
		t.Fatalf("Begin() = %q, %v", query, ok)
	}
	if e.Draft() != "" || !e.Pending() {
		t.Error("Begin should clear the draft and enter submitting")
	}

	e.Complete(e.Submit(context.Background(), query))
	if e.Pending() || len(e.Messages()) != 2 {
		t.Errorf("Complete left pending=%v messages=%d", e.Pending(), len(e.Messages()))
	}

	// a stray reply is dropped
	e.Complete(models.NewAnswerMessage("late", nil))
	if len(e.Messages()) != 2 {
		t.Error("reply without pending submission was appended")
	}
}

func TestCompleteReplacesEmptyReply(t *testing.T) {
	e := newTestEngine(t, &api.MockClient{Responses: []models.Message{{Sender: models.SenderAnswer}}})
	e.OnInputChange("q")
	e.OnSubmit(context.Background())

	last := e.Messages()[1]
	if last.Sender != models.SenderError || last.Text != "Error: Something went wrong." {
		t.Errorf("empty reply not replaced: %+v", last)
	}
}

func TestPromptSelection(t *testing.T) {
	mock := &api.MockClient{}
	e := newTestEngine(t, mock)
	prompts := e.Prompts()
	if len(prompts) == 0 {
		t.Fatal("expected built-in prompts")
	}

	e.OnInputChange("half typed")
	e.OnPromptSelected(prompts[2])

	if e.Draft() != prompts[2] {
		t.Errorf("Draft() = %q, want %q", e.Draft(), prompts[2])
	}
	if len(e.Messages()) != 0 || mock.Calls() != 0 {
		t.Error("selecting a prompt must not submit")
	}
}

func TestPromptsAreCopied(t *testing.T) {
	custom := []string{"a", "a", "b"}
	e := New(&api.MockClient{}, nil, custom, nil, nil)

	got := e.Prompts()
	got[0] = "changed"
	custom[1] = "changed"
	if diff := cmp.Diff([]string{"a", "a", "b"}, e.Prompts()); diff != "" {
		t.Errorf("prompts mismatch (-want +got):\n%s", diff)
	}
}

func TestUserAndSignOut(t *testing.T) {
	fake := &auth.Fake{User: "jane@example.com", SignedIn: true}
	e := New(&api.MockClient{}, nil, nil, fake, nil)

	if e.User() != "jane@example.com" || !e.IsAuthenticated() {
		t.Errorf("User() = %q", e.User())
	}
	if err := e.SignOut(); err != nil {
		t.Fatal(err)
	}
	if e.User() != "" || e.IsAuthenticated() || fake.SignOutCalls() != 1 {
		t.Error("sign out did not reach the authenticator")
	}

	anon := New(&api.MockClient{}, nil, nil, nil, nil)
	if anon.User() != "" || anon.SignOut() != nil || anon.ConversationID() == "" {
		t.Error("anonymous engine misbehaves")
	}
}

func TestStateString(t *testing.T) {
	if StateIdle.String() != "idle" || StateSubmitting.String() != "submitting" || State(7).String() != "State(7)" {
		t.Error("unexpected State strings")
	}
}

func TestLastMessage(t *testing.T) {
	mock := &api.MockClient{Responses: []models.Message{models.NewAnswerMessage("Deploy with the pipeline.", []string{"deploy.md"})}}
	e := New(mock, nil, nil, nil, nil)

	if _, ok := e.LastMessage(); ok {
		t.Fatal("empty conversation has no last message")
	}

	e.OnInputChange("How do I deploy?")
	e.OnSubmit(context.Background())

	last, ok := e.LastMessage()
	if !ok || last.Kind() != models.KindAnswer || last.Text != "Deploy with the pipeline." {
		t.Errorf("LastMessage() = %+v, %v", last, ok)
	}
}
