package api

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/diogo/docchat/internal/models"
)

func TestMockClientScript(t *testing.T) {
	mock := &MockClient{
		Responses: []models.Message{
			models.NewAnswerMessage("first", []string{"a.md"}),
			models.NewErrorMessage("Error: boom"),
		},
	}

	ctx := context.Background()
	got := []models.Kind{
		mock.Submit(ctx, "one").Kind(),
		mock.Submit(ctx, "two").Kind(),
		mock.Submit(ctx, "three").Kind(),
	}

	want := []models.Kind{models.KindAnswer, models.KindError, models.KindError}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("kinds mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"one", "two", "three"}, mock.Queries()); diff != "" {
		t.Errorf("queries mismatch (-want +got):\n%s", diff)
	}
	if mock.Calls() != 3 {
		t.Errorf("Calls() = %d", mock.Calls())
	}
}

func TestMockClientDefaultAnswer(t *testing.T) {
	msg := (&MockClient{}).Submit(context.Background(), "q")
	if msg.Kind() != models.KindAnswer || msg.Text != "ok" {
		t.Errorf("unexpected default reply: %+v", msg)
	}
}

func TestMockClientGate(t *testing.T) {
	mock := &MockClient{Gate: make(chan struct{}), Started: make(chan string, 1)}

	done := make(chan models.Message, 1)
	go func() { done <- mock.Submit(context.Background(), "held") }()

	if q := <-mock.Started; q != "held" {
		t.Fatalf("started with %q", q)
	}
	select {
	case <-done:
		t.Fatal("Submit returned before the gate opened")
	case <-time.After(20 * time.Millisecond):
	}

	close(mock.Gate)
	if msg := <-done; msg.Kind() != models.KindAnswer {
		t.Errorf("kind = %s", msg.Kind())
	}
}

func TestMockClientGateCancelled(t *testing.T) {
	mock := &MockClient{Gate: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	msg := mock.Submit(ctx, "q")
	if msg.Kind() != models.KindError || msg.Text != models.ErrorPrefix+context.Canceled.Error() {
		t.Errorf("unexpected reply: %+v", msg)
	}
}
