package api

import (
	"context"
	"sync"

	"github.com/diogo/docchat/internal/models"
)

// MockClient is a scripted chat transport for tests of the session engine
// and the UI. It is safe for concurrent use.
type MockClient struct {
	// Responses are returned in order; the last one repeats. Empty means a
	// plain "ok" answer.
	Responses []models.Message
	// Gate, when set, holds every Submit until a value is received or the
	// channel is closed.
	Gate chan struct{}
	// Started, when set, receives each query as Submit begins.
	Started chan string

	mu      sync.Mutex
	queries []string
}

// Submit records the query and returns the next scripted message
func (m *MockClient) Submit(ctx context.Context, query string) models.Message {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	n := len(m.queries)
	m.mu.Unlock()

	if m.Started != nil {
		m.Started <- query
	}
	if m.Gate != nil {
		select {
		case <-m.Gate:
		case <-ctx.Done():
			return models.NewErrorMessage(models.ErrorPrefix + ctx.Err().Error())
		}
	}

	if len(m.Responses) == 0 {
		return models.NewAnswerMessage("ok", nil)
	}
	if n > len(m.Responses) {
		n = len(m.Responses)
	}
	return m.Responses[n-1]
}

// Calls returns how many times Submit was invoked
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queries)
}

// Queries returns the submitted queries in order
func (m *MockClient) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}
