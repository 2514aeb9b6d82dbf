// Package history provides the in-memory conversation log of a chat session.
package history

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/diogo/docchat/internal/models"
)

// Conversation is the ordered, append-only log of one session.
// It lives as long as the process and is never written to disk.
type Conversation struct {
	ID        string
	CreatedAt time.Time

	mu       sync.RWMutex
	messages []models.Message
}

// NewConversation creates an empty conversation
func NewConversation() *Conversation {
	return &Conversation{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		messages:  []models.Message{},
	}
}

// cloneMessage copies the citation slice so stored turns share no memory
// with callers in either direction.
func cloneMessage(msg models.Message) models.Message {
	if msg.Citations != nil {
		citations := make([]string, len(msg.Citations))
		copy(citations, msg.Citations)
		msg.Citations = citations
	}
	return msg
}

// Append adds msg to the end of the log
func (c *Conversation) Append(msg models.Message) {
	msg = cloneMessage(msg)

	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.mu.Unlock()
}

// All returns a snapshot of the log in order
func (c *Conversation) All() []models.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Message, len(c.messages))
	for i, msg := range c.messages {
		out[i] = cloneMessage(msg)
	}
	return out
}

// Len returns the number of stored turns
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// Last returns the most recent turn, if any
func (c *Conversation) Last() (models.Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.messages) == 0 {
		return models.Message{}, false
	}
	return cloneMessage(c.messages[len(c.messages)-1]), true
}
