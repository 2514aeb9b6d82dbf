// Package models holds the data shapes shared by the transport, the session
// engine and the presentation layer.
package models

import (
	"regexp"
	"time"
)

// Sender identifies who produced a turn
type Sender string

const (
	SenderUser   Sender = "user"
	SenderAnswer Sender = "answer"
	SenderError  Sender = "error"
)

// Kind is the presentation class of a turn
type Kind string

const (
	KindUser    Kind = "user"
	KindAnswer  Kind = "answer"
	KindRefusal Kind = "refusal"
	KindError   Kind = "error"
)

// refusalMarker matches the apology word the service uses when it declines.
// It false-positives on legitimate answers containing the word; kept as is.
var refusalMarker = regexp.MustCompile(`(?i)\bsorry\b`)

// Message is one conversational turn
type Message struct {
	Sender    Sender
	Text      string
	Citations []string // only set on non-refusal answers
	Refusal   bool
	Timestamp time.Time
}

// NewUserMessage creates a user turn
func NewUserMessage(text string) Message {
	return Message{
		Sender:    SenderUser,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// NewErrorMessage creates an error turn
func NewErrorMessage(text string) Message {
	return Message{
		Sender:    SenderError,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// NewAnswerMessage creates an answer turn from the service's text and the
// filenames of its context items. Refusals drop their citations.
func NewAnswerMessage(text string, filenames []string) Message {
	msg := Message{
		Sender:    SenderAnswer,
		Text:      text,
		Refusal:   IsRefusal(text),
		Timestamp: time.Now(),
	}
	if !msg.Refusal {
		msg.Citations = DedupeCitations(filenames)
	}
	return msg
}

// IsRefusal reports whether answer text signals the service declined to help
func IsRefusal(text string) bool {
	return refusalMarker.MatchString(text)
}

// DedupeCitations drops empty entries and duplicates, keeping first-seen order.
// Returns nil when nothing is left.
func DedupeCitations(filenames []string) []string {
	if len(filenames) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(filenames))
	var out []string
	for _, name := range filenames {
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// Kind returns the presentation class of the message
func (m Message) Kind() Kind {
	switch m.Sender {
	case SenderUser:
		return KindUser
	case SenderAnswer:
		if m.Refusal {
			return KindRefusal
		}
		return KindAnswer
	default:
		return KindError
	}
}

// HasSources reports whether a "Sources" section should be shown
func (m Message) HasSources() bool {
	return m.Kind() == KindAnswer && len(m.Citations) > 0
}

// IsErrorStyled reports whether the turn renders with error styling
func (m Message) IsErrorStyled() bool {
	k := m.Kind()
	return k == KindError || k == KindRefusal
}
