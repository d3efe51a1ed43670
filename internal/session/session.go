// Package session maintains conversation threads: ordered message
// history, auto-generated titles and lifecycle, keyed by the front end's
// notion of identity (thread id for the UI, sender id for the webhook).
package session

import (
	"strings"

	"github.com/google/uuid"
)

// Role identifies who produced a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DefaultName is the sentinel title of a thread that has not yet
// received its first user message.
const DefaultName = "New Chat"

// Message is one turn in a conversation. Immutable once appended.
type Message struct {
	Role    Role
	Content string
}

// Session is one conversation thread
type Session struct {
	ID       uuid.UUID
	Name     string
	Messages []Message
}

// clone returns a snapshot safe to hand outside the store's lock
func (s *Session) clone() Session {
	msgs := make([]Message, len(s.Messages))
	copy(msgs, s.Messages)
	return Session{ID: s.ID, Name: s.Name, Messages: msgs}
}

// titleFromMessage derives a thread title from the first n words of a
// message. Messages with no words keep the sentinel name.
func titleFromMessage(content string, n int) string {
	words := strings.Fields(content)
	if len(words) == 0 {
		return DefaultName
	}
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
