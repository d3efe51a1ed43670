package session

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Store is a process-wide map from session key to Session. Lookups that
// miss create a fresh thread, so deleted or unknown keys never fail;
// chat identity is soft state. Safe for concurrent use by requests for
// distinct keys; requests for the same key are expected to arrive
// serially from the transport.
type Store struct {
	mu         sync.RWMutex
	sessions   map[string]*Session
	order      []string // insertion order, for deterministic listing and reselection
	active     string
	titleWords int
	logger     *slog.Logger
}

// NewStore creates a session store. titleWords is the number of words of
// the first user message used as the thread title; front ends configure
// it differently (the chat UI uses more words than the webhook channel).
func NewStore(titleWords int, logger *slog.Logger) *Store {
	if titleWords <= 0 {
		titleWords = 6
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		sessions:   make(map[string]*Session),
		titleWords: titleWords,
		logger:     logger,
	}
}

// GetOrCreate returns the session for key, creating it with the sentinel
// name and an empty history when absent.
func (s *Store) GetOrCreate(key string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreateLocked(key).clone()
}

// Get returns a snapshot of the session for key, if it exists
func (s *Store) Get(key string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[key]
	if !ok {
		return Session{}, false
	}
	return sess.clone(), true
}

// Append adds a message to the session for key, creating the session if
// needed. The first user message of a still-default-named thread renames
// it to the message's leading words; once renamed, the title is never
// auto-rewritten again.
func (s *Store) Append(key string, role Role, content string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getOrCreateLocked(key)
	if role == RoleUser && sess.Name == DefaultName {
		sess.Name = titleFromMessage(content, s.titleWords)
	}
	sess.Messages = append(sess.Messages, Message{Role: role, Content: content})
	return sess.clone()
}

// Rename sets an explicit user-chosen title on the session for key
func (s *Store) Rename(key, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[key]
	if !ok {
		return false
	}
	sess.Name = name
	return true
}

// Delete removes the session for key. If it was the active session, the
// first remaining session in insertion order becomes active; deleting
// the last session leaves no active session.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[key]; !ok {
		return
	}
	delete(s.sessions, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.active == key {
		if len(s.order) > 0 {
			s.active = s.order[0]
		} else {
			s.active = ""
		}
	}
	s.logger.Debug("deleted session", "key", key)
}

// List returns snapshots of all sessions in insertion order
func (s *Store) List() []Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Session, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.sessions[k].clone())
	}
	return out
}

// Keys returns session keys in insertion order
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Active returns the active session's key, or false when none is active
func (s *Store) Active() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == "" {
		return "", false
	}
	return s.active, true
}

// SetActive marks the session for key as active, creating it if absent
func (s *Store) SetActive(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrCreateLocked(key)
	s.active = key
}

func (s *Store) getOrCreateLocked(key string) *Session {
	if sess, ok := s.sessions[key]; ok {
		return sess
	}
	sess := &Session{
		ID:   uuid.New(),
		Name: DefaultName,
	}
	s.sessions[key] = sess
	s.order = append(s.order, key)
	if s.active == "" {
		s.active = key
	}
	s.logger.Debug("created session", "key", key, "id", sess.ID)
	return sess
}
