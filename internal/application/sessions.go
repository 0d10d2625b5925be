package application

import (
	"sync"

	"github.com/shelfbot/shelfbot/internal/domain"
)

type sessionKey struct {
	chatID int64
	userID int64
}

// SessionStore tracks what each user's next free-text message means, keyed
// by (chat, user). States live in process memory only and are never
// persisted. The store is safe for concurrent use.
type SessionStore struct {
	mu     sync.RWMutex
	states map[sessionKey]domain.SessionState
}

func NewSessionStore() *SessionStore {
	return &SessionStore{states: make(map[sessionKey]domain.SessionState)}
}

// Set overwrites the user's state in the chat.
func (s *SessionStore) Set(chatID, userID int64, state domain.SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state == domain.StateNone {
		delete(s.states, sessionKey{chatID, userID})
		return
	}
	s.states[sessionKey{chatID, userID}] = state
}

// Get returns the user's current state; absent reads as StateNone.
func (s *SessionStore) Get(chatID, userID int64) domain.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[sessionKey{chatID, userID}]
}

// Clear resets one user's state in the chat.
func (s *SessionStore) Clear(chatID, userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, sessionKey{chatID, userID})
}

// ClearChat drops every user's state in the chat. Returning to the main
// menu resets the whole conversation, on the assumption that a chat runs
// a single flow at a time.
func (s *SessionStore) ClearChat(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.states {
		if key.chatID == chatID {
			delete(s.states, key)
		}
	}
}
