package agent

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for operations on an unknown session id.
var ErrSessionNotFound = errors.New("agent: session not found")

// SessionManager owns the conversation memories of live sessions, keyed by
// an opaque id held by the caller. Sessions are independent; no lock is
// shared between them beyond the registry itself.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*ConversationMemory
	capacity int
}

// NewSessionManager creates a manager whose sessions retain at most capacity
// turns each (DefaultMemoryCapacity when non-positive).
func NewSessionManager(capacity int) *SessionManager {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &SessionManager{
		sessions: make(map[string]*ConversationMemory),
		capacity: capacity,
	}
}

// Create starts a new session and returns its id.
func (sm *SessionManager) Create() string {
	id := uuid.NewString()
	sm.mu.Lock()
	sm.sessions[id] = NewConversationMemory(sm.capacity)
	sm.mu.Unlock()
	return id
}

// Get returns the memory for id, or false when the session does not exist.
func (sm *SessionManager) Get(id string) (*ConversationMemory, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	memory, ok := sm.sessions[id]
	return memory, ok
}

// Clear empties the session's memory without destroying the session.
func (sm *SessionManager) Clear(id string) error {
	memory, ok := sm.Get(id)
	if !ok {
		return ErrSessionNotFound
	}
	memory.Clear()
	return nil
}

// Destroy removes the session and its memory.
func (sm *SessionManager) Destroy(id string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if _, ok := sm.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(sm.sessions, id)
	return nil
}

// Len returns the number of live sessions.
func (sm *SessionManager) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}
