package agent

import "sync"

// DefaultMemoryCapacity bounds retained turns when no capacity is given.
const DefaultMemoryCapacity = 50

// Turn is one completed question/answer pair.
type Turn struct {
	Question string
	Answer   string
}

// ConversationMemory is the bounded history of one session's completed
// turns, oldest first. It is the only state that outlives a turn; appends
// are serialized internally so concurrent turns against the same session
// cannot break FIFO eviction.
type ConversationMemory struct {
	mu       sync.Mutex
	turns    []Turn
	capacity int
}

// NewConversationMemory creates an empty memory retaining at most capacity
// turns. A non-positive capacity falls back to DefaultMemoryCapacity.
func NewConversationMemory(capacity int) *ConversationMemory {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &ConversationMemory{capacity: capacity}
}

// Append records a completed turn, evicting the oldest turn first when the
// capacity would be exceeded.
func (m *ConversationMemory) Append(question, answer string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, Turn{Question: question, Answer: answer})
	if len(m.turns) > m.capacity {
		m.turns = m.turns[len(m.turns)-m.capacity:]
	}
}

// Turns returns a copy of the retained turns, oldest first.
func (m *ConversationMemory) Turns() []Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Turn, len(m.turns))
	copy(out, m.turns)
	return out
}

// Len returns the number of retained turns.
func (m *ConversationMemory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.turns)
}

// Capacity returns the maximum number of retained turns.
func (m *ConversationMemory) Capacity() int { return m.capacity }

// Clear drops all retained turns; the next turn is treated as the first.
func (m *ConversationMemory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = nil
}
