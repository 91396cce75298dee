package agent

import "testing"

func TestConversationMemoryFIFO(t *testing.T) {
	m := NewConversationMemory(3)
	for _, q := range []string{"q1", "q2", "q3", "q4"} {
		m.Append(q, "a-"+q)
	}

	turns := m.Turns()
	if len(turns) != 3 {
		t.Fatalf("Len = %d, want 3", len(turns))
	}
	want := []string{"q2", "q3", "q4"}
	for i, q := range want {
		if turns[i].Question != q {
			t.Fatalf("turns[%d].Question = %q, want %q", i, turns[i].Question, q)
		}
	}
}

func TestConversationMemoryTurnsIsCopy(t *testing.T) {
	m := NewConversationMemory(3)
	m.Append("q1", "a1")

	turns := m.Turns()
	turns[0].Answer = "mutated"

	if m.Turns()[0].Answer != "a1" {
		t.Fatal("Turns did not return a copy")
	}
}

func TestConversationMemoryDefaults(t *testing.T) {
	m := NewConversationMemory(0)
	if m.Capacity() != DefaultMemoryCapacity {
		t.Fatalf("Capacity = %d, want %d", m.Capacity(), DefaultMemoryCapacity)
	}
}

func TestConversationMemoryClear(t *testing.T) {
	m := NewConversationMemory(3)
	m.Append("q1", "a1")
	m.Clear()
	if m.Len() != 0 {
		t.Fatalf("Len = %d after Clear, want 0", m.Len())
	}
	m.Append("q2", "a2")
	if m.Len() != 1 {
		t.Fatalf("Len = %d, want 1", m.Len())
	}
}
