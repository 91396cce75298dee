// Package agent implements the retrieval-augmented conversation engine: a
// bounded decide/dispatch loop that routes one turn between retrieval, query
// rewriting, and generation, with per-session conversational memory.
package agent

import (
	"strings"

	"github.com/ragline/ragline/rag"
)

// ConversationState is the single mutable record threaded through one turn.
// A fresh state is created per turn and never shared across turns.
//
// Presence of optional fields is explicit: Evidence and RetrievalScore are
// meaningful only when EvidenceRetrieved is true (an empty retrieved slice is
// a valid outcome distinct from "never retrieved"); Answer and Confidence
// only when Answered is true; Err == "" means no error.
type ConversationState struct {
	// Question is the user input for this turn, immutable once set.
	Question string

	// RetrievalQuery is the possibly rewritten query actually sent to the
	// document store. Empty means "use Question".
	RetrievalQuery string

	// Evidence holds the results of the most recent retrieval. It is
	// replaced wholesale on each retrieval, never appended to.
	Evidence          []rag.Document
	EvidenceRetrieved bool

	// RetrievalScore is the aggregate quality of the last retrieval, in
	// [0,1].
	RetrievalScore    float64
	NeedsMoreEvidence bool

	// QueryRewritten records that the rewrite step ran, so it runs at most
	// once per turn.
	QueryRewritten bool

	// Answer is set exactly once, by the generation step, on success.
	Answer   string
	Answered bool

	// Confidence is a rough quality estimate of Answer in [0,1]. It is a
	// heuristic, not a calibrated probability.
	Confidence float64

	// StepCount increments once per executed step; StepBudget is the hard
	// ceiling fixed for the turn.
	StepCount  int
	StepBudget int

	// Err carries a recoverable step failure as plain text.
	Err string
}

// NewConversationState creates the initial state for one turn. A non-positive
// budget falls back to DefaultStepBudget.
func NewConversationState(question string, stepBudget int) *ConversationState {
	if stepBudget <= 0 {
		stepBudget = DefaultStepBudget
	}
	return &ConversationState{
		Question:   question,
		StepBudget: stepBudget,
	}
}

// Query returns the text to send to the document store: the rewritten query
// when present, the original question otherwise.
func (s *ConversationState) Query() string {
	if strings.TrimSpace(s.RetrievalQuery) != "" {
		return s.RetrievalQuery
	}
	return s.Question
}

// Failed reports whether a step recorded a recoverable failure.
func (s *ConversationState) Failed() bool { return s.Err != "" }

// BudgetExhausted reports the terminal outcome in which the loop ran out of
// steps without producing an answer or an error. Callers must check it
// separately from Failed.
func (s *ConversationState) BudgetExhausted() bool {
	return !s.Answered && s.Err == "" && s.StepCount >= s.StepBudget
}
