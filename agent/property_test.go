package agent

import (
	"context"
	"errors"
	"testing"

	"pgregory.net/rapid"

	"github.com/ragline/ragline/rag"
)

// randomStore draws a retriever behavior: a fault, or a document set with
// arbitrary scores and sizes.
func randomStore(t *rapid.T) *fakeRetriever {
	if rapid.Bool().Draw(t, "storeFails") {
		return &fakeRetriever{err: errors.New("store fault")}
	}
	n := rapid.IntRange(0, 8).Draw(t, "docCount")
	docs := make([]rag.Document, 0, n)
	scored := rapid.Bool().Draw(t, "scored")
	for i := 0; i < n; i++ {
		docs = append(docs, rag.Document{
			ID:      rapid.StringMatching(`[a-z]{4,8}`).Draw(t, "docID"),
			Content: "fragment",
			Score:   rapid.Float64Range(-1, 3).Draw(t, "score"),
			Scored:  scored,
		})
	}
	return &fakeRetriever{docs: docs}
}

func randomModel(t *rapid.T) *fakeModel {
	if rapid.Bool().Draw(t, "modelFails") {
		return &fakeModel{err: errors.New("model fault")}
	}
	return &fakeModel{reply: rapid.StringMatching(`[a-z ]{0,120}`).Draw(t, "reply")}
}

// Every turn terminates with StepCount at most the budget plus one step,
// and in exactly one terminal outcome.
func TestTurnAlwaysTerminates(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		store := randomStore(rt)
		model := randomModel(rt)
		budget := rapid.IntRange(1, 8).Draw(rt, "budget")

		opts := []Option{WithStepBudget(budget)}
		if rapid.Bool().Draw(rt, "rewrite") {
			opts = append(opts, WithRewrite())
		}
		orch := NewOrchestrator(model, store, opts...)

		state, err := orch.RunTurn(context.Background(), "question", nil)
		if err != nil {
			rt.Fatalf("RunTurn: %v", err)
		}

		// The budget rule is checked before dispatch, so the last step can
		// start at StepCount == budget-1 and finish at budget.
		if state.StepCount > state.StepBudget {
			rt.Fatalf("StepCount %d exceeded budget %d", state.StepCount, state.StepBudget)
		}

		outcomes := 0
		if state.Answered {
			outcomes++
		}
		if state.Failed() {
			outcomes++
		}
		if state.BudgetExhausted() {
			outcomes++
		}
		if outcomes != 1 {
			rt.Fatalf("want exactly one terminal outcome, got %d (answered=%v err=%q steps=%d/%d)",
				outcomes, state.Answered, state.Err, state.StepCount, state.StepBudget)
		}
	})
}

// The answer fields and the error field never both carry values, and
// evidence-dependent fields are only set when evidence was retrieved.
func TestStateFieldPresence(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		store := randomStore(rt)
		model := randomModel(rt)
		orch := NewOrchestrator(model, store, WithStepBudget(rapid.IntRange(1, 8).Draw(rt, "budget")))

		state, err := orch.RunTurn(context.Background(), "question", nil)
		if err != nil {
			rt.Fatalf("RunTurn: %v", err)
		}

		if state.Answered && state.Failed() {
			rt.Fatalf("both Answered and Err set: %q / %q", state.Answer, state.Err)
		}
		if !state.Answered && state.Answer != "" {
			rt.Fatalf("Answer %q present without Answered", state.Answer)
		}
		if !state.EvidenceRetrieved && len(state.Evidence) > 0 {
			rt.Fatal("Evidence present without EvidenceRetrieved")
		}
		if state.RetrievalScore < 0 || state.RetrievalScore > 1 {
			rt.Fatalf("RetrievalScore %g outside [0,1]", state.RetrievalScore)
		}
		if state.Confidence < 0 || state.Confidence > 1 {
			rt.Fatalf("Confidence %g outside [0,1]", state.Confidence)
		}
	})
}
