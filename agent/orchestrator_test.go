package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ragline/ragline"
	"github.com/ragline/ragline/rag"
	"github.com/ragline/ragline/rag/retrieval"
)

func TestRunTurnHappyPath(t *testing.T) {
	store := &fakeRetriever{docs: scoredDocs(0.9, 0.8)}
	model := &fakeModel{reply: "the indexing latency is 40ms at p99"}
	orch := NewOrchestrator(model, store)

	state, err := orch.RunTurn(context.Background(), "what is the latency", nil)
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if !state.Answered {
		t.Fatal("Answered = false")
	}
	if state.Answer != model.reply {
		t.Fatalf("Answer = %q", state.Answer)
	}
	if state.StepCount != 2 {
		t.Fatalf("StepCount = %d, want 2 (retrieve + generate)", state.StepCount)
	}
	if store.calls != 1 || model.generateCalls != 1 {
		t.Fatalf("store calls = %d, model calls = %d", store.calls, model.generateCalls)
	}
}

func TestRunTurnNoEvidence(t *testing.T) {
	store := &fakeRetriever{}
	model := &fakeModel{reply: "must not be used"}
	orch := NewOrchestrator(model, store)

	state, err := orch.RunTurn(context.Background(), "unknown topic", nil)
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if state.Answer != NoEvidenceAnswer {
		t.Fatalf("Answer = %q, want %q", state.Answer, NoEvidenceAnswer)
	}
	if model.generateCalls+model.streamCalls != 0 {
		t.Fatal("model called despite empty evidence")
	}
}

func TestRunTurnRetrievalFault(t *testing.T) {
	store := &fakeRetriever{err: errors.New("store down")}
	model := &fakeModel{reply: "unused"}
	orch := NewOrchestrator(model, store)

	state, err := orch.RunTurn(context.Background(), "question", nil)
	if err != nil {
		t.Fatalf("collaborator fault must be contained, got %v", err)
	}
	if state.Err != "retrieval failed: store down" {
		t.Fatalf("Err = %q", state.Err)
	}
	if state.Answered {
		t.Fatal("Answered = true after retrieval fault")
	}
	if model.generateCalls != 0 {
		t.Fatal("generation ran after a retrieval fault")
	}
}

func TestRunTurnWeakEvidenceWithoutRewriterGenerates(t *testing.T) {
	store := &fakeRetriever{docs: scoredDocs(0.1)}
	model := &fakeModel{reply: "a best-effort answer"}
	orch := NewOrchestrator(model, store)

	state, err := orch.RunTurn(context.Background(), "question", nil)
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if !state.Answered {
		t.Fatal("weak evidence without a rewriter must still answer")
	}
	if state.QueryRewritten {
		t.Fatal("QueryRewritten = true without a rewriter")
	}
}

func TestRunTurnRewritePath(t *testing.T) {
	store := &fakeRetriever{docs: scoredDocs(0.1)}
	model := &fakeModel{reply: "a rewritten-query answer"}
	orch := NewOrchestrator(model, store, WithRewrite())

	state, err := orch.RunTurn(context.Background(), "what about it", nil)
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if !state.QueryRewritten {
		t.Fatal("QueryRewritten = false")
	}
	if store.calls != 2 {
		t.Fatalf("store calls = %d, want 2 (before and after rewrite)", store.calls)
	}
	if !state.Answered {
		t.Fatal("Answered = false")
	}
	// retrieve + rewrite + retrieve + generate
	if state.StepCount != 4 {
		t.Fatalf("StepCount = %d, want 4", state.StepCount)
	}
}

func TestRunTurnBudgetExhaustion(t *testing.T) {
	store := &fakeRetriever{docs: scoredDocs(0.9)}
	model := &fakeModel{reply: "unreachable"}
	orch := NewOrchestrator(model, store, WithStepBudget(1))

	state, err := orch.RunTurn(context.Background(), "question", nil)
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if !state.BudgetExhausted() {
		t.Fatalf("BudgetExhausted = false, state: answered=%v err=%q steps=%d",
			state.Answered, state.Err, state.StepCount)
	}
	if state.StepCount != 1 {
		t.Fatalf("StepCount = %d, want 1", state.StepCount)
	}
}

func TestRunTurnAppendsMemory(t *testing.T) {
	store := &fakeRetriever{docs: scoredDocs(0.9)}
	model := &fakeModel{reply: "the answer"}
	orch := NewOrchestrator(model, store)
	memory := NewConversationMemory(10)

	if _, err := orch.RunTurn(context.Background(), "q1", memory); err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if memory.Len() != 1 {
		t.Fatalf("memory Len = %d, want 1", memory.Len())
	}
	turn := memory.Turns()[0]
	if turn.Question != "q1" || turn.Answer != "the answer" {
		t.Fatalf("turn = %+v", turn)
	}
}

func TestRunTurnFailedTurnSkipsMemory(t *testing.T) {
	store := &fakeRetriever{err: errors.New("store down")}
	orch := NewOrchestrator(&fakeModel{}, store)
	memory := NewConversationMemory(10)

	if _, err := orch.RunTurn(context.Background(), "q1", memory); err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if memory.Len() != 0 {
		t.Fatalf("failed turn recorded in memory, Len = %d", memory.Len())
	}
}

func TestStreamTurn(t *testing.T) {
	store := &fakeRetriever{docs: scoredDocs(0.9)}
	model := &fakeModel{chunks: []string{"the ", "answer"}}
	orch := NewOrchestrator(model, store)
	memory := NewConversationMemory(10)

	stream := orch.StreamTurn(context.Background(), "question", memory)
	collected, err := ragline.Collect(stream)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if collected != "the answer" {
		t.Fatalf("collected = %q", collected)
	}

	final := stream.Final()
	if final == nil {
		t.Fatal("Final() = nil after drain")
	}
	if final.Answer != "the answer" {
		t.Fatalf("final.Answer = %q", final.Answer)
	}
	if memory.Len() != 1 {
		t.Fatalf("memory Len = %d, want 1", memory.Len())
	}
}

func TestStreamTurnMidStreamFault(t *testing.T) {
	store := &fakeRetriever{docs: scoredDocs(0.9)}
	model := &fakeModel{
		chunks:    []string{"partial "},
		streamErr: errors.New("connection reset"),
	}
	orch := NewOrchestrator(model, store)
	memory := NewConversationMemory(10)

	stream := orch.StreamTurn(context.Background(), "question", memory)
	collected, err := ragline.Collect(stream)
	if err != nil {
		t.Fatalf("the step contains the fault, Collect must not see it: %v", err)
	}
	if collected != "partial " {
		t.Fatalf("collected = %q", collected)
	}

	final := stream.Final()
	if final == nil {
		t.Fatal("Final() = nil after drain")
	}
	if final.Answered {
		t.Fatal("partial answer committed")
	}
	if !strings.HasPrefix(final.Err, "generation failed:") {
		t.Fatalf("final.Err = %q", final.Err)
	}
	if memory.Len() != 0 {
		t.Fatal("failed stream recorded in memory")
	}
}

func TestStreamTurnAbandonedMidAnswer(t *testing.T) {
	store := &fakeRetriever{docs: scoredDocs(0.9)}
	chunks := make([]string, 40)
	for i := range chunks {
		chunks[i] = "chunk "
	}
	model := &fakeModel{chunks: chunks}
	orch := NewOrchestrator(model, store)
	memory := NewConversationMemory(10)

	stream := orch.StreamTurn(context.Background(), "question", memory)
	if !stream.Next() {
		t.Fatal("Next = false before any increment")
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for stream.Final() == nil {
		if time.Now().After(deadline) {
			t.Fatal("turn did not finish after the stream was abandoned")
		}
		time.Sleep(time.Millisecond)
	}
	if memory.Len() != 0 {
		t.Fatalf("abandoned turn recorded in memory, Len = %d", memory.Len())
	}
}

func TestOrchestratorOptionDefaults(t *testing.T) {
	orch := NewOrchestrator(&fakeModel{}, &fakeRetriever{},
		WithStepBudget(-1),
		WithTopK(0),
		WithScoreThreshold(2),
	)
	if orch.stepBudget != DefaultStepBudget {
		t.Fatalf("stepBudget = %d, want %d", orch.stepBudget, DefaultStepBudget)
	}
	if orch.retrieve.k != DefaultTopK {
		t.Fatalf("k = %d, want %d", orch.retrieve.k, DefaultTopK)
	}
	if orch.retrieve.threshold != DefaultScoreThreshold {
		t.Fatalf("threshold = %g, want %g", orch.retrieve.threshold, DefaultScoreThreshold)
	}
}

// fragmentStore returns evidence whose content echoes the query, so a test
// can assert which query produced the final evidence.
type fragmentStore struct{}

func (fragmentStore) Retrieve(_ context.Context, query string, _ ...rag.RetrieveOption) ([]rag.Document, error) {
	return []rag.Document{{ID: "1", Content: "about " + query, Score: 0.9, Scored: true}}, nil
}

func TestRunTurnWithReranker(t *testing.T) {
	store := &fakeRetriever{docs: []rag.Document{
		{ID: "low", Content: "short", Score: 0.9, Scored: true},
		{ID: "high", Content: "a much longer and richer fragment", Score: 0.8, Scored: true},
	}}
	model := &fakeModel{reply: "the answer"}
	byLength := retrieval.NewFuncReranker(func(_ context.Context, _ string, doc rag.Document) (float64, error) {
		return float64(len(doc.Content)), nil
	}, 1)
	orch := NewOrchestrator(model, store, WithReranker(byLength))

	state, err := orch.RunTurn(context.Background(), "question", nil)
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if len(state.Evidence) != 1 || state.Evidence[0].ID != "high" {
		t.Fatalf("Evidence = %+v, want only the reranked winner", state.Evidence)
	}
}

func TestRunTurnEvidenceFollowsQuery(t *testing.T) {
	model := &fakeModel{reply: "the answer"}
	orch := NewOrchestrator(model, fragmentStore{})

	state, err := orch.RunTurn(context.Background(), "vector stores", nil)
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if len(state.Evidence) != 1 || state.Evidence[0].Content != "about vector stores" {
		t.Fatalf("Evidence = %+v", state.Evidence)
	}
}
