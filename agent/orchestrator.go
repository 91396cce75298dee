package agent

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/ragline/ragline"
	"github.com/ragline/ragline/rag"
)

const (
	// DefaultStepBudget bounds the number of step executions per turn.
	DefaultStepBudget = 5
	// DefaultTopK is the number of fragments requested per retrieval.
	DefaultTopK = 4
	// DefaultScoreThreshold is the retrieval score below which evidence is
	// considered insufficient.
	DefaultScoreThreshold = 0.6
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithStepBudget sets the per-turn step ceiling.
func WithStepBudget(budget int) Option {
	return func(o *Orchestrator) {
		if budget > 0 {
			o.stepBudget = budget
		}
	}
}

// WithTopK sets the number of fragments requested per retrieval.
func WithTopK(k int) Option {
	return func(o *Orchestrator) {
		if k > 0 {
			o.topK = k
		}
	}
}

// WithScoreThreshold sets the retrieval quality threshold in (0,1].
func WithScoreThreshold(threshold float64) Option {
	return func(o *Orchestrator) {
		if threshold > 0 && threshold <= 1 {
			o.threshold = threshold
		}
	}
}

// WithTemplate overrides the single-turn prompt template.
func WithTemplate(tmpl *ragline.PromptTemplate) Option {
	return func(o *Orchestrator) { o.template = tmpl }
}

// WithConversationalTemplate overrides the prompt template used when a
// conversation memory is supplied.
func WithConversationalTemplate(tmpl *ragline.PromptTemplate) Option {
	return func(o *Orchestrator) { o.convTemplate = tmpl }
}

// WithRewrite enables the LLM-backed query rewrite step. Without it, a weak
// first retrieval goes straight to generation.
func WithRewrite() Option {
	return func(o *Orchestrator) { o.rewriteEnabled = true }
}

// WithReranker reorders each retrieval's results before scoring. A rerank
// fault falls back to the store order.
func WithReranker(reranker rag.Reranker) Option {
	return func(o *Orchestrator) { o.reranker = reranker }
}

// WithLogger sets the logger; the default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// Orchestrator drives one turn to completion: it repeatedly asks Decide for
// the next step, dispatches it, and stops on a terminal decision. Termination
// within the step budget is guaranteed because every step increments
// StepCount exactly once and the budget rule is evaluated first.
//
// Collaborator failures never escape a turn; they surface in the returned
// state's Err field. The only non-nil Go error RunTurn can return is a
// programming-contract violation.
type Orchestrator struct {
	stepBudget     int
	topK           int
	threshold      float64
	template       *ragline.PromptTemplate
	convTemplate   *ragline.PromptTemplate
	rewriteEnabled bool
	reranker       rag.Reranker
	logger         *zap.Logger

	retrieve *RetrievalStep
	generate *GenerationStep
	rewrite  *RewriteStep
}

// NewOrchestrator wires the steps around the given model and document store.
func NewOrchestrator(model ragline.LanguageModel, store rag.Retriever, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		stepBudget: DefaultStepBudget,
		topK:       DefaultTopK,
		threshold:  DefaultScoreThreshold,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.retrieve = NewRetrievalStep(store, o.topK, o.threshold, o.logger)
	o.retrieve.reranker = o.reranker
	o.generate = NewGenerationStep(model, o.template, o.convTemplate, o.logger)
	if o.rewriteEnabled {
		o.rewrite = NewRewriteStep(model, nil, o.logger)
	}
	return o
}

// RunTurn processes one question to a terminal state. memory may be nil for
// a single-turn exchange; when non-nil it is read for history during the
// turn and appended to only after the turn completes with an answer.
func (o *Orchestrator) RunTurn(ctx context.Context, question string, memory *ConversationMemory) (*ConversationState, error) {
	state := NewConversationState(question, o.stepBudget)
	if err := o.loop(ctx, state, memory, nil); err != nil {
		return state, err
	}
	o.commit(state, memory)
	return state, nil
}

// TurnStream is the caller-facing stream of one turn's text increments. The
// terminal ConversationState becomes available from Final once the stream
// has been fully drained.
type TurnStream struct {
	ragline.Streamer[string]

	mu    sync.Mutex
	final *ConversationState
}

func (t *TurnStream) setFinal(state *ConversationState) {
	t.mu.Lock()
	t.final = state
	t.mu.Unlock()
}

// Final returns the terminal state, or nil while the stream is still open.
func (t *TurnStream) Final() *ConversationState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.final
}

// StreamTurn processes one question, streaming generation increments as they
// arrive. Memory is appended only after the model stream has been fully
// drained; a cancelled or failed stream leaves memory untouched.
func (o *Orchestrator) StreamTurn(ctx context.Context, question string, memory *ConversationMemory) *TurnStream {
	pipe := ragline.NewStreamPipe[string]()
	ts := &TurnStream{Streamer: pipe}
	state := NewConversationState(question, o.stepBudget)
	pipe.Go(func() error {
		defer ts.setFinal(state)
		if err := o.loop(ctx, state, memory, pipe.Send); err != nil {
			return err
		}
		// An abandoned stream discards the turn: increments already read
		// stay with the caller, but memory is not updated.
		if !pipe.Closed() {
			o.commit(state, memory)
		}
		return nil
	})
	return ts
}

// loop is the decide/dispatch cycle shared by blocking and streaming turns.
func (o *Orchestrator) loop(ctx context.Context, state *ConversationState, memory *ConversationMemory, emit func(string)) error {
	for {
		decision := Decide(state)
		o.logger.Debug("routing decision",
			zap.Stringer("decision", decision),
			zap.Int("step", state.StepCount),
			zap.Int("budget", state.StepBudget),
		)
		switch decision {
		case DecisionEnd:
			return nil
		case DecisionRetrieve:
			o.retrieve.Execute(ctx, state)
		case DecisionRewrite:
			if o.rewrite != nil {
				o.rewrite.Execute(ctx, state, memory)
				continue
			}
			// No rewriter configured: generate anyway to guarantee forward
			// progress.
			if err := o.dispatchGenerate(ctx, state, memory, emit); err != nil {
				return err
			}
		case DecisionGenerate:
			if err := o.dispatchGenerate(ctx, state, memory, emit); err != nil {
				return err
			}
		}
	}
}

func (o *Orchestrator) dispatchGenerate(ctx context.Context, state *ConversationState, memory *ConversationMemory, emit func(string)) error {
	if emit != nil {
		return o.generate.ExecuteStream(ctx, state, memory, emit)
	}
	return o.generate.Execute(ctx, state, memory)
}

// commit appends the completed turn to memory. Only turns that produced an
// answer without an error are recorded.
func (o *Orchestrator) commit(state *ConversationState, memory *ConversationMemory) {
	if memory == nil || !state.Answered || state.Err != "" {
		return
	}
	memory.Append(state.Question, state.Answer)
}
