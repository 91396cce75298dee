package agent

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ragline/ragline"
)

// DefaultRewriteTemplateText asks the model to make the question
// self-contained (pronoun resolution, missing-entity expansion) so a second
// retrieval has better terms to work with.
const DefaultRewriteTemplateText = `Rewrite the user's question as a self-contained search query. Resolve pronouns and references using the conversation history. Output only the rewritten query, nothing else.

## Conversation history
{{.History}}

## Question
{{.Question}}

## Rewritten query
`

// RewriteStep rewrites the retrieval query with the language model when the
// first retrieval came back weak, then clears the evidence so the next
// decision retrieves again. It runs at most once per turn.
//
// A rewrite fault never fails the turn: the step falls back to the original
// question and the loop continues.
type RewriteStep struct {
	model    ragline.LanguageModel
	template *ragline.PromptTemplate
	logger   *zap.Logger
}

// NewRewriteStep creates a rewrite step. A nil template falls back to the
// built-in default.
func NewRewriteStep(model ragline.LanguageModel, template *ragline.PromptTemplate, logger *zap.Logger) *RewriteStep {
	if template == nil {
		template = ragline.MustPromptTemplate("rewrite", DefaultRewriteTemplateText)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RewriteStep{model: model, template: template, logger: logger}
}

// Execute rewrites the query and resets the retrieval fields in place.
func (r *RewriteStep) Execute(ctx context.Context, state *ConversationState, memory *ConversationMemory) {
	state.StepCount++
	state.QueryRewritten = true

	state.RetrievalQuery = r.rewrite(ctx, state, memory)

	// Drop the weak evidence so the router retrieves with the new query.
	state.Evidence = nil
	state.EvidenceRetrieved = false
	state.RetrievalScore = 0
	state.NeedsMoreEvidence = false
}

func (r *RewriteStep) rewrite(ctx context.Context, state *ConversationState, memory *ConversationMemory) string {
	if r.model == nil {
		return state.Question
	}

	history := FirstTurnPlaceholder
	if memory != nil {
		history = FormatHistory(memory.Turns())
	}
	prompt, err := r.template.Render(map[string]any{
		"History":  history,
		"Question": state.Question,
	})
	if err != nil {
		r.logger.Warn("rewrite template failed", zap.Error(err))
		return state.Question
	}

	rewritten, err := r.model.Generate(ctx, prompt)
	if err != nil {
		r.logger.Warn("query rewrite failed, using original question", zap.Error(err))
		return state.Question
	}
	rewritten = firstLine(rewritten)
	if rewritten == "" {
		return state.Question
	}
	r.logger.Debug("rewrote query",
		zap.String("question", state.Question),
		zap.String("rewritten", rewritten),
	)
	return rewritten
}

// firstLine trims the completion to its first non-empty line; models
// sometimes wrap the query in commentary despite the instructions.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}
