package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ragline/ragline"
	"github.com/ragline/ragline/rag"
)

// NoEvidenceAnswer is the fixed answer produced when retrieval returned
// nothing. Generation short-circuits without calling the model so the answer
// cannot be hallucinated from an empty context.
const NoEvidenceAnswer = "no relevant information found"

// FirstTurnPlaceholder fills the history slot when a conversation has no
// prior turns.
const FirstTurnPlaceholder = "(no prior conversation)"

// ErrGenerateBeforeRetrieve reports a contract violation: the generation step
// was dispatched before any retrieval ran. This indicates a defect in the
// orchestrator, not a runtime condition, so it surfaces as a Go error instead
// of a state error.
var ErrGenerateBeforeRetrieve = errors.New("agent: generation dispatched before retrieval")

// GenerationStep assembles a prompt from the retrieved evidence (and prior
// turns, when a memory is supplied) and invokes the language model.
type GenerationStep struct {
	model        ragline.LanguageModel
	template     *ragline.PromptTemplate
	convTemplate *ragline.PromptTemplate
	logger       *zap.Logger
}

// NewGenerationStep creates a generation step. Nil templates fall back to the
// built-in defaults.
func NewGenerationStep(model ragline.LanguageModel, template, convTemplate *ragline.PromptTemplate, logger *zap.Logger) *GenerationStep {
	if template == nil {
		template = ragline.MustPromptTemplate("qa", ragline.DefaultTemplateText)
	}
	if convTemplate == nil {
		convTemplate = ragline.MustPromptTemplate("qa-conversational", ragline.DefaultConversationalTemplateText)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerationStep{model: model, template: template, convTemplate: convTemplate, logger: logger}
}

// Execute runs one blocking generation. Model faults are recorded in
// state.Err; only a contract violation returns a non-nil error. memory, when
// non-nil, is read for history and never mutated here.
func (g *GenerationStep) Execute(ctx context.Context, state *ConversationState, memory *ConversationMemory) error {
	return g.run(ctx, state, memory, nil)
}

// ExecuteStream runs one streaming generation, forwarding each text increment
// to emit as it arrives. The model stream is always fully drained before the
// answer is recorded; a mid-stream fault discards the partial answer.
func (g *GenerationStep) ExecuteStream(ctx context.Context, state *ConversationState, memory *ConversationMemory, emit func(string)) error {
	return g.run(ctx, state, memory, emit)
}

func (g *GenerationStep) run(ctx context.Context, state *ConversationState, memory *ConversationMemory, emit func(string)) error {
	if !state.EvidenceRetrieved {
		return ErrGenerateBeforeRetrieve
	}
	state.StepCount++

	if len(state.Evidence) == 0 {
		state.Answer = NoEvidenceAnswer
		state.Answered = true
		state.Confidence = 0
		if emit != nil {
			emit(NoEvidenceAnswer)
		}
		return nil
	}

	prompt, err := g.buildPrompt(state, memory)
	if err != nil {
		// Template rendering is configuration, not a collaborator fault,
		// but it still must not escape the loop.
		state.Err = fmt.Sprintf("generation failed: %v", err)
		return nil
	}

	var answer string
	if emit == nil {
		answer, err = g.model.Generate(ctx, prompt)
		if err != nil {
			state.Err = ragline.NewGenerationError(err).Error()
			g.logger.Warn("generation failed", zap.Error(err))
			return nil
		}
	} else {
		stream, serr := g.model.StreamGenerate(ctx, prompt)
		if serr != nil {
			state.Err = ragline.NewGenerationError(serr).Error()
			g.logger.Warn("generation failed", zap.Error(serr))
			return nil
		}
		answer, serr = drain(stream, emit)
		if serr != nil {
			// Increments already emitted stay with the caller, but the
			// partial answer is discarded so memory is never updated with it.
			state.Err = ragline.NewGenerationError(serr).Error()
			g.logger.Warn("generation stream failed", zap.Error(serr))
			return nil
		}
	}

	if strings.TrimSpace(answer) == "" {
		state.Err = ragline.NewGenerationError(errors.New("empty completion")).Error()
		return nil
	}

	state.Answer = answer
	state.Answered = true
	state.Confidence = confidence(state.RetrievalScore, answer)
	g.logger.Debug("generated answer",
		zap.Int("answer_len", len(answer)),
		zap.Float64("confidence", state.Confidence),
	)
	return nil
}

func (g *GenerationStep) buildPrompt(state *ConversationState, memory *ConversationMemory) (string, error) {
	contextText := rag.BuildContext(state.Evidence)
	if memory == nil {
		return g.template.Render(map[string]any{
			"Context":  contextText,
			"Question": state.Question,
		})
	}
	return g.convTemplate.Render(map[string]any{
		"History":  FormatHistory(memory.Turns()),
		"Context":  contextText,
		"Question": state.Question,
	})
}

// drain consumes the whole stream, forwarding each increment to emit and
// returning the concatenation. Partial consumption is never treated as
// completion: the loop only ends when the stream is exhausted or fails.
func drain(stream ragline.Streamer[string], emit func(string)) (string, error) {
	defer stream.Close()
	var b strings.Builder
	for stream.Next() {
		chunk, err := stream.Current()
		if err != nil {
			return "", err
		}
		b.WriteString(chunk)
		if emit != nil {
			emit(chunk)
		}
	}
	return b.String(), nil
}

// FormatHistory renders prior turns as alternating "user:"/"assistant:"
// lines, oldest first, or the fixed placeholder when there are none.
func FormatHistory(turns []Turn) string {
	if len(turns) == 0 {
		return FirstTurnPlaceholder
	}
	lines := make([]string, 0, len(turns)*2)
	for _, turn := range turns {
		lines = append(lines, "user: "+turn.Question, "assistant: "+turn.Answer)
	}
	return strings.Join(lines, "\n")
}

// confidence combines evidence quality with answer substantiveness:
// retrieval*0.6 + min(len/100, 1)*0.4. Deliberately simple and explainable;
// not a calibrated probability.
func confidence(retrievalScore float64, answer string) float64 {
	lengthScore := float64(utf8.RuneCountInString(answer)) / 100
	if lengthScore > 1 {
		lengthScore = 1
	}
	return retrievalScore*0.6 + lengthScore*0.4
}
