package ragline

import "context"

// LanguageModel produces text from a prompt. Implementations wrap a concrete
// provider SDK (see provider/anthropic) or a local model; the orchestration
// core treats them as stateless request/response collaborators.
type LanguageModel interface {
	// Generate returns the complete answer for the prompt in one call.
	Generate(ctx context.Context, prompt string) (string, error)
	// StreamGenerate returns a finite, non-restartable sequence of text
	// increments. Concatenating every increment yields the same text that
	// Generate would have returned for the prompt.
	StreamGenerate(ctx context.Context, prompt string) (Streamer[string], error)
}

// EmbeddingModel converts text into fixed-width numeric vectors.
type EmbeddingModel interface {
	EmbedQuery(ctx context.Context, text string) ([]float64, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error)
}
