// Package echo provides a deterministic offline LanguageModel for
// development and demos. It answers by restating the final line of the
// prompt, so the orchestration path can be exercised without network
// access or credentials.
package echo

import (
	"context"
	"strings"

	"github.com/ragline/ragline"
)

// Model implements ragline.LanguageModel without calling any service.
type Model struct{}

// New creates an echo model.
func New() *Model {
	return &Model{}
}

// Generate returns a canned answer restating the user question, found under
// the "## Question" header the default templates carry. Prompts without
// that header fall back to their last non-empty line.
func (m *Model) Generate(_ context.Context, prompt string) (string, error) {
	return "echo: " + questionLine(prompt), nil
}

// StreamGenerate yields the Generate result word by word.
func (m *Model) StreamGenerate(ctx context.Context, prompt string) (ragline.Streamer[string], error) {
	answer, err := m.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	pipe := ragline.NewStreamPipe[string]()
	pipe.Go(func() error {
		words := strings.Fields(answer)
		for i, w := range words {
			if i > 0 {
				w = " " + w
			}
			pipe.Send(w)
		}
		return nil
	})
	return pipe, nil
}

func questionLine(prompt string) string {
	lines := strings.Split(prompt, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != "## Question" {
			continue
		}
		for _, next := range lines[i+1:] {
			if s := strings.TrimSpace(next); s != "" {
				return s
			}
		}
	}
	for i := len(lines) - 1; i >= 0; i-- {
		if s := strings.TrimSpace(lines[i]); s != "" {
			return s
		}
	}
	return prompt
}
