// Package anthropic adapts the official Anthropic SDK to the
// ragline.LanguageModel interface.
package anthropic

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/ragline/ragline"
)

// ErrEmptyAPIKey is returned by New when no API key is supplied.
var ErrEmptyAPIKey = errors.New("anthropic: empty API key")

const (
	defaultModel     = "claude-sonnet-4-5"
	defaultMaxTokens = 1024
)

// Option configures a Model.
type Option func(*Model)

// WithModel overrides the model name.
func WithModel(name string) Option {
	return func(m *Model) {
		m.model = name
	}
}

// WithMaxTokens sets the completion token budget.
func WithMaxTokens(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.maxTokens = n
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(m *Model) {
		m.temperature = &t
	}
}

// Model is a ragline.LanguageModel backed by the Anthropic Messages API.
type Model struct {
	client      anthropic.Client
	model       string
	maxTokens   int
	temperature *float64
}

// New creates a Model authenticated with apiKey.
func New(apiKey string, opts ...Option) (*Model, error) {
	if apiKey == "" {
		return nil, ErrEmptyAPIKey
	}
	m := &Model{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     defaultModel,
		maxTokens: defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *Model) params(prompt string) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(m.model),
		MaxTokens: int64(m.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if m.temperature != nil {
		params.Temperature = anthropic.Float(*m.temperature)
	}
	return params
}

// Generate sends prompt and blocks for the full completion text.
func (m *Model) Generate(ctx context.Context, prompt string) (string, error) {
	msg, err := m.client.Messages.New(ctx, m.params(prompt))
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, block := range msg.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(text.Text)
		}
	}
	return sb.String(), nil
}

// StreamGenerate sends prompt and returns a stream of text deltas in
// arrival order. A transport fault surfaces from the stream after all
// chunks received before the fault.
func (m *Model) StreamGenerate(ctx context.Context, prompt string) (ragline.Streamer[string], error) {
	events := m.client.Messages.NewStreaming(ctx, m.params(prompt))

	pipe := ragline.NewStreamPipe[string]()
	pipe.Go(func() error {
		defer events.Close()
		for events.Next() {
			event := events.Current()
			if delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
				if text, ok := delta.Delta.AsAny().(anthropic.TextDelta); ok && text.Text != "" {
					pipe.Send(text.Text)
				}
			}
		}
		return events.Err()
	})
	return pipe, nil
}
