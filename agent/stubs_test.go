package agent

import (
	"context"

	"github.com/ragline/ragline"
	"github.com/ragline/ragline/rag"
)

// fakeRetriever returns fixed documents or a fixed error and counts calls.
type fakeRetriever struct {
	docs    []rag.Document
	err     error
	calls   int
	queries []string
}

func (f *fakeRetriever) Retrieve(_ context.Context, query string, _ ...rag.RetrieveOption) ([]rag.Document, error) {
	f.calls++
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.docs, nil
}

// fakeModel returns a fixed completion and counts calls. When chunks is set,
// StreamGenerate yields them in order; streamErr surfaces after the chunks.
type fakeModel struct {
	reply     string
	err       error
	chunks    []string
	streamErr error

	generateCalls int
	streamCalls   int
	prompts       []string
}

func (f *fakeModel) Generate(_ context.Context, prompt string) (string, error) {
	f.generateCalls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeModel) StreamGenerate(_ context.Context, prompt string) (ragline.Streamer[string], error) {
	f.streamCalls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return nil, f.err
	}
	chunks := f.chunks
	if chunks == nil && f.reply != "" {
		chunks = []string{f.reply}
	}
	pipe := ragline.NewStreamPipe[string]()
	pipe.Go(func() error {
		for _, c := range chunks {
			pipe.Send(c)
		}
		return f.streamErr
	})
	return pipe, nil
}

func scoredDocs(scores ...float64) []rag.Document {
	docs := make([]rag.Document, 0, len(scores))
	for i, s := range scores {
		docs = append(docs, rag.Document{
			ID:      string(rune('a' + i)),
			Content: "fragment",
			Score:   s,
			Scored:  true,
		})
	}
	return docs
}

func unscoredDocs(n int) []rag.Document {
	docs := make([]rag.Document, 0, n)
	for i := 0; i < n; i++ {
		docs = append(docs, rag.Document{
			ID:      string(rune('a' + i)),
			Content: "fragment",
		})
	}
	return docs
}
