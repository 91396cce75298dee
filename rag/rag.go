package rag

import "context"

// Document is one retrieved fragment of evidence.
//
// Score is only meaningful when Scored is true; stores that rank natively
// (BM25, vector similarity) set it, adapters over stores without native
// scoring leave it false. Scores from different store implementations are
// not comparable with each other.
type Document struct {
	ID        string
	Content   string
	Score     float64
	Scored    bool
	Source    string // provenance, e.g. file name or URL
	Metadata  map[string]any
	Embedding []float64
}

// Indexer adds or removes documents in the underlying storage.
type Indexer interface {
	Add(ctx context.Context, docs []Document) error
	Delete(ctx context.Context, docIDs []string) error
}

// RetrieveOptions contains optional parameters for retrieval.
type RetrieveOptions struct {
	TopK    int
	Filters map[string]string
}

// RetrieveOption configures retrieval options.
type RetrieveOption func(*RetrieveOptions)

// WithTopK sets the maximum number of documents to return.
func WithTopK(topK int) RetrieveOption {
	return func(o *RetrieveOptions) {
		o.TopK = topK
	}
}

// WithFilters sets metadata filter conditions.
func WithFilters(filters map[string]string) RetrieveOption {
	return func(o *RetrieveOptions) {
		o.Filters = filters
	}
}

// WithFilter adds a single metadata filter condition.
func WithFilter(key, value string) RetrieveOption {
	return func(o *RetrieveOptions) {
		if o.Filters == nil {
			o.Filters = make(map[string]string)
		}
		o.Filters[key] = value
	}
}

// Retriever returns the documents most relevant to a query, best first. It
// may return fewer than the requested number, including none at all.
type Retriever interface {
	Retrieve(ctx context.Context, query string, opts ...RetrieveOption) ([]Document, error)
}

// Reranker reorders an initial retrieval to improve relevance.
type Reranker interface {
	Rerank(ctx context.Context, query string, docs []Document) ([]Document, error)
}
