// Package kb manages a document collection: it chunks raw documents,
// indexes the chunks into a retriever-backed store, and exposes search
// and lifecycle operations over them.
package kb

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ragline/ragline/rag"
	"github.com/ragline/ragline/rag/chunking"
)

// ErrEmptyDocument is returned when a document has no content to index.
var ErrEmptyDocument = errors.New("kb: empty document")

// Store is the indexing and retrieval surface the knowledge base sits on.
type Store interface {
	rag.Indexer
	rag.Retriever
	Count() int
}

// Chunker splits raw text into indexable pieces.
type Chunker interface {
	Split(content string) []string
}

// Option configures a KnowledgeBase.
type Option func(*KnowledgeBase)

// WithChunker replaces the default fixed-size chunker.
func WithChunker(c Chunker) Option {
	return func(k *KnowledgeBase) {
		if c != nil {
			k.chunker = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(k *KnowledgeBase) {
		if logger != nil {
			k.logger = logger
		}
	}
}

// KnowledgeBase chunks and indexes documents into a Store. Safe for
// concurrent use, like the stores it wraps.
type KnowledgeBase struct {
	store   Store
	chunker Chunker
	logger  *zap.Logger

	mu sync.Mutex
	// chunk IDs per source document, for Remove
	sources map[string][]string
}

// New creates a KnowledgeBase over store.
func New(store Store, opts ...Option) *KnowledgeBase {
	k := &KnowledgeBase{
		store:   store,
		chunker: chunking.NewFixedSizeChunker(500, 50),
		logger:  zap.NewNop(),
		sources: make(map[string][]string),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// AddDocument chunks content and indexes every chunk. It returns the
// source ID under which the chunks are grouped; pass it to Remove to
// drop them again. An empty source gets a generated ID.
func (k *KnowledgeBase) AddDocument(ctx context.Context, source, content string, metadata map[string]any) (string, error) {
	chunks := k.chunker.Split(content)
	if len(chunks) == 0 {
		return "", ErrEmptyDocument
	}
	if source == "" {
		source = uuid.NewString()
	}

	docs := make([]rag.Document, 0, len(chunks))
	ids := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		id := fmt.Sprintf("%s#%d", source, i)
		meta := make(map[string]any, len(metadata))
		for key, val := range metadata {
			meta[key] = val
		}
		docs = append(docs, rag.Document{
			ID:       id,
			Content:  chunk,
			Source:   source,
			Metadata: meta,
		})
		ids = append(ids, id)
	}
	if err := k.store.Add(ctx, docs); err != nil {
		return "", fmt.Errorf("index %s: %w", source, err)
	}
	k.mu.Lock()
	k.sources[source] = ids
	k.mu.Unlock()
	k.logger.Info("document indexed",
		zap.String("source", source),
		zap.Int("chunks", len(chunks)))
	return source, nil
}

// Search retrieves the chunks most relevant to query.
func (k *KnowledgeBase) Search(ctx context.Context, query string, opts ...rag.RetrieveOption) ([]rag.Document, error) {
	return k.store.Retrieve(ctx, query, opts...)
}

// Remove drops every chunk indexed under source. Removing an unknown
// source is a no-op.
func (k *KnowledgeBase) Remove(ctx context.Context, source string) error {
	k.mu.Lock()
	ids, ok := k.sources[source]
	k.mu.Unlock()
	if !ok {
		return nil
	}
	if err := k.store.Delete(ctx, ids); err != nil {
		return fmt.Errorf("remove %s: %w", source, err)
	}
	k.mu.Lock()
	delete(k.sources, source)
	k.mu.Unlock()
	return nil
}

// Count reports the number of indexed chunks.
func (k *KnowledgeBase) Count() int {
	return k.store.Count()
}

// Sources lists the known source IDs.
func (k *KnowledgeBase) Sources() []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]string, 0, len(k.sources))
	for s := range k.sources {
		out = append(out, s)
	}
	return out
}
