package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/ragline/ragline/rag"
	"github.com/ragline/ragline/rag/retrieval"
)

// MemoryStore is an in-memory indexer and retriever ranked by BM25. Scores
// are normalized into [0,1] and marked as native relevance scores.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]rag.Document
	bm25 *retrieval.BM25Scorer
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]rag.Document),
		bm25: retrieval.NewBM25Scorer(),
	}
}

// Add stores or updates the provided documents.
func (s *MemoryStore) Add(_ context.Context, docs []rag.Document) error {
	if len(docs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range docs {
		if doc.ID == "" {
			doc.ID = uuid.NewString()
		}
		if doc.Metadata == nil {
			doc.Metadata = make(map[string]any)
		}
		s.docs[doc.ID] = doc
	}
	s.reindex()
	return nil
}

// Delete removes the documents with the given IDs.
func (s *MemoryStore) Delete(_ context.Context, docIDs []string) error {
	if len(docIDs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range docIDs {
		delete(s.docs, id)
	}
	s.reindex()
	return nil
}

// Count returns the number of stored documents.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// reindex rebuilds the BM25 corpus statistics. Callers hold the write lock.
func (s *MemoryStore) reindex() {
	allDocs := make([]rag.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		allDocs = append(allDocs, doc)
	}
	s.bm25.Index(allDocs)
}

// Retrieve returns the top documents ranked by BM25, best first. Documents
// with no query term overlap are omitted, so the result may be empty.
func (s *MemoryStore) Retrieve(_ context.Context, query string, opts ...rag.RetrieveOption) ([]rag.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.docs) == 0 {
		return nil, nil
	}

	options := rag.RetrieveOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	tokens := retrieval.Tokenize(query)
	results := make([]rag.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		if !MatchFilters(doc, options.Filters) {
			continue
		}
		raw := s.bm25.Score(query, doc)
		if len(tokens) > 0 && raw == 0 {
			continue
		}
		scored := doc
		scored.Score = s.bm25.NormalizeScore(raw, len(tokens))
		scored.Scored = true
		results = append(results, scored)
	}
	if len(results) == 0 {
		return nil, nil
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score == results[j].Score {
			return results[i].ID < results[j].ID
		}
		return results[i].Score > results[j].Score
	})

	topK := options.TopK
	if topK <= 0 || topK > len(results) {
		topK = len(results)
	}
	return results[:topK], nil
}
