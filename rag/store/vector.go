package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/ragline/ragline"
	"github.com/ragline/ragline/rag"
)

// embedBatchSize bounds the texts sent to the embedder in one call.
const embedBatchSize = 16

// VectorStore ranks documents by cosine similarity between embedding
// vectors. Documents added without an Embedding are embedded with the
// configured EmbeddingModel; batches run concurrently.
type VectorStore struct {
	mu       sync.RWMutex
	docs     map[string]rag.Document
	embedder ragline.EmbeddingModel
}

// NewVectorStore creates a vector store over the given embedder.
func NewVectorStore(embedder ragline.EmbeddingModel) *VectorStore {
	return &VectorStore{
		docs:     make(map[string]rag.Document),
		embedder: embedder,
	}
}

// Add stores the documents, embedding any that lack a precomputed vector.
func (s *VectorStore) Add(ctx context.Context, docs []rag.Document) error {
	if len(docs) == 0 {
		return nil
	}

	missing := make([]int, 0, len(docs))
	for i, doc := range docs {
		if len(doc.Embedding) == 0 {
			missing = append(missing, i)
		}
	}
	if len(missing) > 0 {
		if s.embedder == nil {
			return fmt.Errorf("vector store: %d documents lack embeddings and no embedder is configured", len(missing))
		}
		if err := s.embedMissing(ctx, docs, missing); err != nil {
			return err
		}
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
	return nil
}

// embedMissing fills docs[i].Embedding for every i in missing.
func (s *VectorStore) embedMissing(ctx context.Context, docs []rag.Document, missing []int) error {
	eg, ctx := errgroup.WithContext(ctx)
	for start := 0; start < len(missing); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(missing) {
			end = len(missing)
		}
		batch := missing[start:end]
		eg.Go(func() error {
			texts := make([]string, len(batch))
			for i, idx := range batch {
				texts[i] = docs[idx].Content
			}
			vectors, err := s.embedder.EmbedDocuments(ctx, texts)
			if err != nil {
				return fmt.Errorf("embed documents: %w", err)
			}
			if len(vectors) != len(batch) {
				return fmt.Errorf("embed documents: got %d vectors for %d texts", len(vectors), len(batch))
			}
			for i, idx := range batch {
				docs[idx].Embedding = vectors[i]
			}
			return nil
		})
	}
	return eg.Wait()
}

// Count returns the number of stored documents.
func (s *VectorStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Delete removes the documents with the given IDs.
func (s *VectorStore) Delete(_ context.Context, docIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range docIDs {
		delete(s.docs, id)
	}
	return nil
}

// Retrieve embeds the query and returns the most similar documents, best
// first. Scores are cosine similarity mapped into [0,1].
func (s *VectorStore) Retrieve(ctx context.Context, query string, opts ...rag.RetrieveOption) ([]rag.Document, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("vector store: no embedder configured")
	}
	queryVec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.docs) == 0 {
		return nil, nil
	}

	options := rag.RetrieveOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	results := make([]rag.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		if !MatchFilters(doc, options.Filters) {
			continue
		}
		if len(doc.Embedding) != len(queryVec) {
			continue
		}
		scored := doc
		scored.Score = (cosineSimilarity(queryVec, doc.Embedding) + 1) / 2
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

// cosineSimilarity returns the cosine of the angle between a and b, or 0 when
// either has zero magnitude.
func cosineSimilarity(a, b []float64) float64 {
	dot := floats.Dot(a, b)
	normA := math.Sqrt(floats.Dot(a, a))
	normB := math.Sqrt(floats.Dot(b, b))
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (normA * normB)
}
