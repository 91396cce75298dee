package retrieval

import (
	"context"
	"sort"

	"github.com/ragline/ragline/rag"
)

// ScoreFunc rates the relevance of a single document to a query.
type ScoreFunc func(ctx context.Context, query string, doc rag.Document) (float64, error)

// FuncReranker rescores each (query, document) pair with a caller-supplied
// function and reorders best first. With a nil function it only truncates.
type FuncReranker struct {
	scorer ScoreFunc
	topK   int
}

// NewFuncReranker creates a reranker around scorer, keeping at most topK
// documents (10 when topK <= 0).
func NewFuncReranker(scorer ScoreFunc, topK int) *FuncReranker {
	if topK <= 0 {
		topK = 10
	}
	return &FuncReranker{scorer: scorer, topK: topK}
}

// Rerank rescores and reorders docs.
func (r *FuncReranker) Rerank(ctx context.Context, query string, docs []rag.Document) ([]rag.Document, error) {
	if len(docs) == 0 {
		return docs, nil
	}
	if r.scorer == nil {
		if r.topK < len(docs) {
			return docs[:r.topK], nil
		}
		return docs, nil
	}

	reranked := make([]rag.Document, len(docs))
	for i, doc := range docs {
		score, err := r.scorer(ctx, query, doc)
		if err != nil {
			return nil, err
		}
		doc.Score = score
		doc.Scored = true
		reranked[i] = doc
	}

	sort.Slice(reranked, func(i, j int) bool {
		return reranked[i].Score > reranked[j].Score
	})

	if r.topK < len(reranked) {
		return reranked[:r.topK], nil
	}
	return reranked, nil
}

// ReciprocalRankFusion merges several ranked result lists with the RRF
// formula score = sum(1 / (k + rank)).
type ReciprocalRankFusion struct {
	k int // smoothing constant, conventionally 60
}

// NewReciprocalRankFusion creates a fuser with the conventional smoothing.
func NewReciprocalRankFusion() *ReciprocalRankFusion {
	return &ReciprocalRankFusion{k: 60}
}

// Fuse merges the result lists into a single ranking, best first. Ties break
// on document ID for determinism.
func (r *ReciprocalRankFusion) Fuse(resultLists ...[]rag.Document) []rag.Document {
	if len(resultLists) == 0 {
		return nil
	}

	scores := make(map[string]float64)
	docMap := make(map[string]rag.Document)
	for _, results := range resultLists {
		for rank, doc := range results {
			scores[doc.ID] += 1.0 / float64(r.k+rank+1)
			docMap[doc.ID] = doc
		}
	}

	fused := make([]rag.Document, 0, len(scores))
	for id, score := range scores {
		doc := docMap[id]
		doc.Score = score
		doc.Scored = true
		fused = append(fused, doc)
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].Score == fused[j].Score {
			return fused[i].ID < fused[j].ID
		}
		return fused[i].Score > fused[j].Score
	})
	return fused
}
