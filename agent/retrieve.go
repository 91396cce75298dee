package agent

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ragline/ragline"
	"github.com/ragline/ragline/rag"
)

// RetrievalStep queries the document store, derives a retrieval quality
// score, and flags whether more evidence is needed.
type RetrievalStep struct {
	store     rag.Retriever
	reranker  rag.Reranker
	k         int
	threshold float64
	logger    *zap.Logger
}

// NewRetrievalStep creates a retrieval step over store. k <= 0 falls back to
// DefaultTopK, a threshold outside (0,1] to DefaultScoreThreshold.
func NewRetrievalStep(store rag.Retriever, k int, threshold float64, logger *zap.Logger) *RetrievalStep {
	if k <= 0 {
		k = DefaultTopK
	}
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultScoreThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetrievalStep{store: store, k: k, threshold: threshold, logger: logger}
}

// Execute runs one retrieval against the store and mutates state in place.
// Store faults are recorded in state.Err, never propagated; an empty result
// is a valid outcome, not a failure.
func (r *RetrievalStep) Execute(ctx context.Context, state *ConversationState) {
	state.StepCount++

	query := strings.TrimSpace(state.Query())
	if query == "" {
		state.Err = "retrieval failed: empty query"
		return
	}

	docs, err := r.store.Retrieve(ctx, query, rag.WithTopK(r.k))
	if err != nil {
		state.Err = ragline.NewRetrievalError(err).Error()
		r.logger.Warn("retrieval failed", zap.String("query", query), zap.Error(err))
		return
	}

	if r.reranker != nil && len(docs) > 0 {
		reranked, rerr := r.reranker.Rerank(ctx, query, docs)
		if rerr != nil {
			// Reranking is an enhancement; keep the store order on a fault.
			r.logger.Warn("rerank failed, keeping store order", zap.Error(rerr))
		} else {
			docs = reranked
		}
	}

	// Replace the previous evidence wholesale so "most recent retrieval"
	// stays unambiguous.
	state.Evidence = docs
	state.EvidenceRetrieved = true
	state.RetrievalScore = retrievalScore(docs, r.k)
	state.NeedsMoreEvidence = state.RetrievalScore < r.threshold

	r.logger.Debug("retrieved evidence",
		zap.String("query", query),
		zap.Int("fragments", len(docs)),
		zap.Float64("score", state.RetrievalScore),
		zap.Bool("needs_more", state.NeedsMoreEvidence),
	)
}

// retrievalScore aggregates fragment quality into [0,1]. When every fragment
// carries a native relevance score the mean is used (clamped, since some
// stores rank on unbounded scales); otherwise the fragment count relative to
// k serves as a volume proxy. The two heuristics are not comparable across
// store implementations.
func retrievalScore(docs []rag.Document, k int) float64 {
	if len(docs) == 0 {
		return 0
	}
	allScored := true
	for _, doc := range docs {
		if !doc.Scored {
			allScored = false
			break
		}
	}
	if allScored {
		var sum float64
		for _, doc := range docs {
			sum += doc.Score
		}
		mean := sum / float64(len(docs))
		if mean < 0 {
			return 0
		}
		if mean > 1 {
			return 1
		}
		return mean
	}
	proxy := float64(len(docs)) / float64(k)
	if proxy > 1 {
		return 1
	}
	return proxy
}
