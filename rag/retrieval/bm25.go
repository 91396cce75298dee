package retrieval

import (
	"math"

	"github.com/ragline/ragline/rag"
)

// BM25Scorer computes the BM25 relevance of a document to a query over a
// previously indexed corpus.
type BM25Scorer struct {
	k1 float64 // term-frequency saturation, typically 1.2-2.0
	b  float64 // length normalization, typically 0.75

	avgDocLen float64
	docCount  int
	docFreq   map[string]int     // documents containing each term
	docLens   map[string]int     // token count per document
	idf       map[string]float64 // cached IDF per term
}

// NewBM25Scorer creates a scorer with the usual parameter defaults.
func NewBM25Scorer() *BM25Scorer {
	return &BM25Scorer{
		k1:      1.5,
		b:       0.75,
		docFreq: make(map[string]int),
		docLens: make(map[string]int),
		idf:     make(map[string]float64),
	}
}

// Index rebuilds corpus statistics from the given documents. Call it again
// whenever the corpus changes.
func (s *BM25Scorer) Index(docs []rag.Document) {
	s.docCount = len(docs)
	s.docFreq = make(map[string]int)
	s.docLens = make(map[string]int)

	var totalLen int
	for _, doc := range docs {
		tokens := Tokenize(doc.Content)
		s.docLens[doc.ID] = len(tokens)
		totalLen += len(tokens)

		seen := make(map[string]bool)
		for _, token := range tokens {
			if !seen[token] {
				s.docFreq[token]++
				seen[token] = true
			}
		}
	}
	if s.docCount > 0 {
		s.avgDocLen = float64(totalLen) / float64(s.docCount)
	}

	s.idf = make(map[string]float64, len(s.docFreq))
	for term, df := range s.docFreq {
		s.idf[term] = math.Log((float64(s.docCount)-float64(df)+0.5)/(float64(df)+0.5) + 1.0)
	}
}

// Score computes the BM25 score of doc for query. Zero means no query term
// occurs in the document.
func (s *BM25Scorer) Score(query string, doc rag.Document) float64 {
	queryTokens := Tokenize(query)
	docTokens := Tokenize(doc.Content)

	termFreq := make(map[string]int)
	for _, token := range docTokens {
		termFreq[token]++
	}

	docLen := s.docLens[doc.ID]
	if docLen == 0 {
		docLen = len(docTokens)
	}

	var score float64
	for _, queryToken := range queryTokens {
		tf := float64(termFreq[queryToken])
		if tf == 0 {
			continue
		}
		idf := s.idf[queryToken]
		if idf == 0 {
			// unseen term, fall back to the maximum possible IDF
			idf = math.Log(float64(s.docCount) + 1.0)
		}
		numerator := tf * (s.k1 + 1)
		denominator := tf + s.k1*(1-s.b+s.b*float64(docLen)/s.avgDocLen)
		score += idf * (numerator / denominator)
	}
	return score
}

// NormalizeScore maps a raw BM25 score into [0,1]. BM25 is unbounded, so the
// divisor is an empirical ceiling proportional to the query length.
func (s *BM25Scorer) NormalizeScore(score float64, queryTokenCount int) float64 {
	if queryTokenCount == 0 {
		return 0
	}
	maxPossible := float64(queryTokenCount) * 10.0
	normalized := score / maxPossible
	if normalized > 1.0 {
		normalized = 1.0
	}
	return normalized
}
