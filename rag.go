package ragline

import "github.com/ragline/ragline/rag"

// Document is one retrieved fragment of evidence: content plus optional
// relevance score and provenance metadata.
type Document = rag.Document

// Indexer adds or removes documents in the underlying store.
type Indexer = rag.Indexer

// RetrieveOptions holds optional retrieval parameters.
type RetrieveOptions = rag.RetrieveOptions

// RetrieveOption configures retrieval options.
type RetrieveOption = rag.RetrieveOption

// Retriever returns the fragments most relevant to a query.
type Retriever = rag.Retriever

// Reranker reorders an initial retrieval to improve relevance.
type Reranker = rag.Reranker

var (
	// WithTopK limits the number of returned documents.
	WithTopK = rag.WithTopK
	// WithFilters sets metadata filter conditions.
	WithFilters = rag.WithFilters
	// WithFilter adds a single metadata filter condition.
	WithFilter = rag.WithFilter
)
