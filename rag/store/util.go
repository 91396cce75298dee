package store

import "github.com/ragline/ragline/rag"

// MatchFilters reports whether the document's metadata satisfies every
// filter condition.
func MatchFilters(doc rag.Document, filters map[string]string) bool {
	if len(filters) == 0 {
		return true
	}
	for key, expected := range filters {
		value, ok := doc.Metadata[key]
		if !ok {
			return false
		}
		str, ok := value.(string)
		if !ok || str != expected {
			return false
		}
	}
	return true
}
