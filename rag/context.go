package rag

import (
	"fmt"
	"strings"
)

// BuildContext formats documents into a prompt context block. Each fragment
// is numbered from 1 and separated by a blank line:
//
//	[fragment 1]
//	<text>
//
//	[fragment 2]
//	<text>
//
// Store order is preserved. Returns "" for no documents.
func BuildContext(docs []Document) string {
	if len(docs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(docs))
	for i, doc := range docs {
		parts = append(parts, fmt.Sprintf("[fragment %d]\n%s", i+1, doc.Content))
	}
	return strings.Join(parts, "\n\n")
}
