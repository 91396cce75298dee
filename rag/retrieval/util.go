package retrieval

import "strings"

// Tokenize splits text into lowercase tokens on whitespace.
func Tokenize(text string) []string {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return nil
	}
	return strings.Fields(text)
}
