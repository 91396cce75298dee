package chunking

import (
	"strings"
	"unicode"
)

// FixedSizeChunker splits text into chunks of at most ChunkSize runes with
// Overlap runes carried between consecutive chunks.
type FixedSizeChunker struct {
	ChunkSize int
	Overlap   int
}

// NewFixedSizeChunker creates a fixed-size chunker. Out-of-range arguments
// fall back to a 500-rune chunk with 10% overlap.
func NewFixedSizeChunker(chunkSize, overlap int) *FixedSizeChunker {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunkSize / 10
	}
	return &FixedSizeChunker{ChunkSize: chunkSize, Overlap: overlap}
}

// Split divides content into chunks, preferring to cut at whitespace within
// the last 50 runes of each chunk.
func (c *FixedSizeChunker) Split(content string) []string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil
	}

	runes := []rune(trimmed)
	if len(runes) <= c.ChunkSize {
		return []string{trimmed}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + c.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}

		if end < len(runes) {
			limit := end - 50
			if limit < start {
				limit = start
			}
			for i := end - 1; i >= limit; i-- {
				if unicode.IsSpace(runes[i]) {
					end = i
					break
				}
			}
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		nextStart := end - c.Overlap
		if nextStart <= start {
			nextStart = end
		}
		if nextStart >= len(runes) {
			break
		}
		start = nextStart
	}
	return chunks
}

// SentenceChunker splits text at sentence boundaries, packing sentences into
// chunks of at most MaxChunkSize bytes.
type SentenceChunker struct {
	MaxChunkSize int
}

// NewSentenceChunker creates a sentence chunker; maxChunkSize <= 0 defaults
// to 1000.
func NewSentenceChunker(maxChunkSize int) *SentenceChunker {
	if maxChunkSize <= 0 {
		maxChunkSize = 1000
	}
	return &SentenceChunker{MaxChunkSize: maxChunkSize}
}

// Split divides content into sentence-aligned chunks. A single sentence
// longer than MaxChunkSize becomes its own chunk.
func (c *SentenceChunker) Split(content string) []string {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	if len(content) <= c.MaxChunkSize {
		return []string{content}
	}

	sentences := splitSentences(content)
	if len(sentences) == 0 {
		return []string{content}
	}

	var chunks []string
	var current strings.Builder
	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		if len(sentence) > c.MaxChunkSize {
			if current.Len() > 0 {
				chunks = append(chunks, current.String())
				current.Reset()
			}
			chunks = append(chunks, sentence)
			continue
		}

		if current.Len()+len(sentence)+1 > c.MaxChunkSize {
			if current.Len() > 0 {
				chunks = append(chunks, current.String())
				current.Reset()
			}
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sentence)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// splitSentences cuts text after ., ?, ! and their CJK equivalents when
// followed by whitespace or end of text.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current.WriteRune(r)
		switch r {
		case '.', '?', '!', '。', '？', '！':
			if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) {
				sentence := strings.TrimSpace(current.String())
				if sentence != "" {
					sentences = append(sentences, sentence)
				}
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		sentence := strings.TrimSpace(current.String())
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
	}
	return sentences
}
