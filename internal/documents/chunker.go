package documents

import "fmt"

// Chunker splits document text into overlapping fixed-size segments.
// Splitting is deterministic: a given text always produces the same
// chunks for the same size and overlap.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a chunker. overlap must be smaller than size so
// that every chunk makes forward progress through the document.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, size), got overlap=%d size=%d", overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Split splits text into chunks of at most size runes, each repeating the
// last overlap runes of its predecessor. The final chunk may be shorter.
// Whitespace-only text yields no chunks; text shorter than size yields
// exactly one.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if !hasContent(runes) {
		return nil
	}
	if len(runes) <= c.size {
		return []string{text}
	}

	step := c.size - c.overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + c.size
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

func hasContent(runes []rune) bool {
	for _, r := range runes {
		if r != ' ' && r != '\n' && r != '\t' && r != '\r' {
			return true
		}
	}
	return false
}
