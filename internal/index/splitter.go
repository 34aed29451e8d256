// Package index builds and queries the embedding index over the
// documentation corpus.
package index

import (
	"fmt"
	"strings"
)

// Splitter cuts documentation text into overlapping chunks sized for
// embedding. Sizes are in runes.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

// NewSplitter validates the chunking parameters.
func NewSplitter(chunkSize, overlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("overlap must be in [0, %d), got %d", chunkSize, overlap)
	}
	return &Splitter{ChunkSize: chunkSize, Overlap: overlap}, nil
}

// Split cuts text into chunks of at most ChunkSize runes, with Overlap runes
// carried between consecutive chunks. Chunk boundaries prefer paragraph
// breaks, then line breaks, then word breaks, falling back to a hard cut.
func (s *Splitter) Split(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= s.ChunkSize {
		return []string{string(runes)}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + s.ChunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = s.breakPoint(runes, start, end)
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}

		next := end - s.Overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return chunks
}

// breakPoint searches backwards from end for a natural boundary. It never
// returns a cut that would shrink the chunk below half its target size.
func (s *Splitter) breakPoint(runes []rune, start, end int) int {
	floor := start + s.ChunkSize/2

	for _, sep := range []string{"\n\n", "\n", " "} {
		if at := lastIndexRunes(runes, start, end, sep); at > floor {
			return at
		}
	}
	return end
}

func lastIndexRunes(runes []rune, start, end int, sep string) int {
	window := string(runes[start:end])
	at := strings.LastIndex(window, sep)
	if at < 0 {
		return -1
	}
	return start + len([]rune(window[:at]))
}
