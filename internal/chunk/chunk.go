// Package chunk splits raw document text into overlapping fixed-size
// chunks, the unit of retrieval for the vector store.
package chunk

import (
	"errors"
	"fmt"
)

// ErrInvalidSplit indicates inconsistent splitter parameters.
var ErrInvalidSplit = errors.New("invalid split parameters")

// Chunk is a bounded span of source text plus positional metadata.
// Immutable once created.
type Chunk struct {
	Text     string `json:"text"`
	SourceID string `json:"sourceId"`
	Ordinal  int    `json:"ordinal"`
}

// Splitter produces overlapping chunks of a fixed rune size. Consecutive
// chunks share exactly Overlap runes. Splitting is deterministic: the same
// input always yields the same chunks.
type Splitter struct {
	size      int
	overlap   int
	tolerance int
}

// NewSplitter creates a splitter. overlap must be non-negative and strictly
// smaller than size.
func NewSplitter(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size must be positive, got %d", ErrInvalidSplit, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: overlap %d must be in [0, %d)", ErrInvalidSplit, overlap, size)
	}

	// Window searched backwards from the hard cut for a natural breakpoint.
	// Strictly smaller than size-overlap so every chunk advances the cursor.
	tolerance := (size - overlap) / 4

	return &Splitter{size: size, overlap: overlap, tolerance: tolerance}, nil
}

// Split chunks text into overlapping spans tagged with sourceID. Empty input
// yields nil. Chunk boundaries prefer paragraph, newline, sentence and word
// breaks within the tolerance window before falling back to a hard cut.
func (s *Splitter) Split(sourceID, text string) []Chunk {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= s.size {
		return []Chunk{{Text: text, SourceID: sourceID, Ordinal: 0}}
	}

	var chunks []Chunk
	start := 0
	for ordinal := 0; ; ordinal++ {
		end := start + s.size
		if end >= len(runes) {
			chunks = append(chunks, Chunk{
				Text:     string(runes[start:]),
				SourceID: sourceID,
				Ordinal:  ordinal,
			})
			return chunks
		}

		end = s.breakpoint(runes, end)
		chunks = append(chunks, Chunk{
			Text:     string(runes[start:end]),
			SourceID: sourceID,
			Ordinal:  ordinal,
		})
		start = end - s.overlap
	}
}

// breakpoint returns the cut position for a chunk whose hard cut would be at
// end. It scans at most tolerance runes backwards for, in order of
// preference: a paragraph break, a line break, a sentence end, a word break.
func (s *Splitter) breakpoint(runes []rune, end int) int {
	lo := end - s.tolerance
	if lo < 1 {
		lo = 1
	}

	sentence, word := 0, 0
	for i := end - 1; i >= lo; i-- {
		switch runes[i] {
		case '\n':
			// Covers paragraph breaks too: the rightmost newline in the
			// window wins outright.
			return i + 1
		case '.', '!', '?':
			if sentence == 0 && i+1 < len(runes) && runes[i+1] == ' ' {
				sentence = i + 1
			}
		case ' ', '\t':
			if word == 0 {
				word = i + 1
			}
		}
	}

	if sentence > 0 {
		return sentence
	}
	if word > 0 {
		return word
	}
	return end
}
