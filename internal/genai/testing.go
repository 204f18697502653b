package genai

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"
)

// Test doubles for the backend interfaces. Kept in the main package (not a
// _test.go file) so other packages' tests can reuse them.

// FakeGenerator implements GenerationClient with scripted replies.
// Replies are consumed in order; the last one repeats once exhausted.
type FakeGenerator struct {
	Replies    []string
	Err        error // returned on every call when set
	StreamSize int   // fragment size in runes for GenerateStream; default 8

	mu    sync.Mutex
	calls [][]Message
}

// Calls returns a copy of all recorded prompts.
func (f *FakeGenerator) Calls() [][]Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]Message(nil), f.calls...)
}

// CallCount returns the number of generation calls made.
func (f *FakeGenerator) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *FakeGenerator) next(msgs []Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := len(f.calls)
	f.calls = append(f.calls, append([]Message(nil), msgs...))
	if f.Err != nil {
		return "", f.Err
	}
	if len(f.Replies) == 0 {
		return "", nil
	}
	if idx >= len(f.Replies) {
		idx = len(f.Replies) - 1
	}
	return f.Replies[idx], nil
}

// Generate implements GenerationClient.
func (f *FakeGenerator) Generate(ctx context.Context, msgs []Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return f.next(msgs)
}

// GenerateStream implements GenerationClient, delivering the scripted reply
// in fixed-size fragments.
func (f *FakeGenerator) GenerateStream(ctx context.Context, msgs []Message, fn StreamFunc) (string, error) {
	reply, err := f.next(msgs)
	if err != nil {
		return "", err
	}

	size := f.StreamSize
	if size <= 0 {
		size = 8
	}

	runes := []rune(reply)
	for start := 0; start < len(runes); start += size {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		end := min(start+size, len(runes))
		if err := fn(ctx, string(runes[start:end])); err != nil {
			return "", err
		}
	}
	return reply, nil
}

// HashEmbedder implements EmbeddingClient with a deterministic bag-of-words
// embedding: each lowercased word hashes to a dimension. Texts sharing words
// get high cosine similarity, so retrieval behaves meaningfully in tests.
type HashEmbedder struct {
	Err error // returned on every call when set
}

const hashEmbedderDim = 128

// Embed implements EmbeddingClient.
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.Err != nil {
		return nil, e.Err
	}

	vec := make([]float32, hashEmbedderDim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,;:!?\"'()")
		if word == "" {
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		vec[h.Sum32()%hashEmbedderDim]++
	}

	// Normalize; an all-zero vector gets a fixed component so cosine
	// similarity stays defined.
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec, nil
	}
	n := float32(math.Sqrt(norm))
	for i := range vec {
		vec[i] /= n
	}
	return vec, nil
}

// FakeSearch implements SearchTool with scripted snippets.
type FakeSearch struct {
	Snippets []string
	Err      error

	mu      sync.Mutex
	queries []string
}

// Queries returns a copy of all recorded search queries.
func (s *FakeSearch) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

// Search implements SearchTool.
func (s *FakeSearch) Search(_ context.Context, query string) (string, error) {
	s.mu.Lock()
	idx := len(s.queries)
	s.queries = append(s.queries, query)
	s.mu.Unlock()

	if s.Err != nil {
		return "", s.Err
	}
	if len(s.Snippets) == 0 {
		return "No results found for: " + query, nil
	}
	if idx >= len(s.Snippets) {
		idx = len(s.Snippets) - 1
	}
	return s.Snippets[idx], nil
}
