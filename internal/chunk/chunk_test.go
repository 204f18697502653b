package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSplitter(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		wantErr bool
	}{
		{"defaults", 1000, 200, false},
		{"no overlap", 100, 0, false},
		{"zero size", 0, 0, true},
		{"negative overlap", 100, -1, true},
		{"overlap equals size", 100, 100, true},
		{"overlap exceeds size", 100, 150, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSplitter(tt.size, tt.overlap)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSplit)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSplitEmptyInput(t *testing.T) {
	s, err := NewSplitter(1000, 200)
	require.NoError(t, err)

	assert.Nil(t, s.Split("doc", ""))
}

func TestSplitShortInput(t *testing.T) {
	s, err := NewSplitter(1000, 200)
	require.NoError(t, err)

	chunks := s.Split("doc", "short text")
	require.Len(t, chunks, 1)
	assert.Equal(t, "short text", chunks[0].Text)
	assert.Equal(t, "doc", chunks[0].SourceID)
	assert.Equal(t, 0, chunks[0].Ordinal)
}

func TestSplitDeterministic(t *testing.T) {
	s, err := NewSplitter(100, 20)
	require.NoError(t, err)

	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 30)
	first := s.Split("doc", text)
	second := s.Split("doc", text)

	assert.Equal(t, first, second)
}

func TestSplitOverlapInvariant(t *testing.T) {
	const size, overlap = 100, 20
	s, err := NewSplitter(size, overlap)
	require.NoError(t, err)

	texts := map[string]string{
		"prose":      strings.Repeat("Budget guidelines require detailed cost breakdowns. ", 40),
		"paragraphs": strings.Repeat("First paragraph about funding.\n\nSecond paragraph about timelines.\n\n", 20),
		"unbroken":   strings.Repeat("x", 950),
	}

	for name, text := range texts {
		t.Run(name, func(t *testing.T) {
			chunks := s.Split("doc", text)
			require.Greater(t, len(chunks), 1)

			for i := 1; i < len(chunks); i++ {
				prev := []rune(chunks[i-1].Text)
				curr := []rune(chunks[i].Text)
				require.GreaterOrEqual(t, len(prev), overlap)
				tail := string(prev[len(prev)-overlap:])
				head := string(curr[:overlap])
				assert.Equal(t, tail, head, "chunks %d and %d must share %d runes", i-1, i, overlap)
			}

			// Ordinals are sequential.
			for i, c := range chunks {
				assert.Equal(t, i, c.Ordinal)
			}
		})
	}
}

func TestSplitReassembles(t *testing.T) {
	s, err := NewSplitter(80, 16)
	require.NoError(t, err)

	text := strings.Repeat("Grant proposals need clear objectives and measurable outcomes. ", 25)
	chunks := s.Split("doc", text)
	require.NotEmpty(t, chunks)

	// Dropping each chunk's leading overlap reconstructs the input exactly.
	var b strings.Builder
	b.WriteString(chunks[0].Text)
	for _, c := range chunks[1:] {
		runes := []rune(c.Text)
		b.WriteString(string(runes[16:]))
	}
	assert.Equal(t, text, b.String())
}

func TestSplitPrefersSentenceBoundary(t *testing.T) {
	// size 100, overlap 20 gives a tolerance window of [80, 100). Each
	// sentence below is exactly 30 runes, so a sentence ends at rune 88,
	// inside the window: the cut lands right after the period.
	s, err := NewSplitter(100, 20)
	require.NoError(t, err)

	sentence := "alpha beta gamma delta epsil. " // 30 runes
	require.Len(t, []rune(sentence), 30)
	text := strings.Repeat(sentence, 10)

	chunks := s.Split("doc", text)
	require.Greater(t, len(chunks), 1)

	assert.True(t, strings.HasSuffix(chunks[0].Text, "epsil."),
		"expected sentence-boundary cut, got %q", chunks[0].Text)
	assert.Len(t, []rune(chunks[0].Text), 89)
}

func TestSplitPrefersParagraphBoundary(t *testing.T) {
	// A paragraph break at runes 85-86 falls inside the [80, 100) window
	// and must win over the word breaks that follow it.
	s, err := NewSplitter(100, 20)
	require.NoError(t, err)

	para := strings.Repeat("word ", 17) // 85 runes
	require.Len(t, []rune(para), 85)
	text := strings.Repeat(para+"\n\n", 5)

	chunks := s.Split("doc", text)
	require.Greater(t, len(chunks), 1)

	assert.True(t, strings.HasSuffix(chunks[0].Text, "\n\n"),
		"expected paragraph-boundary cut, got %q", chunks[0].Text)
}
