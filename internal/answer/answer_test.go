package answer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koopa0/autodraft/internal/chunk"
	"github.com/koopa0/autodraft/internal/genai"
	"github.com/koopa0/autodraft/internal/log"
	"github.com/koopa0/autodraft/internal/retrieval"
)

func newRegistry(t *testing.T, embedder genai.EmbeddingClient) *retrieval.Registry {
	t.Helper()
	splitter, err := chunk.NewSplitter(200, 40)
	require.NoError(t, err)
	return retrieval.New(embedder, splitter, log.NewNop())
}

func TestAnswerGrounded(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t, &genai.HashEmbedder{})
	require.NoError(t, reg.Ingest(ctx, []string{
		"Budget guidelines require detailed cost breakdowns for equipment.",
		"The timeline section lists milestones per quarter.",
	}, ""))

	gen := &genai.FakeGenerator{Replies: []string{"Equipment costs need itemized breakdowns."}}
	a := New(reg, gen, 2, log.NewNop())

	res, err := a.Answer(ctx, "What do the budget guidelines require?", "")
	require.NoError(t, err)
	assert.False(t, res.Degraded)
	assert.Equal(t, "Equipment costs need itemized breakdowns.", res.Answer)
	require.NotEmpty(t, res.Sources)
	assert.Contains(t, res.Sources[0].Text, "cost breakdowns")

	// Retrieved context reaches the prompt.
	calls := gen.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0][1].Text, "cost breakdowns")
	assert.Contains(t, calls[0][1].Text, "What do the budget guidelines require?")
}

func TestAnswerEmptyRegistryDegrades(t *testing.T) {
	reg := newRegistry(t, &genai.HashEmbedder{})
	gen := &genai.FakeGenerator{Replies: []string{"should not be called"}}
	a := New(reg, gen, 4, log.NewNop())

	res, err := a.Answer(context.Background(), "anything", "")
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Empty(t, res.Answer)
	assert.Equal(t, "no relevant context found", res.Reason)
	assert.Zero(t, gen.CallCount())
}

func TestAnswerRetrievalFailureDegrades(t *testing.T) {
	reg := newRegistry(t, &genai.HashEmbedder{})
	require.NoError(t, reg.Ingest(context.Background(), []string{"Some context."}, ""))

	// A bad top-k makes retrieval fail; the answer degrades instead of erroring.
	a := New(reg, &genai.FakeGenerator{}, 0, log.NewNop())
	res, err := a.Answer(context.Background(), "query", "")
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Equal(t, "retrieval unavailable", res.Reason)
}

func TestAnswerGenerationFailureDegrades(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t, &genai.HashEmbedder{})
	require.NoError(t, reg.Ingest(ctx, []string{"Budget guidelines cover travel costs."}, ""))

	gen := &genai.FakeGenerator{Err: genai.ErrUnavailable}
	a := New(reg, gen, 4, log.NewNop())

	res, err := a.Answer(ctx, "budget travel costs", "")
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Equal(t, "generation unavailable", res.Reason)
	assert.NotEmpty(t, res.Sources, "sources retrieved before the failure are kept")
}

func TestAnswerCancellationPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reg := newRegistry(t, &genai.HashEmbedder{})
	require.NoError(t, reg.Ingest(ctx, []string{"Budget guidelines cover travel costs."}, ""))

	gen := &genai.FakeGenerator{Replies: []string{"unused"}}
	a := New(reg, gen, 4, log.NewNop())

	cancel()
	_, err := a.Answer(ctx, "budget travel", "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnswerScopePreferred(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t, &genai.HashEmbedder{})
	require.NoError(t, reg.Ingest(ctx, []string{"Global note about deadlines."}, ""))
	require.NoError(t, reg.Ingest(ctx, []string{"Project alpha studies deadlines for coral surveys."}, "alpha"))

	gen := &genai.FakeGenerator{Replies: []string{"ok"}}
	a := New(reg, gen, 4, log.NewNop())

	res, err := a.Answer(ctx, "deadlines", "alpha")
	require.NoError(t, err)
	require.NotEmpty(t, res.Sources)
	for _, c := range res.Sources {
		assert.NotContains(t, c.Text, "Global note")
	}
}
