package research

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koopa0/autodraft/internal/extract"
	"github.com/koopa0/autodraft/internal/genai"
	"github.com/koopa0/autodraft/internal/log"
)

func newAgent(t *testing.T, gen *genai.FakeGenerator, search genai.SearchTool, maxCalls int) *Agent {
	t.Helper()
	a, err := New(extract.NewEngine(gen, log.NewNop()), search, maxCalls, log.NewNop())
	require.NoError(t, err)
	return a
}

func TestResearchSearchThenFinalize(t *testing.T) {
	gen := &genai.FakeGenerator{Replies: []string{
		`{"action": "search", "query": "urban tree survival rates"}`,
		`{"action": "finalize"}`,
		`{"topic": "x", "summary": "Urban trees survive at 60-80% over five years.",
		  "findings": [{"source": "https://example.org/study", "relevance": "high", "keyPoints": ["60-80% survival"]}],
		  "recommendations": ["Budget for replacement planting"]}`,
	}}
	search := &genai.FakeSearch{Snippets: []string{"- Study: five-year survival 60-80% (example.org)"}}
	a := newAgent(t, gen, search, 3)

	res := a.Research(context.Background(), "Urban Trees", "Plant trees in cities")

	assert.False(t, res.Degraded)
	assert.Equal(t, "Urban Trees", res.Topic)
	assert.Contains(t, res.Summary, "survive")
	require.Len(t, res.Findings, 1)
	assert.Equal(t, RelevanceHigh, res.Findings[0].Relevance)
	assert.Equal(t, []string{"urban tree survival rates"}, search.Queries())

	// The finalize prompt carries the observation.
	calls := gen.Calls()
	require.Len(t, calls, 3)
	assert.Contains(t, calls[2][1].Text, "five-year survival")
}

func TestResearchFinalizesImmediately(t *testing.T) {
	gen := &genai.FakeGenerator{Replies: []string{
		`{"action": "finalize"}`,
		`{"topic": "x", "summary": "Nothing to look up.", "findings": [], "recommendations": []}`,
	}}
	search := &genai.FakeSearch{}
	a := newAgent(t, gen, search, 3)

	res := a.Research(context.Background(), "Topic", "")
	assert.False(t, res.Degraded)
	assert.Empty(t, search.Queries())
}

func TestResearchTerminationBound(t *testing.T) {
	// The model always wants to search and the tool always fails; the run
	// still ends after the configured number of tool calls.
	const maxCalls = 3
	gen := &genai.FakeGenerator{Replies: []string{
		`{"action": "search", "query": "q"}`,
		`{"action": "search", "query": "q"}`,
		`{"action": "search", "query": "q"}`,
		`{"topic": "x", "summary": "done", "findings": [], "recommendations": []}`,
	}}
	search := &genai.FakeSearch{Err: genai.ErrUnavailable}
	a := newAgent(t, gen, search, maxCalls)

	res := a.Research(context.Background(), "Topic", "")

	assert.Len(t, search.Queries(), maxCalls)
	assert.Equal(t, maxCalls+1, gen.CallCount(), "plans plus one finalize")
	assert.NotEmpty(t, res.Summary)
}

func TestResearchToolFailureDegradesObservation(t *testing.T) {
	gen := &genai.FakeGenerator{Replies: []string{
		`{"action": "search", "query": "grant deadlines"}`,
		`{"action": "finalize"}`,
		`{"topic": "x", "summary": "done", "findings": [], "recommendations": []}`,
	}}
	search := &genai.FakeSearch{Err: genai.ErrUnavailable}
	a := newAgent(t, gen, search, 3)

	a.Research(context.Background(), "Topic", "")

	calls := gen.Calls()
	require.Len(t, calls, 3)
	// The second plan and the finalize both see the degraded observation.
	assert.Contains(t, calls[1][1].Text, "search unavailable")
	assert.Contains(t, calls[2][1].Text, "search unavailable")
}

func TestResearchNilSearchTool(t *testing.T) {
	gen := &genai.FakeGenerator{Replies: []string{
		`{"action": "search", "query": "anything"}`,
		`{"action": "finalize"}`,
		`{"topic": "x", "summary": "done", "findings": [], "recommendations": []}`,
	}}
	a := newAgent(t, gen, nil, 3)

	res := a.Research(context.Background(), "Topic", "")
	assert.NotEmpty(t, res.Summary)

	calls := gen.Calls()
	assert.Contains(t, calls[1][1].Text, "search tool not configured")
}

func TestResearchUnparseablePlanFinalizes(t *testing.T) {
	gen := &genai.FakeGenerator{Replies: []string{
		"I think we should probably look into a few things first.",
		`{"topic": "x", "summary": "done", "findings": [], "recommendations": []}`,
	}}
	search := &genai.FakeSearch{}
	a := newAgent(t, gen, search, 3)

	res := a.Research(context.Background(), "Topic", "")
	assert.False(t, res.Degraded)
	assert.Empty(t, search.Queries())
	assert.Equal(t, 2, gen.CallCount())
}

func TestResearchGenerationFailureDegrades(t *testing.T) {
	gen := &genai.FakeGenerator{Err: genai.ErrUnavailable}
	a := newAgent(t, gen, &genai.FakeSearch{}, 3)

	res := a.Research(context.Background(), "Topic", "")

	assert.True(t, res.Degraded)
	assert.Equal(t, "Topic", res.Topic)
	assert.Equal(t, "research unavailable", res.Summary)
}

func TestResearchUnstructuredFinalizeDegrades(t *testing.T) {
	gen := &genai.FakeGenerator{Replies: []string{
		`{"action": "finalize"}`,
		"Honestly the topic is well covered by existing literature.",
	}}
	a := newAgent(t, gen, &genai.FakeSearch{}, 3)

	res := a.Research(context.Background(), "Topic", "")

	assert.True(t, res.Degraded)
	assert.Contains(t, res.Summary, "well covered")
}

func TestResearchCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := &genai.FakeGenerator{Replies: []string{"unused"}}
	a := newAgent(t, gen, &genai.FakeSearch{}, 3)

	res := a.Research(ctx, "Topic", "")
	assert.True(t, res.Degraded)
	assert.Equal(t, "cancelled", res.Reason)
	assert.Zero(t, gen.CallCount())
}

func TestNewRejectsNegativeBudget(t *testing.T) {
	_, err := New(extract.NewEngine(&genai.FakeGenerator{}, log.NewNop()), nil, -1, log.NewNop())
	assert.Error(t, err)
}
