package stream

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/koopa0/autodraft/internal/chunk"
	"github.com/koopa0/autodraft/internal/genai"
	"github.com/koopa0/autodraft/internal/log"
	"github.com/koopa0/autodraft/internal/retrieval"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newRegistry(t *testing.T) *retrieval.Registry {
	t.Helper()
	splitter, err := chunk.NewSplitter(200, 40)
	require.NoError(t, err)
	return retrieval.New(&genai.HashEmbedder{}, splitter, log.NewNop())
}

func collect(events <-chan Event) []Event {
	var out []Event
	for ev := range events {
		out = append(out, ev)
	}
	return out
}

func TestRunOrderedEvents(t *testing.T) {
	gen := &genai.FakeGenerator{Replies: []string{"Hello from the assistant."}, StreamSize: 5}
	c := New(gen, newRegistry(t), 4, log.NewNop())

	events := collect(c.Run(context.Background(), "hi", ""))
	require.NotEmpty(t, events)

	assert.Equal(t, EventTypeToolInvoked, events[0].Type)
	assert.Equal(t, "analyze_draft_context", events[0].Tool)

	last := events[len(events)-1]
	assert.Equal(t, EventTypeDone, last.Type)

	var b strings.Builder
	for _, ev := range events[1 : len(events)-1] {
		require.Equal(t, EventTypeDelta, ev.Type, "only deltas between tool event and terminal")
		b.WriteString(ev.Text)
	}
	assert.Equal(t, "Hello from the assistant.", b.String())
}

func TestRunExactlyOneTerminalEvent(t *testing.T) {
	gen := &genai.FakeGenerator{Replies: []string{"short"}}
	c := New(gen, newRegistry(t), 4, log.NewNop())

	terminals := 0
	for ev := range c.Run(context.Background(), "hi", "") {
		if ev.Type == EventTypeDone || ev.Type == EventTypeError {
			terminals++
		}
	}
	assert.Equal(t, 1, terminals)
}

func TestRunGenerationFailure(t *testing.T) {
	gen := &genai.FakeGenerator{Err: genai.ErrUnavailable}
	c := New(gen, newRegistry(t), 4, log.NewNop())

	events := collect(c.Run(context.Background(), "hi", ""))
	require.Len(t, events, 2)
	assert.Equal(t, EventTypeToolInvoked, events[0].Type)
	assert.Equal(t, EventTypeError, events[1].Type)
	assert.NotEmpty(t, events[1].Err)
}

func TestRunCancellationStopsSilently(t *testing.T) {
	const wantDeltas = 2

	gen := &genai.FakeGenerator{Replies: []string{strings.Repeat("0123456789", 10)}, StreamSize: 10}
	c := New(gen, newRegistry(t), 4, log.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := c.Run(ctx, "hi", "")

	require.Equal(t, EventTypeToolInvoked, (<-events).Type)
	for i := 0; i < wantDeltas; i++ {
		ev, ok := <-events
		require.True(t, ok)
		require.Equal(t, EventTypeDelta, ev.Type)
	}

	cancel()
	// Give the producer its next delta boundary to observe cancellation.
	time.Sleep(20 * time.Millisecond)

	for ev := range events {
		assert.NotEqual(t, EventTypeDone, ev.Type, "no terminal event after cancellation")
		assert.NotEqual(t, EventTypeError, ev.Type, "no terminal event after cancellation")
	}
}

func TestRunAbandonedPeer(t *testing.T) {
	gen := &genai.FakeGenerator{Replies: []string{"never read"}}
	c := New(gen, newRegistry(t), 4, log.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Never reading from the channel must not leak the producer goroutine;
	// TestMain's leak check enforces it once the channel closes.
	events := c.Run(ctx, "hi", "")
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestRunGroundsInRetrievedContext(t *testing.T) {
	reg := newRegistry(t)
	require.NoError(t, reg.Ingest(context.Background(),
		[]string{"Budget guidelines require itemized travel costs."}, "p1"))

	gen := &genai.FakeGenerator{Replies: []string{"ok"}}
	c := New(gen, reg, 4, log.NewNop())

	collect(c.Run(context.Background(), "what do the budget guidelines say", "p1"))

	calls := gen.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0][0].Text, "itemized travel costs")
}
