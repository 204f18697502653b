// Package stream drives one conversational turn as an ordered event
// sequence over a cancellable channel.
package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/koopa0/autodraft/internal/genai"
	"github.com/koopa0/autodraft/internal/log"
	"github.com/koopa0/autodraft/internal/retrieval"
)

// EventType tags one entry in a session's event sequence.
type EventType int

const (
	EventTypeToolInvoked EventType = iota
	EventTypeDelta
	EventTypeDone
	EventTypeError
)

// Event is one unit of a streaming session. A session emits zero or more
// ToolInvoked/Delta events followed by exactly one terminal event (Done or
// Error); nothing is emitted after cancellation.
type Event struct {
	Type EventType
	Tool string            // EventTypeToolInvoked
	Args map[string]string // EventTypeToolInvoked
	Text string            // EventTypeDelta
	Err  string            // EventTypeError
}

const systemPrompt = `You are a grant-writing assistant.
Answer the user's message using the proposal context when present. Be concrete and keep the register suitable for a grant author.`

// Controller runs streaming sessions. Stateless per session; a single
// Controller serves concurrent sessions.
type Controller struct {
	client   genai.GenerationClient
	registry *retrieval.Registry
	topK     int
	logger   log.Logger
}

// New creates a Controller grounding each turn in topK retrieved chunks.
func New(client genai.GenerationClient, registry *retrieval.Registry, topK int, logger log.Logger) *Controller {
	return &Controller{client: client, registry: registry, topK: topK, logger: logger}
}

// Run starts one session and returns its event channel. The channel is
// single-pass: it closes after the terminal event, or without one when ctx
// is cancelled mid-stream. Cancel ctx to detach; the generation call is
// released at the next delta boundary.
func (c *Controller) Run(ctx context.Context, message, scope string) <-chan Event {
	events := make(chan Event)
	go c.run(ctx, message, scope, events)
	return events
}

func (c *Controller) run(ctx context.Context, message, scope string, events chan<- Event) {
	defer close(events)

	// Fixed UX signal telling the peer analysis has started.
	ok := c.send(ctx, events, Event{
		Type: EventTypeToolInvoked,
		Tool: "analyze_draft_context",
		Args: map[string]string{"scope": scope},
	})
	if !ok {
		return
	}

	_, err := c.client.GenerateStream(ctx, c.buildPrompt(ctx, message, scope),
		func(ctx context.Context, delta string) error {
			if !c.send(ctx, events, Event{Type: EventTypeDelta, Text: delta}) {
				return context.Canceled
			}
			return nil
		})
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			// Peer gone; no terminal event.
			return
		}
		c.logger.Warn("streaming generation failed", "error", err, "scope", scope)
		c.send(ctx, events, Event{Type: EventTypeError, Err: "generation failed, please retry"})
		return
	}

	c.send(ctx, events, Event{Type: EventTypeDone})
}

// buildPrompt grounds the message in retrieved context. Retrieval failures
// degrade to an ungrounded prompt.
func (c *Controller) buildPrompt(ctx context.Context, message, scope string) []genai.Message {
	system := systemPrompt

	chunks, err := c.registry.Retrieve(ctx, message, scope, c.topK)
	if err != nil {
		c.logger.Warn("context retrieval failed, streaming ungrounded", "error", err, "scope", scope)
	} else if len(chunks) > 0 {
		var b strings.Builder
		b.WriteString(system)
		b.WriteString("\n\nProposal context:\n")
		for i, ch := range chunks {
			fmt.Fprintf(&b, "[%d] %s\n", i+1, ch.Text)
		}
		system = b.String()
	}

	return []genai.Message{genai.System(system), genai.User(message)}
}

// send delivers ev unless ctx is done. Reports whether the event was sent.
func (c *Controller) send(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case <-ctx.Done():
		return false
	case events <- ev:
		return true
	}
}
