// Package answer produces grounded answers: a query is answered from
// retrieved document chunks, with the chunks returned as sources.
package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/koopa0/autodraft/internal/chunk"
	"github.com/koopa0/autodraft/internal/genai"
	"github.com/koopa0/autodraft/internal/log"
	"github.com/koopa0/autodraft/internal/retrieval"
)

const systemPrompt = `You answer questions about grant proposals using only the provided context.
Cite facts from the context; when the context does not cover the question, say so plainly instead of guessing.`

// Result is one grounded answer. Degraded results carry an empty Answer and
// a Reason explaining what failed; Sources holds whatever chunks were
// retrieved before the failure.
type Result struct {
	Answer   string        `json:"answer"`
	Sources  []chunk.Chunk `json:"sources"`
	Degraded bool          `json:"degraded"`
	Reason   string        `json:"reason,omitempty"`
}

// Answerer answers queries against the retrieval registry.
type Answerer struct {
	registry *retrieval.Registry
	client   genai.GenerationClient
	topK     int
	logger   log.Logger
}

// New creates an Answerer retrieving topK chunks per query.
func New(registry *retrieval.Registry, client genai.GenerationClient, topK int, logger log.Logger) *Answerer {
	return &Answerer{registry: registry, client: client, topK: topK, logger: logger}
}

// Answer retrieves context for the query and generates a grounded answer.
// Backend failures degrade the result instead of returning an error; only
// context cancellation propagates.
func (a *Answerer) Answer(ctx context.Context, query, scope string) (Result, error) {
	sources, err := a.registry.Retrieve(ctx, query, scope, a.topK)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		a.logger.Warn("retrieval failed, degrading answer", "error", err, "scope", scope)
		return Result{Degraded: true, Reason: "retrieval unavailable"}, nil
	}
	if len(sources) == 0 {
		return Result{Degraded: true, Reason: "no relevant context found"}, nil
	}

	text, err := a.client.Generate(ctx, []genai.Message{
		genai.System(systemPrompt),
		genai.User(buildPrompt(query, sources)),
	})
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		a.logger.Warn("generation failed, degrading answer", "error", err, "scope", scope)
		return Result{Sources: sources, Degraded: true, Reason: "generation unavailable"}, nil
	}

	return Result{Answer: text, Sources: sources}, nil
}

func buildPrompt(query string, sources []chunk.Chunk) string {
	var b strings.Builder
	b.WriteString("Context:\n")
	for i, c := range sources {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, c.Text)
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(query)
	return b.String()
}
