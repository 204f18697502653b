package extract

import (
	"context"
	"fmt"

	"github.com/koopa0/autodraft/internal/genai"
	"github.com/koopa0/autodraft/internal/log"
)

// Engine drives schema-constrained generation: it embeds the schema in the
// prompt, calls the model and decodes the reply through the fallback chain.
type Engine struct {
	client genai.GenerationClient
	logger log.Logger
}

// NewEngine creates an extraction engine.
func NewEngine(client genai.GenerationClient, logger log.Logger) *Engine {
	return &Engine{client: client, logger: logger}
}

// Run generates a reply for prompt under system and decodes it into T.
// Generation failures are returned as-is (they wrap genai.ErrUnavailable or
// context.Canceled); decode failures surface as *ParseError unless the
// target degrades. The bool result reports a degraded decode.
func Run[T any](ctx context.Context, e *Engine, schema *Schema[T], system, prompt string) (T, bool, error) {
	var zero T

	msgs := []genai.Message{
		genai.System(system + "\n\nRespond with a single JSON object matching this schema, and nothing else:\n" + schema.JSON()),
		genai.User(prompt),
	}

	raw, err := e.client.Generate(ctx, msgs)
	if err != nil {
		return zero, false, fmt.Errorf("structured generation: %w", err)
	}

	v, degraded, err := schema.Decode(raw)
	if err != nil {
		return zero, false, err
	}
	if degraded {
		e.logger.Warn("structured output degraded to raw text", "raw_length", len(raw))
	}
	return v, degraded, nil
}
