package genai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"golang.org/x/time/rate"
	gm "google.golang.org/genai"

	"github.com/koopa0/autodraft/internal/log"
)

// GoogleConfig configures the Genkit-backed Google AI clients.
type GoogleConfig struct {
	ModelName     string  // e.g. "gemini-2.5-flash"
	EmbedderModel string  // e.g. "gemini-embedding-001"
	Temperature   float32 // generation temperature

	// Proactive rate limiting for generation calls. Zero values fall back
	// to 10 req/s with burst 30.
	RateLimitRPS   float64
	RateLimitBurst int
}

// GoogleClient implements GenerationClient and EmbeddingClient on top of
// Genkit with the Google AI plugin. Safe for concurrent use.
type GoogleClient struct {
	g        *genkit.Genkit
	embedder ai.Embedder
	model    string
	genCfg   *gm.GenerateContentConfig
	limiter  *rate.Limiter
	logger   log.Logger
}

// NewGoogleClient initializes Genkit with the Google AI plugin and returns a
// client for the configured model and embedder. The plugin reads
// GEMINI_API_KEY from the environment.
func NewGoogleClient(ctx context.Context, cfg GoogleConfig, logger log.Logger) (*GoogleClient, error) {
	if cfg.ModelName == "" {
		return nil, errors.New("model name is required")
	}
	if cfg.EmbedderModel == "" {
		return nil, errors.New("embedder model is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))

	embedder := googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}

	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = 10
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 30
	}

	c := &GoogleClient{
		g:        g,
		embedder: embedder,
		model:    "googleai/" + cfg.ModelName,
		genCfg:   &gm.GenerateContentConfig{Temperature: gm.Ptr(cfg.Temperature)},
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		logger:   logger,
	}

	logger.Info("google ai client initialized",
		"model", cfg.ModelName,
		"embedder", cfg.EmbedderModel)

	return c, nil
}

// Generate implements GenerationClient.
func (c *GoogleClient) Generate(ctx context.Context, msgs []Message) (string, error) {
	return c.generate(ctx, msgs, nil)
}

// GenerateStream implements GenerationClient.
func (c *GoogleClient) GenerateStream(ctx context.Context, msgs []Message, fn StreamFunc) (string, error) {
	return c.generate(ctx, msgs, fn)
}

func (c *GoogleClient) generate(ctx context.Context, msgs []Message, fn StreamFunc) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	opts := []ai.GenerateOption{
		ai.WithModelName(c.model),
		ai.WithMessages(toGenkitMessages(msgs)...),
		ai.WithConfig(c.genCfg),
	}

	if fn != nil {
		opts = append(opts, ai.WithStreaming(func(cbCtx context.Context, chunk *ai.ModelResponseChunk) error {
			if chunk == nil {
				return nil
			}
			for _, part := range chunk.Content {
				if part.Text == "" {
					continue
				}
				if err := fn(cbCtx, part.Text); err != nil {
					return err
				}
			}
			return nil
		}))
	}

	resp, err := genkit.Generate(ctx, c.g, opts...)
	if err != nil {
		// Callback aborts (peer gone) surface as plain context errors, not
		// backend failures.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		c.logger.Warn("generation call failed", "error", err, "messages", len(msgs))
		return "", fmt.Errorf("generate: %w: %w", ErrUnavailable, err)
	}

	return resp.Text(), nil
}

// Embed implements EmbeddingClient.
func (c *GoogleClient) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{ai.DocumentFromText(text, nil)},
	})
	if err != nil {
		return nil, fmt.Errorf("embed: %w: %w", ErrUnavailable, err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, fmt.Errorf("embed: %w: empty embedding returned", ErrUnavailable)
	}
	return resp.Embeddings[0].Embedding, nil
}

func toGenkitMessages(msgs []Message) []*ai.Message {
	out := make([]*ai.Message, 0, len(msgs))
	for _, m := range msgs {
		text := strings.TrimSpace(m.Text)
		if text == "" {
			continue
		}
		switch m.Role {
		case RoleSystem:
			out = append(out, ai.NewSystemTextMessage(text))
		case RoleModel:
			out = append(out, ai.NewModelMessage(ai.NewTextPart(text)))
		default:
			out = append(out, ai.NewUserMessage(ai.NewTextPart(text)))
		}
	}
	return out
}
