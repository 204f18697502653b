// Package genai defines the capability interfaces for the external AI
// backends (generation, embedding, web search) and their production
// implementations.
//
// Components depend on these one-method interfaces rather than on a
// concrete SDK, so tests inject fakes and the backend can be swapped
// without touching callers.
package genai

import "context"

// Role identifies the author of a message in a generation request.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
	RoleModel  Role = "model"
)

// Message is one role-tagged entry in a generation prompt.
type Message struct {
	Role Role
	Text string
}

// System builds a system message.
func System(text string) Message { return Message{Role: RoleSystem, Text: text} }

// User builds a user message.
func User(text string) Message { return Message{Role: RoleUser, Text: text} }

// Model builds a model message.
func Model(text string) Message { return Message{Role: RoleModel, Text: text} }

// StreamFunc receives one incremental text fragment of a streaming
// generation call. Returning an error aborts the stream; the underlying
// call is released.
type StreamFunc func(ctx context.Context, delta string) error

// GenerationClient is the text-generation backend.
type GenerationClient interface {
	// Generate issues one blocking generation call and returns the full
	// response text.
	Generate(ctx context.Context, msgs []Message) (string, error)

	// GenerateStream issues one streaming generation call, invoking fn for
	// every fragment, and returns the accumulated response text.
	GenerateStream(ctx context.Context, msgs []Message, fn StreamFunc) (string, error)
}

// EmbeddingClient maps text to a fixed-length vector.
type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SearchTool maps a query to a text snippet of web results. Implementations
// may be absent or misconfigured; callers must treat failures as degraded
// observations, not fatal errors.
type SearchTool interface {
	Search(ctx context.Context, query string) (string, error)
}
