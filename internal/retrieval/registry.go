// Package retrieval owns the similarity-search collections used to ground
// generated text: one global collection plus lazily created, isolated
// per-scope collections.
//
// Collections live for the process lifetime; there is no eviction policy.
// Stale scopes accumulating over very long uptimes are a known capacity
// gap, left to a future TTL/refcount pass.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"

	"github.com/koopa0/autodraft/internal/chunk"
	"github.com/koopa0/autodraft/internal/genai"
	"github.com/koopa0/autodraft/internal/log"
)

// globalCollection is the collection used when no scope is given.
const globalCollection = "global"

var (
	// ErrEmptyQuery indicates a retrieval query with no content.
	ErrEmptyQuery = errors.New("query must not be empty")

	// ErrInvalidTopK indicates a non-positive top-k value.
	ErrInvalidTopK = errors.New("top-k must be positive")
)

// Registry manages the vector collections. It is the only long-lived shared
// mutable state in the pipeline and is safe for concurrent use; callers
// never receive a direct reference to a collection.
type Registry struct {
	db       *chromem.DB
	embed    chromem.EmbeddingFunc
	splitter *chunk.Splitter
	logger   log.Logger

	// Guards collection creation so a first ingest for a scope creates the
	// collection at most once even under concurrent calls.
	mu sync.Mutex
}

// New creates a Registry backed by an in-memory chromem database.
func New(embedder genai.EmbeddingClient, splitter *chunk.Splitter, logger log.Logger) *Registry {
	return &Registry{
		db:       chromem.NewDB(),
		embed:    newEmbeddingFunc(embedder),
		splitter: splitter,
		logger:   logger,
	}
}

// NewPersistent creates a Registry whose collections are persisted under
// path and reloaded on startup.
func NewPersistent(path string, embedder genai.EmbeddingClient, splitter *chunk.Splitter, logger log.Logger) (*Registry, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("opening retrieval store at %s: %w", path, err)
	}
	return &Registry{
		db:       db,
		embed:    newEmbeddingFunc(embedder),
		splitter: splitter,
		logger:   logger,
	}, nil
}

// newEmbeddingFunc bridges an EmbeddingClient to chromem's embedding
// signature. chromem normalizes vectors itself.
func newEmbeddingFunc(embedder genai.EmbeddingClient) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		vec, err := embedder.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		if len(vec) == 0 {
			return nil, fmt.Errorf("%w: empty embedding", genai.ErrUnavailable)
		}
		return vec, nil
	}
}

// collectionName maps a scope to its collection name.
func collectionName(scope string) string {
	if scope == "" {
		return globalCollection
	}
	return "scope_" + scope
}

// getOrCreate returns the collection for scope, creating it on first use.
func (r *Registry) getOrCreate(scope string) (*chromem.Collection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	col, err := r.db.GetOrCreateCollection(collectionName(scope), nil, r.embed)
	if err != nil {
		return nil, fmt.Errorf("creating collection for scope %q: %w", scope, err)
	}
	return col, nil
}

// Ingest chunks each text and appends the chunks to the scope's collection
// (the global collection when scope is empty). Repeated calls for the same
// scope accumulate; they never replace the collection. Embedding failures
// wrap genai.ErrUnavailable and are not retried here.
func (r *Registry) Ingest(ctx context.Context, texts []string, scope string) error {
	col, err := r.getOrCreate(scope)
	if err != nil {
		return err
	}

	var docs []chromem.Document
	for _, text := range texts {
		sourceID := uuid.NewString()
		for _, c := range r.splitter.Split(sourceID, text) {
			docs = append(docs, chromem.Document{
				ID:      c.SourceID + ":" + strconv.Itoa(c.Ordinal),
				Content: c.Text,
				Metadata: map[string]string{
					"source_id": c.SourceID,
					"ordinal":   strconv.Itoa(c.Ordinal),
				},
			})
		}
	}
	if len(docs) == 0 {
		return nil
	}

	if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("ingesting %d chunks into scope %q: %w", len(docs), scope, err)
	}

	r.logger.Debug("ingested documents",
		"scope", scope,
		"texts", len(texts),
		"chunks", len(docs))

	return nil
}

// Retrieve embeds the query and returns up to k nearest chunks from the
// scope's collection when it exists, falling back to the global collection.
// When k exceeds the collection size all available chunks are returned; an
// absent or empty collection yields an empty result, not an error.
func (r *Registry) Retrieve(ctx context.Context, query, scope string, k int) ([]chunk.Chunk, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTopK, k)
	}

	col := r.lookup(scope)
	if col == nil {
		return nil, nil
	}

	if n := col.Count(); n < k {
		k = n
	}
	if k == 0 {
		return nil, nil
	}

	results, err := col.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying scope %q: %w", scope, err)
	}

	chunks := make([]chunk.Chunk, 0, len(results))
	for _, res := range results {
		ordinal, _ := strconv.Atoi(res.Metadata["ordinal"])
		chunks = append(chunks, chunk.Chunk{
			Text:     res.Content,
			SourceID: res.Metadata["source_id"],
			Ordinal:  ordinal,
		})
	}
	return chunks, nil
}

// lookup returns the collection serving scope, preferring the scope's own
// collection and falling back to the global one. nil when neither exists.
func (r *Registry) lookup(scope string) *chromem.Collection {
	r.mu.Lock()
	defer r.mu.Unlock()

	if scope != "" {
		if col := r.db.GetCollection(collectionName(scope), r.embed); col != nil {
			return col
		}
	}
	return r.db.GetCollection(globalCollection, r.embed)
}

// Count returns the number of chunks stored for scope (global when empty).
// A missing collection counts as zero.
func (r *Registry) Count(scope string) int {
	col := r.lookup(scope)
	if col == nil {
		return 0
	}
	// A scope without its own collection must not report global counts.
	if scope != "" {
		r.mu.Lock()
		own := r.db.GetCollection(collectionName(scope), r.embed)
		r.mu.Unlock()
		if own == nil {
			return 0
		}
		col = own
	}
	return col.Count()
}
