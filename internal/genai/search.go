package genai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/koopa0/autodraft/internal/log"
)

// searchResultLimit is the number of results requested per query. Snippets
// beyond a handful add prompt length without adding signal.
const searchResultLimit = 5

// GoogleSearch implements SearchTool using the Google Custom Search API.
type GoogleSearch struct {
	svc    *customsearch.Service
	cseID  string
	logger log.Logger
}

// NewGoogleSearch creates a search tool backed by Google Custom Search.
// Returns an error when credentials are missing; callers typically treat
// that as "no search tool" rather than a fatal condition.
func NewGoogleSearch(ctx context.Context, apiKey, cseID string, logger log.Logger) (*GoogleSearch, error) {
	if apiKey == "" || cseID == "" {
		return nil, errors.New("google search credentials not configured")
	}

	svc, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating custom search service: %w", err)
	}

	return &GoogleSearch{svc: svc, cseID: cseID, logger: logger}, nil
}

// Search implements SearchTool. The returned snippet is a newline-separated
// list of result titles, snippets and links.
func (s *GoogleSearch) Search(ctx context.Context, query string) (string, error) {
	resp, err := s.svc.Cse.List().
		Cx(s.cseID).
		Q(query).
		Num(searchResultLimit).
		Context(ctx).
		Do()
	if err != nil {
		s.logger.Warn("web search failed", "error", err, "query_length", len(query))
		return "", fmt.Errorf("search: %w: %w", ErrUnavailable, err)
	}

	if len(resp.Items) == 0 {
		return "No results found for: " + query, nil
	}

	var b strings.Builder
	for _, item := range resp.Items {
		fmt.Fprintf(&b, "- %s: %s (%s)\n", item.Title, item.Snippet, item.Link)
	}
	return b.String(), nil
}
