package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/koopa0/autodraft/internal/catalog"
	"github.com/koopa0/autodraft/internal/compliance"
	"github.com/koopa0/autodraft/internal/log"
)

// GrantHandler serves the grant catalog and grant-specific draft analysis.
type GrantHandler struct {
	catalog *catalog.Catalog
	checker *compliance.Checker
	logger  log.Logger
}

// NewGrantHandler creates a grant handler.
func NewGrantHandler(c *catalog.Catalog, checker *compliance.Checker, logger log.Logger) *GrantHandler {
	return &GrantHandler{catalog: c, checker: checker, logger: logger}
}

// RegisterRoutes registers grant routes on the given mux.
func (h *GrantHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/grants", h.search)
	mux.HandleFunc("GET /api/grants/{id}", h.details)
	mux.HandleFunc("POST /api/grants/{id}/analyze", h.analyze)
}

func (h *GrantHandler) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := catalog.Filter{
		Keywords: q.Get("keywords"),
		Category: q.Get("category"),
	}
	if v := q.Get("max_amount"); v != "" {
		amount, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "max_amount must be an integer")
			return
		}
		f.MaxAmount = amount
	}
	if v := q.Get("deadline_after"); v != "" {
		deadline, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "deadline_after must be RFC 3339")
			return
		}
		f.DeadlineAfter = deadline
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "limit must be an integer")
			return
		}
		f.Limit = limit
	}

	writeJSON(w, http.StatusOK, map[string]any{"grants": h.catalog.Search(f)})
}

func (h *GrantHandler) details(w http.ResponseWriter, r *http.Request) {
	d, ok := h.catalog.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "no such grant")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type analyzeRequest struct {
	Content string `json:"content"`
}

// analyze runs a gap analysis of draft text against the grant's own
// requirements list.
func (h *GrantHandler) analyze(w http.ResponseWriter, r *http.Request) {
	d, ok := h.catalog.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "no such grant")
		return
	}

	var req analyzeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.checker.AnalyzeGaps(r.Context(), req.Content, strings.Join(d.Requirements, "\n"))
	if err != nil {
		writeError(w, http.StatusBadGateway, "analysis_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"grantTitle": d.Title,
		"analysis":   res,
	})
}
