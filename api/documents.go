package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/koopa0/autodraft/internal/answer"
	"github.com/koopa0/autodraft/internal/genai"
	"github.com/koopa0/autodraft/internal/log"
	"github.com/koopa0/autodraft/internal/retrieval"
)

// DocumentHandler handles ingestion, retrieval and grounded answering.
type DocumentHandler struct {
	registry *retrieval.Registry
	answerer *answer.Answerer
	logger   log.Logger
}

// NewDocumentHandler creates a document handler.
func NewDocumentHandler(registry *retrieval.Registry, answerer *answer.Answerer, logger log.Logger) *DocumentHandler {
	return &DocumentHandler{registry: registry, answerer: answerer, logger: logger}
}

// RegisterRoutes registers document routes on the given mux.
func (h *DocumentHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/documents", h.ingest)
	mux.HandleFunc("POST /api/retrieve", h.retrieve)
	mux.HandleFunc("POST /api/answer", h.answer)
}

type ingestRequest struct {
	Texts []string `json:"texts"`
	Scope string   `json:"scope,omitempty"`
}

func (h *DocumentHandler) ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Texts) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "texts must not be empty")
		return
	}

	if err := h.registry.Ingest(r.Context(), req.Texts, req.Scope); err != nil {
		if errors.Is(err, genai.ErrUnavailable) {
			writeError(w, http.StatusBadGateway, "embedding_unavailable", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "ingest_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"ingested": len(req.Texts),
		"chunks":   h.registry.Count(req.Scope),
	})
}

type retrieveRequest struct {
	Query string `json:"query"`
	Scope string `json:"scope,omitempty"`
	TopK  int    `json:"topK,omitempty"`
}

func (h *DocumentHandler) retrieve(w http.ResponseWriter, r *http.Request) {
	var req retrieveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.TopK <= 0 {
		req.TopK = 4
	}

	chunks, err := h.registry.Retrieve(r.Context(), req.Query, req.Scope, req.TopK)
	switch {
	case errors.Is(err, retrieval.ErrEmptyQuery), errors.Is(err, retrieval.ErrInvalidTopK):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	case errors.Is(err, genai.ErrUnavailable):
		writeError(w, http.StatusBadGateway, "embedding_unavailable", err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "retrieve_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"chunks": chunks})
}

type answerRequest struct {
	Query string `json:"query"`
	Scope string `json:"scope,omitempty"`
}

func (h *DocumentHandler) answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "query must not be empty")
		return
	}

	res, err := h.answerer.Answer(r.Context(), req.Query, req.Scope)
	if err != nil {
		// Only cancellation reaches here; the answerer degrades everything else.
		return
	}
	writeJSON(w, http.StatusOK, res)
}
