package api

import (
	"errors"
	"net/http"

	"github.com/koopa0/autodraft/internal/compliance"
	"github.com/koopa0/autodraft/internal/extract"
	"github.com/koopa0/autodraft/internal/genai"
	"github.com/koopa0/autodraft/internal/log"
)

// ComplianceHandler handles compliance and gap-analysis endpoints.
type ComplianceHandler struct {
	checker *compliance.Checker
	logger  log.Logger
}

// NewComplianceHandler creates a compliance handler.
func NewComplianceHandler(checker *compliance.Checker, logger log.Logger) *ComplianceHandler {
	return &ComplianceHandler{checker: checker, logger: logger}
}

// RegisterRoutes registers compliance routes on the given mux.
func (h *ComplianceHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/compliance/check", h.check)
	mux.HandleFunc("POST /api/compliance/gaps", h.gaps)
}

type checkRequest struct {
	Content      string `json:"content"`
	Mission      string `json:"mission,omitempty"`
	Requirements string `json:"requirements,omitempty"`
}

func (h *ComplianceHandler) check(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.checker.Check(r.Context(), req.Content, req.Mission, req.Requirements)
	if err != nil {
		h.writeCheckError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type gapsRequest struct {
	Content      string `json:"content"`
	Requirements string `json:"requirements,omitempty"`
}

func (h *ComplianceHandler) gaps(w http.ResponseWriter, r *http.Request) {
	var req gapsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.checker.AnalyzeGaps(r.Context(), req.Content, req.Requirements)
	if err != nil {
		h.writeCheckError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ComplianceHandler) writeCheckError(w http.ResponseWriter, err error) {
	var perr *extract.ParseError
	switch {
	case errors.As(err, &perr):
		writeError(w, http.StatusBadGateway, "unparseable_output", err.Error())
	case errors.Is(err, genai.ErrUnavailable):
		writeError(w, http.StatusBadGateway, "generation_unavailable", err.Error())
	default:
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	}
}
