package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/koopa0/autodraft/internal/draft"
	"github.com/koopa0/autodraft/internal/genai"
	"github.com/koopa0/autodraft/internal/log"
	"github.com/koopa0/autodraft/internal/research"
)

// DraftHandler handles proposal drafting and research endpoints.
type DraftHandler struct {
	writer *draft.Writer
	agent  *research.Agent
	logger log.Logger
}

// NewDraftHandler creates a draft handler.
func NewDraftHandler(writer *draft.Writer, agent *research.Agent, logger log.Logger) *DraftHandler {
	return &DraftHandler{writer: writer, agent: agent, logger: logger}
}

// RegisterRoutes registers drafting routes on the given mux.
func (h *DraftHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/research", h.research)
	mux.HandleFunc("POST /api/draft/section", h.section)
	mux.HandleFunc("POST /api/draft/all", h.allSections)
	mux.HandleFunc("POST /api/draft/outline", h.outline)
	mux.HandleFunc("POST /api/draft/improve", h.improve)
	mux.HandleFunc("POST /api/draft/transform", h.transform)
}

type researchRequest struct {
	Topic      string `json:"topic"`
	Background string `json:"background,omitempty"`
}

func (h *DraftHandler) research(w http.ResponseWriter, r *http.Request) {
	var req researchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "topic must not be empty")
		return
	}

	writeJSON(w, http.StatusOK, h.agent.Research(r.Context(), req.Topic, req.Background))
}

type sectionRequest struct {
	SectionType string `json:"sectionType"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

func (h *DraftHandler) section(w http.ResponseWriter, r *http.Request) {
	var req sectionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	section, err := h.writer.GenerateSection(r.Context(), req.SectionType, req.Title, req.Description, nil)
	if err != nil {
		h.writeDraftError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, section)
}

type allSectionsRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

func (h *DraftHandler) allSections(w http.ResponseWriter, r *http.Request) {
	var req allSectionsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "title must not be empty")
		return
	}

	sections, err := h.writer.GenerateAllSections(r.Context(), req.Title, req.Description)
	if err != nil {
		h.writeDraftError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sections": sections,
		"document": draft.AssembleDocument(sections),
	})
}

func (h *DraftHandler) outline(w http.ResponseWriter, r *http.Request) {
	var req allSectionsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	outline, err := h.writer.GenerateOutline(r.Context(), req.Title, req.Description)
	if err != nil {
		h.writeDraftError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"outline": outline})
}

type improveRequest struct {
	Draft       string `json:"draft"`
	Instruction string `json:"instruction"`
}

func (h *DraftHandler) improve(w http.ResponseWriter, r *http.Request) {
	var req improveRequest
	if !decodeBody(w, r, &req) {
		return
	}

	improved, err := h.writer.ImproveDraft(r.Context(), req.Draft, req.Instruction)
	if err != nil {
		h.writeDraftError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"draft": improved})
}

type transformRequest struct {
	Text           string `json:"text"`
	Transformation string `json:"transformation"`
}

func (h *DraftHandler) transform(w http.ResponseWriter, r *http.Request) {
	var req transformRequest
	if !decodeBody(w, r, &req) {
		return
	}

	out, err := h.writer.Transform(r.Context(), req.Text, req.Transformation)
	if err != nil {
		h.writeDraftError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": out})
}

func (h *DraftHandler) writeDraftError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, draft.ErrUnknownSection), errors.Is(err, draft.ErrUnknownTransformation):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, genai.ErrUnavailable):
		writeError(w, http.StatusBadGateway, "generation_unavailable", err.Error())
	default:
		h.logger.Error("draft request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "draft_failed", err.Error())
	}
}
