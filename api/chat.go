package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/koopa0/autodraft/internal/log"
	"github.com/koopa0/autodraft/internal/stream"
)

// ChatHandler serves the streaming chat endpoint.
//
// POST /api/chat/stream responds with Server-Sent Events:
//   - tool:  {"name": "...", "args": {...}} analysis started
//   - chunk: {"text": "..."}                partial response text
//   - done:  {}                             normal completion
//   - error: {"message": "..."}             generation failed
//
// Events mirror the controller's ordering contract; a client disconnect
// ends the stream with no terminal event.
type ChatHandler struct {
	controller *stream.Controller
	logger     log.Logger
}

// NewChatHandler creates a chat handler.
func NewChatHandler(controller *stream.Controller, logger log.Logger) *ChatHandler {
	return &ChatHandler{controller: controller, logger: logger}
}

// RegisterRoutes registers chat routes on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat/stream", h.handleStream)
}

type chatRequest struct {
	Message string `json:"message"`
	Scope   string `json:"scope,omitempty"`
}

func (h *ChatHandler) handleStream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.logger.Error("streaming not supported")
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeSSE(w, flusher, "error", map[string]string{"message": "invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		h.writeSSE(w, flusher, "error", map[string]string{"message": "message is required"})
		return
	}

	ctx := r.Context()
	h.logger.Info("SSE stream started", "scope", req.Scope)

	for ev := range h.controller.Run(ctx, req.Message, req.Scope) {
		switch ev.Type {
		case stream.EventTypeToolInvoked:
			h.writeSSE(w, flusher, "tool", map[string]any{"name": ev.Tool, "args": ev.Args})
		case stream.EventTypeDelta:
			h.writeSSE(w, flusher, "chunk", map[string]string{"text": ev.Text})
		case stream.EventTypeDone:
			h.writeSSE(w, flusher, "done", map[string]string{})
		case stream.EventTypeError:
			h.writeSSE(w, flusher, "error", map[string]string{"message": ev.Err})
		}
	}

	h.logger.Info("SSE stream ended", "scope", req.Scope, "disconnected", ctx.Err() != nil)
}

// writeSSE writes one SSE event and flushes it to the peer.
func (h *ChatHandler) writeSSE(w http.ResponseWriter, flusher http.Flusher, event string, data any) {
	payload, _ := json.Marshal(data)
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	flusher.Flush()
}
