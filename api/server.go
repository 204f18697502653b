// Package api exposes the drafting pipeline over HTTP.
//
// Endpoints:
//
//	GET  /health                   - liveness probe
//	GET  /ready                    - readiness probe
//	POST /api/documents            - ingest document text
//	POST /api/retrieve             - raw chunk retrieval
//	POST /api/answer               - grounded question answering
//	POST /api/research             - research agent run
//	POST /api/draft/section        - generate one proposal section
//	POST /api/draft/all            - generate all proposal sections
//	POST /api/draft/outline        - generate a proposal outline
//	POST /api/draft/improve        - revise draft text
//	POST /api/draft/transform      - named text transformation
//	POST /api/compliance/check     - compliance check
//	POST /api/compliance/gaps      - gap analysis
//	GET  /api/grants               - search the grant catalog
//	GET  /api/grants/{id}          - grant details
//	POST /api/grants/{id}/analyze  - analyze a draft against a grant
//	POST /api/chat/stream          - streaming chat turn (SSE)
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/koopa0/autodraft/internal/app"
	"github.com/koopa0/autodraft/internal/log"
)

const (
	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout bounds header reads (Slowloris protection).
	ReadHeaderTimeout = 10 * time.Second

	// IdleTimeout is the keep-alive idle limit.
	IdleTimeout = 120 * time.Second
)

// Server is the HTTP server for the drafting API.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger
}

// NewServer creates a server with all routes registered against the app.
func NewServer(a *app.App, logger log.Logger) *Server {
	mux := http.NewServeMux()
	s := &Server{mux: mux, logger: logger}

	NewHealthHandler(a.Registry, logger).RegisterRoutes(mux)
	NewDocumentHandler(a.Registry, a.Answerer, logger).RegisterRoutes(mux)
	NewDraftHandler(a.Writer, a.Agent, logger).RegisterRoutes(mux)
	NewComplianceHandler(a.Checker, logger).RegisterRoutes(mux)
	NewGrantHandler(a.Catalog, a.Checker, logger).RegisterRoutes(mux)
	NewChatHandler(a.Stream, logger).RegisterRoutes(mux)

	return s
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery -> logging -> handler.
func (s *Server) Handler() http.Handler {
	return chain(s.mux, recoveryMiddleware(s.logger), loggingMiddleware(s.logger))
}

// Run starts the server and blocks until ctx is cancelled, then shuts down
// gracefully. Write timeouts are left unset: the SSE endpoint holds its
// response open for the length of the stream.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
