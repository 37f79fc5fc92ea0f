package api

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Options configure optional server behavior.
type Options struct {
	ReportDir string      // directory for finished batch reports (empty = disabled)
	Logger    *zap.Logger // defaults to the process logger
}

// Server represents the HTTP server for the research batch API.
type Server struct {
	store      *BatchStore
	httpServer *http.Server
	handlers   *Handlers
}

// NewServer creates a new Server instance. The run function may be nil, in
// which case batches complete with placeholder records (useful in tests).
func NewServer(addr string, run BatchFunc, opts Options) *Server {
	store := NewBatchStore()
	handlers := NewHandlers(store, run, opts.ReportDir, opts.Logger)

	mux := http.NewServeMux()

	// Register routes using Go 1.22+ method routing
	mux.HandleFunc("POST /api/v1/batches", handlers.HandleStartBatch)
	mux.HandleFunc("GET /api/v1/batches/{id}", handlers.HandleGetBatch)
	mux.HandleFunc("POST /api/v1/batches/{id}/abort", handlers.HandleAbortBatch)

	return &Server{
		store:    store,
		handlers: handlers,
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Start starts the HTTP server.
// Blocks until the server is stopped or an error occurs.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
// Cancels all active batches and waits for them before stopping HTTP.
func (s *Server) Shutdown(ctx context.Context) error {
	cancelled := s.store.CancelAll()
	if cancelled > 0 {
		// Wait for batches to finish (use half the context deadline for this)
		deadline, ok := ctx.Deadline()
		if ok {
			waitTimeout := time.Until(deadline) / 2
			if waitTimeout > 0 {
				s.store.WaitAll(waitTimeout)
			}
		}
	}

	return s.httpServer.Shutdown(ctx)
}

// Store returns the BatchStore for testing purposes.
func (s *Server) Store() *BatchStore {
	return s.store
}

// Handlers returns the Handlers for testing purposes.
func (s *Server) Handlers() *Handlers {
	return s.handlers
}
