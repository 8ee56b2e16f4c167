// Package web serves folder analysis over HTTP: uploaded files or a git
// repository URL in, the report as JSON out.
package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/YoungY620/codeflow/internal"
)

// Analyzer produces the combined analysis of a directory tree.
type Analyzer interface {
	AnalyzeFolder(ctx context.Context, root string) (string, error)
}

// Options tunes request limits and repository cloning.
type Options struct {
	MaxUploadBytes int64  // total multipart body size; 0 means 32 MiB
	CloneDepth     int    // 0 clones full history
	GitBinary      string // "" means git from PATH
	MaxConcurrent  int    // analyses running at once; 0 means 2
}

const (
	defaultMaxUpload     = 32 << 20
	defaultMaxConcurrent = 2
	shutdownTimeout      = 10 * time.Second
)

// Server routes the analysis API.
type Server struct {
	analyzer Analyzer
	opts     Options
	router   *http.ServeMux
	handler  http.Handler
	sem      chan struct{}
}

func NewServer(a Analyzer, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUpload
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = defaultMaxConcurrent
	}
	s := &Server{
		analyzer: a,
		opts:     opts,
		router:   http.NewServeMux(),
		sem:      make(chan struct{}, opts.MaxConcurrent),
	}
	s.registerRoutes()
	s.handler = s.applyMiddleware(s.router)
	return s
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("POST /api/analyze/upload", s.handleUpload)
	s.router.HandleFunc("POST /api/analyze/repo", s.handleRepo)
	s.router.HandleFunc("GET /api/languages", s.handleLanguages)
	s.router.HandleFunc("GET /healthz", s.handleHealth)
}

// applyMiddleware wraps the handler; the last one applied runs first.
func (s *Server) applyMiddleware(h http.Handler) http.Handler {
	h = recoveryMiddleware(h)
	h = loggingMiddleware(h)
	h = requestIDMiddleware(h)
	return h
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		internal.LogInfo("HTTP server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	internal.LogInfo("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// acquire blocks until an analysis slot frees up or ctx ends.
func (s *Server) acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) release() { <-s.sem }
