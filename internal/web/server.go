package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/spacesedan/verity/internal/models"
)

const (
	serverShutdownWait = 5 * time.Second
	serverReadTimeout  = 15 * time.Second
	serverWriteTimeout = 60 * time.Second
	serverIdleTimeout  = 120 * time.Second
	serverMaxHeaderExp = 20
)

var (
	//go:embed static/* templates/*
	embedFS embed.FS
)

type NewsProvider interface {
	GetNewsData(ctx context.Context, page int) (*models.NewsPage, error)
}

type HeadlineAnalyzer interface {
	AnalyzeHeadline(headline string) models.BiasAssessment
}

type Server struct {
	news     NewsProvider
	analyzer HeadlineAnalyzer
	healthy  *atomic.Bool
	tmpl     *template.Template
}

// NewServer parses the embedded templates. healthy may be nil, in which case
// the cache is always reported as healthy.
func NewServer(news NewsProvider, analyzer HeadlineAnalyzer, healthy *atomic.Bool) (*Server, error) {
	tmpl, err := template.New("").Funcs(templateFuncs()).ParseFS(embedFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("[WebServer] failed to parse templates: %w", err)
	}

	return &Server{
		news:     news,
		analyzer: analyzer,
		healthy:  healthy,
		tmpl:     tmpl,
	}, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("GET /static/", http.FileServerFS(embedFS))

	// Views
	mux.HandleFunc("GET /{$}", s.indexHandler)
	mux.HandleFunc("/", s.notFoundHandler)

	// Data API
	mux.HandleFunc("GET /load_more", s.loadMoreHandler)
	mux.HandleFunc("GET /api/analyze", s.analyzeHandler)
	mux.HandleFunc("GET /api/word", s.wordHandler)
	mux.HandleFunc("GET /healthz", s.healthHandler)

	return requestLogger(s.recoverer(mux))
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:           addr,
		Handler:        s.Handler(),
		ReadTimeout:    serverReadTimeout,
		WriteTimeout:   serverWriteTimeout,
		IdleTimeout:    serverIdleTimeout,
		MaxHeaderBytes: 1 << serverMaxHeaderExp,
		BaseContext:    func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("[WebServer] Server started", slog.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("[WebServer] failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("[WebServer] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownWait)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("[WebServer] failed to shut down: %w", err)
	}
	return nil
}
