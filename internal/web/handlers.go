package web

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/spacesedan/verity/internal/bias"
	"github.com/spacesedan/verity/internal/models"
)

type indexData struct {
	NewsData    *models.NewsPage
	CurrentPage int
}

type errorData struct {
	Error string
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("[WebServer] Failed to encode JSON response", slog.String("error", err.Error()))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// queryPage reads ?page=N. Missing or malformed values mean page 1.
func queryPage(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// render buffers the template so a failure can still produce a clean 500.
func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("[WebServer] Template render failed", slog.String("template", name), slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderError(w http.ResponseWriter, status int, msg string) {
	s.render(w, status, "error", errorData{Error: msg})
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	page := queryPage(r)
	news, err := s.news.GetNewsData(r.Context(), page)
	if err != nil {
		slog.Error("[WebServer] Error fetching news", slog.Int("page", page), slog.String("error", err.Error()))
		s.renderError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.render(w, http.StatusOK, "index", indexData{NewsData: news, CurrentPage: page})
}

func (s *Server) loadMoreHandler(w http.ResponseWriter, r *http.Request) {
	page := queryPage(r)
	news, err := s.news.GetNewsData(r.Context(), page)
	if err != nil {
		slog.Error("[WebServer] Error fetching additional news", slog.Int("page", page), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, news)
}

func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	headline := r.URL.Query().Get("headline")
	if strings.TrimSpace(headline) == "" {
		writeError(w, http.StatusBadRequest, "headline is required")
		return
	}

	writeJSON(w, http.StatusOK, s.analyzer.AnalyzeHeadline(headline))
}

func (s *Server) wordHandler(w http.ResponseWriter, r *http.Request) {
	word := strings.TrimSpace(r.URL.Query().Get("word"))
	if word == "" {
		writeError(w, http.StatusBadRequest, "word is required")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"word":     word,
		"category": bias.GetWordContribution(word),
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	cacheHealthy := s.healthy == nil || s.healthy.Load()
	status := "ok"
	if !cacheHealthy {
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": status,
		"cache":  cacheHealthy,
	})
}

func (s *Server) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, http.StatusNotFound, "Page not found")
}
