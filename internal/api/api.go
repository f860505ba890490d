// Package api exposes the ranked news over HTTP.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/deusflow/linea/internal/news"
)

type Service interface {
	ListArticles(ctx context.Context, tab news.Tab, page int) (news.Page, error)
	SearchArticles(ctx context.Context, query string) ([]news.Article, error)
}

type Health interface {
	Healthy() bool
	GetStats() map[string]interface{}
}

type server struct {
	svc    Service
	health Health
	log    *slog.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

type listResponse struct {
	news.Page
	Tab news.Tab `json:"tab"`
}

type searchResponse struct {
	Query    string         `json:"query"`
	Articles []news.Article `json:"articles"`
}

func NewRouter(svc Service, health Health, log *slog.Logger) http.Handler {
	s := &server{svc: svc, health: health, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)
	r.Get("/news", s.handleList)
	r.Get("/news/search", s.handleSearch)
	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.health.Healthy() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.health.GetStats())
}

func (s *server) handleList(w http.ResponseWriter, r *http.Request) {
	tab := news.ParseTab(r.URL.Query().Get("tab"))
	page := parsePage(r.URL.Query().Get("page"))

	result, err := s.svc.ListArticles(r.Context(), tab, page)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Page: result, Tab: tab})
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))

	articles, err := s.svc.SearchArticles(r.Context(), query)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if articles == nil {
		articles = []news.Article{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Query: query, Articles: articles})
}

// fail reports a pipeline error. The pipeline depends on upstream services, so
// its failures are gateway errors.
func (s *server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Error("request failed",
		slog.String("path", r.URL.Path),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Any("err", err))
	writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
}

// parsePage reads a 1-based page number; anything unparseable means page 1.
func parsePage(raw string) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
