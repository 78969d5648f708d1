package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cyoasearch/cyoasearch/internal/core/domain"
	"github.com/cyoasearch/cyoasearch/internal/logger"
)

// SearchResponse is the body of GET /search.
type SearchResponse struct {
	Results  []domain.SearchResult `json:"results"`
	ModeUsed domain.SearchMode     `json:"mode_used"`
}

// SimilarResponse is the body of GET /similar/{id}.
type SimilarResponse struct {
	Results []domain.SimilarResult `json:"results"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	opts, err := parseSearchOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}

	results, err := s.ports.Search.Search(r.Context(), r.URL.Query().Get("q"), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	if results == nil {
		results = []domain.SearchResult{}
	}

	mode := opts.Mode
	if mode == "" {
		mode = domain.SearchModeMixed
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results, ModeUsed: mode})
}

func parseSearchOptions(r *http.Request) (domain.SearchOptions, error) {
	q := r.URL.Query()
	var opts domain.SearchOptions

	if v := q.Get("mode"); v != "" {
		opts.Mode = domain.SearchMode(v)
		if !opts.Mode.IsValid() {
			return opts, fmt.Errorf("%w: mode must be mixed, summary or text", domain.ErrInvalidInput)
		}
	}

	var err error
	if opts.K, err = positiveInt(q.Get("k"), "k"); err != nil {
		return opts, err
	}
	if opts.Limit, err = positiveInt(q.Get("limit"), "limit"); err != nil {
		return opts, err
	}

	if v := q.Get("threshold"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil || t < 0 || t > 1 {
			return opts, fmt.Errorf("%w: threshold must be a number between 0 and 1", domain.ErrInvalidInput)
		}
		opts.Threshold = &t
	}
	return opts, nil
}

// positiveInt parses an optional positive integer parameter. Empty means zero.
func positiveInt(v, name string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", domain.ErrInvalidInput, name)
	}
	return n, nil
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	k, err := positiveInt(r.URL.Query().Get("k"), "k")
	if err != nil {
		writeError(w, err)
		return
	}

	results, err := s.ports.Search.Similar(r.Context(), r.PathValue("id"), k)
	if err != nil {
		writeError(w, err)
		return
	}
	if results == nil {
		results = []domain.SimilarResult{}
	}
	writeJSON(w, http.StatusOK, SimilarResponse{Results: results})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ports.Status.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.ports.Status.ListGames(r.Context())
	if err != nil {
		writeError(w, fmt.Errorf("could not fetch game list: %w", err))
		return
	}
	if games == nil {
		games = []domain.GameListing{}
	}
	writeJSON(w, http.StatusOK, games)
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string            `json:"status"`
	Ready  bool              `json:"ready"`
	Index  *domain.IndexInfo `json:"index,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	info, ok := s.ports.Search.Info()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "index not ready"})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Ready: true, Index: &info})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.ports.Search.Reload(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed: %v", err)
	}
	writeJSON(w, status, ErrorResponse{Detail: err.Error()})
}
