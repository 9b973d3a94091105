package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/websearch/ddg-mcp/search"
)

// metrics are plain process counters exposed on /metrics.
type metrics struct {
	started      time.Time
	requests     atomic.Int64
	searches     atomic.Int64
	searchErrors atomic.Int64
}

// Server holds the request handlers and their collaborators. The logger is
// configured once at startup and never mutated by request handling.
type Server struct {
	log        zerolog.Logger
	dispatcher *Dispatcher
	searcher   search.Searcher
	version    string
	metrics    *metrics
}

// NewServer wires the dispatcher and endpoints around a searcher.
func NewServer(log zerolog.Logger, searcher search.Searcher, version string) *Server {
	return &Server{
		log:        log,
		dispatcher: NewDispatcher(searcher, version),
		searcher:   searcher,
		version:    version,
		metrics:    &metrics{started: time.Now()},
	}
}

// Routes returns the HTTP mux for the server.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /{$}", s.handleMCP)
	mux.HandleFunc("POST /search", s.handleSearch)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	return mux
}

// handleMCP is the JSON-RPC over SSE endpoint.
func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	s.metrics.requests.Add(1)

	log := s.log.With().Str("request_id", uuid.NewString()).Logger()
	ctx := log.WithContext(r.Context())

	sseHeaders(w)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Any("panic", rec).Msg("Unhandled panic in dispatcher")
			writeFrames(ctx, w, []Frame{
				errorFrame(nil, codeInternalError, "internal error"),
				doneFrame(),
			})
		}
	}()

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn().Err(err).Msg("Invalid JSON body")
		writeFrames(ctx, w, []Frame{
			errorFrame(nil, codeInvalidRequest, fmt.Sprintf("invalid JSON: %v", err)),
			doneFrame(),
		})
		return
	}

	log.Info().
		Str("method", req.Method).
		Bool("jsonrpc", req.enveloped()).
		Msg("MCP request")

	if req.Method == "tools/call" {
		s.metrics.searches.Add(1)
	}
	writeFrames(ctx, w, s.dispatcher.Dispatch(ctx, &req))
}

// restSearchRequest is the body of POST /search.
type restSearchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

// restSearchResponse is the reply of POST /search.
type restSearchResponse struct {
	Query   string          `json:"query"`
	Results []search.Result `json:"results"`
}

// handleSearch is the plain REST endpoint: raw structured hits, no SSE and
// no Markdown.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	s.metrics.requests.Add(1)
	log := s.log.With().Str("request_id", uuid.NewString()).Logger()

	var req restSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": fmt.Sprintf("invalid JSON: %v", err)})
		return
	}
	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "query is required"})
		return
	}

	max := req.MaxResults
	if max < 1 {
		max = defaultMaxResults
	}
	if max > maxResultsCap {
		max = maxResultsCap
	}

	s.metrics.searches.Add(1)
	hits, err := s.searcher.Search(r.Context(), req.Query, search.Options{
		MaxResults: max,
		Region:     "wt-wt",
		SafeSearch: search.SafeSearchModerate,
	})
	if err != nil {
		s.metrics.searchErrors.Add(1)
		log.Warn().Err(err).Str("query", req.Query).Msg("Search failed")
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": fmt.Sprintf("search failed: %v", err)})
		return
	}
	if hits == nil {
		hits = []search.Result{}
	}
	writeJSON(w, http.StatusOK, restSearchResponse{Query: req.Query, Results: hits})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"version": s.version,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"uptime_seconds":      int64(time.Since(s.metrics.started).Seconds()),
		"requests_total":      s.metrics.requests.Load(),
		"searches_total":      s.metrics.searches.Load(),
		"search_errors_total": s.metrics.searchErrors.Load(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
