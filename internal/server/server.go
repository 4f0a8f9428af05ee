package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/oakline/assessmap/internal/corpus"
	"github.com/oakline/assessmap/internal/embedding"
	"github.com/oakline/assessmap/internal/mapper"
	"github.com/oakline/assessmap/internal/observability"
	"github.com/oakline/assessmap/internal/vector"
)

// Server is the HTTP front of the mapping service.
type Server struct {
	mapper     *mapper.Service
	prefetcher *embedding.Prefetcher
	mirror     *vector.Mirror
	registry   *observability.MetricsRegistry
	metrics    *observability.ServiceMetrics
	health     *Health
	log        *slog.Logger

	httpServer *http.Server
}

// Config configures the Server. Mirror is optional; when nil the corpus
// search route is not mounted.
type Config struct {
	Addr       string
	Mapper     *mapper.Service
	Prefetcher *embedding.Prefetcher
	Mirror     *vector.Mirror
	Registry   *observability.MetricsRegistry
	Metrics    *observability.ServiceMetrics
	Health     *Health
	Log        *slog.Logger
}

// New builds a Server and its route table.
func New(cfg Config) *Server {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		mapper:     cfg.Mapper,
		prefetcher: cfg.Prefetcher,
		mirror:     cfg.Mirror,
		registry:   cfg.Registry,
		metrics:    cfg.Metrics,
		health:     cfg.Health,
		log:        log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/map-response", s.handleMapResponse)
	mux.HandleFunc("/prefetch", s.handlePrefetch)
	if s.mirror != nil {
		mux.HandleFunc("/corpus/search", s.handleCorpusSearch)
	}
	if s.registry != nil {
		mux.Handle("/metrics", s.registry.Handler())
	}
	if s.health != nil {
		s.health.Register(mux)
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.corsMiddleware(s.loggingMiddleware(s.recoverMiddleware(mux))),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// ListenAndServe runs the HTTP server until Shutdown.
func (s *Server) ListenAndServe() error {
	s.log.Info("http server listening", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the full middleware-wrapped handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Request and response shapes

type mapRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId"`
	MappingType    string `json:"mappingType"`
	Category       string `json:"category"`
	Question       string `json:"question"`
}

type questionResponse struct {
	MappingType string  `json:"mappingType"`
	Question    string  `json:"question"`
	Category    string  `json:"category"`
	Confidence  float64 `json:"confidence"`
	Success     bool    `json:"success"`
}

type optionResponse struct {
	MappingType  string  `json:"mappingType"`
	Question     string  `json:"question"`
	Category     string  `json:"category"`
	MappedOption string  `json:"mappedOption"`
	Score        int     `json:"score"`
	Confidence   float64 `json:"confidence"`
	Success      bool    `json:"success"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// handleMapResponse is the main mapping endpoint. The mappingType field
// selects forced question matching, forced option matching, or the
// stateful automatic protocol; anything else falls through to automatic.
func (s *Server) handleMapResponse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	start := time.Now()
	s.metrics.IncRequest()
	defer func() {
		s.metrics.ObserveRequestLatency(time.Since(start).Seconds())
	}()

	var req mapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.metrics.IncRequestError()
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Message == "" {
		s.metrics.IncRequestError()
		s.writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if req.ConversationID == "" {
		req.ConversationID = "default"
	}

	ctx, span := observability.StartRequestSpan(r.Context(), "/map-response")
	defer span.End()

	var (
		out mapper.Outcome
		err error
	)
	switch req.MappingType {
	case "question":
		out, err = s.mapper.MapQuestion(ctx, req.ConversationID, req.Message)
	case "option":
		if req.Category == "" || req.Question == "" {
			s.metrics.IncRequestError()
			s.writeError(w, http.StatusBadRequest, "category and question are required for option mapping")
			return
		}
		out, err = s.mapper.MapOption(ctx, corpus.Category(req.Category), req.Question, req.Message)
	default:
		out, err = s.mapper.MapAuto(ctx, req.ConversationID, req.Message)
	}

	if err != nil {
		s.metrics.IncRequestError()
		observability.RecordError(span, err)
		if errors.Is(err, mapper.ErrNoVector) {
			s.writeError(w, http.StatusInternalServerError, "Failed to get embedding vector")
			return
		}
		s.log.Error("mapping failed", "conversation", req.ConversationID, "error", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	observability.RecordMatchResult(span, out.MappingType, out.Confidence)

	if out.MappingType == mapper.MappingOption {
		s.writeJSON(w, http.StatusOK, optionResponse{
			MappingType:  out.MappingType,
			Question:     out.Question,
			Category:     string(out.Category),
			MappedOption: out.Option,
			Score:        out.Score,
			Confidence:   out.Confidence,
			Success:      true,
		})
		return
	}
	s.writeJSON(w, http.StatusOK, questionResponse{
		MappingType: out.MappingType,
		Question:    out.Question,
		Category:    string(out.Category),
		Confidence:  out.Confidence,
		Success:     true,
	})
}

type prefetchRequest struct {
	Texts []string `json:"texts"`
}

type prefetchResponse struct {
	Enqueued int  `json:"enqueued"`
	Dropped  int  `json:"dropped"`
	Success  bool `json:"success"`
}

// handlePrefetch queues arbitrary texts for background embedding.
func (s *Server) handlePrefetch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req prefetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Texts) == 0 {
		s.writeError(w, http.StatusBadRequest, "texts is required")
		return
	}

	var enqueued, dropped int
	for _, t := range req.Texts {
		if s.prefetcher.Enqueue(t) {
			enqueued++
		} else {
			dropped++
		}
	}
	s.writeJSON(w, http.StatusOK, prefetchResponse{Enqueued: enqueued, Dropped: dropped, Success: true})
}

type corpusSearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"topK"`
}

type corpusSearchResponse struct {
	Results []corpusSearchResult `json:"results"`
	Success bool                 `json:"success"`
}

type corpusSearchResult struct {
	Text     string  `json:"text"`
	Category string  `json:"category"`
	Question string  `json:"question"`
	Kind     string  `json:"kind"`
	Score    float32 `json:"score"`
}

// handleCorpusSearch searches the mirrored corpus index.
func (s *Server) handleCorpusSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req corpusSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Query == "" {
		s.writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.TopK <= 0 {
		req.TopK = 5
	}

	matches, err := s.mirror.Search(r.Context(), req.Query, req.TopK)
	if err != nil {
		s.log.Error("corpus search failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := corpusSearchResponse{Results: make([]corpusSearchResult, len(matches)), Success: true}
	for i, m := range matches {
		resp.Results[i] = corpusSearchResult{
			Text:     m.Text,
			Category: m.Category,
			Question: m.Question,
			Kind:     m.Kind,
			Score:    m.Score,
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// Middleware

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error("handler panic", "path", r.URL.Path, "panic", rec)
				s.metrics.IncRequestError()
				s.writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Success: false, Message: msg})
}
