// Package server provides the HTTP boundary of the mapping service:
// the mapping API, health checks and graceful shutdown.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/oakline/assessmap/internal/embedding"
)

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusDegraded  HealthStatus = "degraded"
)

// HealthCheck represents a single health check.
type HealthCheck struct {
	Name    string            `json:"name"`
	Status  HealthStatus      `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// HealthResponse is the response from health endpoints.
type HealthResponse struct {
	Status    HealthStatus  `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Version   string        `json:"version,omitempty"`
	Checks    []HealthCheck `json:"checks,omitempty"`
}

// HealthChecker is a function that performs a health check.
type HealthChecker func(ctx context.Context) HealthCheck

// Health tracks readiness, liveness and registered component checks, and
// serves them over HTTP. Routes are mounted into the main service mux.
type Health struct {
	mu      sync.RWMutex
	checks  map[string]HealthChecker
	version string
	ready   bool
	live    bool
}

// NewHealth creates a health tracker. The service starts live but not
// ready; readiness flips once the corpus warm-up has been enqueued.
func NewHealth(version string) *Health {
	return &Health{
		checks:  make(map[string]HealthChecker),
		version: version,
		live:    true,
	}
}

// RegisterCheck adds a named health check.
func (h *Health) RegisterCheck(name string, checker HealthChecker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = checker
}

// SetReady marks the service as ready to accept traffic.
func (h *Health) SetReady(ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ready = ready
}

// SetLive marks the service as live.
func (h *Health) SetLive(live bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.live = live
}

// Register mounts the health routes on mux.
func (h *Health) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/ready", h.handleReady)
	mux.HandleFunc("/live", h.handleLive)
	mux.HandleFunc("/healthz", h.handleHealth) // Kubernetes alias
	mux.HandleFunc("/readyz", h.handleReady)   // Kubernetes alias
	mux.HandleFunc("/livez", h.handleLive)     // Kubernetes alias
}

// handleHealth runs every registered check and reports overall status.
func (h *Health) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	h.mu.RLock()
	checks := make(map[string]HealthChecker, len(h.checks))
	for k, v := range h.checks {
		checks[k] = v
	}
	version := h.version
	h.mu.RUnlock()

	response := HealthResponse{
		Status:    HealthStatusHealthy,
		Timestamp: time.Now().UTC(),
		Version:   version,
		Checks:    make([]HealthCheck, 0, len(checks)),
	}

	for name, checker := range checks {
		check := checker(ctx)
		check.Name = name
		response.Checks = append(response.Checks, check)

		if check.Status == HealthStatusUnhealthy {
			response.Status = HealthStatusUnhealthy
		} else if check.Status == HealthStatusDegraded && response.Status == HealthStatusHealthy {
			response.Status = HealthStatusDegraded
		}
	}

	statusCode := http.StatusOK
	if response.Status == HealthStatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	h.writeJSON(w, statusCode, response)
}

func (h *Health) handleReady(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	ready := h.ready
	h.mu.RUnlock()

	response := HealthResponse{
		Status:    HealthStatusHealthy,
		Timestamp: time.Now().UTC(),
	}
	if !ready {
		response.Status = HealthStatusUnhealthy
		h.writeJSON(w, http.StatusServiceUnavailable, response)
		return
	}
	h.writeJSON(w, http.StatusOK, response)
}

func (h *Health) handleLive(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	live := h.live
	h.mu.RUnlock()

	response := HealthResponse{
		Status:    HealthStatusHealthy,
		Timestamp: time.Now().UTC(),
	}
	if !live {
		response.Status = HealthStatusUnhealthy
		h.writeJSON(w, http.StatusServiceUnavailable, response)
		return
	}
	h.writeJSON(w, http.StatusOK, response)
}

func (h *Health) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Standard health checkers

// BackendHealthChecker probes the embedding backend. An unreachable backend
// is degraded, not unhealthy: the service keeps answering on the fallback
// embedder.
func BackendHealthChecker(space string, probe func(ctx context.Context) error) HealthChecker {
	return func(ctx context.Context) HealthCheck {
		if probe == nil {
			return HealthCheck{
				Status:  HealthStatusHealthy,
				Message: "no embedding backend configured (keyword-only mode)",
			}
		}
		if err := probe(ctx); err != nil {
			return HealthCheck{
				Status:  HealthStatusDegraded,
				Message: "embedding backend unreachable, serving fallback embeddings: " + err.Error(),
				Details: map[string]string{"space": space},
			}
		}
		return HealthCheck{
			Status:  HealthStatusHealthy,
			Message: "embedding backend OK",
			Details: map[string]string{"space": space},
		}
	}
}

// WarmupHealthChecker reports corpus warm-up progress from the cache size.
// The target is the number of distinct cache keys the texts produce: the
// corpus repeats option texts across questions and categories, so the raw
// text count overshoots what a fully warmed cache can ever hold.
func WarmupHealthChecker(texts []string, cached func() int) HealthChecker {
	keys := make(map[string]struct{}, len(texts))
	for _, t := range texts {
		keys[embedding.Normalize(t)] = struct{}{}
	}
	corpusSize := len(keys)
	return func(ctx context.Context) HealthCheck {
		n := cached()
		if n < corpusSize {
			return HealthCheck{
				Status:  HealthStatusDegraded,
				Message: "corpus warm-up in progress",
				Details: map[string]string{"cached": strconv.Itoa(n), "corpus": strconv.Itoa(corpusSize)},
			}
		}
		return HealthCheck{
			Status:  HealthStatusHealthy,
			Message: "corpus embeddings warmed",
			Details: map[string]string{"cached": strconv.Itoa(n)},
		}
	}
}
