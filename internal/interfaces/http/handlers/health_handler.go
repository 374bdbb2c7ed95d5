package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// HealthChecker is a component that can report its health.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

// ReadyFunc reports whether the engine can serve requests.
type ReadyFunc func() bool

// HealthHandler handles the liveness and readiness probes.
type HealthHandler struct {
	version  string
	ready    ReadyFunc
	checkers []HealthChecker
	startAt  time.Time
}

// NewHealthHandler creates a HealthHandler. ready may be nil.
func NewHealthHandler(version string, ready ReadyFunc, checkers ...HealthChecker) *HealthHandler {
	return &HealthHandler{
		version:  version,
		ready:    ready,
		checkers: checkers,
		startAt:  time.Now(),
	}
}

// LivenessResponse is the body of GET /healthz.
type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// ReadinessResponse is the body of GET /readyz.
type ReadinessResponse struct {
	Status     string                    `json:"status"`
	Dictionary string                    `json:"dictionary"`
	Components map[string]ComponentCheck `json:"components,omitempty"`
}

// ComponentCheck is the health of one dependency.
type ComponentCheck struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Liveness handles GET /healthz. It always returns 200.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, LivenessResponse{
		Status:  "alive",
		Version: h.version,
		Uptime:  time.Since(h.startAt).Truncate(time.Second).String(),
	})
}

// Readiness handles GET /readyz. It returns 503 until a dictionary is loaded
// or while any registered dependency is failing.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	resp := ReadinessResponse{Status: "ready", Dictionary: "loaded"}
	ok := true
	if h.ready != nil && !h.ready() {
		resp.Dictionary = "not_loaded"
		ok = false
	}

	if len(h.checkers) > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		resp.Components = h.checkAll(ctx)
		for _, c := range resp.Components {
			if c.Status != "healthy" {
				ok = false
			}
		}
	}

	if !ok {
		resp.Status = "not_ready"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HealthHandler) checkAll(ctx context.Context) map[string]ComponentCheck {
	results := make(map[string]ComponentCheck, len(h.checkers))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, checker := range h.checkers {
		wg.Add(1)
		go func(c HealthChecker) {
			defer wg.Done()
			start := time.Now()
			err := c.Check(ctx)
			check := ComponentCheck{Status: "healthy", Latency: time.Since(start).String()}
			if err != nil {
				check.Status = "unhealthy"
				check.Error = err.Error()
			}
			mu.Lock()
			results[c.Name()] = check
			mu.Unlock()
		}(checker)
	}
	wg.Wait()
	return results
}

//Personal.AI order the ending
