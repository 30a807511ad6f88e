package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is satisfied by *pgxpool.Pool and *service.RedisDenylist.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependency is a backing service probed by the health endpoints.
// A failing optional dependency degrades readiness without failing it.
type Dependency struct {
	Name     string
	Pinger   Pinger
	Optional bool
}

type HealthHandler struct {
	deps    []Dependency
	started time.Time
	version string
}

func NewHealthHandler(version string, deps ...Dependency) *HealthHandler {
	return &HealthHandler{deps: deps, started: time.Now(), version: version}
}

type DependencyStatus struct {
	Name      string `json:"name"`
	Healthy   bool   `json:"healthy"`
	Optional  bool   `json:"optional,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type ReadinessResponse struct {
	Status       string             `json:"status"`
	Version      string             `json:"version,omitempty"`
	Uptime       string             `json:"uptime"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// Liveness only reports that the process serves requests.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness probes every dependency. Status is ready, degraded (an optional
// dependency is down) or unavailable (a required one is down, 503).
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	statuses := h.probe(ctx, true)
	status, code := "ready", http.StatusOK
	for _, s := range statuses {
		if s.Healthy {
			continue
		}
		if !s.Optional {
			status, code = "unavailable", http.StatusServiceUnavailable
			break
		}
		status = "degraded"
	}

	c.JSON(code, ReadinessResponse{
		Status:       status,
		Version:      h.version,
		Uptime:       time.Since(h.started).Round(time.Second).String(),
		Dependencies: statuses,
	})
}

// Health is the short form: required dependencies only, no detail.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	for _, s := range h.probe(ctx, false) {
		if !s.Healthy {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": s.Name + " unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": h.version})
}

func (h *HealthHandler) probe(ctx context.Context, withOptional bool) []DependencyStatus {
	out := make([]DependencyStatus, 0, len(h.deps))
	for _, d := range h.deps {
		if d.Optional && !withOptional {
			continue
		}
		start := time.Now()
		err := d.Pinger.Ping(ctx)
		s := DependencyStatus{
			Name:      d.Name,
			Healthy:   err == nil,
			Optional:  d.Optional,
			LatencyMS: time.Since(start).Milliseconds(),
		}
		if err != nil {
			s.Error = err.Error()
		}
		out = append(out, s)
	}
	return out
}
