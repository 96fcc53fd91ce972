package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/issue-tracker-api/pkg/response"
)

// Pinger is a dependency the health check probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthHandler struct {
	Env     string
	Started time.Time
	// Checks maps a dependency name to its probe; "database" is required.
	Checks map[string]Pinger
}

func NewHealthHandler(env string, checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{Env: env, Started: time.Now(), Checks: checks}
}

// Health GET /health and /api/health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	deps := make(map[string]string, len(h.Checks))
	healthy := true
	for name, p := range h.Checks {
		if err := p.Ping(ctx); err != nil {
			deps[name] = "down"
			if name == "database" {
				healthy = false
			}
			continue
		}
		deps[name] = "up"
	}
	data := gin.H{
		"status":       "ok",
		"environment":  h.Env,
		"uptime":       time.Since(h.Started).Round(time.Second).String(),
		"dependencies": deps,
	}
	if !healthy {
		data["status"] = "degraded"
		resp := response.Error[any](c, http.StatusServiceUnavailable, "Service unavailable", data)
		c.JSON(resp.Status, resp)
		return
	}
	ok(c, http.StatusOK, data, "Service is healthy", nil)
}
