package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"oustaa/internal/utils"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	version string
	checks  map[string]HealthCheck
}

func NewHealthHandler(version string, checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{version: version, checks: checks}
}

type healthReport struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// Live reports that the process is serving.
func (h *HealthHandler) Live(c *gin.Context) {
	utils.SuccessResponse(c, "ok", &healthReport{Status: "up", Version: h.version})
}

// Ready probes every dependency and answers 503 when any is down.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	report := &healthReport{Status: "up", Version: h.version, Dependencies: make(map[string]string, len(names))}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			report.Status = "down"
			report.Dependencies[name] = err.Error()
			continue
		}
		report.Dependencies[name] = "up"
	}

	if report.Status != "up" {
		c.JSON(http.StatusServiceUnavailable, utils.APIResponse{
			Status:    utils.StatusError,
			Message:   "dependency unavailable",
			Data:      report,
			Timestamp: time.Now(),
		})
		return
	}
	utils.SuccessResponse(c, "ok", report)
}
