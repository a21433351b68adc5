// handlers_health.go - Health check handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/insight-studio/backend/internal/session"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version  string
	sessions *session.Manager
	jobs     *insightJobs
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, sessions *session.Manager, jobs *insightJobs) HealthHandler {
	return &HealthHandlerImpl{
		version:  version,
		sessions: sessions,
		jobs:     jobs,
	}
}

// HandleHealth returns server health status
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"version":  h.version,
		"sessions": h.sessions.Count(),
		"insights": h.jobs.enabled(),
	})
}
