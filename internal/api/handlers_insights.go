// handlers_insights.go - LLM insight handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/insight-studio/backend/internal/session"
)

// InsightHandlerImpl implements the InsightHandler interface
type InsightHandlerImpl struct {
	sessions *session.Manager
	jobs     *insightJobs
}

// NewInsightHandler creates a new insight handler instance
func NewInsightHandler(sessions *session.Manager, jobs *insightJobs) InsightHandler {
	return &InsightHandlerImpl{sessions: sessions, jobs: jobs}
}

// HandleGetInsights returns the stored insights, or the error the last
// request produced
func (h *InsightHandlerImpl) HandleGetInsights(c echo.Context) error {
	ctx, err := requireDataset(c, h.sessions)
	if err != nil {
		return err
	}
	if ctx.InsightsErr != nil {
		return ctx.InsightsErr
	}
	if ctx.Insights == nil {
		if !h.jobs.enabled() {
			return NewFeatureDisabledError("the language model", nil)
		}
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, ctx.Insights)
}

// HandleRefreshInsights requests a fresh insight set for the dataset
func (h *InsightHandlerImpl) HandleRefreshInsights(c echo.Context) error {
	ctx, err := requireDataset(c, h.sessions)
	if err != nil {
		return err
	}
	if !h.jobs.enabled() {
		return NewFeatureDisabledError("the language model", nil)
	}

	set, err := h.jobs.run(c.Request().Context(), ctx.ID, ctx.Generation, ctx.Dataset.Table)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, set)
}
