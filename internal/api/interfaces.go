// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/insight-studio/backend/internal/figure"
)

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// DatasetHandler handles loading, previewing and clearing the session dataset
type DatasetHandler interface {
	HandleUploadDataset(c echo.Context) error
	HandleDatasetFromText(c echo.Context) error
	HandleGetDataset(c echo.Context) error
	HandlePreviewDataset(c echo.Context) error
	HandleDeleteDataset(c echo.Context) error
}

// SessionHandler handles dashboard session state
type SessionHandler interface {
	HandleGetSession(c echo.Context) error
	HandleSetView(c echo.Context) error
}

// ChartHandler handles static chart operations
type ChartHandler interface {
	HandleCompatibleColumns(c echo.Context) error
	HandleRenderChart(c echo.Context) error
	HandleSuggestChart(c echo.Context) error
}

// InsightHandler handles LLM insight operations
type InsightHandler interface {
	HandleGetInsights(c echo.Context) error
	HandleRefreshInsights(c echo.Context) error
}

// ProfileHandler handles the profiling report
type ProfileHandler interface {
	HandleGetProfile(c echo.Context) error
}

// AnimationHandler handles animated chart export
type AnimationHandler interface {
	HandleCreateAnimation(c echo.Context) error
}

// PresentationHandler handles the slide deck and its export
type PresentationHandler interface {
	HandleGetDeck(c echo.Context) error
	HandlePutDeck(c echo.Context) error
	HandleBuildSlides(c echo.Context) error
	HandlePresentationVideo(c echo.Context) error
}

// VideoEncoder turns a figure sequence into a video file and returns its path.
type VideoEncoder interface {
	Encode(ctx context.Context, frames []*figure.Figure, fps float64, outputPath string) (string, error)
}
