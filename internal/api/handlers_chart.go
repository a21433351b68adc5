// handlers_chart.go - Static chart handlers
package api

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/insight-studio/backend/internal/chart"
	"github.com/insight-studio/backend/internal/figure"
	"github.com/insight-studio/backend/internal/raster"
	"github.com/insight-studio/backend/internal/session"
	"github.com/insight-studio/backend/internal/slides"
)

// Response formats for figure endpoints.
const (
	formatJSON    = "json"
	formatPNG     = "png"
	formatMsgpack = "msgpack"

	mimeMsgpack = "application/msgpack"
)

// ChartHandlerImpl implements the ChartHandler interface
type ChartHandlerImpl struct {
	sessions   *session.Manager
	jobs       *insightJobs
	rasterizer *raster.Rasterizer
}

// NewChartHandler creates a new chart handler instance
func NewChartHandler(sessions *session.Manager, jobs *insightJobs, rasterizer *raster.Rasterizer) ChartHandler {
	return &ChartHandlerImpl{
		sessions:   sessions,
		jobs:       jobs,
		rasterizer: rasterizer,
	}
}

type suggestChartRequest struct {
	Type string `json:"type"`
}

func (r *suggestChartRequest) validate() error {
	if _, err := chart.ParseKind(r.Type); err != nil {
		return NewValidationError("type")
	}
	return nil
}

// HandleCompatibleColumns lists the columns usable on each axis for a chart type
func (h *ChartHandlerImpl) HandleCompatibleColumns(c echo.Context) error {
	ctx, err := requireDataset(c, h.sessions)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ctx.Dataset.Table.CompatibleColumns(c.QueryParam("kind")))
}

// HandleRenderChart builds one figure from the posted visualization settings
func (h *ChartHandlerImpl) HandleRenderChart(c echo.Context) error {
	ctx, err := requireDataset(c, h.sessions)
	if err != nil {
		return err
	}

	var req slides.Visualization
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	fig, err := chart.RenderTag(ctx.Dataset.Table, req.KindTag(), req.Config)
	if err != nil {
		return err
	}
	return respondFigures(c, h.rasterizer, []*figure.Figure{fig}, true)
}

// HandleSuggestChart asks the language model for axis choices
func (h *ChartHandlerImpl) HandleSuggestChart(c echo.Context) error {
	ctx, err := requireDataset(c, h.sessions)
	if err != nil {
		return err
	}

	var req suggestChartRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}
	if !h.jobs.enabled() {
		return NewFeatureDisabledError("the language model", nil)
	}

	s, err := h.jobs.service.SuggestChart(c.Request().Context(), ctx.Dataset.Table, req.Type)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s)
}

// respondFigures writes figures in the format named by ?format=. A single
// figure is sent bare in JSON when single is set; PNG is only available for
// one figure.
func respondFigures(c echo.Context, r *raster.Rasterizer, figs []*figure.Figure, single bool) error {
	switch format := c.QueryParam("format"); format {
	case "", formatJSON:
		if single && len(figs) == 1 {
			return c.JSON(http.StatusOK, figs[0])
		}
		return c.JSON(http.StatusOK, figs)
	case formatMsgpack:
		data, err := figure.MarshalMsgpack(figs)
		if err != nil {
			return NewInternalError("failed to encode msgpack", err)
		}
		return c.Blob(http.StatusOK, mimeMsgpack, data)
	case formatPNG:
		if len(figs) != 1 {
			return NewValidationError("format")
		}
		var buf bytes.Buffer
		if err := r.Rasterize(figs[0], &buf); err != nil {
			return NewRenderError(err)
		}
		return c.Blob(http.StatusOK, "image/png", buf.Bytes())
	default:
		return NewValidationError("format")
	}
}
