// handlers_presentation.go - Presentation deck and export handlers
package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/insight-studio/backend/internal/figure"
	"github.com/insight-studio/backend/internal/raster"
	"github.com/insight-studio/backend/internal/session"
	"github.com/insight-studio/backend/internal/slides"
)

const mimeYAML = "application/yaml"

// PresentationHandlerImpl implements the PresentationHandler interface
type PresentationHandlerImpl struct {
	sessions        *session.Manager
	builder         *slides.Builder
	rasterizer      *raster.Rasterizer
	encoder         VideoEncoder
	secondsPerSlide float64
}

// NewPresentationHandler creates a new presentation handler instance
func NewPresentationHandler(sessions *session.Manager, builder *slides.Builder, rasterizer *raster.Rasterizer, encoder VideoEncoder, secondsPerSlide float64) PresentationHandler {
	if secondsPerSlide <= 0 {
		secondsPerSlide = slides.DefaultSecondsPerSlide
	}
	return &PresentationHandlerImpl{
		sessions:        sessions,
		builder:         builder,
		rasterizer:      rasterizer,
		encoder:         encoder,
		secondsPerSlide: secondsPerSlide,
	}
}

func wantsYAML(c echo.Context) bool {
	if c.QueryParam("format") == "yaml" {
		return true
	}
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), "yaml")
}

// HandleGetDeck returns the session's visualization list as a deck
func (h *PresentationHandlerImpl) HandleGetDeck(c echo.Context) error {
	ctx, err := currentSession(c, h.sessions)
	if err != nil {
		return err
	}

	deck := &slides.Deck{
		SecondsPerSlide: h.secondsPerSlide,
		Visualizations:  ctx.Visualizations,
	}
	if deck.Visualizations == nil {
		deck.Visualizations = []slides.Visualization{}
	}

	if wantsYAML(c) {
		c.Response().Header().Set(echo.HeaderContentType, mimeYAML)
		c.Response().WriteHeader(http.StatusOK)
		return deck.WriteYAML(c.Response())
	}
	return c.JSON(http.StatusOK, deck)
}

// HandlePutDeck replaces the visualization list from a YAML or JSON deck
func (h *PresentationHandlerImpl) HandlePutDeck(c echo.Context) error {
	deck, err := slides.LoadDeck(c.Request().Body)
	if err != nil {
		return err
	}
	if err := h.sessions.SetVisualizations(sessionID(c), deck.Visualizations); err != nil {
		return err
	}
	return h.HandleGetDeck(c)
}

func (h *PresentationHandlerImpl) build(c echo.Context) ([]*figure.Figure, error) {
	ctx, err := requireDataset(c, h.sessions)
	if err != nil {
		return nil, err
	}
	return h.builder.Build(ctx.Dataset.Table, ctx.Insights, ctx.Visualizations), nil
}

// HandleBuildSlides returns every slide figure in order
func (h *PresentationHandlerImpl) HandleBuildSlides(c echo.Context) error {
	figs, err := h.build(c)
	if err != nil {
		return err
	}
	if c.QueryParam("format") == formatPNG {
		return NewValidationError("format")
	}
	return respondFigures(c, h.rasterizer, figs, false)
}

// HandlePresentationVideo exports the slides as an MP4 showing each slide
// for secondsPerSlide seconds
func (h *PresentationHandlerImpl) HandlePresentationVideo(c echo.Context) error {
	seconds := h.secondsPerSlide
	if raw := c.QueryParam("secondsPerSlide"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 || v > slides.MaxSecondsPerSlide {
			return NewValidationError("secondsPerSlide")
		}
		seconds = v
	}

	figs, err := h.build(c)
	if err != nil {
		return err
	}

	path, err := h.encoder.Encode(c.Request().Context(), figs, slides.FPS(seconds), "")
	if err != nil {
		return err
	}
	return respondVideo(c, path, "presentation.mp4", len(figs))
}
