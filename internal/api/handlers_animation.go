// handlers_animation.go - Animated chart export handlers
package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/insight-studio/backend/internal/animate"
	"github.com/insight-studio/backend/internal/chart"
	"github.com/insight-studio/backend/internal/config"
	"github.com/insight-studio/backend/internal/session"
	"github.com/insight-studio/backend/internal/slides"
	"github.com/insight-studio/backend/internal/video"
)

// AnimationHandlerImpl implements the AnimationHandler interface
type AnimationHandlerImpl struct {
	sessions  *session.Manager
	generator *animate.Generator
	encoder   VideoEncoder
	limits    config.RenderingConfig
}

// NewAnimationHandler creates a new animation handler instance
func NewAnimationHandler(sessions *session.Manager, generator *animate.Generator, encoder VideoEncoder, limits config.RenderingConfig) AnimationHandler {
	return &AnimationHandlerImpl{
		sessions:  sessions,
		generator: generator,
		encoder:   encoder,
		limits:    limits,
	}
}

type createAnimationRequest struct {
	slides.Visualization
	Duration int `json:"duration"`
	FPS      int `json:"fps"`
}

func (r *createAnimationRequest) applyDefaults(limits config.RenderingConfig) {
	if r.Duration == 0 {
		r.Duration = limits.DefaultDuration
	}
	if r.FPS == 0 {
		r.FPS = limits.DefaultFPS
	}
}

func (r *createAnimationRequest) validate(limits config.RenderingConfig) error {
	if r.Duration < 1 || r.Duration > limits.MaxDuration {
		return NewValidationError("duration")
	}
	if r.FPS < limits.MinFPS || r.FPS > limits.MaxFPS {
		return NewValidationError("fps")
	}
	return nil
}

type videoResponse struct {
	FileName string `json:"fileName"`
	Frames   int    `json:"frames"`
	DataURI  string `json:"dataUri"`
}

// HandleCreateAnimation renders an animated chart to MP4
func (h *AnimationHandlerImpl) HandleCreateAnimation(c echo.Context) error {
	ctx, err := requireDataset(c, h.sessions)
	if err != nil {
		return err
	}

	var req createAnimationRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	req.applyDefaults(h.limits)
	if err := req.validate(h.limits); err != nil {
		return err
	}

	kind, err := chart.ParseKind(req.KindTag())
	if err != nil {
		return err
	}

	frames, err := h.generator.Generate(ctx.Dataset.Table, kind, req.Config, req.Duration, req.FPS)
	if err != nil {
		return err
	}

	path, err := h.encoder.Encode(c.Request().Context(), frames, float64(req.FPS), "")
	if err != nil {
		return err
	}
	return respondVideo(c, path, fmt.Sprintf("%s_animation.mp4", kind), len(frames))
}

// respondVideo sends the encoded file as an attachment when ?download=1 and
// as a data URI otherwise. The file is consumed either way.
func respondVideo(c echo.Context, path, fileName string, frames int) error {
	if c.QueryParam("download") == "1" {
		data, err := video.Consume(path)
		if err != nil {
			return NewEncodeError(err)
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", fileName))
		return c.Blob(http.StatusOK, video.MIMEType, data)
	}

	uri, err := video.ReadAsDataURI(path)
	if err != nil {
		return NewEncodeError(err)
	}
	return c.JSON(http.StatusOK, videoResponse{
		FileName: fileName,
		Frames:   frames,
		DataURI:  uri,
	})
}
