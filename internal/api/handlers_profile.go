// handlers_profile.go - Profiling report handler
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/insight-studio/backend/internal/profile"
	"github.com/insight-studio/backend/internal/session"
	"github.com/insight-studio/backend/internal/storage"
)

// ProfileHandlerImpl implements the ProfileHandler interface
type ProfileHandlerImpl struct {
	store    storage.Store
	sessions *session.Manager
	profiler *profile.Profiler
	cache    *profile.Cache
	tempDir  string
}

// NewProfileHandler creates a new profile handler instance
func NewProfileHandler(store storage.Store, sessions *session.Manager, profiler *profile.Profiler, cache *profile.Cache, tempDir string) ProfileHandler {
	return &ProfileHandlerImpl{
		store:    store,
		sessions: sessions,
		profiler: profiler,
		cache:    cache,
		tempDir:  tempDir,
	}
}

// HandleGetProfile returns the HTML profiling report for the dataset
func (h *ProfileHandlerImpl) HandleGetProfile(c echo.Context) error {
	ctx, err := requireDataset(c, h.sessions)
	if err != nil {
		return err
	}

	path, err := h.store.GetFilePath(ctx.Dataset.FileID)
	if err != nil {
		return NewNotFoundError("file", ctx.Dataset.FileID)
	}

	report, err := h.cache.GetOrProfile(c.Request().Context(), h.profiler, ctx.Dataset.FileID, path)
	if err != nil {
		return NewInternalError("failed to profile dataset", err)
	}
	named := *report
	named.Source = ctx.Dataset.Name

	html, err := named.RenderToTempFile(h.tempDir)
	if err != nil {
		return NewInternalError("failed to render profiling report", err)
	}
	return c.HTMLBlob(http.StatusOK, html)
}
