// handlers_dataset.go - Dataset load, preview and reset handlers
package api

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/insight-studio/backend/internal/models"
	"github.com/insight-studio/backend/internal/profile"
	"github.com/insight-studio/backend/internal/session"
	"github.com/insight-studio/backend/internal/storage"
	"github.com/insight-studio/backend/internal/table"
)

// MaxPreviewRows caps the preview endpoint.
const MaxPreviewRows = 1000

// textDatasetName is the stored name of tables generated from free text.
const textDatasetName = "survey_responses.csv"

// DatasetHandlerImpl implements the DatasetHandler interface
type DatasetHandlerImpl struct {
	store            storage.Store
	sessions         *session.Manager
	profiles         *profile.Cache
	jobs             *insightJobs
	previewRows      int
	insightsOnUpload bool
	logger           *slog.Logger
}

// NewDatasetHandler creates a new dataset handler instance
func NewDatasetHandler(store storage.Store, sessions *session.Manager, profiles *profile.Cache, jobs *insightJobs, previewRows int, insightsOnUpload bool, logger *slog.Logger) DatasetHandler {
	return &DatasetHandlerImpl{
		store:            store,
		sessions:         sessions,
		profiles:         profiles,
		jobs:             jobs,
		previewRows:      previewRows,
		insightsOnUpload: insightsOnUpload,
		logger:           logger,
	}
}

type datasetFromTextRequest struct {
	Text string `json:"text"`
}

func (r *datasetFromTextRequest) validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return NewValidationError("text")
	}
	return nil
}

// HandleUploadDataset accepts a CSV as multipart form data under "file"
func (h *DatasetHandlerImpl) HandleUploadDataset(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("missing file", err)
	}

	src, err := fh.Open()
	if err != nil {
		return NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	info, err := h.store.Save(fh.Filename, src)
	if err != nil {
		if errors.Is(err, storage.ErrExtensionNotAllowed) {
			return NewBadRequestError("file type not allowed", err)
		}
		return NewInternalError("failed to save file", err)
	}

	return h.install(c, info)
}

// HandleDatasetFromText turns free text into a table through the language
// model and loads it like an uploaded file
func (h *DatasetHandlerImpl) HandleDatasetFromText(c echo.Context) error {
	var req datasetFromTextRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}
	if !h.jobs.enabled() {
		return NewFeatureDisabledError("the language model", nil)
	}

	t, err := h.jobs.service.TableFromText(c.Request().Context(), req.Text)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := t.WriteCSV(&buf); err != nil {
		return NewInternalError("failed to serialize table", err)
	}
	info, err := h.store.SaveBytes(textDatasetName, buf.Bytes())
	if err != nil {
		return NewInternalError("failed to save file", err)
	}

	return h.install(c, info)
}

// install loads a stored file into the session, replacing whatever was
// there, and requests insights when enabled. An insight failure is recorded
// on the session and does not fail the upload.
func (h *DatasetHandlerImpl) install(c echo.Context, info *models.FileInfo) error {
	path, err := h.store.GetFilePath(info.ID)
	if err != nil {
		return NewInternalError("failed to locate stored file", err)
	}

	t, err := table.LoadFile(path)
	if err != nil {
		h.discard(info.ID)
		if errors.Is(err, table.ErrEmptyTable) {
			return NewInvalidInputError("dataset has no data rows", err)
		}
		return NewBadRequestError("could not read CSV", err)
	}
	if err := h.store.SetStatus(info.ID, models.FileStatusLoaded); err != nil {
		h.logger.Warn("could not update file status", "file", info.ID, "error", err)
	}

	sid := sessionID(c)
	gen, prev, err := h.sessions.Replace(sid, &session.Dataset{FileID: info.ID, Name: info.Name, Table: t})
	if err != nil {
		return err
	}
	if prev != nil && prev.FileID != "" {
		h.release(prev.FileID)
	}

	if h.insightsOnUpload && h.jobs.enabled() {
		if _, err := h.jobs.run(c.Request().Context(), sid, gen, t); err != nil {
			h.logger.Warn("insight request after upload failed", "session", sid, "error", err)
		}
	}

	ctx, err := currentSession(c, h.sessions)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ctx.Summary())
}

// discard removes an upload that could not be loaded.
func (h *DatasetHandlerImpl) discard(id string) {
	if err := h.store.Delete(id); err != nil {
		h.logger.Warn("could not delete unreadable upload", "file", id, "error", err)
	}
}

// release drops a dataset file that no session references anymore.
func (h *DatasetHandlerImpl) release(fileID string) {
	h.profiles.Delete(fileID)
	if err := h.store.Delete(fileID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		h.logger.Warn("could not delete replaced dataset", "file", fileID, "error", err)
	}
}

// HandleGetDataset returns the dataset summary shown in the sidebar
func (h *DatasetHandlerImpl) HandleGetDataset(c echo.Context) error {
	ctx, err := requireDataset(c, h.sessions)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ctx.Summary().Dataset)
}

// HandlePreviewDataset returns the first rows of the dataset
func (h *DatasetHandlerImpl) HandlePreviewDataset(c echo.Context) error {
	ctx, err := requireDataset(c, h.sessions)
	if err != nil {
		return err
	}

	n := h.previewRows
	if raw := c.QueryParam("rows"); raw != "" {
		n, err = strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxPreviewRows {
			return NewValidationError("rows")
		}
	}

	t := ctx.Dataset.Table
	return c.JSON(http.StatusOK, map[string]interface{}{
		"columns": t.Columns(),
		"rows":    t.Head(n),
		"total":   t.NumRows(),
	})
}

// HandleDeleteDataset resets the session and drops the stored file
func (h *DatasetHandlerImpl) HandleDeleteDataset(c echo.Context) error {
	prev, err := h.sessions.Reset(sessionID(c))
	if err != nil {
		return err
	}
	if prev != nil && prev.FileID != "" {
		h.release(prev.FileID)
	}
	return c.NoContent(http.StatusNoContent)
}
