// handlers_session.go - Dashboard session handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/insight-studio/backend/internal/models"
	"github.com/insight-studio/backend/internal/session"
)

// SessionHandlerImpl implements the SessionHandler interface
type SessionHandlerImpl struct {
	sessions *session.Manager
}

// NewSessionHandler creates a new session handler instance
func NewSessionHandler(sessions *session.Manager) SessionHandler {
	return &SessionHandlerImpl{sessions: sessions}
}

type setViewRequest struct {
	View models.View `json:"view"`
}

func (r *setViewRequest) validate() error {
	if !r.View.Valid() {
		return NewValidationError("view")
	}
	return nil
}

// HandleGetSession returns the session summary
func (h *SessionHandlerImpl) HandleGetSession(c echo.Context) error {
	ctx, err := currentSession(c, h.sessions)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ctx.Summary())
}

// HandleSetView selects the active dashboard tab
func (h *SessionHandlerImpl) HandleSetView(c echo.Context) error {
	var req setViewRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}
	if err := h.sessions.SetActiveView(sessionID(c), req.View); err != nil {
		return err
	}
	return h.HandleGetSession(c)
}
