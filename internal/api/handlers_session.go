// handlers_session.go - Session lifecycle handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// SessionHandlerImpl implements the SessionHandler interface
type SessionHandlerImpl struct {
	sessions SessionManager
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions SessionManager) SessionHandler {
	return &SessionHandlerImpl{sessions: sessions}
}

// HandleCreateSession starts an empty session
func (h *SessionHandlerImpl) HandleCreateSession(c echo.Context) error {
	return c.JSON(http.StatusCreated, h.sessions.Create())
}

// HandleGetSession returns the current session snapshot
func (h *SessionHandlerImpl) HandleGetSession(c echo.Context) error {
	snap, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, snap)
}

// HandleDeleteSession drops a session and its stored upload
func (h *SessionHandlerImpl) HandleDeleteSession(c echo.Context) error {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleSessionKeepAlive keeps an idle session from being cleaned up
func (h *SessionHandlerImpl) HandleSessionKeepAlive(c echo.Context) error {
	if err := h.sessions.Touch(c.Param("id")); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
