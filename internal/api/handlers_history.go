// handlers_history.go - Analysis history handlers
package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// HeaderTotalCount reports the size of the full history
const HeaderTotalCount = "X-Total-Count"

// HistoryHandlerImpl implements the HistoryHandler interface
type HistoryHandlerImpl struct {
	history HistoryStore
}

// NewHistoryHandler creates a new history handler. A nil store disables
// the endpoint.
func NewHistoryHandler(history HistoryStore) HistoryHandler {
	return &HistoryHandlerImpl{history: history}
}

// HandleGetHistory returns recent completed analyses, newest first.
// X-Total-Count carries the number of recorded analyses.
func (h *HistoryHandlerImpl) HandleGetHistory(c echo.Context) error {
	if h.history == nil {
		return NewServiceUnavailableError("analysis history is disabled")
	}

	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			return NewValidationError("limit")
		}
		limit = n
	}

	entries, err := h.history.Recent(c.Request().Context(), limit)
	if err != nil {
		return NewInternalError("failed to read history", err)
	}
	total, err := h.history.Count(c.Request().Context())
	if err != nil {
		return NewInternalError("failed to count history", err)
	}
	c.Response().Header().Set(HeaderTotalCount, strconv.Itoa(total))
	return c.JSON(http.StatusOK, entries)
}
