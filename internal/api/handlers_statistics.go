// handlers_statistics.go - Text statistics handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/transfer-studio/backend/internal/models"
	"github.com/transfer-studio/backend/internal/report"
	"github.com/transfer-studio/backend/internal/stats"
)

// StatisticsHandlerImpl implements the StatisticsHandler interface
type StatisticsHandlerImpl struct {
	sessions SessionManager
}

// NewStatisticsHandler creates a new statistics handler
func NewStatisticsHandler(sessions SessionManager) StatisticsHandler {
	return &StatisticsHandlerImpl{sessions: sessions}
}

// HandleGetSessionStatistics returns the statistics of the current file
func (h *StatisticsHandlerImpl) HandleGetSessionStatistics(c echo.Context) error {
	snap, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		return mapError(err)
	}
	if snap.File == nil {
		return mapError(models.ErrMissingInput)
	}
	if snap.Statistics == nil {
		return mapError(report.ErrNoStatistics)
	}
	return c.JSON(http.StatusOK, snap.Statistics)
}

// HandleComputeStatistics computes statistics for the posted text without
// touching any session
func (h *StatisticsHandlerImpl) HandleComputeStatistics(c echo.Context) error {
	var req statisticsRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats.Compute(req.Text))
}

type statisticsRequest struct {
	Text string `json:"text" validate:"max=1048576"`
}
