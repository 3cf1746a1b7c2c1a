// handlers_analysis.go - Mock inference, results and report downloads
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/transfer-studio/backend/internal/models"
	"github.com/transfer-studio/backend/internal/report"
)

// DefaultAnalyzeWait bounds a blocking analyze request
const DefaultAnalyzeWait = 20 * time.Second

// AnalysisHandlerImpl implements the AnalysisHandler interface
type AnalysisHandlerImpl struct {
	sessions    SessionManager
	reports     *report.Generator
	analyzeWait time.Duration
	logger      *zap.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(sessions SessionManager, reports *report.Generator, analyzeWait time.Duration, logger *zap.Logger) AnalysisHandler {
	if reports == nil {
		reports = report.NewGenerator()
	}
	if analyzeWait <= 0 {
		analyzeWait = DefaultAnalyzeWait
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalysisHandlerImpl{
		sessions:    sessions,
		reports:     reports,
		analyzeWait: analyzeWait,
		logger:      logger,
	}
}

// HandleAnalyze starts mock inference. With ?wait=true the request blocks
// until the result is ready (or the wait limit passes).
func (h *AnalysisHandlerImpl) HandleAnalyze(c echo.Context) error {
	id := c.Param("id")

	snap, err := h.sessions.Analyze(id)
	if err != nil {
		return mapError(err)
	}

	if c.QueryParam("wait") != "true" {
		return c.JSON(http.StatusAccepted, snap)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.analyzeWait)
	defer cancel()

	done, err := h.sessions.Wait(ctx, id)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			current, getErr := h.sessions.Get(id)
			if getErr != nil {
				return mapError(getErr)
			}
			return c.JSON(http.StatusAccepted, current)
		}
		return mapError(err)
	}
	return c.JSON(http.StatusOK, done)
}

// HandleGetResult returns the analysis result as JSON
func (h *AnalysisHandlerImpl) HandleGetResult(c echo.Context) error {
	snap, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		return mapError(err)
	}
	if snap.Result == nil {
		return mapError(report.ErrNoResult)
	}
	return c.JSON(http.StatusOK, snap.Result)
}

// HandleGetResultMsgpack returns the analysis result as MessagePack
func (h *AnalysisHandlerImpl) HandleGetResultMsgpack(c echo.Context) error {
	snap, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		return mapError(err)
	}
	if snap.Result == nil {
		return mapError(report.ErrNoResult)
	}

	data, err := msgpack.Marshal(snap.Result)
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// HandleDownloadReport renders a report as an attachment.
// Query: kind=single|full|statistics (default full), format=txt|pdf (default txt).
func (h *AnalysisHandlerImpl) HandleDownloadReport(c echo.Context) error {
	id := c.Param("id")

	kind, err := report.ParseKind(c.QueryParam("kind"))
	if err != nil {
		return NewBadRequestError("invalid report kind", err)
	}

	format := strings.ToLower(c.QueryParam("format"))
	if format == "" {
		format = "txt"
	}
	if format != "txt" && format != "pdf" {
		return NewBadRequestError(fmt.Sprintf("unsupported report format: %s", format), nil)
	}

	snap, err := h.sessions.Get(id)
	if err != nil {
		return mapError(err)
	}

	doc, err := h.reports.Render(kind, report.Input{
		File:       snap.File,
		Result:     snap.Result,
		Statistics: snap.Statistics,
		Table:      snap.Table,
	})
	if err != nil {
		return mapError(err)
	}

	if format == "pdf" {
		doc, err = report.PDF(doc, h.reportImage(id, snap))
		if err != nil {
			return NewInternalError("failed to render pdf", err)
		}
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.FileName))
	return c.Blob(http.StatusOK, doc.ContentType, doc.Content)
}

// reportImage loads the image the snapshot refers to for PDF embedding.
// Failures, including a file already replaced by a newer upload, only drop
// the image.
func (h *AnalysisHandlerImpl) reportImage(id string, snap *models.Session) *report.Image {
	if snap.File == nil || !snap.File.IsImage() {
		return nil
	}
	data, err := h.sessions.OpenFile(id, snap.File.ID)
	if err != nil {
		h.logger.Warn("failed to load image for pdf report", zap.String("session", id), zap.Error(err))
		return nil
	}
	return &report.Image{Data: data, MIMEType: snap.File.MIMEType}
}
