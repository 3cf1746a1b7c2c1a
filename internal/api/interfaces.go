// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"
	"io"

	"github.com/labstack/echo/v4"

	"github.com/transfer-studio/backend/internal/models"
)

// SessionHandler handles session lifecycle operations
type SessionHandler interface {
	HandleCreateSession(c echo.Context) error
	HandleGetSession(c echo.Context) error
	HandleDeleteSession(c echo.Context) error
	HandleSessionKeepAlive(c echo.Context) error
}

// UploadHandler handles file intake
type UploadHandler interface {
	HandleUploadFile(c echo.Context) error
	HandleUploadBase64(c echo.Context) error
	HandleGetPreview(c echo.Context) error
	HandleGetCSV(c echo.Context) error
}

// AnalysisHandler handles mock inference and its outputs
type AnalysisHandler interface {
	HandleAnalyze(c echo.Context) error
	HandleGetResult(c echo.Context) error
	HandleGetResultMsgpack(c echo.Context) error
	HandleDownloadReport(c echo.Context) error
}

// StatisticsHandler handles text statistics
type StatisticsHandler interface {
	HandleGetSessionStatistics(c echo.Context) error
	HandleComputeStatistics(c echo.Context) error
}

// HistoryHandler handles the analysis history
type HistoryHandler interface {
	HandleGetHistory(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// EventsHandler streams session snapshots over WebSocket
type EventsHandler interface {
	HandleSessionEvents(c echo.Context) error
}

// SessionManager defines the interface for session management
// This allows mocking in tests
type SessionManager interface {
	Create() *models.Session
	Get(id string) (*models.Session, error)
	Touch(id string) error
	Delete(id string) error
	Upload(id, name, mimeType string, r io.Reader) (*models.Session, error)
	Analyze(id string) (*models.Session, error)
	Wait(ctx context.Context, id string) (*models.Session, error)
	Subscribe(id string) (<-chan *models.Session, func(), error)
	OpenFile(id, fileID string) ([]byte, error)
	Count() int
}

// HistoryStore reads recorded analyses
type HistoryStore interface {
	Recent(ctx context.Context, limit int) ([]models.HistoryEntry, error)
	Count(ctx context.Context) (int, error)
}
