// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/transfer-studio/backend/internal/report"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	SessionMgr           SessionManager
	History              HistoryStore
	Reports              *report.Generator
	Logger               *zap.Logger
	Version              string
	AnalyzeWait          time.Duration
	WebSocketMaxKB       int
	AllowSessionDeletion bool
}

// Handlers holds all handler instances
type Handlers struct {
	Health     HealthHandler
	Session    SessionHandler
	Upload     UploadHandler
	Analysis   AnalysisHandler
	Statistics StatisticsHandler
	History    HistoryHandler
	Events     EventsHandler

	allowSessionDeletion bool
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		Health:     NewHealthHandler(deps.Version, deps.SessionMgr),
		Session:    NewSessionHandler(deps.SessionMgr),
		Upload:     NewUploadHandler(deps.SessionMgr),
		Analysis:   NewAnalysisHandler(deps.SessionMgr, deps.Reports, deps.AnalyzeWait, logger.Named("api")),
		Statistics: NewStatisticsHandler(deps.SessionMgr),
		History:    NewHistoryHandler(deps.History),
		Events:     NewWebSocketHandler(deps.SessionMgr, deps.WebSocketMaxKB, logger.Named("ws")),

		allowSessionDeletion: deps.AllowSessionDeletion,
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	apiGroup := e.Group("/api")

	// Health check
	apiGroup.GET("/health", handlers.Health.HandleHealth)

	// Session routes
	sessionGroup := apiGroup.Group("/sessions")
	sessionGroup.POST("", handlers.Session.HandleCreateSession)
	sessionGroup.GET("/:id", handlers.Session.HandleGetSession)
	if handlers.allowSessionDeletion {
		sessionGroup.DELETE("/:id", handlers.Session.HandleDeleteSession)
	}
	sessionGroup.POST("/:id/keepalive", handlers.Session.HandleSessionKeepAlive)

	// Intake
	sessionGroup.POST("/:id/file", handlers.Upload.HandleUploadFile)
	sessionGroup.POST("/:id/file/base64", handlers.Upload.HandleUploadBase64)
	sessionGroup.GET("/:id/preview", handlers.Upload.HandleGetPreview)
	sessionGroup.GET("/:id/csv", handlers.Upload.HandleGetCSV)
	sessionGroup.GET("/:id/statistics", handlers.Statistics.HandleGetSessionStatistics)

	// Analysis and reports
	sessionGroup.POST("/:id/analyze", handlers.Analysis.HandleAnalyze)
	sessionGroup.GET("/:id/result", handlers.Analysis.HandleGetResult)
	sessionGroup.GET("/:id/result/msgpack", handlers.Analysis.HandleGetResultMsgpack)
	sessionGroup.GET("/:id/report", handlers.Analysis.HandleDownloadReport)

	// Stateless statistics and history
	apiGroup.POST("/statistics", handlers.Statistics.HandleComputeStatistics)
	apiGroup.GET("/history", handlers.History.HandleGetHistory)

	// WebSocket session events
	apiGroup.GET("/ws/sessions/:id", handlers.Events.HandleSessionEvents)
}

// MiddlewareConfig selects the optional middleware
type MiddlewareConfig struct {
	Logger               *zap.Logger
	EnableRequestLogging bool
	EnableCORS           bool
	AllowOrigins         []string
	BodyLimit            string
	Timeout              time.Duration
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, cfg MiddlewareConfig) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// Use custom error handler
	e.HTTPErrorHandler = ErrorHandler
	e.Validator = NewRequestValidator()

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("handler panicked",
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
				zap.ByteString("stack", stack))
			return err
		},
	}))

	if cfg.EnableRequestLogging {
		e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
			Skipper: func(c echo.Context) bool {
				path := c.Request().URL.Path
				return path == "/api/health" || strings.HasSuffix(path, "/keepalive")
			},
			LogMethod:   true,
			LogURI:      true,
			LogStatus:   true,
			LogLatency:  true,
			LogRemoteIP: true,
			LogError:    true,
			HandleError: true,
			LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
				fields := []zap.Field{
					zap.String("method", v.Method),
					zap.String("uri", v.URI),
					zap.Int("status", v.Status),
					zap.Duration("latency", v.Latency),
					zap.String("remote_ip", v.RemoteIP),
				}
				if v.Error != nil {
					logger.Warn("request failed", append(fields, zap.Error(v.Error))...)
					return nil
				}
				logger.Info("request", fields...)
				return nil
			},
		}))
	}

	if cfg.Timeout > 0 {
		e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
			Timeout: cfg.Timeout,
			Skipper: func(c echo.Context) bool {
				return skipTimeout(c.Request().URL.Path)
			},
			ErrorMessage: "Request timeout",
		}))
	}

	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}

	if cfg.EnableCORS {
		origins := make([]string, 0, len(cfg.AllowOrigins))
		for _, o := range cfg.AllowOrigins {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:  origins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
			ExposeHeaders: []string{echo.HeaderContentDisposition, HeaderTotalCount},
		}))
	}
}

// skipTimeout reports whether a path streams, uploads or blocks on analysis
// and so runs under the server write timeout only.
func skipTimeout(path string) bool {
	return strings.Contains(path, "/ws/") ||
		strings.HasSuffix(path, "/analyze") ||
		strings.HasSuffix(path, "/file") ||
		strings.HasSuffix(path, "/file/base64")
}
