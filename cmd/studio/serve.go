package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/transfer-studio/backend/internal/api"
	"github.com/transfer-studio/backend/internal/config"
	"github.com/transfer-studio/backend/internal/history"
	"github.com/transfer-studio/backend/internal/inference"
	"github.com/transfer-studio/backend/internal/logging"
	"github.com/transfer-studio/backend/internal/parser"
	"github.com/transfer-studio/backend/internal/report"
	"github.com/transfer-studio/backend/internal/session"
	"github.com/transfer-studio/backend/internal/storage"
	"github.com/transfer-studio/backend/internal/web"
)

const configFileName = "TransferLearningStudio.config"

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long:  "Serve the studio API, the session event stream and the embedded page",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				exePath, err := os.Executable()
				if err != nil {
					return fmt.Errorf("failed to get executable path: %w", err)
				}
				configPath = filepath.Join(filepath.Dir(exePath), configFileName)
			}
			return runServer(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the XML config file (default: next to the executable)")
	return cmd
}

func runServer(parent context.Context, configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg.Advanced.LogLevel, cfg.Advanced.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logging.Sync(logger) }()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	fileStore, err := storage.NewLocalStore(cfg.GetUploadDir())
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	profiles, err := loadProfiles(cfg.Inference.ProfilesFile)
	if err != nil {
		return err
	}
	provider, err := inference.NewMockProvider(profiles, cfg.GetInferenceDelay(),
		inference.WithLogger(logger.Named("inference")))
	if err != nil {
		return fmt.Errorf("failed to create inference provider: %w", err)
	}

	sessionOpts := []session.Option{
		session.WithLogger(logger.Named("session")),
		session.WithMaxSessions(cfg.Processing.MaxSessions),
	}

	// A nil interface disables the history endpoint
	var historyStore api.HistoryStore
	if cfg.Storage.EnableHistory {
		hist, err := history.Open(cfg.Storage.HistoryDatabase, logger.Named("history"))
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer hist.Close()
		historyStore = hist
		sessionOpts = append(sessionOpts, session.WithRecorder(hist))
	}

	registry := parser.NewRegistry(cfg.GetMaxUploadSize())
	sessionMgr := session.NewManager(registry, provider, fileStore, sessionOpts...)
	defer sessionMgr.Close()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessionMgr.StartCleanup(ctx, cfg.GetCleanupInterval(), cfg.GetSessionTimeout())

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	api.SetupMiddleware(e, api.MiddlewareConfig{
		Logger:               logger.Named("http"),
		EnableRequestLogging: cfg.Advanced.EnableRequestLogging,
		EnableCORS:           cfg.Server.EnableCORS,
		AllowOrigins:         strings.Split(cfg.Server.AllowOrigins, ","),
		BodyLimit:            cfg.Server.BodyLimit,
		Timeout:              time.Duration(cfg.Server.ReadTimeout) * time.Second,
	})

	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{
		SessionMgr:           sessionMgr,
		History:              historyStore,
		Reports:              report.NewGenerator(),
		Logger:               logger,
		Version:              Version,
		AnalyzeWait:          cfg.GetAnalyzeWait(),
		WebSocketMaxKB:       cfg.Advanced.WebSocketMaxMessageSize,
		AllowSessionDeletion: cfg.Security.AllowSessionDeletion,
	}))

	// Register embedded frontend if available
	if web.HasEmbeddedFiles() {
		if err := web.RegisterStaticRoutes(e); err != nil {
			logger.Warn("failed to register static routes", zap.Error(err))
		}
	}

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	logger.Info("starting transfer learning studio",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("config", configPath),
		zap.String("listen", cfg.GetServerAddr()),
		zap.String("data_dir", cfg.GetDataDir()),
		zap.Int64("max_upload_bytes", registry.MaxSize()),
		zap.Duration("inference_delay", cfg.GetInferenceDelay()),
		zap.Bool("history", historyStore != nil))

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- e.StartServer(s)
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// loadProfiles reads the configured profile file, falling back to the
// embedded defaults.
func loadProfiles(path string) (*inference.Profiles, error) {
	if path == "" {
		return inference.DefaultProfiles()
	}
	profiles, err := inference.LoadProfiles(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load inference profiles: %w", err)
	}
	return profiles, nil
}
