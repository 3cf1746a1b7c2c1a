// Package config provides XML-based configuration management.
package config

import (
	"encoding/xml"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"TransferLearningStudio"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Storage configuration
	Storage StorageConfig `xml:"Storage"`

	// Mock inference configuration
	Inference InferenceConfig `xml:"Inference"`

	// Session processing configuration
	Processing ProcessingConfig `xml:"Processing"`

	// Security configuration
	Security SecurityConfig `xml:"Security"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port"`
	BindAddress  string `xml:"BindAddress"`
	EnableCORS   bool   `xml:"EnableCORS"`
	AllowOrigins string `xml:"AllowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds"`
	BodyLimit    string `xml:"BodyLimit"`
}

// StorageConfig contains file storage settings
type StorageConfig struct {
	DataDirectory    string `xml:"DataDirectory"`
	UploadsDirectory string `xml:"UploadsDirectory"`
	HistoryDatabase  string `xml:"HistoryDatabase"`
	MaxUploadSize    string `xml:"MaxUploadSize"`
	EnableHistory    bool   `xml:"EnableHistory"`
}

// InferenceConfig contains mock inference settings
type InferenceConfig struct {
	Provider     string `xml:"Provider"`
	DelayMillis  int    `xml:"DelayMilliseconds"`
	ProfilesFile string `xml:"ProfilesFile"`
}

// ProcessingConfig contains session lifecycle settings
type ProcessingConfig struct {
	MaxSessions            int `xml:"MaxSessions"`
	SessionTimeoutMinutes  int `xml:"SessionTimeoutMinutes"`
	CleanupIntervalMinutes int `xml:"CleanupIntervalMinutes"`
	AnalyzeWaitSeconds     int `xml:"AnalyzeWaitSeconds"`
}

// SecurityConfig contains security settings
type SecurityConfig struct {
	AllowSessionDeletion bool `xml:"AllowSessionDeletion"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel                string `xml:"LogLevel"`
	LogFormat               string `xml:"LogFormat"`
	EnableRequestLogging    bool   `xml:"EnableRequestLogging"`
	WebSocketMaxMessageSize int    `xml:"WebSocketMaxMessageSizeKB"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8089,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  120,
			BodyLimit:    "20M",
		},
		Storage: StorageConfig{
			DataDirectory:    "./data",
			UploadsDirectory: "./data/uploads",
			HistoryDatabase:  "./data/history.duckdb",
			MaxUploadSize:    "10M",
			EnableHistory:    true,
		},
		Inference: InferenceConfig{
			Provider:     "mock",
			DelayMillis:  3000,
			ProfilesFile: "",
		},
		Processing: ProcessingConfig{
			MaxSessions:            100,
			SessionTimeoutMinutes:  30,
			CleanupIntervalMinutes: 5,
			AnalyzeWaitSeconds:     20,
		},
		Security: SecurityConfig{
			AllowSessionDeletion: true,
		},
		Advanced: AdvancedConfig{
			LogLevel:                "info",
			LogFormat:               "json",
			EnableRequestLogging:    true,
			WebSocketMaxMessageSize: 64,
		},
	}
}

// LoadConfig loads configuration from XML file. A missing file is created
// with the defaults.
func LoadConfig(configPath string) (*AppConfig, error) {
	var config *AppConfig

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config = DefaultConfig()
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		config = DefaultConfig()
		if err := xml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(configPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	header := []byte(xml.Header + "\n<!-- Transfer Learning Studio Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate rejects values the server cannot start with.
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	maxUpload, err := ParseSize(c.Storage.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("invalid MaxUploadSize: %w", err)
	}
	if maxUpload == 0 {
		return fmt.Errorf("invalid MaxUploadSize: must be greater than zero")
	}
	if c.Inference.DelayMillis < 0 {
		return fmt.Errorf("invalid inference delay: %d", c.Inference.DelayMillis)
	}
	// A blocking analyze request must answer before the server drops the
	// connection
	if c.Processing.AnalyzeWaitSeconds <= 0 {
		return fmt.Errorf("invalid AnalyzeWaitSeconds: %d", c.Processing.AnalyzeWaitSeconds)
	}
	if c.Server.WriteTimeout > 0 && c.Processing.AnalyzeWaitSeconds >= c.Server.WriteTimeout {
		return fmt.Errorf("AnalyzeWaitSeconds (%d) must be lower than WriteTimeoutSeconds (%d)",
			c.Processing.AnalyzeWaitSeconds, c.Server.WriteTimeout)
	}
	if c.Inference.Provider != "" && c.Inference.Provider != "mock" {
		return fmt.Errorf("unknown inference provider: %s", c.Inference.Provider)
	}
	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	// PORT override
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	// DATA_DIR moves every path that lives under the data directory
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
		c.Storage.UploadsDirectory = filepath.Join(dataDir, "uploads")
		c.Storage.HistoryDatabase = filepath.Join(dataDir, "history.duckdb")
	}

	if level := os.Getenv("STUDIO_LOG_LEVEL"); level != "" {
		c.Advanced.LogLevel = level
	}

	if delay := os.Getenv("STUDIO_INFERENCE_DELAY_MS"); delay != "" {
		if d, err := strconv.Atoi(delay); err == nil && d >= 0 {
			c.Inference.DelayMillis = d
		}
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	resolve := func(p *string) {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
	resolve(&c.Storage.DataDirectory)
	resolve(&c.Storage.UploadsDirectory)
	resolve(&c.Storage.HistoryDatabase)
	resolve(&c.Inference.ProfilesFile)
}

// GetDataDir returns the absolute data directory path
func (c *AppConfig) GetDataDir() string {
	return c.Storage.DataDirectory
}

// GetUploadDir returns the absolute uploads directory path
func (c *AppConfig) GetUploadDir() string {
	return c.Storage.UploadsDirectory
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// GetMaxUploadSize returns the upload limit in bytes. Validate has already
// rejected unparsable values.
func (c *AppConfig) GetMaxUploadSize() int64 {
	n, _ := ParseSize(c.Storage.MaxUploadSize)
	return n
}

// GetInferenceDelay returns the simulated inference duration
func (c *AppConfig) GetInferenceDelay() time.Duration {
	return time.Duration(c.Inference.DelayMillis) * time.Millisecond
}

// GetSessionTimeout returns how long idle sessions are kept
func (c *AppConfig) GetSessionTimeout() time.Duration {
	return time.Duration(c.Processing.SessionTimeoutMinutes) * time.Minute
}

// GetCleanupInterval returns how often idle sessions are swept
func (c *AppConfig) GetCleanupInterval() time.Duration {
	if c.Processing.CleanupIntervalMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Processing.CleanupIntervalMinutes) * time.Minute
}

// GetAnalyzeWait returns the longest a blocking analyze request may wait
func (c *AppConfig) GetAnalyzeWait() time.Duration {
	return time.Duration(c.Processing.AnalyzeWaitSeconds) * time.Second
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.UploadsDirectory,
	}
	if c.Storage.HistoryDatabase != "" {
		dirs = append(dirs, filepath.Dir(c.Storage.HistoryDatabase))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// ParseSize parses sizes such as "512", "64K", "10M", "10MB" or "2G".
// K, M and G are binary units, so "10M" is 10 MiB.
func ParseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}
	s = strings.TrimSuffix(s, "B")
	if strings.HasSuffix(s, "K") || strings.HasSuffix(s, "M") || strings.HasSuffix(s, "G") {
		s += "IB"
	}

	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("size too large: %q", s)
	}
	return int64(n), nil
}
