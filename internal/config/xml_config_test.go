package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_CreatesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.xml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err, "default config should be written")

	assert.Equal(t, 8089, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.GetInferenceDelay())
	assert.Equal(t, int64(10<<20), cfg.GetMaxUploadSize())
	assert.Equal(t, filepath.Join(dir, "data", "uploads"), cfg.GetUploadDir())
	assert.Equal(t, filepath.Join(dir, "data", "history.duckdb"), cfg.Storage.HistoryDatabase)
	assert.Equal(t, "0.0.0.0:8089", cfg.GetServerAddr())
	assert.Less(t, cfg.GetAnalyzeWait(), time.Duration(cfg.Server.WriteTimeout)*time.Second)
}

func TestLoadConfig_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.xml")
	xmlDoc := `<?xml version="1.0" encoding="UTF-8"?>
<TransferLearningStudio>
  <Server><Port>9000</Port><BindAddress>127.0.0.1</BindAddress></Server>
  <Inference><DelayMilliseconds>250</DelayMilliseconds></Inference>
  <Processing><MaxSessions>7</MaxSessions></Processing>
</TransferLearningStudio>`
	require.NoError(t, os.WriteFile(path, []byte(xmlDoc), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.GetServerAddr())
	assert.Equal(t, 250*time.Millisecond, cfg.GetInferenceDelay())
	assert.Equal(t, 7, cfg.Processing.MaxSessions)
	// sections missing from the file keep their defaults
	assert.Equal(t, "10M", cfg.Storage.MaxUploadSize)
	assert.Equal(t, 30, cfg.Processing.SessionTimeoutMinutes)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "elsewhere")
	t.Setenv("PORT", "9999")
	t.Setenv("DATA_DIR", dataDir)
	t.Setenv("STUDIO_LOG_LEVEL", "debug")
	t.Setenv("STUDIO_INFERENCE_DELAY_MS", "0")

	cfg, err := LoadConfig(filepath.Join(dir, "config.xml"))
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, dataDir, cfg.GetDataDir())
	assert.Equal(t, filepath.Join(dataDir, "uploads"), cfg.GetUploadDir())
	assert.Equal(t, "debug", cfg.Advanced.LogLevel)
	assert.Equal(t, time.Duration(0), cfg.GetInferenceDelay())
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		doc  string
	}{
		{"malformed xml", "<TransferLearningStudio><Server>"},
		{"bad port", "<TransferLearningStudio><Server><Port>70000</Port></Server></TransferLearningStudio>"},
		{"bad size", "<TransferLearningStudio><Storage><MaxUploadSize>lots</MaxUploadSize></Storage></TransferLearningStudio>"},
		{"zero size", "<TransferLearningStudio><Storage><MaxUploadSize>0</MaxUploadSize></Storage></TransferLearningStudio>"},
		{"overflowing size", "<TransferLearningStudio><Storage><MaxUploadSize>9999999999G</MaxUploadSize></Storage></TransferLearningStudio>"},
		{"analyze wait outlives write timeout", "<TransferLearningStudio><Server><WriteTimeoutSeconds>30</WriteTimeoutSeconds></Server><Processing><AnalyzeWaitSeconds>30</AnalyzeWaitSeconds></Processing></TransferLearningStudio>"},
		{"no analyze wait", "<TransferLearningStudio><Processing><AnalyzeWaitSeconds>0</AnalyzeWaitSeconds></Processing></TransferLearningStudio>"},
		{"unknown provider", "<TransferLearningStudio><Inference><Provider>openai</Provider></Inference></TransferLearningStudio>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".xml")
			require.NoError(t, os.WriteFile(path, []byte(tt.doc), 0644))
			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadConfig(filepath.Join(dir, "config.xml"))
	require.NoError(t, err)

	require.NoError(t, cfg.EnsureDirectories())
	for _, p := range []string{cfg.GetDataDir(), cfg.GetUploadDir()} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		err  bool
	}{
		{"512", 512, false},
		{"64K", 64 << 10, false},
		{"10M", 10 << 20, false},
		{"10MB", 10 << 20, false},
		{"2g", 2 << 30, false},
		{"", 0, true},
		{"-1", 0, true},
		{"ten", 0, true},
		{"1.5K", 1536, false},
		// wraps int64 when multiplied naively
		{"9999999999G", 0, true},
		{"99999999999G", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseSize(tt.in)
		if tt.err {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
