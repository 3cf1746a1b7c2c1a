package logging

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		level, format string
		enabled       zapcore.Level
		wantErr       bool
	}{
		{"info", "json", zapcore.InfoLevel, false},
		{"DEBUG", "console", zapcore.DebugLevel, false},
		{"warn", "", zapcore.WarnLevel, false},
		{"loud", "json", 0, true},
		{"info", "xml", 0, true},
	}

	for _, tt := range tests {
		logger, err := New(tt.level, tt.format)
		if tt.wantErr {
			assert.Error(t, err, "%s/%s", tt.level, tt.format)
			continue
		}
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(tt.enabled))
		assert.False(t, logger.Core().Enabled(tt.enabled-1))
	}
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "report.txt", Sanitize("report\n.txt\x00"))
	assert.Equal(t, "héllo", Sanitize("héllo"))
	assert.Equal(t, "ab", Sanitize("a\xffb"))

	long := strings.Repeat("x", MaxFieldLength+10)
	got := Sanitize(long)
	assert.Equal(t, strings.Repeat("x", MaxFieldLength)+"...", got)
}
