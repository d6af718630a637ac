package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ndxcli/internal/config"
)

func decodeLastLine(t *testing.T, content []byte) map[string]interface{} {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.NotEmpty(t, lines)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestInitializeLogger(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	logFile := filepath.Join(t.TempDir(), "logs", "test.log")
	cfg := config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logFile,
	}

	logger, err := InitializeLogger(cfg)
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.Same(t, logger, GetLogger())

	_, err = os.Stat(logFile)
	require.NoError(t, err, "log file should be created")

	logger.Info("test message", "key", "value")
	require.NoError(t, CloseLogFile())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)

	entry := decodeLastLine(t, content)
	assert.Equal(t, "test message", entry["msg"])
	assert.Equal(t, "value", entry["key"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestInitializeLogger_ConsoleWritesToConsoleWriter(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	var buf bytes.Buffer
	prev := consoleWriter
	consoleWriter = &buf
	defer func() { consoleWriter = prev }()

	logger, err := InitializeLogger(config.LoggingConfig{Level: "info", Output: "console"})
	require.NoError(t, err)

	logger.Info("to console")
	entry := decodeLastLine(t, buf.Bytes())
	assert.Equal(t, "to console", entry["msg"])
}

func TestTraceIDInjection(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, config.LoggingConfig{Level: "debug", Format: "json"})

	ctx := WithTraceID(context.Background(), "test-trace-123")
	logger.InfoContext(ctx, "test with trace")

	entry := decodeLastLine(t, buf.Bytes())
	assert.Equal(t, "test-trace-123", entry["trace_id"])

	buf.Reset()
	logger.With("component", "loader").InfoContext(ctx, "derived logger")
	entry = decodeLastLine(t, buf.Bytes())
	assert.Equal(t, "test-trace-123", entry["trace_id"])
	assert.Equal(t, "loader", entry["component"])
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level      string
		debugShown bool
		warnShown  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warn", false, true},
		{"error", false, false},
		{"bogus", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, config.LoggingConfig{Level: tt.level})

			logger.Debug("debug line")
			logger.Warn("warn line")

			out := buf.String()
			assert.Equal(t, tt.debugShown, strings.Contains(out, "debug line"))
			assert.Equal(t, tt.warnShown, strings.Contains(out, "warn line"))
		})
	}
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, config.LoggingConfig{Level: "info", Format: "text"})

	logger.Info("plain", "symbol", "AAPL")
	assert.Contains(t, buf.String(), "msg=plain")
	assert.Contains(t, buf.String(), "symbol=AAPL")
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetTraceID(nil)) //nolint:staticcheck

	ctx = EnsureTraceID(ctx)
	id := GetTraceID(ctx)
	require.NotEmpty(t, id)
	assert.Len(t, id, 36)

	assert.Equal(t, id, GetTraceID(EnsureTraceID(ctx)), "existing trace id is kept")
	assert.NotEqual(t, id, GenerateTraceID())
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := WithComponent(NewLogger(&buf, config.LoggingConfig{}), "enrichment")

	logger.Info("tagged")
	entry := decodeLastLine(t, buf.Bytes())
	assert.Equal(t, "enrichment", entry["component"])
}
