// internal/utils/logger_test.go
package utils

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"motion-service/internal/config"
)

func TestNewLoggerFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "motion.log")
	logger, err := NewLogger(&config.LoggingConfig{Level: "info", Format: "json", Output: path, MaxSize: 1})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("channel connected", zap.Int("channel", 3))
	require.NoError(t, CloseLogger(logger))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "channel connected", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.EqualValues(t, 3, entry["channel"])
	assert.Contains(t, entry, "timestamp")
}

func TestNewLoggerInvalidLevel(t *testing.T) {
	_, err := NewLogger(&config.LoggingConfig{Level: "chatty", Output: "stderr"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"debug", zapcore.DebugLevel},
		{" WARN ", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			level, err := parseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, level)
		})
	}
}

func TestChannelLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	cl := NewChannelLogger(zap.New(core), 4, "xps")

	cl.LogExchange("send_and_receive", "GroupStatusGet(GROUP1,int *)", "0,12", 1, time.Millisecond, nil)
	cl.LogExchange("send_and_receive", "GroupStatusGet(GROUP1,int *)", "0,12", 3, time.Millisecond, nil)
	cl.LogExchange("send_only", "GroupKill(GROUP1)", "-72", 1, time.Millisecond, errors.New("refused"))
	cl.LogConnection("connect", true, nil)

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "Channel exchange needed resend", entries[1].Message)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, zapcore.InfoLevel, entries[3].Level)

	fields := entries[1].ContextMap()
	assert.EqualValues(t, 4, fields["channel"])
	assert.Equal(t, "xps", fields["port"])
	assert.EqualValues(t, 3, fields["attempts"])
}

func TestServiceLoggerAPIRequestLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sl := NewServiceLogger(zap.New(core), "http")

	sl.LogAPIRequest("GET", "/health", "test", "127.0.0.1", 200, time.Millisecond)
	sl.LogAPIRequest("POST", "/api/v1/channels", "test", "127.0.0.1", 409, time.Millisecond)
	sl.LogAPIRequest("POST", "/api/v1/channels/:index/exchange", "test", "127.0.0.1", 502, time.Millisecond)

	levels := []zapcore.Level{}
	for _, e := range logs.AllUntimed() {
		levels = append(levels, e.Level)
	}
	assert.Equal(t, []zapcore.Level{zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}, levels)
}

func TestOperationLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	op := NewOperationLogger(zap.New(core), "scan", "op-1")

	op.Start()
	op.Error(errors.New("cancelled"))

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, "Operation started", entries[0].Message)
	assert.Equal(t, "op-1", entries[1].ContextMap()["operation_id"])
	assert.Equal(t, false, entries[1].ContextMap()["success"])
}
