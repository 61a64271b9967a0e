package logger

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingShipper struct {
	mu      sync.Mutex
	entries []any
	done    chan struct{}
}

func newRecordingShipper() *recordingShipper {
	return &recordingShipper{done: make(chan struct{}, 10)}
}

func (r *recordingShipper) LogSystemEvent(_ context.Context, entry any) error {
	r.mu.Lock()
	r.entries = append(r.entries, entry)
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

func quietConfig(level LogLevel) SystemLoggerConfig {
	return SystemLoggerConfig{
		EnableConsole: false,
		MinLevel:      level,
		Service:       "test-service",
		Version:       "1.0.0",
		Environment:   "test",
	}
}

func TestNewSystemLogger(t *testing.T) {
	config := SystemLoggerConfig{
		EnableConsole: true,
		EnableShipper: true,
		MinLevel:      LevelInfo,
		Service:       "test-service",
		Version:       "1.0.0",
		Environment:   "test",
	}

	logger := NewSystemLogger(nil, config)

	assert.NotNil(t, logger)
	assert.True(t, logger.enableConsole)
	assert.False(t, logger.enableShipper, "shipping needs a shipper")
	assert.Equal(t, LevelInfo, logger.minLevel)
	assert.Equal(t, "test-service", logger.service)
	assert.Equal(t, "1.0.0", logger.version)
	assert.Equal(t, "test", logger.environment)
}

func TestSystemLogger_LogLevels(t *testing.T) {
	logger := NewSystemLogger(nil, quietConfig(LevelDebug))

	logger.Debug("Debug message")
	logger.Info("Info message")
	logger.Warn("Warning message")
	logger.Error("Error message", errors.New("test error"))
}

func TestSystemLogger_ShouldLog(t *testing.T) {
	tests := []struct {
		name     string
		minLevel LogLevel
		level    LogLevel
		expected bool
	}{
		{"debug_level_allows_all", LevelDebug, LevelDebug, true},
		{"info_level_blocks_debug", LevelInfo, LevelDebug, false},
		{"info_level_allows_info", LevelInfo, LevelInfo, true},
		{"warn_level_allows_error", LevelWarn, LevelError, true},
		{"error_level_blocks_warn", LevelError, LevelWarn, false},
		{"fatal_level_allows_fatal", LevelFatal, LevelFatal, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewSystemLogger(nil, quietConfig(tt.minLevel))
			assert.Equal(t, tt.expected, logger.shouldLog(tt.level))
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel(" WARN "))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
	assert.Equal(t, LevelInfo, ParseLevel(""))
}

func TestExtractComponent(t *testing.T) {
	tests := []struct {
		name     string
		filePath string
		expected string
	}{
		{"provider_file", "/path/to/nepalpay/provider/esewa/esewa.go", "provider/esewa"},
		{"handler_file", "/path/to/nepalpay/handler/payment.go", "handler"},
		{"unknown_file", "/some/other/path/file.go", "path"},
		{"single_part", "file.go", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractComponent(tt.filePath))
		})
	}
}

func TestContextLogger(t *testing.T) {
	systemLogger := NewSystemLogger(nil, quietConfig(LevelDebug))

	ctx := LogContext{Provider: "esewa"}
	contextLogger := systemLogger.WithContext(ctx)

	require.NotNil(t, contextLogger)
	assert.Equal(t, systemLogger, contextLogger.systemLogger)
	assert.Equal(t, ctx, contextLogger.context)

	contextLogger.Debug("Debug message")
	contextLogger.Info("Info message")
	contextLogger.Warn("Warning message")
	contextLogger.Error("Error message", errors.New("test error"))

	derived := contextLogger.AddField("key", "value").
		SetTransactionID("TXN-1").
		SetRequestID("req-456")

	assert.Equal(t, "esewa", derived.context.Provider)
	assert.Equal(t, "TXN-1", derived.context.TransactionID)
	assert.Equal(t, "req-456", derived.context.RequestID)
	assert.Equal(t, "value", derived.context.Fields["key"])

	// the original stays untouched
	assert.Empty(t, contextLogger.context.TransactionID)
	assert.Nil(t, contextLogger.context.Fields)
}

func TestSystemLogger_LogToConsole(t *testing.T) {
	var buf bytes.Buffer
	config := quietConfig(LevelDebug)
	config.EnableConsole = true
	config.Output = &buf

	logger := NewSystemLogger(nil, config)
	logger.Info("Test console message", LogContext{
		Provider:      "khalti",
		TransactionID: "TXN-9",
		RequestID:     "0123456789abcdef",
		Fields:        map[string]any{"b": 2, "a": 1},
	})

	output := buf.String()
	assert.Contains(t, output, "Test console message")
	assert.Contains(t, output, "INFO")
	assert.Contains(t, output, "provider=khalti")
	assert.Contains(t, output, "txn=TXN-9")
	assert.Contains(t, output, "req_id=01234567")
	assert.NotContains(t, output, "req_id=0123456789")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("  a: 1")), bytes.Index(buf.Bytes(), []byte("  b: 2")))
}

func TestSystemLogger_BelowMinLevelIsDropped(t *testing.T) {
	var buf bytes.Buffer
	config := quietConfig(LevelWarn)
	config.EnableConsole = true
	config.Output = &buf

	logger := NewSystemLogger(nil, config)
	logger.Info("hidden")

	assert.Empty(t, buf.String())
}

func TestSystemLogger_Shipper(t *testing.T) {
	shipper := newRecordingShipper()
	config := quietConfig(LevelDebug)
	config.EnableShipper = true

	logger := NewSystemLogger(shipper, config)
	logger.Error("shipped", errors.New("boom"), LogContext{Provider: "imepay"})

	select {
	case <-shipper.done:
	case <-time.After(2 * time.Second):
		t.Fatal("entry was not shipped")
	}

	shipper.mu.Lock()
	defer shipper.mu.Unlock()
	require.Len(t, shipper.entries, 1)

	entry, ok := shipper.entries[0].(SystemLog)
	require.True(t, ok)
	assert.Equal(t, LevelError, entry.Level)
	assert.Equal(t, "shipped", entry.Message)
	assert.Equal(t, "boom", entry.Error)
	assert.Equal(t, "imepay", entry.Provider)
	assert.Equal(t, "test-service", entry.Service)
}
