package logger

import (
	"sync"

	"github.com/mstgnz/nepalpay/infra/config"
)

var (
	globalLogger *SystemLogger
	mu           sync.Mutex
	once         sync.Once
)

// InitGlobalLogger initializes the global system logger.
// The level comes from LOGGING_LEVEL, falling back to debug in development.
func InitGlobalLogger(shipper Shipper) {
	once.Do(func() {
		environment := config.GetEnv("APP_ENV", "development")
		level := config.GetEnv("LOGGING_LEVEL", "")

		cfg := SystemLoggerConfig{
			EnableConsole: true,
			EnableShipper: shipper != nil,
			MinLevel:      LevelInfo,
			Service:       "nepalpay",
			Version:       "1.0.0",
			Environment:   environment,
		}

		if environment == "development" {
			cfg.MinLevel = LevelDebug
		}
		if level != "" {
			cfg.MinLevel = ParseLevel(level)
		}

		mu.Lock()
		globalLogger = NewSystemLogger(shipper, cfg)
		mu.Unlock()
	})
}

// SetGlobalLogger replaces the global logger
func SetGlobalLogger(l *SystemLogger) {
	mu.Lock()
	defer mu.Unlock()
	globalLogger = l
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *SystemLogger {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger == nil {
		// console-only until InitGlobalLogger runs
		globalLogger = NewSystemLogger(nil, SystemLoggerConfig{
			EnableConsole: true,
			MinLevel:      LevelInfo,
			Service:       "nepalpay",
			Version:       "1.0.0",
			Environment:   "development",
		})
	}
	return globalLogger
}

// Debug logs a debug message using the global logger
func Debug(message string, ctx ...LogContext) {
	GetGlobalLogger().Debug(message, ctx...)
}

// Info logs an info message using the global logger
func Info(message string, ctx ...LogContext) {
	GetGlobalLogger().Info(message, ctx...)
}

// Warn logs a warning message using the global logger
func Warn(message string, ctx ...LogContext) {
	GetGlobalLogger().Warn(message, ctx...)
}

// Error logs an error message using the global logger
func Error(message string, err error, ctx ...LogContext) {
	GetGlobalLogger().Error(message, err, ctx...)
}

// Fatal logs a fatal message using the global logger and exits
func Fatal(message string, err error, ctx ...LogContext) {
	GetGlobalLogger().Fatal(message, err, ctx...)
}

// WithContext creates a context logger from the global logger
func WithContext(ctx LogContext) *ContextLogger {
	return GetGlobalLogger().WithContext(ctx)
}

// WithProvider creates a context logger with provider
func WithProvider(provider string) *ContextLogger {
	return WithContext(LogContext{Provider: provider})
}

// WithTransaction creates a context logger bound to a provider transaction
func WithTransaction(provider, transactionID string) *ContextLogger {
	return WithContext(LogContext{
		Provider:      provider,
		TransactionID: transactionID,
	})
}
