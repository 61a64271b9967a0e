package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity level of a log entry
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
	LevelFatal LogLevel = "fatal"
)

var levelOrder = map[LogLevel]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
	LevelFatal: 4,
}

// ParseLevel returns the level for s, defaulting to info
func ParseLevel(s string) LogLevel {
	level := LogLevel(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := levelOrder[level]; ok {
		return level
	}
	return LevelInfo
}

// SystemLog represents a structured system log entry
type SystemLog struct {
	Timestamp     time.Time      `json:"timestamp"`
	Level         LogLevel       `json:"level"`
	Message       string         `json:"message"`
	Component     string         `json:"component"`
	Function      string         `json:"function"`
	Line          int            `json:"line"`
	Provider      string         `json:"provider,omitempty"`
	RequestID     string         `json:"request_id,omitempty"`
	TransactionID string         `json:"transaction_id,omitempty"`
	Error         string         `json:"error,omitempty"`
	Fields        map[string]any `json:"fields,omitempty"`
	Environment   string         `json:"environment"`
	Service       string         `json:"service"`
	Version       string         `json:"version"`
}

// Shipper forwards log entries to a remote store such as OpenSearch
type Shipper interface {
	LogSystemEvent(ctx context.Context, entry any) error
}

// SystemLoggerConfig represents configuration for system logger
type SystemLoggerConfig struct {
	EnableConsole bool
	EnableShipper bool
	MinLevel      LogLevel
	Service       string
	Version       string
	Environment   string
	Output        io.Writer
}

// SystemLogger handles structured logging to the console and an optional shipper
type SystemLogger struct {
	shipper       Shipper
	enableConsole bool
	enableShipper bool
	minLevel      LogLevel
	service       string
	version       string
	environment   string
	out           io.Writer
	mu            sync.Mutex
}

// NewSystemLogger creates a new system logger
func NewSystemLogger(shipper Shipper, config SystemLoggerConfig) *SystemLogger {
	out := config.Output
	if out == nil {
		out = os.Stdout
	}
	return &SystemLogger{
		shipper:       shipper,
		enableConsole: config.EnableConsole,
		enableShipper: config.EnableShipper && shipper != nil,
		minLevel:      config.MinLevel,
		service:       config.Service,
		version:       config.Version,
		environment:   config.Environment,
		out:           out,
	}
}

// LogContext holds contextual information for logging
type LogContext struct {
	Provider      string
	RequestID     string
	TransactionID string
	Fields        map[string]any
}

// Debug logs a debug message
func (sl *SystemLogger) Debug(message string, ctx ...LogContext) {
	sl.log(LevelDebug, message, nil, ctx...)
}

// Info logs an info message
func (sl *SystemLogger) Info(message string, ctx ...LogContext) {
	sl.log(LevelInfo, message, nil, ctx...)
}

// Warn logs a warning message
func (sl *SystemLogger) Warn(message string, ctx ...LogContext) {
	sl.log(LevelWarn, message, nil, ctx...)
}

// Error logs an error message
func (sl *SystemLogger) Error(message string, err error, ctx ...LogContext) {
	sl.log(LevelError, message, err, ctx...)
}

// Fatal logs a fatal message and exits
func (sl *SystemLogger) Fatal(message string, err error, ctx ...LogContext) {
	sl.log(LevelFatal, message, err, ctx...)
	os.Exit(1)
}

func (sl *SystemLogger) log(level LogLevel, message string, err error, ctx ...LogContext) {
	if !sl.shouldLog(level) {
		return
	}

	function, file, line := caller(3)

	entry := SystemLog{
		Timestamp:   time.Now().UTC(),
		Level:       level,
		Message:     message,
		Component:   extractComponent(file),
		Function:    function,
		Line:        line,
		Environment: sl.environment,
		Service:     sl.service,
		Version:     sl.version,
	}

	if len(ctx) > 0 {
		entry.Provider = ctx[0].Provider
		entry.RequestID = ctx[0].RequestID
		entry.TransactionID = ctx[0].TransactionID
		entry.Fields = ctx[0].Fields
	}
	if err != nil {
		entry.Error = err.Error()
	}

	if sl.enableConsole {
		sl.logToConsole(entry)
	}

	if sl.enableShipper {
		go sl.ship(entry)
	}
}

func (sl *SystemLogger) shouldLog(level LogLevel) bool {
	return levelOrder[level] >= levelOrder[sl.minLevel]
}

func caller(skip int) (function, file string, line int) {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown", "unknown", 0
	}
	function = "unknown"
	if fn := runtime.FuncForPC(pc); fn != nil {
		function = fn.Name()
		if idx := strings.LastIndex(function, "."); idx != -1 {
			function = function[idx+1:]
		}
	}
	return function, file, line
}

// extractComponent turns /path/to/nepalpay/provider/esewa/esewa.go into provider/esewa
func extractComponent(file string) string {
	parts := strings.Split(file, "/")

	for i, part := range parts {
		if part == "nepalpay" && i+1 < len(parts) {
			if i+2 < len(parts)-1 {
				return parts[i+1] + "/" + parts[i+2]
			}
			return parts[i+1]
		}
	}

	if len(parts) >= 2 {
		return parts[len(parts)-2]
	}

	return "unknown"
}

var levelColors = map[LogLevel]string{
	LevelDebug: "\033[36m",
	LevelInfo:  "\033[32m",
	LevelWarn:  "\033[33m",
	LevelError: "\033[31m",
	LevelFatal: "\033[35m",
}

// logToConsole writes [TIMESTAMP] [LEVEL] [COMPONENT] [CONTEXT] MESSAGE followed by sorted fields
func (sl *SystemLogger) logToConsole(entry SystemLog) {
	const reset = "\033[0m"

	var contextParts []string
	if entry.Provider != "" {
		contextParts = append(contextParts, "provider="+entry.Provider)
	}
	if entry.TransactionID != "" {
		contextParts = append(contextParts, "txn="+entry.TransactionID)
	}
	if entry.RequestID != "" {
		id := entry.RequestID
		if len(id) > 8 {
			id = id[:8]
		}
		contextParts = append(contextParts, "req_id="+id)
	}

	logCtx := ""
	if len(contextParts) > 0 {
		logCtx = "[" + strings.Join(contextParts, " ") + "] "
	}

	errStr := ""
	if entry.Error != "" {
		errStr = " - Error: " + entry.Error
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] [%s] %s%s%s\n",
		entry.Timestamp.Format("2006-01-02 15:04:05"),
		levelColors[entry.Level]+strings.ToUpper(string(entry.Level))+reset,
		entry.Component,
		logCtx,
		entry.Message,
		errStr,
	)

	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "  %s: %v\n", k, entry.Fields[k])
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()
	_, _ = io.WriteString(sl.out, b.String())
}

func (sl *SystemLogger) ship(entry SystemLog) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sl.shipper.LogSystemEvent(ctx, entry); err != nil {
		log.Printf("Failed to ship log entry: %v", err)
	}
}

// WithContext creates a new logger with context
func (sl *SystemLogger) WithContext(ctx LogContext) *ContextLogger {
	return &ContextLogger{
		systemLogger: sl,
		context:      ctx,
	}
}

// ContextLogger wraps SystemLogger with a fixed context
type ContextLogger struct {
	systemLogger *SystemLogger
	context      LogContext
}

// Debug logs a debug message with context
func (cl *ContextLogger) Debug(message string) {
	cl.systemLogger.log(LevelDebug, message, nil, cl.context)
}

// Info logs an info message with context
func (cl *ContextLogger) Info(message string) {
	cl.systemLogger.log(LevelInfo, message, nil, cl.context)
}

// Warn logs a warning message with context
func (cl *ContextLogger) Warn(message string) {
	cl.systemLogger.log(LevelWarn, message, nil, cl.context)
}

// Error logs an error message with context
func (cl *ContextLogger) Error(message string, err error) {
	cl.systemLogger.log(LevelError, message, err, cl.context)
}

// AddField returns a copy of the logger with an extra field
func (cl *ContextLogger) AddField(key string, value any) *ContextLogger {
	fields := make(map[string]any, len(cl.context.Fields)+1)
	for k, v := range cl.context.Fields {
		fields[k] = v
	}
	fields[key] = value

	next := cl.context
	next.Fields = fields
	return &ContextLogger{systemLogger: cl.systemLogger, context: next}
}

// SetTransactionID returns a copy of the logger bound to a transaction
func (cl *ContextLogger) SetTransactionID(id string) *ContextLogger {
	next := cl.context
	next.TransactionID = id
	return &ContextLogger{systemLogger: cl.systemLogger, context: next}
}

// SetRequestID returns a copy of the logger bound to a request
func (cl *ContextLogger) SetRequestID(id string) *ContextLogger {
	next := cl.context
	next.RequestID = id
	return &ContextLogger{systemLogger: cl.systemLogger, context: next}
}
