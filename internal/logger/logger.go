package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

var defaultLogger *slog.Logger

// Initialize sets up the global logger with the specified level and format
func Initialize(level, format string) {
	InitializeWithWriter(os.Stdout, level, format)
}

// InitializeWithWriter is Initialize with an explicit destination. Tests use
// it to capture log output.
func InitializeWithWriter(w io.Writer, level, format string) {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn", "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// Get returns the process-wide logger, falling back to info/text when
// Initialize has not run (tests, tools).
func Get() *slog.Logger {
	if defaultLogger == nil {
		Initialize("info", "text")
	}
	return defaultLogger
}

func Debug(msg string, args ...any) { Get().Debug(msg, args...) }
func Info(msg string, args ...any)  { Get().Info(msg, args...) }
func Warn(msg string, args ...any)  { Get().Warn(msg, args...) }
func Error(msg string, args ...any) { Get().Error(msg, args...) }

// InfoContext and ErrorContext are used by the request layers.
func InfoContext(ctx context.Context, msg string, args ...any) {
	Get().InfoContext(ctx, msg, args...)
}

func ErrorContext(ctx context.Context, msg string, args ...any) {
	Get().ErrorContext(ctx, msg, args...)
}

// WithComponent returns a logger tagged with a background component name
// such as a scheduled job.
func WithComponent(component string) *slog.Logger {
	return Get().With("component", component)
}

// EnterMethod traces entry into a service or repository method at debug.
func EnterMethod(methodName string, args ...any) {
	Get().Debug("→ Method entered", append([]any{"method", methodName, "event", "enter"}, args...)...)
}

// ExitMethod traces a successful return at debug.
func ExitMethod(methodName string, args ...any) {
	Get().Debug("← Method exited", append([]any{"method", methodName, "event", "exit"}, args...)...)
}

// ExitMethodWithError records a failed ledger or repository call. Expected
// rejections (validation, insufficient stock) land here too.
func ExitMethodWithError(methodName string, err error, args ...any) {
	Get().Error("← Method exited with error", append([]any{"method", methodName, "event", "exit", "error", err}, args...)...)
}

// DatabaseCall traces a statement against the items, allocations or
// stock_alerts tables.
func DatabaseCall(operation, query string, args ...any) {
	Get().Debug("→ Database call", append([]any{"operation", operation, "query", query}, args...)...)
}

// DatabaseResult traces the outcome of a DatabaseCall. Failures go to error.
func DatabaseResult(operation string, rowsAffected int64, err error, args ...any) {
	traceResult("Database call", err, append([]any{"operation", operation, "rows_affected", rowsAffected}, args...))
}

// ExternalServiceCall traces a call to an alert channel or the notifier.
func ExternalServiceCall(service, operation string, args ...any) {
	Get().Debug("→ External service call", append([]any{"service", service, "operation", operation}, args...)...)
}

// ExternalServiceResult traces the outcome of an ExternalServiceCall.
func ExternalServiceResult(service, operation string, err error, args ...any) {
	traceResult("External service call", err, append([]any{"service", service, "operation", operation}, args...))
}

func traceResult(what string, err error, args []any) {
	if err != nil {
		Get().Error("← "+what+" failed", append(args, "error", err)...)
		return
	}
	Get().Debug("← "+what+" succeeded", args...)
}

// StockAlert logs a low-stock condition at warn level so it stays visible
// when debug tracing is off.
func StockAlert(itemID int32, itemName string, stockLevel, threshold int32, args ...any) {
	allArgs := append([]any{"item_id", itemID, "item_name", itemName, "stock_level", stockLevel, "minimum_threshold", threshold}, args...)
	Get().Warn("Stock at or below minimum threshold", allArgs...)
}
