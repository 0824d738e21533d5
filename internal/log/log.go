// Package log is the category logger for dvars. Entries are written to a
// file (or any writer) as single lines with a timestamp, level and category,
// and are republished on a broker so the inspector can tail them.
//
// The logger is disabled until Init or InitWriter is called, so library
// code can log unconditionally.
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/dvars/internal/pubsub"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel resolves "debug", "info", "warn" or "error".
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	default:
		return LevelInfo, false
	}
}

// Category groups related log messages.
type Category string

const (
	CatDvar    Category = "dvar"    // Registry diagnostics
	CatConfig  Category = "config"  // Configuration, archive and HCL loading
	CatDB      Category = "db"      // Snapshot store
	CatWatcher Category = "watcher" // File watcher events
	CatUI      Category = "ui"      // Inspector updates
	CatCache   Category = "cache"   // Cache operations
	CatTrace   Category = "trace"   // Tracing provider
	CatCLI     Category = "cli"     // Command execution
)

// Logger provides structured logging.
type Logger struct {
	mu       sync.Mutex
	closer   io.Closer
	writer   io.Writer
	enabled  bool
	minLevel Level
	broker   *pubsub.Broker[string]
}

var (
	loggerMu      sync.RWMutex
	defaultLogger *Logger
)

func install(w io.Writer, c io.Closer) func() {
	l := &Logger{
		closer:   c,
		writer:   w,
		enabled:  true,
		minLevel: LevelDebug,
		broker:   pubsub.NewBroker[string](),
	}
	loggerMu.Lock()
	defaultLogger = l
	loggerMu.Unlock()

	return func() {
		loggerMu.Lock()
		if defaultLogger == l {
			defaultLogger = nil
		}
		loggerMu.Unlock()
		l.broker.Close()
		if l.closer != nil {
			_ = l.closer.Close()
		}
	}
}

// Init opens path for appending and installs it as the global log.
// The returned function closes the file and disables logging.
func Init(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // G304: operator-chosen log path
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return install(f, f), nil
}

// InitWriter installs w as the global log. Used by tests and by the CLI
// when --log-stderr is set.
func InitWriter(w io.Writer) func() {
	return install(w, nil)
}

// InitWithTeaLog uses tea.LogToFile so the inspector can keep the terminal
// while logging to path.
func InitWithTeaLog(path string, prefix string) (func(), error) {
	f, err := tea.LogToFile(path, prefix)
	if err != nil {
		return nil, err
	}
	return install(f, f), nil
}

func current() *Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return defaultLogger
}

// SetEnabled toggles logging on/off.
func SetEnabled(enabled bool) {
	if l := current(); l != nil {
		l.mu.Lock()
		l.enabled = enabled
		l.mu.Unlock()
	}
}

// SetMinLevel sets the minimum log level.
func SetMinLevel(level Level) {
	if l := current(); l != nil {
		l.mu.Lock()
		l.minLevel = level
		l.mu.Unlock()
	}
}

// Debug logs at debug level.
func Debug(cat Category, msg string, fields ...any) {
	log(LevelDebug, cat, msg, fields...)
}

// Info logs at info level.
func Info(cat Category, msg string, fields ...any) {
	log(LevelInfo, cat, msg, fields...)
}

// Warn logs at warning level.
func Warn(cat Category, msg string, fields ...any) {
	log(LevelWarn, cat, msg, fields...)
}

// Error logs at error level.
func Error(cat Category, msg string, fields ...any) {
	log(LevelError, cat, msg, fields...)
}

// ErrorErr logs an error with the error value.
func ErrorErr(cat Category, msg string, err error, fields ...any) {
	if err != nil {
		fields = append(fields, "error", err.Error())
	} else {
		fields = append(fields, "error", "<nil>")
	}
	log(LevelError, cat, msg, fields...)
}

// format renders one entry:
// 2026-01-06T10:45:00 [WARN] [dvar] write protected dvar=r_mode source=external
func format(now time.Time, level Level, cat Category, msg string, fields []any) string {
	var sb strings.Builder
	sb.WriteString(now.Format("2006-01-02T15:04:05"))
	fmt.Fprintf(&sb, " [%s] [%s] %s", level, cat, msg)
	for i := 0; i+1 < len(fields); i += 2 {
		fmt.Fprintf(&sb, " %v=%v", fields[i], fields[i+1])
	}
	if len(fields)%2 != 0 {
		fmt.Fprintf(&sb, " %v=<missing>", fields[len(fields)-1])
	}
	sb.WriteByte('\n')
	return sb.String()
}

func log(level Level, cat Category, msg string, fields ...any) {
	l := current()
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled || level < l.minLevel {
		return
	}

	entry := format(time.Now(), level, cat, msg, fields)
	if l.writer != nil {
		_, _ = io.WriteString(l.writer, entry)
	}
	l.broker.Publish(pubsub.CreatedEvent, entry)
}

// LogEvent is a pubsub event containing a log entry.
type LogEvent = pubsub.Event[string]

// LogListener wraps a continuous listener for log events.
type LogListener = pubsub.ContinuousListener[string]

// NewListener subscribes to log entries until ctx is cancelled. It returns
// nil when logging is not initialized.
func NewListener(ctx context.Context) *LogListener {
	l := current()
	if l == nil {
		return nil
	}
	return pubsub.NewContinuousListener(ctx, l.broker)
}
