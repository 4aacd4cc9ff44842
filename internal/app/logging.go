package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity level of a log message.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

// String returns the upper-case level name.
func (l LogLevel) String() string {
	if l < LogLevelDebug || l > LogLevelError {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLogLevel parses a level name. Unknown names give LogLevelInfo.
func ParseLogLevel(s string) LogLevel {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "WARNING" {
		return LogLevelWarn
	}
	for i, name := range levelNames {
		if s == name {
			return LogLevel(i)
		}
	}
	return LogLevelInfo
}

// Logger writes leveled, timestamped lines. Loggers derived with
// WithComponent share the parent's output and level.
type Logger struct {
	sink      *logSink
	prefix    string
	component string
}

type logSink struct {
	mu    sync.Mutex
	level LogLevel
	out   io.Writer
	now   func() time.Time
}

// LoggerConfig configures the logger.
type LoggerConfig struct {
	// Level is the minimum log level to output.
	Level LogLevel
	// Output is where logs are written. Defaults to os.Stderr.
	Output io.Writer
	// Prefix is prepended to all log messages.
	Prefix string
}

// DefaultLoggerConfig returns the default logger configuration.
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{Level: LogLevelInfo, Output: os.Stderr, Prefix: "dropin"}
}

// NewLogger creates a new logger with the given configuration.
func NewLogger(cfg LoggerConfig) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	return &Logger{
		sink:   &logSink{level: cfg.Level, out: cfg.Output, now: time.Now},
		prefix: cfg.Prefix,
	}
}

// WithComponent returns a logger that tags its lines with component.
func (l *Logger) WithComponent(component string) *Logger {
	if l.component != "" {
		component = l.component + "." + component
	}
	return &Logger{sink: l.sink, prefix: l.prefix, component: component}
}

// Level returns the minimum level.
func (l *Logger) Level() LogLevel {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return l.sink.level
}

// SetLevel changes the minimum level for this logger and all loggers
// derived from the same root.
func (l *Logger) SetLevel(level LogLevel) {
	l.sink.mu.Lock()
	l.sink.level = level
	l.sink.mu.Unlock()
}

func (l *Logger) Debug(format string, args ...any) { l.log(LogLevelDebug, format, args) }
func (l *Logger) Info(format string, args ...any)  { l.log(LogLevelInfo, format, args) }
func (l *Logger) Warn(format string, args ...any)  { l.log(LogLevelWarn, format, args) }
func (l *Logger) Error(format string, args ...any) { l.log(LogLevelError, format, args) }

// log formats one line as
//
//	2006-01-02T15:04:05.000 [LEVEL] prefix: message {component=name}
func (l *Logger) log(level LogLevel, format string, args []any) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	if level < l.sink.level {
		return
	}

	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}

	var b strings.Builder
	b.WriteString(l.sink.now().Format("2006-01-02T15:04:05.000"))
	fmt.Fprintf(&b, " [%s] ", level)
	if l.prefix != "" {
		b.WriteString(l.prefix + ": ")
	}
	b.WriteString(msg)
	if l.component != "" {
		fmt.Fprintf(&b, " {component=%s}", l.component)
	}
	b.WriteByte('\n')

	_, _ = io.WriteString(l.sink.out, b.String())
}

// OpenLogFile opens path for appending, creating its directory.
func OpenLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
