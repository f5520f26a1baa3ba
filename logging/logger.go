package logging

import (
	"io"
	"log/slog"
	"os"
	"time"
)

// LogLevel represents different logging levels.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger defines the minimal logging interface. Args are alternating
// key/value pairs, exactly as log/slog takes them.
// This allows users to provide their own logger implementation or use the built-in adapters.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewDefaultSlogLogger creates a Logger using slog.Default().
func NewDefaultSlogLogger() Logger {
	return NewSlogAdapter(slog.Default())
}

// RunLogger is a slog-backed Logger carrying run-scoped attributes.
// The With* helpers return scoped copies that attach their attributes
// to every subsequent entry.
type RunLogger struct {
	logger *slog.Logger
}

// LoggerConfig configures construction of a RunLogger.
type LoggerConfig struct {
	Level     LogLevel
	Format    string // json or text
	Output    io.Writer
	AddSource bool
}

// DefaultLoggerConfig returns a baseline JSON info level configuration.
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{Level: LogLevelInfo, Format: "json", Output: os.Stdout}
}

// NewLogger builds a RunLogger from a config (or defaults if nil).
func NewLogger(cfg *LoggerConfig) *RunLogger {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level), AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	return &RunLogger{logger: slog.New(handler)}
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithComponent returns a copy scoped to a logical component
// (coordinator, binder, runtime, etc.).
func (l *RunLogger) WithComponent(component string) *RunLogger {
	return &RunLogger{logger: l.logger.With("component", component)}
}

// WithConversation returns a copy scoped to a conversation and turn.
func (l *RunLogger) WithConversation(conversationID, turnID string) *RunLogger {
	return &RunLogger{logger: l.logger.With("conversation_id", conversationID, "turn_id", turnID)}
}

// Debug logs at debug level.
func (l *RunLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }

// Info logs at info level.
func (l *RunLogger) Info(msg string, args ...any) { l.logger.Info(msg, args...) }

// Warn logs at warn level.
func (l *RunLogger) Warn(msg string, args ...any) { l.logger.Warn(msg, args...) }

// Error logs at error level.
func (l *RunLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

// Scope attaches conversation identifiers when the logger supports it
// and returns the logger unchanged otherwise.
func Scope(l Logger, conversationID, turnID string) Logger {
	if rl, ok := l.(*RunLogger); ok {
		return rl.WithConversation(conversationID, turnID)
	}
	return l
}

// LogToolCall records one tool invocation outcome with its latency.
func LogToolCall(l Logger, agentName, toolName string, dur time.Duration, err error) {
	if err != nil {
		l.Error("tool.call.failed", "agent", agentName, "tool", toolName, "duration", dur, "error", err)
		return
	}
	l.Debug("tool.call.completed", "agent", agentName, "tool", toolName, "duration", dur)
}

// LogTurn records aggregate metrics for a completed turn.
func LogTurn(l Logger, agentName string, rounds int, dur time.Duration, err error) {
	if err != nil {
		l.Error("turn.failed", "agent", agentName, "rounds", rounds, "duration", dur, "error", err)
		return
	}
	l.Info("turn.completed", "agent", agentName, "rounds", rounds, "duration", dur)
}

// NoOpLogger discards all log messages. Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}

// NewSlogLogger creates a new RunLogger with the specified configuration.
func NewSlogLogger(level LogLevel, format string, addSource bool) *RunLogger {
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	if format != "" {
		cfg.Format = format
	}
	cfg.AddSource = addSource
	return NewLogger(cfg)
}
