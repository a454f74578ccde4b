package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/AbdelilahOu/simplesql/internal/config"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[LogLevel]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

var slogLevels = map[LogLevel]slog.Level{
	DEBUG: slog.LevelDebug,
	INFO:  slog.LevelInfo,
	WARN:  slog.LevelWarn,
	ERROR: slog.LevelError,
}

// Logger writes leveled text records to the console, a file, or both.
type Logger struct {
	slogger *slog.Logger
	level   LogLevel
	logFile *os.File
}

func ParseLogLevel(level string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

func LogLevelString(level LogLevel) string {
	if name, exists := levelNames[level]; exists {
		return name
	}
	return "INFO"
}

func ConfigFromLoggingConfig(logCfg config.LoggingConfig) Config {
	return Config{
		Level:      ParseLogLevel(logCfg.Level),
		OutputFile: logCfg.OutputFile,
		MaxSize:    logCfg.MaxSizeMB,
		Console:    logCfg.Console,
	}
}

type Config struct {
	Level      LogLevel
	OutputFile string
	// MaxSize is the size in MB past which the file is rotated on open.
	MaxSize int64
	Console bool
	// Writer replaces the console stream when set.
	Writer io.Writer
}

var (
	mu           sync.RWMutex
	globalLogger *Logger
)

func Initialize(cfg Config) error {
	logger, err := NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	mu.Lock()
	old := globalLogger
	globalLogger = logger
	mu.Unlock()
	if old != nil {
		old.Close()
	}
	return nil
}

func NewLogger(cfg Config) (*Logger, error) {
	logger := &Logger{level: cfg.Level}

	var writers []io.Writer
	if cfg.Writer != nil {
		writers = append(writers, cfg.Writer)
	} else if cfg.Console {
		// stdout carries command output and the MCP stdio transport.
		writers = append(writers, os.Stderr)
	}

	if cfg.OutputFile != "" {
		dir := filepath.Dir(cfg.OutputFile)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory: %w", err)
			}
		}

		if cfg.MaxSize > 0 {
			if err := rotateLogIfNeeded(cfg.OutputFile, cfg.MaxSize*1024*1024); err != nil {
				return nil, fmt.Errorf("failed to rotate log: %w", err)
			}
		}

		file, err := os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logger.logFile = file
		writers = append(writers, file)
	}

	var writer io.Writer
	switch len(writers) {
	case 0:
		writer = io.Discard
	case 1:
		writer = writers[0]
	default:
		writer = io.MultiWriter(writers...)
	}

	opts := &slog.HandlerOptions{Level: slogLevels[cfg.Level]}
	logger.slogger = slog.New(slog.NewTextHandler(writer, opts))
	return logger, nil
}

func rotateLogIfNeeded(filename string, maxSize int64) error {
	info, err := os.Stat(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if info.Size() >= maxSize {
		timestamp := time.Now().Format("20060102-150405")
		backupName := fmt.Sprintf("%s.%s", filename, timestamp)
		if err := os.Rename(filename, backupName); err != nil {
			return fmt.Errorf("failed to rotate log file: %w", err)
		}
	}

	return nil
}

func (l *Logger) Close() error {
	if l.logFile != nil {
		return l.logFile.Close()
	}
	return nil
}

// Slog exposes the underlying structured logger.
func (l *Logger) Slog() *slog.Logger { return l.slogger }
func (l *Logger) Level() LogLevel    { return l.level }

func (l *Logger) Debug(msg string, args ...any) { l.slogger.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.slogger.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.slogger.Warn(msg, args...) }

func (l *Logger) Error(msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err.Error())
	}
	l.slogger.Error(msg, args...)
}

func current() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return globalLogger
}

func Debug(msg string, args ...any) {
	if l := current(); l != nil {
		l.Debug(msg, args...)
	}
}

func Info(msg string, args ...any) {
	if l := current(); l != nil {
		l.Info(msg, args...)
	}
}

func Warn(msg string, args ...any) {
	if l := current(); l != nil {
		l.Warn(msg, args...)
	}
}

func Error(msg string, err error, args ...any) {
	if l := current(); l != nil {
		l.Error(msg, err, args...)
	}
}

// Slog returns the global structured logger, or one that discards
// everything before Initialize has run.
func Slog() *slog.Logger {
	if l := current(); l != nil {
		return l.Slog()
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func LogToolCall(toolName string, err error) {
	if err != nil {
		Error("tool call failed", err, "tool", toolName)
	} else {
		Info("tool call completed", "tool", toolName)
	}
}

func LogDatabaseOperation(operation, query string, rowsAffected int64, err error) {
	sanitizedQuery := query
	if len(sanitizedQuery) > 100 {
		sanitizedQuery = sanitizedQuery[:100] + "..."
	}

	if err != nil {
		Error("database operation failed", err, "operation", operation, "query", sanitizedQuery)
		return
	}
	if rowsAffected > 0 {
		Info("database operation completed", "operation", operation, "query", sanitizedQuery, "rows_affected", rowsAffected)
	} else {
		Info("database operation completed", "operation", operation, "query", sanitizedQuery)
	}
}

func LogConnectionEvent(event, server, driver string, err error) {
	if err != nil {
		Error("connection event failed", err, "event", event, "server", server, "driver", driver)
	} else {
		Info("connection event completed", "event", event, "server", server, "driver", driver)
	}
}

func GetGlobalLogger() *Logger {
	return current()
}

func Shutdown() error {
	mu.Lock()
	l := globalLogger
	globalLogger = nil
	mu.Unlock()
	if l != nil {
		return l.Close()
	}
	return nil
}
