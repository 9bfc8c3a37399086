package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

// slogLevels maps each LogLevel onto the handler level; FATAL logs as error
var slogLevels = map[LogLevel]slog.Level{
	DEBUG: slog.LevelDebug,
	INFO:  slog.LevelInfo,
	WARN:  slog.LevelWarn,
	ERROR: slog.LevelError,
	FATAL: slog.LevelError,
}

var levelNames = map[string]LogLevel{
	"debug":   DEBUG,
	"info":    INFO,
	"warn":    WARN,
	"warning": WARN,
	"error":   ERROR,
	"fatal":   FATAL,
}

const (
	defaultMaxSize    = 10 << 20
	defaultMaxBackups = 3
)

// Config holds logger configuration
type Config struct {
	Level      LogLevel
	OutputFile string    // Log file path; empty logs to the console only
	MaxSize    int64     // Rotate the file once it reaches this many bytes
	MaxBackups int       // Rotated files kept as OutputFile.1 .. OutputFile.N
	JSONFormat bool      // JSON lines instead of key=value text
	AddSource  bool      // Annotate records with file:line
	Output     io.Writer // Console writer; stdout is reserved for diagram text, so stderr by default
}

// Logger is an slog.Logger that may also own a rotated log file
type Logger struct {
	slog  *slog.Logger
	level LogLevel
	path  string
	mu    sync.Mutex
	file  *os.File
}

var (
	globalLogger *Logger
	once         sync.Once
)

// Initialize installs the process-wide logger and makes it the slog
// default. Later calls are no-ops.
func Initialize(config Config) error {
	var initErr error
	once.Do(func() {
		logger, err := NewLogger(config)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize logger: %w", err)
			return
		}
		globalLogger = logger
		slog.SetDefault(logger.slog)
	})
	return initErr
}

// NewLogger builds a logger writing to config.Output and, when set,
// config.OutputFile
func NewLogger(config Config) (*Logger, error) {
	if config.MaxSize == 0 {
		config.MaxSize = defaultMaxSize
	}
	if config.MaxBackups == 0 {
		config.MaxBackups = defaultMaxBackups
	}
	console := config.Output
	if console == nil {
		console = os.Stderr
	}

	l := &Logger{level: config.Level, path: config.OutputFile}
	out := console
	if config.OutputFile != "" {
		file, err := openRotated(config.OutputFile, config.MaxSize, config.MaxBackups)
		if err != nil {
			return nil, err
		}
		l.file = file
		out = io.MultiWriter(console, file)
	}

	opts := &slog.HandlerOptions{Level: levelFor(config.Level), AddSource: config.AddSource}
	if config.JSONFormat {
		l.slog = slog.New(slog.NewJSONHandler(out, opts))
	} else {
		l.slog = slog.New(slog.NewTextHandler(out, opts))
	}
	return l, nil
}

func levelFor(level LogLevel) slog.Level {
	if lvl, ok := slogLevels[level]; ok {
		return lvl
	}
	return slog.LevelInfo
}

// openRotated opens path for appending. A file already at maxSize is
// shifted to path.1 first, pushing older backups up to path.<backups>.
func openRotated(path string, maxSize int64, backups int) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to stat log file: %w", err)
	case info.Size() >= maxSize:
		for i := backups - 1; i >= 1; i-- {
			os.Rename(fmt.Sprintf("%s.%d", path, i), fmt.Sprintf("%s.%d", path, i+1))
		}
		if err := os.Rename(path, path+".1"); err != nil {
			return nil, fmt.Errorf("failed to rotate log file: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return file, nil
}

func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.slog.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.slog.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

// With returns a child logger carrying args on every record. The child
// shares the parent's file; only the parent closes it.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{slog: l.slog.With(args...), level: l.level, path: l.path}
}

// Close closes the log file if this logger owns one
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// current is the installed logger, or one over the slog default before
// Initialize runs
func current() *Logger {
	if globalLogger != nil {
		return globalLogger
	}
	return &Logger{slog: slog.Default(), level: INFO}
}

func Debug(msg string, args ...any) { current().Debug(msg, args...) }
func Info(msg string, args ...any)  { current().Info(msg, args...) }
func Warn(msg string, args ...any)  { current().Warn(msg, args...) }
func Error(msg string, args ...any) { current().Error(msg, args...) }

// With returns a child of the process-wide logger
func With(args ...any) *Logger {
	return current().With(args...)
}

// Close closes the process-wide logger's file
func Close() error {
	if globalLogger == nil {
		return nil
	}
	return globalLogger.Close()
}

// IsDebugEnabled reports whether the process-wide logger emits debug records
func IsDebugEnabled() bool {
	return globalLogger != nil && globalLogger.level == DEBUG
}

// GetLogFilePath returns the process-wide log file, or "" when logging to
// the console only
func GetLogFilePath() string {
	if globalLogger == nil {
		return ""
	}
	return globalLogger.path
}

// ParseLevel maps "debug", "info", "warn"/"warning", "error" and "fatal"
// to a LogLevel. Anything else is INFO.
func ParseLevel(level string) LogLevel {
	if lvl, ok := levelNames[strings.ToLower(strings.TrimSpace(level))]; ok {
		return lvl
	}
	return INFO
}

// DefaultConfig logs text to stderr; debugMode adds source locations
func DefaultConfig(debugMode bool) Config {
	cfg := Config{
		Level:      INFO,
		MaxSize:    defaultMaxSize,
		MaxBackups: defaultMaxBackups,
		AddSource:  debugMode,
	}
	if debugMode {
		cfg.Level = DEBUG
	}
	return cfg
}

// FileConfig is DefaultConfig plus JSON lines in a per-run file
// codevision_<timestamp>.log under logDir
func FileConfig(logDir string, debugMode bool) Config {
	cfg := DefaultConfig(debugMode)
	cfg.OutputFile = filepath.Join(logDir, "codevision_"+time.Now().Format("2006-01-02_15-04-05")+".log")
	cfg.JSONFormat = true
	return cfg
}
