// Package logger implements ports.Logger on log/slog.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/doeshing/typecopilot/internal/domain"
)

// EnvDebug turns on verbose logging when set to 1 or true.
const EnvDebug = "TYPING_COPILOT_DEBUG"

// Options configures a Logger.
type Options struct {
	// Level is debug, info, warn or error. Empty means info.
	Level string
	// File receives every record. Empty disables the file sink.
	File string
	// Verbose mirrors records to stderr and lowers the level to debug.
	Verbose bool
}

// Logger writes text records through slog.
type Logger struct {
	log    *slog.Logger
	closer io.Closer
}

// New opens the log file (creating its directory) and builds a logger.
func New(opts Options) (*Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	verbose := opts.Verbose || DebugFromEnv()
	if verbose {
		level = slog.LevelDebug
	}

	var (
		writers []io.Writer
		closer  io.Closer
	)
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), domain.DirectoryPermissions); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, domain.SecureFilePermissions)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		writers = append(writers, f)
		closer = f
	}
	if verbose {
		writers = append(writers, os.Stderr)
	}

	var out io.Writer = io.Discard
	if len(writers) > 0 {
		out = io.MultiWriter(writers...)
	}
	return &Logger{
		log:    slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})),
		closer: closer,
	}, nil
}

// NewStd creates a logger that writes to stderr only when verbose.
func NewStd(verbose bool) *Logger {
	l, _ := New(Options{Verbose: verbose})
	return l
}

// NewWriter builds a logger over an arbitrary writer. Used by tests.
func NewWriter(w io.Writer, level slog.Level) *Logger {
	return &Logger{log: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))}
}

// ParseLevel maps a configuration level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", name)
	}
}

// DebugFromEnv reports whether TYPING_COPILOT_DEBUG asks for verbose output.
func DebugFromEnv() bool {
	switch strings.ToLower(os.Getenv(EnvDebug)) {
	case "1", "true":
		return true
	}
	return false
}

// Close releases the log file.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	l.log.Debug(msg, attrs(fields)...)
}

func (l *Logger) Info(msg string, fields map[string]interface{}) {
	l.log.Info(msg, attrs(fields)...)
}

func (l *Logger) Warn(msg string, fields map[string]interface{}) {
	l.log.Warn(msg, attrs(fields)...)
}

func (l *Logger) Error(msg string, err error, fields map[string]interface{}) {
	args := attrs(fields)
	if err != nil {
		args = append(args, slog.String("error", err.Error()))
	}
	l.log.Error(msg, args...)
}

// attrs converts the field map in key order so records are stable.
func attrs(fields map[string]interface{}) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]any, 0, len(keys))
	for _, k := range keys {
		out = append(out, slog.Any(k, fields[k]))
	}
	return out
}
