package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level      string
	Format     string
	OutputPath string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

var (
	defaultLogger *slog.Logger
	fileWriter    *lumberjack.Logger
)

// Initialize builds the process-wide logger and installs it as slog's default.
// When OutputPath is set, records go to stdout and to a size-rotated file.
func Initialize(cfg Config) error {
	writer, err := newWriter(cfg)
	if err != nil {
		return err
	}

	defaultLogger = New(writer, cfg.Level, cfg.Format)
	slog.SetDefault(defaultLogger)

	return nil
}

// New returns a logger writing to w. Unknown levels fall back to info and
// any format other than "text" produces JSON.
func New(w io.Writer, level, format string) *slog.Logger {
	lvl := parseLevel(level)

	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	}

	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}

func Get() *slog.Logger {
	if defaultLogger == nil {
		return slog.Default()
	}
	return defaultLogger
}

// Close flushes and closes the rotating file, if any.
func Close() error {
	if fileWriter == nil {
		return nil
	}
	return fileWriter.Close()
}

func newWriter(cfg Config) (io.Writer, error) {
	if cfg.OutputPath == "" {
		return os.Stdout, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.OutputPath), 0755); err != nil {
		return nil, err
	}

	fileWriter = &lumberjack.Logger{
		Filename:   cfg.OutputPath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	return io.MultiWriter(os.Stdout, fileWriter), nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
