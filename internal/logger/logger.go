// Package logger builds the structured loggers used across the risk engine
// and the replay tool.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options controls where log lines go.
type Options struct {
	Name    string    // file prefix, e.g. "risk-replay"
	Level   string    // debug, info, warn, error
	Dir     string    // directory for the daily log file; empty disables file output
	Console bool      // human readable console output instead of JSON
	Out     io.Writer // console destination, defaults to os.Stdout
	Now     func() time.Time
}

// Logger wraps a zerolog.Logger together with the log file it may own.
type Logger struct {
	zerolog.Logger

	mu   sync.Mutex
	file *os.File
	path string
}

// ParseLevel maps a level string to a zerolog level, falling back to info.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// New creates a logger. When opts.Dir is set, lines are also appended to
// <dir>/<name>_<YYYY-MM-DD>.log.
func New(opts Options) (*Logger, error) {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Name == "" {
		opts.Name = "risk"
	}

	var console io.Writer = opts.Out
	if opts.Console {
		console = zerolog.ConsoleWriter{Out: opts.Out, TimeFormat: "2006-01-02 15:04:05", NoColor: true}
	}

	l := &Logger{}
	writers := []io.Writer{console}

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		filename := fmt.Sprintf("%s_%s.log", opts.Name, opts.Now().UTC().Format("2006-01-02"))
		l.path = filepath.Join(opts.Dir, filename)

		file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		l.file = file
		writers = append(writers, file)
	}

	l.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(ParseLevel(opts.Level)).
		With().Timestamp().Str("component", opts.Name).Logger()

	l.Info().Str("log_file", l.path).Msg("session started")
	return l, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// Path returns the log file path, or "" when file output is disabled.
func (l *Logger) Path() string { return l.path }

// Close writes the session footer and closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	l.Info().Msg("session ended")
	err := l.file.Close()
	l.file = nil
	return err
}
