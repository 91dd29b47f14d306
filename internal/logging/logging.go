// Package logging builds the slog logger shared by the command-line tools:
// every record goes to stdout and to an append-only file under the log dir.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options configures New.
type Options struct {
	Level  string // debug, info, warn or error; unknown values mean info
	Format string // text or json
	Dir    string // empty disables the file sink
	File   string // file name inside Dir

	// Stdout defaults to os.Stdout.
	Stdout io.Writer
}

// ParseLevel maps a config level name to a slog level.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a logger for opts and the file sink to close on exit.
// The returned closer is never nil.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	var out io.Writer = os.Stdout
	if opts.Stdout != nil {
		out = opts.Stdout
	}

	var closer io.Closer = nopCloser{}
	if opts.Dir != "" && opts.File != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, closer, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(filepath.Join(opts.Dir, opts.File), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, closer, fmt.Errorf("open log file: %w", err)
		}
		out = io.MultiWriter(out, f)
		closer = f
	}

	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	var handler slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	return slog.New(handler), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
