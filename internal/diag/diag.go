// Package diag sets up structured logging and reports failed completion
// calls from the conversation controller.
package diag

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/neurovine/assistant/internal/chat"
	apierrors "github.com/neurovine/assistant/internal/errors"
)

// Options configures the logger.
type Options struct {
	// Level is a zerolog level name ("debug", "info", "warn", "error").
	Level string
	// File, when set, receives JSON log lines instead of the console.
	File string
	// Console is the destination for human-readable output (default stderr).
	Console io.Writer
}

// New builds a logger and returns a close function for the log file.
func New(opts Options) (zerolog.Logger, func() error, error) {
	level := zerolog.WarnLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o700); err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logger := zerolog.New(f).Level(level).With().Timestamp().Logger()
		return logger, f.Close, nil
	}

	out := opts.Console
	if out == nil {
		out = os.Stderr
	}
	writer := zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	logger := zerolog.New(writer).Level(level).With().Timestamp().Logger()
	return logger, func() error { return nil }, nil
}

// Reporter logs failed completion calls. It implements chat.Diagnostics.
type Reporter struct {
	logger  zerolog.Logger
	backend string
}

var _ chat.Diagnostics = (*Reporter)(nil)

// NewReporter creates a Reporter tagging every entry with the backend name.
func NewReporter(logger zerolog.Logger, backend string) *Reporter {
	return &Reporter{logger: logger, backend: backend}
}

// Report writes one error entry.
func (r *Reporter) Report(ctx context.Context, rec chat.ErrorRecord) {
	ev := r.logger.Error().
		Err(rec.Err).
		Str("conversation_id", rec.ConversationID).
		Int("turn", rec.Turn).
		Str("backend", r.backend).
		Str("model", rec.Model).
		Dur("elapsed", rec.Elapsed).
		Str("category", Category(rec.Err))

	if status := apierrors.GetHTTPStatus(rec.Err); status > 0 {
		ev = ev.Int("http_status", status)
	}

	ev.Msg("completion failed")
}

// Category names the kind of failure for logs and status lines.
func Category(err error) string {
	switch {
	case err == nil:
		return "none"
	case apierrors.IsAuthError(err):
		return "auth"
	case apierrors.IsRateLimitError(err):
		return "rate_limit"
	case apierrors.IsBlockedError(err):
		return "blocked"
	case apierrors.IsTimeoutError(err):
		return "timeout"
	case apierrors.IsNetworkError(err):
		return "network"
	case apierrors.IsParseError(err):
		return "parse"
	case apierrors.IsModelError(err):
		return "model"
	case apierrors.IsCanceled(err):
		return "canceled"
	default:
		return "unknown"
	}
}
