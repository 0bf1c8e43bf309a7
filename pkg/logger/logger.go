package logger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ErrInvalidLevel is returned by ParseLevel for unknown level names.
var ErrInvalidLevel = errors.New("logger: invalid level")

// Output formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Config selects the handler and the minimum level.
type Config struct {
	// Output defaults to os.Stdout.
	Output io.Writer `env:"-"`
	Level  string    `env:"LEVEL" envDefault:"info"`
	Format string    `env:"FORMAT" envDefault:"json"`
}

// ParseLevel accepts debug, info, warn and error (any case, with optional
// offsets such as "warn+2").
func ParseLevel(s string) (slog.Level, error) {
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
	return level, nil
}

// New creates a logger from cfg with optional context extractors.
// An invalid level falls back to info.
func New(cfg Config, extractors ...ContextExtractor) *slog.Logger {
	return slog.New(NewContextHandler(newHandler(cfg), extractors...))
}

// NewNope creates a logger that discards all output.
// Libraries use it when no logger is configured.
func NewNope() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHandler(cfg Config) slog.Handler {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(cfg.Format, FormatText) {
		return slog.NewTextHandler(out, opts)
	}
	return slog.NewJSONHandler(out, opts)
}
