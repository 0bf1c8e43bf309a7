package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/datefmt/pkg/logger"
)

type ctxKey struct{}

func requestID(ctx context.Context) (slog.Attr, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	if !ok {
		return slog.Attr{}, false
	}
	return slog.String("request_id", id), true
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"WARN", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"info+2", slog.LevelInfo + 2, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := logger.ParseLevel(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, logger.ErrInvalidLevel)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json with extractor", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.Config{Output: &buf, Level: "debug", Format: logger.FormatJSON}, requestID, nil)

		ctx := context.WithValue(context.Background(), ctxKey{}, "req-1")
		log.DebugContext(ctx, "layout cached", slog.String("locale", "de"))

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		require.Equal(t, "layout cached", rec["msg"])
		require.Equal(t, "de", rec["locale"])
		require.Equal(t, "req-1", rec["request_id"])
	})

	t.Run("extractor skipped without value", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.Config{Output: &buf, Format: logger.FormatText}, requestID)
		log.With(slog.String("component", "server")).Info("started")

		out := buf.String()
		require.Contains(t, out, "msg=started")
		require.Contains(t, out, "component=server")
		require.NotContains(t, out, "request_id")
	})

	t.Run("level filters records", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.Config{Output: &buf, Level: "warn"})
		log.Info("dropped")
		log.Warn("kept")

		require.NotContains(t, buf.String(), "dropped")
		require.Contains(t, buf.String(), "kept")
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.Config{Output: &buf, Level: "loud"})
		log.Debug("dropped")
		log.Info("kept")

		require.Equal(t, 1, strings.Count(buf.String(), "\n"))
	})
}

func TestNewWithSentry_NoDSN(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.NewWithSentry(logger.Config{Output: &buf, Format: logger.FormatText}, logger.SentryConfig{}, requestID)

	ctx := context.WithValue(context.Background(), ctxKey{}, "req-2")
	log.ErrorContext(ctx, "format failed")

	require.Contains(t, buf.String(), "format failed")
	require.Contains(t, buf.String(), "request_id=req-2")
}

func TestNewNope(t *testing.T) {
	t.Parallel()

	log := logger.NewNope()
	require.NotNil(t, log)
	log.Error("discarded")
}
