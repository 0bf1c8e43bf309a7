package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/datefmt/internal/server"
	"github.com/dmitrymomot/datefmt/pkg/cache"
	"github.com/dmitrymomot/datefmt/pkg/datefmt"
	"github.com/dmitrymomot/datefmt/pkg/locale"
	"github.com/dmitrymomot/datefmt/pkg/logger"
)

var fixedNow = time.Date(2021, time.March, 4, 5, 6, 7, 0, time.UTC)

func newServer(t *testing.T, opts ...server.Option) *server.Server {
	t.Helper()

	db, err := locale.Default()
	require.NoError(t, err)
	f, err := datefmt.New()
	require.NoError(t, err)

	base := []server.Option{
		server.WithLocales(db),
		server.WithClock(func() time.Time { return fixedNow }),
	}
	s, err := server.New(f, append(base, opts...)...)
	require.NoError(t, err)
	return s
}

func do(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestFormatQuery(t *testing.T) {
	t.Parallel()

	h := newServer(t).Handler()

	tests := []struct {
		name   string
		query  string
		header string
		status int
		value  string
	}{
		{name: "defaults", query: "", status: http.StatusOK, value: "3/4/2021"},
		{name: "explicit date and locale", query: "date=2021-01-01T00:00:00Z&locale=en-GB", status: http.StatusOK, value: "01/01/2021"},
		{name: "unix milliseconds", query: "ts=1609459200000&locale=de", status: http.StatusOK, value: "1.1.2021"},
		{
			name:   "dateline zone",
			query:  "date=2021-01-01T00:00:00Z&locale=en-US&timeZone=Etc/GMT%2B12&hour=numeric&minute=numeric",
			status: http.StatusOK,
			value:  "12:00 PM",
		},
		{
			name:   "hour12 false",
			query:  "date=2021-01-01T00:00:00Z&locale=en&hour=numeric&minute=numeric&hour12=false",
			status: http.StatusOK,
			value:  "00:00",
		},
		{name: "accept language", header: "fr-CH, de;q=0.5", status: http.StatusOK, value: "04/03/2021"},
		{name: "locale list in order", query: "locale=sw&locale=ja", status: http.StatusOK, value: "2021/3/4"},
		{name: "unknown parameters pass through", query: "calendar=gregory", status: http.StatusOK, value: "3/4/2021"},
		{name: "bad date", query: "date=yesterday", status: http.StatusBadRequest},
		{name: "bad ts", query: "ts=soon", status: http.StatusBadRequest},
		{name: "bad hour12", query: "hour12=maybe", status: http.StatusBadRequest},
		{name: "bad locale", query: "locale=!!", status: http.StatusBadRequest},
		{name: "bad time zone", query: "timeZone=Mars/Base", status: http.StatusBadRequest},
		{name: "bad option", query: "month=wide", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/v1/format?"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Accept-Language", tt.header)
			}

			rec, body := do(t, h, req)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status == http.StatusOK {
				require.Equal(t, tt.value, body["value"])
			} else {
				require.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestFormatBatch(t *testing.T) {
	t.Parallel()

	h := newServer(t).Handler()

	t.Run("mixed results", func(t *testing.T) {
		t.Parallel()

		payload := `{"requests": [
			{"date": "2021-01-01T00:00:00Z", "locales": ["en-US"], "options": {"hour": "numeric", "minute": "numeric", "timeZone": "Etc/GMT+12"}},
			{"locales": ["de"], "options": {"dateStyle": "long"}},
			{"options": {"timeZone": "Nowhere"}}
		]}`
		req := httptest.NewRequest(http.MethodPost, "/v1/format", strings.NewReader(payload))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Results []struct {
				Value string `json:"value"`
				Error string `json:"error"`
			} `json:"results"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Results, 3)
		require.Equal(t, "12:00 PM", resp.Results[0].Value)
		require.Equal(t, "4. März 2021", resp.Results[1].Value)
		require.Contains(t, resp.Results[2].Error, "invalid time zone")
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/v1/format", strings.NewReader("{"))
		rec, body := do(t, h, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, body["error"], "invalid request")
	})

	t.Run("empty batch", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/v1/format", strings.NewReader(`{"requests": []}`))
		rec, _ := do(t, h, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestOutputCache(t *testing.T) {
	t.Parallel()

	out := cache.NewMemory[string]()
	s := newServer(t, server.WithOutputCache(out, time.Minute))
	h := s.Handler()

	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/v1/format?date=2021-01-01T00:00:00Z&locale=en", nil)
		rec, body := do(t, h, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "1/1/2021", body["value"])
	}
	require.Equal(t, cache.Stats{Hits: 2, Misses: 1, Entries: 1}, out.Stats())

	rec, body := do(t, h, httptest.NewRequest(http.MethodGet, "/v1/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	formatter := body["formatter"].(map[string]any)
	require.EqualValues(t, 1, formatter["constructions"])
	output := body["output"].(map[string]any)
	require.EqualValues(t, 2, output["hits"])
}

func TestOutputCache_Bounded(t *testing.T) {
	t.Parallel()

	out := cache.NewMemory[string](cache.WithMaxEntries(50), cache.WithCleanupInterval(5*time.Millisecond))
	defer out.Close()

	var tick atomic.Int64
	s := newServer(t,
		server.WithOutputCache(out, 10*time.Millisecond),
		server.WithClock(func() time.Time {
			return fixedNow.Add(time.Duration(tick.Add(1)) * time.Millisecond)
		}),
	)
	h := s.Handler()

	for range 200 {
		rec, _ := do(t, h, httptest.NewRequest(http.MethodGet, "/v1/format?locale=en&hour=numeric", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	require.LessOrEqual(t, out.Len(), 50, "undated requests do not grow the cache past its bound")

	require.Eventually(t, func() bool { return out.Len() == 0 }, time.Second, 5*time.Millisecond,
		"expired entries are swept without further requests")
}

func TestLocales(t *testing.T) {
	t.Parallel()

	rec, body := do(t, newServer(t).Handler(), httptest.NewRequest(http.MethodGet, "/v1/locales", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "en", body["default"])
	require.Contains(t, body["locales"], "ja")
}

func TestHealth(t *testing.T) {
	t.Parallel()

	t.Run("liveness", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		newServer(t).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "OK", rec.Body.String())
	})

	t.Run("readiness", func(t *testing.T) {
		t.Parallel()

		rec, body := do(t, newServer(t).Handler(), httptest.NewRequest(http.MethodGet, "/readyz?format=json", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "healthy", body["status"])
		require.Contains(t, body["checks"], "locales")
	})

	t.Run("failing check", func(t *testing.T) {
		t.Parallel()

		s := newServer(t, server.WithCheck("redis", func(context.Context) error {
			return errors.New("connection refused")
		}))

		req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
		req.Header.Set("Accept", "application/json")
		rec, body := do(t, s.Handler(), req)
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		require.Equal(t, "unhealthy", body["status"])

		redis := body["checks"].(map[string]any)["redis"].(map[string]any)
		require.Equal(t, "connection refused", redis["error"])
	})
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("request id generated", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		newServer(t).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Len(t, rec.Header().Get(server.RequestIDHeader), 36)
	})

	t.Run("request id kept and logged", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.Config{Output: &buf, Format: logger.FormatJSON}, server.RequestIDExtractor())
		s := newServer(t, server.WithLogger(log))

		req := httptest.NewRequest(http.MethodGet, "/v1/format", nil)
		req.Header.Set(server.RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		require.Equal(t, "abc-123", rec.Header().Get(server.RequestIDHeader))
		require.Contains(t, buf.String(), `"request_id":"abc-123"`)
		require.Contains(t, buf.String(), `"path":"/v1/format"`)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		rec, body := do(t, newServer(t).Handler(), httptest.NewRequest(http.MethodGet, "/v2/format", nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "not found", body["error"])
	})

	t.Run("method not allowed", func(t *testing.T) {
		t.Parallel()

		rec, _ := do(t, newServer(t).Handler(), httptest.NewRequest(http.MethodDelete, "/v1/format", nil))
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestNew_NilFormatter(t *testing.T) {
	t.Parallel()

	_, err := server.New(nil)
	require.ErrorIs(t, err, server.ErrNilFormatter)
}

func TestServe_GracefulShutdown(t *testing.T) {
	t.Parallel()

	var hookCalls atomic.Int32
	s := newServer(t, server.WithShutdownHook(func(context.Context) error {
		hookCalls.Add(1)
		return nil
	}), server.WithShutdownTimeout(time.Second))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, "OK", string(body))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	require.EqualValues(t, 1, hookCalls.Load())
}

func TestServe_HookError(t *testing.T) {
	t.Parallel()

	errHook := errors.New("close failed")
	s := newServer(t, server.WithShutdownHook(func(context.Context) error { return errHook }))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, s.Serve(ctx, ln), errHook)
}
