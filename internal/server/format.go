package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dmitrymomot/datefmt/pkg/cache"
	"github.com/dmitrymomot/datefmt/pkg/datefmt"
	"github.com/dmitrymomot/datefmt/pkg/locale"
)

const (
	maxBatchSize = 100
	maxBodyBytes = 1 << 20
)

type formatResponse struct {
	Value string `json:"value"`
}

type batchRequest struct {
	Requests []batchItem `json:"requests"`
}

type batchItem struct {
	Date    *time.Time      `json:"date,omitempty"`
	Locales []string        `json:"locales,omitempty"`
	Options datefmt.Options `json:"options"`
}

type batchResponse struct {
	Results []batchResult `json:"results"`
}

type batchResult struct {
	Value string `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

// formatQuery handles GET /v1/format.
func (s *Server) formatQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	date, err := s.dateFromQuery(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	opts, err := optionsFromQuery(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	locales := q["locale"]
	if len(locales) == 0 {
		locales = locale.AcceptLanguage(r.Header.Get("Accept-Language"))
	}

	value, err := s.render(r.Context(), date, opts, locales)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, formatResponse{Value: value})
}

// formatBatch handles POST /v1/format. Each item succeeds or fails on its own.
func (s *Server) formatBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %s", errBadRequest, err))
		return
	}
	if len(req.Requests) == 0 || len(req.Requests) > maxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: batch size must be 1-%d", errBadRequest, maxBatchSize))
		return
	}

	fallback := locale.AcceptLanguage(r.Header.Get("Accept-Language"))
	resp := batchResponse{Results: make([]batchResult, len(req.Requests))}
	for i, item := range req.Requests {
		date := s.now()
		if item.Date != nil {
			date = *item.Date
		}
		locales := item.Locales
		if len(locales) == 0 {
			locales = fallback
		}

		value, err := s.render(r.Context(), date, item.Options, locales)
		if err != nil {
			if !isClientError(err) {
				s.logger.ErrorContext(r.Context(), "format failed", slog.Int("item", i), slog.String("error", err.Error()))
			}
			_, public := publicError(err)
			resp.Results[i] = batchResult{Error: public.Error()}
			continue
		}
		resp.Results[i] = batchResult{Value: value}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) locales(w http.ResponseWriter, _ *http.Request) {
	if s.db == nil {
		writeError(w, http.StatusNotFound, errNotFound)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Default string   `json:"default"`
		Locales []string `json:"locales"`
	}{s.db.DefaultLocale(), s.db.Locales()})
}

func (s *Server) stats(w http.ResponseWriter, _ *http.Request) {
	resp := struct {
		Formatter datefmt.Stats `json:"formatter"`
		Output    *cache.Stats  `json:"output,omitempty"`
	}{Formatter: s.formatter.Stats()}

	if r, ok := s.output.(cache.StatsReporter); ok {
		st := r.Stats()
		resp.Output = &st
	}
	writeJSON(w, http.StatusOK, resp)
}

// render formats through the output cache when one is configured.
// Output cache failures are logged and otherwise ignored.
func (s *Server) render(ctx context.Context, date time.Time, opts datefmt.Options, locales []string) (string, error) {
	if s.output == nil {
		return s.formatter.Format(date, opts, locales...)
	}

	key, err := s.formatter.Key(opts, locales...)
	if err != nil {
		return "", err
	}
	key += "|" + date.UTC().Format(time.RFC3339Nano)

	value, err := s.output.Get(ctx, key)
	if err == nil {
		return value, nil
	}
	if !errors.Is(err, cache.ErrNotFound) {
		s.logger.WarnContext(ctx, "output cache read failed", slog.String("error", err.Error()))
	}

	value, err = s.formatter.Format(date, opts, locales...)
	if err != nil {
		return "", err
	}
	if err := s.output.Set(ctx, key, value, s.outputTTL); err != nil {
		s.logger.WarnContext(ctx, "output cache write failed", slog.String("error", err.Error()))
	}
	return value, nil
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, public := publicError(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "format failed", slog.String("error", err.Error()))
	}
	writeError(w, status, public)
}

// dateFromQuery reads "date" (RFC 3339) or "ts" (Unix milliseconds).
func (s *Server) dateFromQuery(q url.Values) (time.Time, error) {
	if v := q.Get("date"); v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: date %q is not RFC 3339", errBadRequest, v)
		}
		return t, nil
	}
	if v := q.Get("ts"); v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: ts %q is not an integer", errBadRequest, v)
		}
		return time.UnixMilli(ms), nil
	}
	return s.now(), nil
}

// reserved query parameters are not formatting options.
var reserved = map[string]bool{"date": true, "ts": true, "locale": true}

// optionsFromQuery maps one query parameter per option. Unknown parameters
// are carried in Options.Extra.
func optionsFromQuery(q url.Values) (datefmt.Options, error) {
	var o datefmt.Options
	for name, values := range q {
		if reserved[name] || len(values) == 0 {
			continue
		}
		v := values[0]

		switch name {
		case "localeMatcher":
			o.LocaleMatcher = locale.Matcher(v)
		case "weekday":
			o.Weekday = datefmt.Style(v)
		case "era":
			o.Era = datefmt.Style(v)
		case "year":
			o.Year = datefmt.Style(v)
		case "month":
			o.Month = datefmt.Style(v)
		case "day":
			o.Day = datefmt.Style(v)
		case "hour":
			o.Hour = datefmt.Style(v)
		case "minute":
			o.Minute = datefmt.Style(v)
		case "second":
			o.Second = datefmt.Style(v)
		case "fractionalSecondDigits":
			n, err := strconv.Atoi(v)
			if err != nil {
				return o, fmt.Errorf("%w: fractionalSecondDigits %q is not an integer", errBadRequest, v)
			}
			o.FractionalSecondDigits = n
		case "timeZoneName":
			o.TimeZoneName = datefmt.TimeZoneName(v)
		case "timeZone":
			o.TimeZone = v
		case "hour12":
			b, err := strconv.ParseBool(v)
			if err != nil {
				return o, fmt.Errorf("%w: hour12 %q is not a boolean", errBadRequest, v)
			}
			o.Hour12 = datefmt.Bool(b)
		case "hourCycle":
			o.HourCycle = datefmt.HourCycle(v)
		case "dateStyle":
			o.DateStyle = datefmt.FormatStyle(v)
		case "timeStyle":
			o.TimeStyle = datefmt.FormatStyle(v)
		default:
			if o.Extra == nil {
				o.Extra = make(map[string]string)
			}
			o.Extra[name] = v
		}
	}
	return o, nil
}
