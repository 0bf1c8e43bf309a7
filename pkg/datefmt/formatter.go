package datefmt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/datefmt/pkg/cache"
	"github.com/dmitrymomot/datefmt/pkg/locale"
	"github.com/dmitrymomot/datefmt/pkg/logger"
)

// DatelineZone is the zone shifted onto UTC by the formatter.
const DatelineZone = "Etc/GMT+12"

// datelineShift is applied to the instant when DatelineZone is replaced.
const datelineShift = -12 * time.Hour

// Formatter formats dates through cached layouts.
//
// Before a layout is looked up two corrections are applied:
//   - Hour12 == false becomes HourCycle h23 when the engine supports hour
//     cycles, so midnight renders as 00 rather than 24.
//   - TimeZone "Etc/GMT+12" becomes UTC and the instant moves back 12 hours.
//
// A Formatter is safe for concurrent use. Each distinct pair of locales and
// corrected options builds exactly one layout.
type Formatter struct {
	engine        Engine
	loader        *cache.Loader[Layout]
	logger        *slog.Logger
	hourCycles    bool
	constructions atomic.Uint64
}

// Option configures a Formatter.
type Option func(*Formatter) error

// WithEngine replaces the default CLDREngine.
func WithEngine(e Engine) Option {
	return func(f *Formatter) error {
		if e == nil {
			return fmt.Errorf("%w: nil engine", ErrInvalidOption)
		}
		f.engine = e
		return nil
	}
}

// WithCache replaces the default in-memory layout cache.
func WithCache(c cache.Cache[Layout]) Option {
	return func(f *Formatter) error {
		if c == nil {
			return fmt.Errorf("%w: nil cache", ErrInvalidOption)
		}
		f.loader = cache.NewLoader(c, 0)
		return nil
	}
}

// WithLogger sets the logger. Defaults to a discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Formatter) error {
		if l != nil {
			f.logger = l
		}
		return nil
	}
}

// New creates a Formatter and probes the engine for hour-cycle support.
func New(opts ...Option) (*Formatter, error) {
	f := &Formatter{logger: logger.NewNope()}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}

	if f.engine == nil {
		db, err := locale.Default()
		if err != nil {
			return nil, err
		}
		e, err := NewCLDREngine(db, WithEngineLogger(f.logger))
		if err != nil {
			return nil, err
		}
		f.engine = e
	}
	if f.loader == nil {
		f.loader = cache.NewLoader[Layout](cache.NewMemory[Layout](), 0)
	}

	probe, err := f.engine.NewLayout([]string{"en"}, Options{Hour: StyleNumeric})
	if err != nil {
		return nil, errors.Join(ErrProbeFailed, err)
	}
	f.hourCycles = probe.ResolvedOptions().HourCycle != ""
	f.logger.Debug("hour cycle probe", slog.Bool("supported", f.hourCycles))

	return f, nil
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *Formatter {
	f, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return f
}

var defaultFormatter = sync.OnceValues(func() (*Formatter, error) {
	return New()
})

// Default returns the process-wide Formatter, created on first use.
func Default() (*Formatter, error) {
	return defaultFormatter()
}

// Format formats date with the process-wide Formatter.
func Format(date time.Time, opts Options, locales ...string) (string, error) {
	f, err := Default()
	if err != nil {
		return "", err
	}
	return f.Format(date, opts, locales...)
}

// HourCycleSupported reports the result of the construction-time probe.
func (f *Formatter) HourCycleSupported() bool {
	return f.hourCycles
}

// Format renders date for the first supported locale in locales.
func (f *Formatter) Format(date time.Time, opts Options, locales ...string) (string, error) {
	date, opts = f.correct(date, opts)
	l, err := f.layout(opts, locales)
	if err != nil {
		return "", err
	}
	return l.Format(date)
}

// FormatToParts is Format split into typed parts.
func (f *Formatter) FormatToParts(date time.Time, opts Options, locales ...string) ([]Part, error) {
	date, opts = f.correct(date, opts)
	l, err := f.layout(opts, locales)
	if err != nil {
		return nil, err
	}
	return l.FormatToParts(date)
}

// Layout returns the cached layout for the corrected options. The instant
// shift for Etc/GMT+12 is applied by Format, not by the layout.
func (f *Formatter) Layout(opts Options, locales ...string) (Layout, error) {
	_, opts = f.correct(time.Time{}, opts)
	return f.layout(opts, locales)
}

// Key returns the cache key Format uses for opts and locales.
func (f *Formatter) Key(opts Options, locales ...string) (string, error) {
	_, opts = f.correct(time.Time{}, opts)
	return CacheKey(locales, opts)
}

// Stats is a snapshot of layout cache usage.
type Stats struct {
	Layouts       int    `json:"layouts"`
	Hits          uint64 `json:"hits"`
	Misses        uint64 `json:"misses"`
	Constructions uint64 `json:"constructions"`
}

// Stats reports cache usage. Layouts, Hits and Misses are zero when the
// cache does not report statistics.
func (f *Formatter) Stats() Stats {
	s := Stats{Constructions: f.constructions.Load()}
	if r, ok := f.loader.Cache().(cache.StatsReporter); ok {
		cs := r.Stats()
		s.Layouts, s.Hits, s.Misses = cs.Entries, cs.Hits, cs.Misses
	}
	return s
}

func (f *Formatter) correct(date time.Time, opts Options) (time.Time, Options) {
	if f.hourCycles && opts.Hour12 != nil && !*opts.Hour12 {
		opts.Hour12 = nil
		opts.HourCycle = H23
	}
	if opts.TimeZone == DatelineZone {
		opts.TimeZone = UTC
		date = date.Add(datelineShift)
	}
	return date, opts
}

func (f *Formatter) layout(opts Options, locales []string) (Layout, error) {
	key, err := CacheKey(locales, opts)
	if err != nil {
		return nil, err
	}

	return f.loader.Load(context.Background(), key, func(context.Context) (Layout, error) {
		l, err := f.engine.NewLayout(locales, opts)
		if err != nil {
			return nil, err
		}
		f.constructions.Add(1)
		f.logger.Debug("layout cached", slog.String("key", key))
		return l, nil
	})
}
