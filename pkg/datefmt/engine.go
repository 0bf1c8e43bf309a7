package datefmt

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/datefmt/pkg/locale"
	"github.com/dmitrymomot/datefmt/pkg/logger"
)

// Engine builds layouts. It is the locale-formatting primitive the
// Formatter caches.
type Engine interface {
	NewLayout(locales []string, opts Options) (Layout, error)
}

// Layout formats instants for a fixed locale and option set.
// Implementations must be safe for concurrent use.
type Layout interface {
	Format(t time.Time) (string, error)
	FormatToParts(t time.Time) ([]Part, error)
	ResolvedOptions() ResolvedOptions
}

// PartType names a piece of formatted output.
type PartType string

const (
	PartLiteral          PartType = "literal"
	PartEra              PartType = "era"
	PartYear             PartType = "year"
	PartMonth            PartType = "month"
	PartDay              PartType = "day"
	PartWeekday          PartType = "weekday"
	PartHour             PartType = "hour"
	PartMinute           PartType = "minute"
	PartSecond           PartType = "second"
	PartFractionalSecond PartType = "fractionalSecond"
	PartDayPeriod        PartType = "dayPeriod"
	PartTimeZoneName     PartType = "timeZoneName"
)

// Part is one piece of formatted output.
type Part struct {
	Type  PartType `json:"type"`
	Value string   `json:"value"`
}

// ResolvedOptions reports what a layout actually uses.
// HourCycle, Hour12 and the field styles are empty unless displayed.
type ResolvedOptions struct {
	Locale                 string       `json:"locale"`
	TimeZone               string       `json:"timeZone"`
	HourCycle              HourCycle    `json:"hourCycle,omitempty"`
	Hour12                 *bool        `json:"hour12,omitempty"`
	Weekday                Style        `json:"weekday,omitempty"`
	Era                    Style        `json:"era,omitempty"`
	Year                   Style        `json:"year,omitempty"`
	Month                  Style        `json:"month,omitempty"`
	Day                    Style        `json:"day,omitempty"`
	Hour                   Style        `json:"hour,omitempty"`
	Minute                 Style        `json:"minute,omitempty"`
	Second                 Style        `json:"second,omitempty"`
	FractionalSecondDigits int          `json:"fractionalSecondDigits,omitempty"`
	TimeZoneName           TimeZoneName `json:"timeZoneName,omitempty"`
	DateStyle              FormatStyle  `json:"dateStyle,omitempty"`
	TimeStyle              FormatStyle  `json:"timeStyle,omitempty"`
}

// CLDREngine renders with the bundled locale database.
type CLDREngine struct {
	db              *locale.Database
	defaultTimeZone string
	logger          *slog.Logger
}

// EngineOption configures a CLDREngine.
type EngineOption func(*CLDREngine)

// WithDefaultTimeZone sets the zone used when Options.TimeZone is empty.
// It defaults to UTC.
func WithDefaultTimeZone(name string) EngineOption {
	return func(e *CLDREngine) {
		e.defaultTimeZone = name
	}
}

// WithEngineLogger sets the logger for layout construction.
func WithEngineLogger(l *slog.Logger) EngineOption {
	return func(e *CLDREngine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewCLDREngine creates an engine over db.
func NewCLDREngine(db *locale.Database, opts ...EngineOption) (*CLDREngine, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: nil locale database", ErrInvalidOption)
	}
	e := &CLDREngine{db: db, defaultTimeZone: UTC, logger: logger.NewNope()}
	for _, opt := range opts {
		opt(e)
	}
	if _, err := resolveZone(e.defaultTimeZone, UTC); err != nil {
		return nil, err
	}
	return e, nil
}

// Database returns the engine's locale database.
func (e *CLDREngine) Database() *locale.Database {
	return e.db
}

// NewLayout negotiates the locale, resolves the options and compiles the
// locale patterns.
func (e *CLDREngine) NewLayout(locales []string, opts Options) (Layout, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	match, err := e.db.Negotiate(locales, opts.LocaleMatcher)
	if err != nil {
		return nil, err
	}

	z, err := resolveZone(opts.TimeZone, e.defaultTimeZone)
	if err != nil {
		return nil, err
	}

	patterns, err := compilePatterns(match.Data.Patterns)
	if err != nil {
		return nil, err
	}

	f := opts.resolveFields()
	var hc HourCycle
	if f.hour != "" {
		hc = resolveHourCycle(HourCycle(match.Data.HourCycle), match.HourCycle, opts)
	}

	l := &layout{
		data:     match.Data,
		zone:     z,
		fields:   f,
		hc:       hc,
		segments: assemble(patterns, f, hc, match.Data.Decimal),
		resolved: resolved(match.Locale, z.name, f, hc, opts),
	}

	e.logger.Debug("layout compiled",
		slog.Any("requested", locales),
		slog.String("locale", match.Locale),
		slog.String("time_zone", z.name),
		slog.String("hour_cycle", string(hc)),
	)

	return l, nil
}

func resolved(loc, tz string, f fields, hc HourCycle, o Options) ResolvedOptions {
	r := ResolvedOptions{
		Locale:                 loc,
		TimeZone:               tz,
		Weekday:                f.weekday,
		Era:                    f.era,
		Year:                   f.year,
		Month:                  f.month,
		Day:                    f.day,
		Hour:                   f.hour,
		Minute:                 f.minute,
		Second:                 f.second,
		FractionalSecondDigits: f.fraction,
		TimeZoneName:           f.timeZoneName,
		DateStyle:              o.DateStyle,
		TimeStyle:              o.TimeStyle,
	}
	if hc != "" {
		r.HourCycle = hc
		r.Hour12 = Bool(hc.twelveHour())
	}
	return r
}
