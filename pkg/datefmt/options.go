package datefmt

import (
	"fmt"

	"github.com/dmitrymomot/datefmt/pkg/locale"
)

// Style selects how a single date or time field is displayed.
type Style string

const (
	StyleNumeric Style = "numeric"
	Style2Digit  Style = "2-digit"
	StyleLong    Style = "long"
	StyleShort   Style = "short"
	StyleNarrow  Style = "narrow"
)

// HourCycle selects the hour numbering.
type HourCycle string

const (
	// H11 counts 0-11 with a day period.
	H11 HourCycle = locale.H11
	// H12 counts 1-12 with a day period.
	H12 HourCycle = locale.H12
	// H23 counts 0-23.
	H23 HourCycle = locale.H23
	// H24 counts 1-24; midnight is 24.
	H24 HourCycle = locale.H24
)

// TimeZoneName selects the time-zone label.
type TimeZoneName string

const (
	TimeZoneShort       TimeZoneName = "short"
	TimeZoneLong        TimeZoneName = "long"
	TimeZoneShortOffset TimeZoneName = "shortOffset"
	TimeZoneLongOffset  TimeZoneName = "longOffset"
)

// FormatStyle is a preset for a whole date or time.
type FormatStyle string

const (
	FormatFull   FormatStyle = "full"
	FormatLong   FormatStyle = "long"
	FormatMedium FormatStyle = "medium"
	FormatShort  FormatStyle = "short"
)

// Options configures a format request. The zero value displays a numeric
// date in the engine's default time zone.
//
// Field order is fixed: the JSON encoding of Options is part of the cache key.
type Options struct {
	LocaleMatcher locale.Matcher `json:"localeMatcher,omitempty"`

	Weekday Style `json:"weekday,omitempty"`
	Era     Style `json:"era,omitempty"`
	Year    Style `json:"year,omitempty"`
	Month   Style `json:"month,omitempty"`
	Day     Style `json:"day,omitempty"`
	Hour    Style `json:"hour,omitempty"`
	Minute  Style `json:"minute,omitempty"`
	Second  Style `json:"second,omitempty"`
	// FractionalSecondDigits is 0 (none) to 3.
	FractionalSecondDigits int          `json:"fractionalSecondDigits,omitempty"`
	TimeZoneName           TimeZoneName `json:"timeZoneName,omitempty"`

	// TimeZone is an IANA zone id, a UTC alias or a fixed offset (+05:30).
	// Empty selects the engine default.
	TimeZone string `json:"timeZone,omitempty"`

	// Hour12 forces a 12-hour (true) or 24-hour (false) clock and takes
	// precedence over HourCycle. Nil keeps the locale preference.
	Hour12    *bool     `json:"hour12,omitempty"`
	HourCycle HourCycle `json:"hourCycle,omitempty"`

	// DateStyle and TimeStyle cannot be combined with field options.
	DateStyle FormatStyle `json:"dateStyle,omitempty"`
	TimeStyle FormatStyle `json:"timeStyle,omitempty"`

	// Extra carries options this package does not know. They are part of
	// the cache key and otherwise ignored.
	Extra map[string]string `json:"extra,omitempty"`
}

// Bool returns a pointer to v, for Options.Hour12.
func Bool(v bool) *bool {
	return &v
}

// fields is the resolved set of displayed fields.
type fields struct {
	weekday, era, year, month, day Style
	hour, minute, second           Style
	fraction                       int
	timeZoneName                   TimeZoneName
}

func (f fields) hasDate() bool {
	return f.year != "" || f.month != "" || f.day != "" || f.weekday != "" || f.era != ""
}

func (f fields) hasTime() bool {
	return f.hour != "" || f.minute != "" || f.second != "" || f.fraction > 0
}

func checkStyle(name string, s Style, allowed ...Style) error {
	if s == "" {
		return nil
	}
	for _, a := range allowed {
		if s == a {
			return nil
		}
	}
	return fmt.Errorf("%w: %s %q", ErrInvalidOption, name, s)
}

func (o Options) validate() error {
	text := []Style{StyleLong, StyleShort, StyleNarrow}
	num := []Style{StyleNumeric, Style2Digit}

	checks := []error{
		checkStyle("weekday", o.Weekday, text...),
		checkStyle("era", o.Era, text...),
		checkStyle("year", o.Year, num...),
		checkStyle("month", o.Month, append(num, text...)...),
		checkStyle("day", o.Day, num...),
		checkStyle("hour", o.Hour, num...),
		checkStyle("minute", o.Minute, num...),
		checkStyle("second", o.Second, num...),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}

	if o.FractionalSecondDigits < 0 || o.FractionalSecondDigits > 3 {
		return fmt.Errorf("%w: fractionalSecondDigits %d out of range 0-3", ErrInvalidOption, o.FractionalSecondDigits)
	}

	switch o.TimeZoneName {
	case "", TimeZoneShort, TimeZoneLong, TimeZoneShortOffset, TimeZoneLongOffset:
	default:
		return fmt.Errorf("%w: timeZoneName %q", ErrInvalidOption, o.TimeZoneName)
	}

	if o.HourCycle != "" && !locale.IsValidHourCycle(string(o.HourCycle)) {
		return fmt.Errorf("%w: hourCycle %q", ErrInvalidOption, o.HourCycle)
	}

	styles := []struct {
		name  string
		value FormatStyle
	}{
		{"dateStyle", o.DateStyle},
		{"timeStyle", o.TimeStyle},
	}
	for _, s := range styles {
		switch s.value {
		case "", FormatFull, FormatLong, FormatMedium, FormatShort:
		default:
			return fmt.Errorf("%w: %s %q", ErrInvalidOption, s.name, s.value)
		}
	}

	if (o.DateStyle != "" || o.TimeStyle != "") && o.explicitFields() {
		return fmt.Errorf("%w: dateStyle and timeStyle cannot be combined with field options", ErrInvalidOption)
	}

	if !o.LocaleMatcher.Valid() {
		return fmt.Errorf("%w: localeMatcher %q", ErrInvalidOption, o.LocaleMatcher)
	}

	return nil
}

func (o Options) explicitFields() bool {
	return o.Weekday != "" || o.Era != "" || o.Year != "" || o.Month != "" || o.Day != "" ||
		o.Hour != "" || o.Minute != "" || o.Second != "" ||
		o.FractionalSecondDigits > 0 || o.TimeZoneName != ""
}

// resolveFields expands styles and applies the default numeric date when
// nothing is requested. Era and time-zone name alone still get the default.
func (o Options) resolveFields() fields {
	f := fields{
		weekday:      o.Weekday,
		era:          o.Era,
		year:         o.Year,
		month:        o.Month,
		day:          o.Day,
		hour:         o.Hour,
		minute:       o.Minute,
		second:       o.Second,
		fraction:     o.FractionalSecondDigits,
		timeZoneName: o.TimeZoneName,
	}

	switch o.DateStyle {
	case FormatFull:
		f.weekday, f.year, f.month, f.day = StyleLong, StyleNumeric, StyleLong, StyleNumeric
	case FormatLong:
		f.year, f.month, f.day = StyleNumeric, StyleLong, StyleNumeric
	case FormatMedium:
		f.year, f.month, f.day = StyleNumeric, StyleShort, StyleNumeric
	case FormatShort:
		f.year, f.month, f.day = Style2Digit, StyleNumeric, StyleNumeric
	}

	switch o.TimeStyle {
	case FormatFull:
		f.hour, f.minute, f.second, f.timeZoneName = StyleNumeric, Style2Digit, Style2Digit, TimeZoneLong
	case FormatLong:
		f.hour, f.minute, f.second, f.timeZoneName = StyleNumeric, Style2Digit, Style2Digit, TimeZoneShort
	case FormatMedium:
		f.hour, f.minute, f.second = StyleNumeric, Style2Digit, Style2Digit
	case FormatShort:
		f.hour, f.minute = StyleNumeric, Style2Digit
	}

	needsDefault := f.weekday == "" && f.year == "" && f.month == "" && f.day == "" && !f.hasTime()
	if needsDefault {
		f.year, f.month, f.day = StyleNumeric, StyleNumeric, StyleNumeric
	}

	return f
}

// resolveHourCycle picks the cycle for a locale whose default is def.
// Hour12 wins over HourCycle, which wins over a -u-hc- extension.
// Hour12 keeps the "family" of the default: h11/h23 locales get h11 or h23,
// h12/h24 locales get h12 or h24.
func resolveHourCycle(def HourCycle, ext string, o Options) HourCycle {
	if o.Hour12 != nil {
		zeroBased := def == H11 || def == H23
		switch {
		case *o.Hour12 && zeroBased:
			return H11
		case *o.Hour12:
			return H12
		case zeroBased:
			return H23
		default:
			return H24
		}
	}
	if o.HourCycle != "" {
		return o.HourCycle
	}
	if ext != "" {
		return HourCycle(ext)
	}
	return def
}

func (hc HourCycle) twelveHour() bool {
	return hc == H11 || hc == H12
}
