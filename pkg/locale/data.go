package locale

import (
	"fmt"
	"slices"
	"strings"
)

// Hour cycle identifiers as used by CLDR and the Unicode "hc" extension key.
const (
	H11 = "h11"
	H12 = "h12"
	H23 = "h23"
	H24 = "h24"
)

// Name widths.
const (
	WidthLong   = "long"
	WidthShort  = "short"
	WidthNarrow = "narrow"
)

// Names holds one list of display names per width.
type Names struct {
	Long   []string `yaml:"long"`
	Short  []string `yaml:"short"`
	Narrow []string `yaml:"narrow"`
}

// Pick returns the names for the given width, or nil for an unknown width.
func (n Names) Pick(width string) []string {
	switch width {
	case WidthLong:
		return n.Long
	case WidthShort:
		return n.Short
	case WidthNarrow:
		return n.Narrow
	default:
		return nil
	}
}

func (n Names) validate(field string, size int) error {
	for width, list := range map[string][]string{WidthLong: n.Long, WidthShort: n.Short, WidthNarrow: n.Narrow} {
		if len(list) != size {
			return fmt.Errorf("%s.%s: want %d names, got %d", field, width, size, len(list))
		}
	}
	return nil
}

// Patterns describe how fields are assembled for a locale.
//
// Placeholders are written as {name} or {name:suffix}; a suffix is bound to
// its field and disappears with it. Literal text between two placeholders is
// dropped together with a missing field.
type Patterns struct {
	// DateNumeric orders {year}, {month} and {day} when the month is numeric.
	DateNumeric string `yaml:"date_numeric"`
	// DateText orders {year}, {month} and {day} when the month is spelled out.
	DateText string `yaml:"date_text"`
	// Weekday places {weekday} around {date}.
	Weekday string `yaml:"weekday"`
	// Era places {era} around {date}.
	Era string `yaml:"era"`
	// Time orders {hour}, {minute} and {second}.
	Time string `yaml:"time"`
	// DayPeriod places {dayPeriod} around {time} for 12-hour cycles.
	DayPeriod string `yaml:"day_period"`
	// DateTime joins {date} and {time}.
	DateTime string `yaml:"date_time"`
}

// Data is the calendar data of a single locale.
type Data struct {
	Tag              string   `yaml:"tag"`
	HourCycle        string   `yaml:"hour_cycle"`
	Decimal          string   `yaml:"decimal"`
	DayPeriods       []string `yaml:"day_periods"`
	Months           Names    `yaml:"months"`
	MonthsStandalone *Names   `yaml:"months_standalone"`
	Weekdays         Names    `yaml:"weekdays"`
	Eras             Names    `yaml:"eras"`
	Patterns         Patterns `yaml:"patterns"`
	// Pad lists numeric date fields that are always rendered with two digits.
	Pad []string `yaml:"pad"`
}

// MonthNames returns the month names for a width. Stand-alone forms are used
// when the month is displayed without a day and the locale defines them.
func (d *Data) MonthNames(width string, standalone bool) []string {
	if standalone && d.MonthsStandalone != nil {
		if names := d.MonthsStandalone.Pick(width); len(names) == 12 {
			return names
		}
	}
	return d.Months.Pick(width)
}

// Pads reports whether a numeric date field is always two digits wide.
func (d *Data) Pads(field string) bool {
	return slices.Contains(d.Pad, field)
}

// IsValidHourCycle reports whether hc is one of h11, h12, h23 or h24.
func IsValidHourCycle(hc string) bool {
	switch hc {
	case H11, H12, H23, H24:
		return true
	default:
		return false
	}
}

func (d *Data) validate() error {
	if strings.TrimSpace(d.Tag) == "" {
		return fmt.Errorf("%w: missing tag", ErrInvalidData)
	}
	if !IsValidHourCycle(d.HourCycle) {
		return fmt.Errorf("%w: %s: hour_cycle %q", ErrInvalidData, d.Tag, d.HourCycle)
	}
	if d.Decimal == "" {
		d.Decimal = "."
	}
	if len(d.DayPeriods) != 2 {
		return fmt.Errorf("%w: %s: day_periods: want 2 names, got %d", ErrInvalidData, d.Tag, len(d.DayPeriods))
	}
	if err := d.Months.validate("months", 12); err != nil {
		return fmt.Errorf("%w: %s: %s", ErrInvalidData, d.Tag, err)
	}
	if d.MonthsStandalone != nil {
		if err := d.MonthsStandalone.validate("months_standalone", 12); err != nil {
			return fmt.Errorf("%w: %s: %s", ErrInvalidData, d.Tag, err)
		}
	}
	if err := d.Weekdays.validate("weekdays", 7); err != nil {
		return fmt.Errorf("%w: %s: %s", ErrInvalidData, d.Tag, err)
	}
	if err := d.Eras.validate("eras", 2); err != nil {
		return fmt.Errorf("%w: %s: %s", ErrInvalidData, d.Tag, err)
	}

	p := d.Patterns
	for name, pattern := range map[string]string{
		"date_numeric": p.DateNumeric,
		"date_text":    p.DateText,
		"weekday":      p.Weekday,
		"era":          p.Era,
		"time":         p.Time,
		"day_period":   p.DayPeriod,
		"date_time":    p.DateTime,
	} {
		if pattern == "" {
			return fmt.Errorf("%w: %s: patterns.%s is empty", ErrInvalidData, d.Tag, name)
		}
	}

	for _, field := range d.Pad {
		if field != "day" && field != "month" {
			return fmt.Errorf("%w: %s: pad: unknown field %q", ErrInvalidData, d.Tag, field)
		}
	}

	return nil
}
