package datefmt

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrymomot/datefmt/pkg/locale"
)

type field int

const (
	fieldLiteral field = iota
	fieldEra
	fieldYear
	fieldMonth
	fieldDay
	fieldWeekday
	fieldHour
	fieldMinute
	fieldSecond
	fieldFraction
	fieldDayPeriod
	fieldTimeZoneName

	// slots are replaced by a composed sub-pattern.
	slotDate
	slotTime
)

var placeholders = map[string]field{
	"era":          fieldEra,
	"year":         fieldYear,
	"month":        fieldMonth,
	"day":          fieldDay,
	"weekday":      fieldWeekday,
	"hour":         fieldHour,
	"minute":       fieldMinute,
	"second":       fieldSecond,
	"dayPeriod":    fieldDayPeriod,
	"timeZoneName": fieldTimeZoneName,
	"date":         slotDate,
	"time":         slotTime,
}

// segment is a literal or a field with an optional bound suffix.
type segment struct {
	text  string // literal text, or the suffix of a field
	field field
}

func literal(s string) segment { return segment{field: fieldLiteral, text: s} }
func placeholder(f field) segment { return segment{field: f} }

// parsePattern splits "{month}/{day}/{year:年}" into segments.
func parsePattern(pattern string) ([]segment, error) {
	var segs []segment
	rest := pattern
	for rest != "" {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			segs = append(segs, literal(rest))
			break
		}
		if open > 0 {
			segs = append(segs, literal(rest[:open]))
		}

		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return nil, fmt.Errorf("%w: unterminated placeholder in %q", locale.ErrInvalidData, pattern)
		}
		name, suffix, _ := strings.Cut(rest[open+1:open+end], ":")
		f, ok := placeholders[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown placeholder {%s} in %q", locale.ErrInvalidData, name, pattern)
		}
		segs = append(segs, segment{field: f, text: suffix})
		rest = rest[open+end+1:]
	}
	return segs, nil
}

// prune removes fields that are not present. A removed field takes one
// neighbouring literal with it: the following one when another field comes
// after it, otherwise the preceding one.
func prune(segs []segment, present func(field) bool) []segment {
	out := slices.Clone(segs)
	for i := 0; i < len(out); {
		s := out[i]
		if s.field == fieldLiteral || present(s.field) {
			i++
			continue
		}

		switch {
		case i+1 < len(out) && out[i+1].field == fieldLiteral && hasFieldFrom(out, i+2):
			out = slices.Delete(out, i, i+2)
		case i > 0 && out[i-1].field == fieldLiteral:
			out = slices.Delete(out, i-1, i+1)
			i--
		default:
			out = slices.Delete(out, i, i+1)
		}
	}
	return out
}

func hasFieldFrom(segs []segment, from int) bool {
	for _, s := range segs[from:] {
		if s.field != fieldLiteral {
			return true
		}
	}
	return false
}

// compose prunes a wrapper pattern and fills its slots. Plain fields are
// kept when present reports them.
func compose(pattern []segment, present map[field]bool, slots map[field][]segment) []segment {
	pruned := prune(pattern, func(f field) bool {
		if f == slotDate || f == slotTime {
			return len(slots[f]) > 0
		}
		return present[f]
	})

	var out []segment
	for _, s := range pruned {
		if s.field == slotDate || s.field == slotTime {
			out = append(out, slots[s.field]...)
			continue
		}
		out = append(out, s)
	}
	return out
}

// compiled holds a locale's patterns parsed once per layout.
type compiled struct {
	dateNumeric, dateText []segment
	weekday, era          []segment
	time, dayPeriod       []segment
	dateTime              []segment
}

var zoneAfterTime = []segment{placeholder(slotTime), literal(" "), placeholder(fieldTimeZoneName)}

func compilePatterns(p locale.Patterns) (compiled, error) {
	var c compiled
	for _, item := range []struct {
		dst *[]segment
		src string
	}{
		{&c.dateNumeric, p.DateNumeric},
		{&c.dateText, p.DateText},
		{&c.weekday, p.Weekday},
		{&c.era, p.Era},
		{&c.time, p.Time},
		{&c.dayPeriod, p.DayPeriod},
		{&c.dateTime, p.DateTime},
	} {
		segs, err := parsePattern(item.src)
		if err != nil {
			return compiled{}, err
		}
		*item.dst = segs
	}
	return c, nil
}

// assemble builds the segment list for the resolved fields.
func assemble(c compiled, f fields, hc HourCycle, decimal string) []segment {
	var date []segment
	if f.year != "" || f.month != "" || f.day != "" {
		base := c.dateNumeric
		if textMonth(f.month) {
			base = c.dateText
		}
		date = prune(base, func(x field) bool {
			switch x {
			case fieldYear:
				return f.year != ""
			case fieldMonth:
				return f.month != ""
			case fieldDay:
				return f.day != ""
			}
			return false
		})
	}
	if f.weekday != "" {
		date = compose(c.weekday, map[field]bool{fieldWeekday: true}, map[field][]segment{slotDate: date})
	}
	if f.era != "" {
		date = compose(c.era, map[field]bool{fieldEra: true}, map[field][]segment{slotDate: date})
	}

	var clock []segment
	if f.hour != "" || f.minute != "" || f.second != "" {
		clock = prune(c.time, func(x field) bool {
			switch x {
			case fieldHour:
				return f.hour != ""
			case fieldMinute:
				return f.minute != ""
			case fieldSecond:
				return f.second != ""
			}
			return false
		})
	}
	if f.fraction > 0 {
		frac := []segment{placeholder(fieldFraction)}
		if len(clock) > 0 {
			frac = append([]segment{literal(decimal)}, frac...)
		}
		at := len(clock)
		if i := slices.IndexFunc(clock, func(s segment) bool { return s.field == fieldSecond }); i >= 0 {
			at = i + 1
		}
		clock = slices.Insert(clock, at, frac...)
	}
	if f.hour != "" && hc.twelveHour() {
		clock = compose(c.dayPeriod, map[field]bool{fieldDayPeriod: true}, map[field][]segment{slotTime: clock})
	}

	zone := f.timeZoneName != ""
	if zone && len(clock) > 0 {
		clock = compose(zoneAfterTime, map[field]bool{fieldTimeZoneName: true}, map[field][]segment{slotTime: clock})
	}

	switch {
	case len(date) > 0 && len(clock) > 0:
		return compose(c.dateTime, nil, map[field][]segment{slotDate: date, slotTime: clock})
	case len(clock) > 0:
		return clock
	case zone:
		return compose(c.dateTime, nil, map[field][]segment{slotDate: date, slotTime: {placeholder(fieldTimeZoneName)}})
	default:
		return date
	}
}

func textMonth(s Style) bool {
	return s == StyleLong || s == StyleShort || s == StyleNarrow
}
