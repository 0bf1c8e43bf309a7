package datefmt

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/datefmt/pkg/locale"
)

// maxUnixSeconds is the ECMAScript time value range: ±8.64e15 ms.
const maxUnixSeconds = 8_640_000_000_000

type layout struct {
	data     *locale.Data
	zone     zone
	fields   fields
	hc       HourCycle
	segments []segment
	resolved ResolvedOptions
}

func (l *layout) ResolvedOptions() ResolvedOptions {
	r := l.resolved
	if r.Hour12 != nil {
		r.Hour12 = Bool(*r.Hour12)
	}
	return r
}

func (l *layout) Format(t time.Time) (string, error) {
	parts, err := l.FormatToParts(t)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.Value)
	}
	return b.String(), nil
}

func (l *layout) FormatToParts(t time.Time) ([]Part, error) {
	if sec := t.Unix(); sec > maxUnixSeconds || sec < -maxUnixSeconds {
		return nil, fmt.Errorf("%w: %s out of range", ErrInvalidDate, t.UTC().Format(time.RFC3339))
	}
	t = t.In(l.zone.loc)

	parts := make([]Part, 0, len(l.segments)*2)
	add := func(typ PartType, value string) {
		if value == "" {
			return
		}
		if typ == PartLiteral && len(parts) > 0 && parts[len(parts)-1].Type == PartLiteral {
			parts[len(parts)-1].Value += value
			return
		}
		parts = append(parts, Part{Type: typ, Value: value})
	}

	for _, s := range l.segments {
		if s.field == fieldLiteral {
			add(PartLiteral, s.text)
			continue
		}
		typ, value := l.render(s.field, t)
		add(typ, value)
		add(PartLiteral, s.text)
	}
	return parts, nil
}

func (l *layout) render(f field, t time.Time) (PartType, string) {
	d, fs := l.data, l.fields

	switch f {
	case fieldEra:
		i := 1
		if t.Year() <= 0 {
			i = 0
		}
		return PartEra, pick(d.Eras.Pick(string(fs.era)), i)

	case fieldYear:
		y := t.Year()
		if fs.era != "" && y <= 0 {
			y = 1 - y
		}
		if fs.year == Style2Digit {
			return PartYear, pad2(abs(y) % 100)
		}
		return PartYear, strconv.Itoa(y)

	case fieldMonth:
		m := int(t.Month())
		if textMonth(fs.month) {
			return PartMonth, pick(d.MonthNames(string(fs.month), fs.day == ""), m-1)
		}
		return PartMonth, number(m, fs.month == Style2Digit || d.Pads("month"))

	case fieldDay:
		return PartDay, number(t.Day(), fs.day == Style2Digit || (!textMonth(fs.month) && d.Pads("day")))

	case fieldWeekday:
		return PartWeekday, pick(d.Weekdays.Pick(string(fs.weekday)), int(t.Weekday()))

	case fieldHour:
		return PartHour, number(l.hour(t.Hour()), fs.hour == Style2Digit || !l.hc.twelveHour())

	case fieldMinute:
		return PartMinute, number(t.Minute(), fs.minute == Style2Digit || fs.hour != "")

	case fieldSecond:
		return PartSecond, number(t.Second(), fs.second == Style2Digit || fs.minute != "" || fs.hour != "")

	case fieldFraction:
		div := 1
		for range 9 - fs.fraction {
			div *= 10
		}
		return PartFractionalSecond, fmt.Sprintf("%0*d", fs.fraction, t.Nanosecond()/div)

	case fieldDayPeriod:
		i := 0
		if t.Hour() >= 12 {
			i = 1
		}
		return PartDayPeriod, pick(d.DayPeriods, i)

	case fieldTimeZoneName:
		return PartTimeZoneName, zoneLabel(l.zone, t, fs.timeZoneName)
	}

	return PartLiteral, ""
}

func (l *layout) hour(h int) int {
	switch l.hc {
	case H11:
		return h % 12
	case H12:
		if h%12 == 0 {
			return 12
		}
		return h % 12
	case H24:
		if h == 0 {
			return 24
		}
	}
	return h
}

func number(n int, twoDigit bool) string {
	if twoDigit {
		return pad2(n)
	}
	return strconv.Itoa(n)
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

func pick(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return ""
	}
	return names[i]
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
