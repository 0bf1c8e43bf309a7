package datefmt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // zone database for hosts without /usr/share/zoneinfo
)

// UTC is the canonical name for every UTC alias.
const UTC = "UTC"

var utcAliases = map[string]struct{}{
	"UTC": {}, "ETC/UTC": {}, "ETC/UCT": {}, "UCT": {},
	"GMT": {}, "ETC/GMT": {}, "GMT0": {}, "ETC/GMT0": {},
	"GMT+0": {}, "GMT-0": {}, "ETC/GMT+0": {}, "ETC/GMT-0": {},
	"ZULU": {}, "ETC/ZULU": {}, "UNIVERSAL": {}, "ETC/UNIVERSAL": {},
	"GREENWICH": {}, "ETC/GREENWICH": {},
}

var offsetRe = regexp.MustCompile(`^([+-])(\d{2})(?::?(\d{2}))?$`)

// zone is a resolved time zone and the identifier reported back to callers.
type zone struct {
	name string
	loc  *time.Location
}

// resolveZone maps a time-zone option to a location. Empty input resolves
// to def.
func resolveZone(name, def string) (zone, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = def
	}
	if name == "" {
		return zone{name: UTC, loc: time.UTC}, nil
	}

	if _, ok := utcAliases[strings.ToUpper(name)]; ok {
		return zone{name: UTC, loc: time.UTC}, nil
	}

	if m := offsetRe.FindStringSubmatch(name); m != nil {
		hours, _ := strconv.Atoi(m[2])
		minutes := 0
		if m[3] != "" {
			minutes, _ = strconv.Atoi(m[3])
		}
		if hours > 23 || minutes > 59 {
			return zone{}, fmt.Errorf("%w: offset %q out of range", ErrInvalidTimeZone, name)
		}
		canonical := fmt.Sprintf("%s%02d:%02d", m[1], hours, minutes)
		secs := hours*3600 + minutes*60
		if m[1] == "-" {
			secs = -secs
		}
		return zone{name: canonical, loc: time.FixedZone(canonical, secs)}, nil
	}

	// time.LoadLocation accepts "Local", which would make output host dependent.
	if strings.EqualFold(name, "Local") {
		return zone{}, fmt.Errorf("%w: %q", ErrInvalidTimeZone, name)
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return zone{}, fmt.Errorf("%w: %q", ErrInvalidTimeZone, name)
	}
	return zone{name: loc.String(), loc: loc}, nil
}

// zoneLabel renders the time-zone name of t (already in the zone's location).
func zoneLabel(z zone, t time.Time, style TimeZoneName) string {
	abbr, offset := t.Zone()
	utc := z.loc == time.UTC

	switch style {
	case TimeZoneShort:
		if utc {
			return UTC
		}
		if isAlphaAbbr(abbr) {
			return abbr
		}
		return shortOffset(offset)
	case TimeZoneLong:
		if utc {
			return "Coordinated Universal Time"
		}
		return longOffset(offset)
	case TimeZoneShortOffset:
		return shortOffset(offset)
	case TimeZoneLongOffset:
		return longOffset(offset)
	default:
		return ""
	}
}

func isAlphaAbbr(s string) bool {
	if len(s) < 3 {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}

// shortOffset renders GMT, GMT+5 or GMT-3:30.
func shortOffset(secs int) string {
	if secs == 0 {
		return "GMT"
	}
	sign, h, m := splitOffset(secs)
	if m == 0 {
		return fmt.Sprintf("GMT%s%d", sign, h)
	}
	return fmt.Sprintf("GMT%s%d:%02d", sign, h, m)
}

// longOffset renders GMT or GMT+05:30.
func longOffset(secs int) string {
	if secs == 0 {
		return "GMT"
	}
	sign, h, m := splitOffset(secs)
	return fmt.Sprintf("GMT%s%02d:%02d", sign, h, m)
}

func splitOffset(secs int) (sign string, hours, minutes int) {
	sign = "+"
	if secs < 0 {
		sign = "-"
		secs = -secs
	}
	return sign, secs / 3600, secs % 3600 / 60
}
