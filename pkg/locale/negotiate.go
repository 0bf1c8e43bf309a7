package locale

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Matcher selects the negotiation algorithm.
type Matcher string

const (
	// MatcherBestFit lets the CLDR matcher pick close relatives (de-AT -> de).
	MatcherBestFit Matcher = "best fit"
	// MatcherLookup only accepts truncations of the requested tag.
	MatcherLookup Matcher = "lookup"
)

// Valid reports whether m is empty or a known algorithm.
func (m Matcher) Valid() bool {
	return m == "" || m == MatcherBestFit || m == MatcherLookup
}

// Match is the result of locale negotiation.
type Match struct {
	Data *Data
	// Locale is the supported tag that won.
	Locale string
	// HourCycle is the value of a -u-hc- extension on the winning request, if any.
	HourCycle string
}

// Negotiate picks the first requested locale the database supports.
// An empty request list resolves to the default locale. Any malformed
// identifier fails the whole negotiation with ErrInvalidLocale, even when an
// earlier entry would have matched. A well-formed identifier with an
// unregistered subtag is unsupported, not malformed: the subtag is dropped
// ("en-XX" negotiates as "en") and an unknown language ("xx") is skipped.
func (db *Database) Negotiate(requested []string, m Matcher) (Match, error) {
	if !m.Valid() {
		return Match{}, fmt.Errorf("%w: locale matcher %q", ErrInvalidLocale, m)
	}

	tags := make([]language.Tag, 0, len(requested))
	for _, r := range requested {
		tag, err := parseTag(r)
		var unknown language.ValueError
		switch {
		case errors.As(err, &unknown):
			if tag == language.Und {
				continue
			}
		case err != nil:
			return Match{}, err
		}
		tags = append(tags, tag)
	}

	for _, tag := range tags {
		key, ok := db.lookup(tag)
		if !ok && m != MatcherLookup {
			key, ok = db.bestFit(tag)
		}
		if ok {
			return db.match(key, tag), nil
		}
	}

	return db.match(db.defaultLocale, language.Und), nil
}

func (db *Database) match(key string, requested language.Tag) Match {
	match := Match{Data: db.locales[key], Locale: key}
	if hc := requested.TypeForKey("hc"); IsValidHourCycle(hc) {
		match.HourCycle = hc
	}
	return match
}

// lookup tries the tag and its truncations, most specific first.
func (db *Database) lookup(tag language.Tag) (string, bool) {
	base, script, region := tag.Raw()
	lang := base.String()

	var candidates []string
	hasScript := script != language.Script{}
	hasRegion := region != language.Region{}
	if hasScript && hasRegion {
		candidates = append(candidates, lang+"-"+script.String()+"-"+region.String())
	}
	if hasRegion {
		candidates = append(candidates, lang+"-"+region.String())
	}
	if hasScript {
		candidates = append(candidates, lang+"-"+script.String())
	}
	candidates = append(candidates, lang)

	for _, c := range candidates {
		if _, ok := db.locales[c]; ok {
			return c, true
		}
	}
	return "", false
}

// bestFit accepts a close relative of tag. The matcher also answers with its
// first supported tag at Low confidence for unrelated languages; those are
// rejected so a later requested locale still gets its turn.
func (db *Database) bestFit(tag language.Tag) (string, bool) {
	_, index, confidence := db.matcher.Match(tag)
	if confidence < language.High || index < 0 || index >= len(db.keys) {
		return "", false
	}
	return db.keys[index], true
}

func parseTag(s string) (language.Tag, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return language.Und, fmt.Errorf("%w: empty identifier", ErrInvalidLocale)
	}
	// On a ValueError the tag comes back with the unknown subtag stripped.
	tag, err := language.Parse(s)
	if err != nil {
		return tag, fmt.Errorf("%w: %q: %w", ErrInvalidLocale, s, err)
	}
	return tag, nil
}
