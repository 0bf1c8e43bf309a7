// Package datefmt formats dates for a locale and a time zone.
//
// A [Formatter] resolves options into a [Layout] through an [Engine] and
// caches the layout per distinct pair of locales and options:
//
//	f, err := datefmt.New()
//	s, err := f.Format(t, datefmt.Options{
//	    Hour:     datefmt.StyleNumeric,
//	    Minute:   datefmt.StyleNumeric,
//	    TimeZone: "Europe/Berlin",
//	    Hour12:   datefmt.Bool(false),
//	}, "de-AT", "en")
//
// # Corrections
//
// Two option rewrites happen before the cache lookup.
//
// Hour12 false asks for a 24-hour clock, but depending on the locale the
// engine may resolve it to h24, which renders midnight as 24:00. When the
// engine reports hour cycles, the formatter replaces Hour12 false with
// HourCycle h23. This also replaces any HourCycle the caller set.
//
// The zone Etc/GMT+12 is replaced with UTC and the instant moved back twelve
// hours, which renders the same wall-clock time.
//
// # Engine
//
// [CLDREngine] is the default engine. It reads locale data from
// [locale.Database], negotiates the locale (best fit or lookup, with -u-hc-
// extensions), resolves IANA zones, UTC aliases and fixed offsets such as
// +05:30, and compiles the locale patterns once per layout.
//
// # Errors
//
//   - [ErrInvalidDate] for instants outside ±8.64e15 ms of the epoch
//   - [ErrInvalidLocale] for malformed locale identifiers
//   - [ErrInvalidOption] for unknown or conflicting option values
//   - [ErrInvalidTimeZone] for zones that cannot be resolved
//
// Errors reach the caller unchanged; nothing is cached for a failed layout.
package datefmt
