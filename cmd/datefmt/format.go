package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/datefmt/pkg/datefmt"
	"github.com/dmitrymomot/datefmt/pkg/locale"
)

type formatFlags struct {
	locales []string
	options string
	parts   bool
	resolve bool

	matcher      string
	weekday      string
	era          string
	year         string
	month        string
	day          string
	hour         string
	minute       string
	second       string
	fraction     int
	timeZoneName string
	timeZone     string
	hour12       bool
	hourCycle    string
	dateStyle    string
	timeStyle    string
}

func newFormatCmd(g *globalFlags) *cobra.Command {
	f := &formatFlags{}

	cmd := &cobra.Command{
		Use:   "format [date]",
		Short: "Format a date",
		Long: `Formats an RFC 3339 date, a Unix timestamp in milliseconds or "now".
Without a date the current time is used.`,
		Example: `  datefmt format 2021-03-04T05:06:07Z --locale de --date-style long
  datefmt format now --hour numeric --minute numeric --hour12=false
  datefmt format 1609459200000 --options '{"timeZone":"Etc/GMT+12","hour":"numeric"}'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := time.Now()
			if len(args) == 1 {
				d, err := parseDate(args[0])
				if err != nil {
					return err
				}
				date = d
			}

			opts, err := f.build(cmd)
			if err != nil {
				return err
			}

			db, err := g.database()
			if err != nil {
				return err
			}
			engine, err := datefmt.NewCLDREngine(db)
			if err != nil {
				return err
			}
			formatter, err := datefmt.New(datefmt.WithEngine(engine))
			if err != nil {
				return err
			}

			return f.print(cmd, formatter, date, opts)
		},
	}

	fl := cmd.Flags()
	fl.StringSliceVarP(&f.locales, "locale", "l", nil, "requested locales in priority order (repeatable)")
	fl.StringVar(&f.options, "options", "", "options as JSON; individual flags override it")
	fl.BoolVar(&f.parts, "parts", false, "print the formatted parts as JSON")
	fl.BoolVar(&f.resolve, "resolved", false, "print the resolved options as JSON")

	fl.StringVar(&f.matcher, "locale-matcher", "", `"best fit" or "lookup"`)
	fl.StringVar(&f.weekday, "weekday", "", "long, short or narrow")
	fl.StringVar(&f.era, "era", "", "long, short or narrow")
	fl.StringVar(&f.year, "year", "", "numeric or 2-digit")
	fl.StringVar(&f.month, "month", "", "numeric, 2-digit, long, short or narrow")
	fl.StringVar(&f.day, "day", "", "numeric or 2-digit")
	fl.StringVar(&f.hour, "hour", "", "numeric or 2-digit")
	fl.StringVar(&f.minute, "minute", "", "numeric or 2-digit")
	fl.StringVar(&f.second, "second", "", "numeric or 2-digit")
	fl.IntVar(&f.fraction, "fractional-second-digits", 0, "0 to 3")
	fl.StringVar(&f.timeZoneName, "time-zone-name", "", "short, long, shortOffset or longOffset")
	fl.StringVarP(&f.timeZone, "time-zone", "z", "", "IANA zone, UTC or a fixed offset such as +05:30")
	fl.BoolVar(&f.hour12, "hour12", false, "force a 12-hour (true) or 24-hour (false) clock")
	fl.StringVar(&f.hourCycle, "hour-cycle", "", "h11, h12, h23 or h24")
	fl.StringVar(&f.dateStyle, "date-style", "", "full, long, medium or short")
	fl.StringVar(&f.timeStyle, "time-style", "", "full, long, medium or short")

	cmd.MarkFlagsMutuallyExclusive("parts", "resolved")
	return cmd
}

// build merges --options with the individual flags that were set.
func (f *formatFlags) build(cmd *cobra.Command) (datefmt.Options, error) {
	var opts datefmt.Options
	if f.options != "" {
		if err := json.Unmarshal([]byte(f.options), &opts); err != nil {
			return opts, fmt.Errorf("invalid --options: %w", err)
		}
	}

	changed := cmd.Flags().Changed
	set := func(name string, dst *datefmt.Style, v string) {
		if changed(name) {
			*dst = datefmt.Style(v)
		}
	}
	set("weekday", &opts.Weekday, f.weekday)
	set("era", &opts.Era, f.era)
	set("year", &opts.Year, f.year)
	set("month", &opts.Month, f.month)
	set("day", &opts.Day, f.day)
	set("hour", &opts.Hour, f.hour)
	set("minute", &opts.Minute, f.minute)
	set("second", &opts.Second, f.second)

	if changed("locale-matcher") {
		opts.LocaleMatcher = locale.Matcher(f.matcher)
	}
	if changed("fractional-second-digits") {
		opts.FractionalSecondDigits = f.fraction
	}
	if changed("time-zone-name") {
		opts.TimeZoneName = datefmt.TimeZoneName(f.timeZoneName)
	}
	if changed("time-zone") {
		opts.TimeZone = f.timeZone
	}
	if changed("hour12") {
		opts.Hour12 = datefmt.Bool(f.hour12)
	}
	if changed("hour-cycle") {
		opts.HourCycle = datefmt.HourCycle(f.hourCycle)
	}
	if changed("date-style") {
		opts.DateStyle = datefmt.FormatStyle(f.dateStyle)
	}
	if changed("time-style") {
		opts.TimeStyle = datefmt.FormatStyle(f.timeStyle)
	}
	return opts, nil
}

func (f *formatFlags) print(cmd *cobra.Command, formatter *datefmt.Formatter, date time.Time, opts datefmt.Options) error {
	out := cmd.OutOrStdout()

	switch {
	case f.parts:
		parts, err := formatter.FormatToParts(date, opts, f.locales...)
		if err != nil {
			return err
		}
		return writeIndented(cmd, parts)
	case f.resolve:
		layout, err := formatter.Layout(opts, f.locales...)
		if err != nil {
			return err
		}
		return writeIndented(cmd, layout.ResolvedOptions())
	default:
		s, err := formatter.Format(date, opts, f.locales...)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, s)
		return err
	}
}

func writeIndented(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseDate accepts "now", RFC 3339 or Unix milliseconds.
func parseDate(s string) (time.Time, error) {
	if s == "now" {
		return time.Now(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q: want RFC 3339, Unix milliseconds or \"now\"", s)
}
