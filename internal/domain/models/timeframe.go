package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrUnsupportedTimeframe is returned by ParseTimeframe for labels that
// do not name a known unit.
var ErrUnsupportedTimeframe = errors.New("unsupported timeframe")

// Unit is the resolution a Timeframe is counted in.
type Unit int

const (
	UnitMinute Unit = iota
	UnitDay
	UnitWeek
	UnitMonth
	UnitYear
)

// String returns the compact unit word used in labels and column
// suffixes ("min", "day", "week", "month", "year").
func (u Unit) String() string {
	switch u {
	case UnitMinute:
		return "min"
	case UnitDay:
		return "day"
	case UnitWeek:
		return "week"
	case UnitMonth:
		return "month"
	case UnitYear:
		return "year"
	}
	return "unknown"
}

// Timeframe is a bar period: a positive multiplier of a unit, such as
// 15 minutes or 1 week. The zero value is not valid; use the
// constructors or ParseTimeframe.
type Timeframe struct {
	Unit Unit
	N    int
}

// Minutes returns an n-minute timeframe.
func Minutes(n int) Timeframe { return Timeframe{Unit: UnitMinute, N: n} }

// Days returns an n-day timeframe.
func Days(n int) Timeframe { return Timeframe{Unit: UnitDay, N: n} }

// Weeks returns an n-week timeframe.
func Weeks(n int) Timeframe { return Timeframe{Unit: UnitWeek, N: n} }

// Months returns an n-month timeframe.
func Months(n int) Timeframe { return Timeframe{Unit: UnitMonth, N: n} }

// Years returns an n-year timeframe.
func Years(n int) Timeframe { return Timeframe{Unit: UnitYear, N: n} }

// ParseTimeframe parses a compact timeframe label.
//
// Accepted forms:
//   - a bare integer ("15"), read as minutes
//   - an integer plus unit suffix ("15min", "5m", "2d", "3w", "6mo", "1y")
//   - a unit word alone ("day", "week", "month", "year"), multiplier 1
func ParseTimeframe(label string) (Timeframe, error) {
	s := strings.ToLower(strings.TrimSpace(label))
	if s == "" {
		return Timeframe{}, fmt.Errorf("%w: empty label", ErrUnsupportedTimeframe)
	}

	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}

	n := 1
	if i > 0 {
		v, err := strconv.Atoi(s[:i])
		if err != nil || v < 1 {
			return Timeframe{}, fmt.Errorf("%w: %q", ErrUnsupportedTimeframe, label)
		}
		n = v
	}

	var unit Unit
	switch s[i:] {
	case "":
		if i == 0 {
			return Timeframe{}, fmt.Errorf("%w: %q", ErrUnsupportedTimeframe, label)
		}
		unit = UnitMinute
	case "m", "min", "minute", "minutes":
		unit = UnitMinute
	case "d", "day", "days":
		unit = UnitDay
	case "w", "week", "weeks":
		unit = UnitWeek
	case "mo", "month", "months":
		unit = UnitMonth
	case "y", "year", "years":
		unit = UnitYear
	default:
		return Timeframe{}, fmt.Errorf("%w: %q", ErrUnsupportedTimeframe, label)
	}

	return Timeframe{Unit: unit, N: n}, nil
}

// String returns the canonical label: the unit word alone when the
// multiplier is 1 ("day", "week"), otherwise prefixed with it ("15min",
// "2week"). The label doubles as the column suffix applied on merges.
func (tf Timeframe) String() string {
	if tf.N == 1 {
		return tf.Unit.String()
	}
	return fmt.Sprintf("%d%s", tf.N, tf.Unit)
}

// Valid reports whether the timeframe has a known unit and a positive
// multiplier.
func (tf Timeframe) Valid() bool {
	return tf.N >= 1 && tf.Unit >= UnitMinute && tf.Unit <= UnitYear
}

// Intraday reports whether the timeframe is minute-based.
func (tf Timeframe) Intraday() bool { return tf.Unit == UnitMinute }

// Span ranks the timeframe by approximate duration in minutes: a day
// counts 1440, a week 10080, a month 43200 and a year 525600. The value
// decides finest versus coarsest and is not calendar arithmetic.
func (tf Timeframe) Span() int64 {
	switch tf.Unit {
	case UnitMinute:
		return int64(tf.N)
	case UnitDay:
		return int64(tf.N) * 1440
	case UnitWeek:
		return int64(tf.N) * 10080
	case UnitMonth:
		return int64(tf.N) * 43200
	case UnitYear:
		return int64(tf.N) * 525600
	}
	return 0
}

// Compare orders timeframes from finest to coarsest by Span, breaking
// duration ties by unit so only identical timeframes compare equal.
// It returns -1, 0 or 1.
func (tf Timeframe) Compare(other Timeframe) int {
	if a, b := tf.Span(), other.Span(); a != b {
		if a < b {
			return -1
		}
		return 1
	}
	if tf.Unit != other.Unit {
		if tf.Unit < other.Unit {
			return -1
		}
		return 1
	}
	if tf.N != other.N {
		if tf.N < other.N {
			return -1
		}
		return 1
	}
	return 0
}

// Truncate returns the start of the bucket containing t, in UTC.
//
// Minute buckets are anchored to the Unix epoch. Daily buckets start at
// midnight UTC, weekly buckets on Monday, monthly buckets on the first
// of the month and yearly buckets on the first of January. Multipliers
// above one group whole units counted from the epoch; for weeks the
// anchor is 1970-01-05, the first Monday on or after the epoch.
func (tf Timeframe) Truncate(t time.Time) time.Time {
	t = t.UTC()
	switch tf.Unit {
	case UnitMinute:
		step := int64(tf.N) * 60
		sec := t.Unix()
		return time.Unix(sec-floorMod(sec, step), 0).UTC()
	case UnitDay:
		day := floorDiv(t.Unix(), secondsPerDay)
		day -= floorMod(day, int64(tf.N))
		return time.Unix(day*secondsPerDay, 0).UTC()
	case UnitWeek:
		// 1970-01-01 was a Thursday; epoch day 4 is the first Monday.
		week := floorDiv(floorDiv(t.Unix(), secondsPerDay)-4, 7)
		week -= floorMod(week, int64(tf.N))
		return time.Unix((week*7+4)*secondsPerDay, 0).UTC()
	case UnitMonth:
		m := int64((t.Year()-1970)*12 + int(t.Month()) - 1)
		m -= floorMod(m, int64(tf.N))
		return time.Date(1970+int(floorDiv(m, 12)), time.Month(floorMod(m, 12)+1), 1, 0, 0, 0, 0, time.UTC)
	case UnitYear:
		y := int64(t.Year() - 1970)
		y -= floorMod(y, int64(tf.N))
		return time.Date(1970+int(y), time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return t
}

const secondsPerDay = int64(86400)

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 { return a - floorDiv(a, b)*b }
