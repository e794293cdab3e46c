// Package clock holds the time source and the day-key / time-of-day helpers
// every other package uses instead of calling time.Now directly.
package clock

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DayKeyLayout is the canonical YYYY-MM-DD layout for day keys.
const DayKeyLayout = "2006-01-02"

// MinutesPerDay is the length of the day timeline.
const MinutesPerDay = 24 * 60

type Clock interface {
	Now() time.Time
}

type Real struct{}

func (Real) Now() time.Time { return time.Now() }

// Fixed always returns T. Tests move it forward with Advance.
type Fixed struct {
	T time.Time
}

func (f *Fixed) Now() time.Time { return f.T }

func (f *Fixed) Advance(d time.Duration) { f.T = f.T.Add(d) }

// DayKey returns the local-calendar day key for t.
func DayKey(t time.Time) string {
	return t.Format(DayKeyLayout)
}

// ParseDayKey parses a day key as midnight in loc.
func ParseDayKey(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DayKeyLayout, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day key %q: %w", key, err)
	}
	return t, nil
}

// AddDays shifts a day key by n calendar days. Invalid keys come back unchanged.
func AddDays(key string, n int) string {
	t, err := time.Parse(DayKeyLayout, key)
	if err != nil {
		return key
	}
	return t.AddDate(0, 0, n).Format(DayKeyLayout)
}

// DaysBetween returns the number of calendar days from a to b (b - a).
func DaysBetween(a, b string) (int, error) {
	ta, err := time.Parse(DayKeyLayout, a)
	if err != nil {
		return 0, fmt.Errorf("parse day key %q: %w", a, err)
	}
	tb, err := time.Parse(DayKeyLayout, b)
	if err != nil {
		return 0, fmt.Errorf("parse day key %q: %w", b, err)
	}
	return int(tb.Sub(ta).Hours() / 24), nil
}

// StartOfDay returns local midnight of t's day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Minutes is a time of day expressed as minutes since midnight.
type Minutes int

// ParseMinutes parses "HH:MM". 24:00 is accepted as the end of day.
func ParseMinutes(s string) (Minutes, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("parse time of day %q: missing ':'", s)
	}
	hh, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	mm, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	if hh < 0 || mm < 0 || mm > 59 || hh > 24 || (hh == 24 && mm != 0) {
		return 0, fmt.Errorf("parse time of day %q: out of range", s)
	}
	return Minutes(hh*60 + mm), nil
}

// MustMinutes is ParseMinutes for literals.
func MustMinutes(s string) Minutes {
	m, err := ParseMinutes(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Normalize folds m into [0, MinutesPerDay).
func (m Minutes) Normalize() Minutes {
	v := int(m) % MinutesPerDay
	if v < 0 {
		v += MinutesPerDay
	}
	return Minutes(v)
}

func (m Minutes) String() string {
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

// On returns the instant the wall clock reads m on day's calendar date.
// Values past midnight roll into the next day.
func (m Minutes) On(day time.Time) time.Time {
	y, mo, d := day.Date()
	return time.Date(y, mo, d, 0, int(m), 0, 0, day.Location())
}

// MinutesOf returns the time of day of t.
func MinutesOf(t time.Time) Minutes {
	return Minutes(t.Hour()*60 + t.Minute())
}
