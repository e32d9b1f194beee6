// Package calendar expands a monthly recurrence pattern into concrete service days
package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of a service date
const DateLayout = "2006-01-02"

// Weekday codes follow time.Weekday: 0 Sunday through 6 Saturday
type Weekday = time.Weekday

// WeekdaySet is a set of weekday codes; adding or removing twice is a no op
type WeekdaySet uint8

var (
	// ErrNoWeekdays is returned when a pattern includes no weekday at all
	ErrNoWeekdays = errors.New("calendar: included weekdays must not be empty")
	// ErrBadMonth is returned for month or year outside the calendar
	ErrBadMonth = errors.New("calendar: month must be 1..12 and year positive")
)

// NewWeekdaySet builds a set from weekday codes, rejecting codes outside 0..6
func NewWeekdaySet(codes ...int) (WeekdaySet, error) {
	var s WeekdaySet
	for _, c := range codes {
		if c < 0 || c > 6 {
			return 0, fmt.Errorf("calendar: weekday code %d out of range 0..6", c)
		}
		s = s.With(time.Weekday(c))
	}
	return s, nil
}

// MustWeekdaySet is NewWeekdaySet for literals
func MustWeekdaySet(codes ...int) WeekdaySet {
	s, err := NewWeekdaySet(codes...)
	if err != nil {
		panic(err)
	}
	return s
}

// Workdays is Monday through Friday
var Workdays = MustWeekdaySet(1, 2, 3, 4, 5)

// With returns s plus d
func (s WeekdaySet) With(d Weekday) WeekdaySet { return s | 1<<uint(d) }

// Without returns s minus d
func (s WeekdaySet) Without(d Weekday) WeekdaySet { return s &^ (1 << uint(d)) }

// Minus returns the set difference s \ o
func (s WeekdaySet) Minus(o WeekdaySet) WeekdaySet { return s &^ o }

// Has reports membership
func (s WeekdaySet) Has(d Weekday) bool { return s&(1<<uint(d)) != 0 }

// Empty reports whether no weekday is present
func (s WeekdaySet) Empty() bool { return s&0x7f == 0 }

// Codes lists members in ascending code order
func (s WeekdaySet) Codes() []int {
	out := make([]int, 0, 7)
	for d := 0; d < 7; d++ {
		if s.Has(time.Weekday(d)) {
			out = append(out, d)
		}
	}
	return out
}

func (s WeekdaySet) String() string {
	names := make([]string, 0, 7)
	for _, c := range s.Codes() {
		names = append(names, time.Weekday(c).String()[:3])
	}
	return "{" + strings.Join(names, ",") + "}"
}

// Pattern describes how a duty and shift repeat across one month
type Pattern struct {
	Month    int
	Year     int
	LineID   string
	Duty     string
	Shift    int
	DriverID int64

	Included WeekdaySet
	Excluded WeekdaySet

	// optional duty names used on weekends instead of Duty
	SaturdayDuty string
	SundayDuty   string
}

// Day is one concrete service day produced by Expand
type Day struct {
	Date  time.Time
	Duty  string
	Shift int
}

// Key returns the date as YYYY-MM-DD
func (d Day) Key() string { return d.Date.Format(DateLayout) }

// Weekday returns the day's weekday code
func (d Day) Weekday() Weekday { return d.Date.Weekday() }

// DaysIn returns the number of days in month of year
func DaysIn(month, year int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Date returns midnight UTC for the calendar day
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses YYYY-MM-DD into midnight UTC
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
}

// MonthBounds returns the first and the last day of the month, both inclusive
func MonthBounds(month, year int) (time.Time, time.Time) {
	first := Date(year, month, 1)
	return first, first.AddDate(0, 1, -1)
}

// Expand lists every day of the pattern's month whose weekday is included and not excluded
// saturdays and sundays take the override duty when one is set; the shift never changes
// the result is in ascending date order and may be empty
func Expand(p Pattern) ([]Day, error) {
	if p.Month < 1 || p.Month > 12 || p.Year < 1 {
		return nil, ErrBadMonth
	}
	if p.Included.Empty() {
		return nil, ErrNoWeekdays
	}

	active := p.Included.Minus(p.Excluded)
	n := DaysIn(p.Month, p.Year)
	out := make([]Day, 0, n)
	for d := 1; d <= n; d++ {
		date := Date(p.Year, p.Month, d)
		wd := date.Weekday()
		if !active.Has(wd) {
			continue
		}
		out = append(out, Day{Date: date, Duty: dutyFor(p, wd), Shift: p.Shift})
	}
	return out, nil
}

func dutyFor(p Pattern, wd Weekday) string {
	switch {
	case wd == time.Saturday && p.SaturdayDuty != "":
		return p.SaturdayDuty
	case wd == time.Sunday && p.SundayDuty != "":
		return p.SundayDuty
	}
	return p.Duty
}

// Keys returns the date keys of days in order
func Keys(days []Day) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.Key()
	}
	return out
}
