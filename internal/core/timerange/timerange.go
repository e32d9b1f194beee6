// Package timerange provides minute-of-day arithmetic for duty windows
// A window is half open [start,end) and crosses midnight when end <= start
package timerange

import (
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay is the length of a service day in minutes
const MinutesPerDay = 24 * 60

// Range is a half open window in minutes since midnight
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Parse converts "HH:MM" or "HH:MM:SS" into minutes since midnight (0..1439)
// seconds are accepted and truncated
func Parse(text string) (int, error) {
	s := strings.TrimSpace(text)
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("timerange: %q is not HH:MM", text)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) == 0 || len(parts[0]) > 2 {
		return 0, fmt.Errorf("timerange: bad hour in %q", text)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 2 {
		return 0, fmt.Errorf("timerange: bad minute in %q", text)
	}
	if len(parts) == 3 {
		if sec, err := strconv.Atoi(parts[2]); err != nil || len(parts[2]) != 2 || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("timerange: bad second in %q", text)
		}
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("timerange: %q out of range", text)
	}
	return h*60 + m, nil
}

// MustParse is Parse for literals known to be valid
func MustParse(text string) int {
	v, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return v
}

// ParseRange parses a start and end pair into a Range
func ParseRange(start, end string) (Range, error) {
	s, err := Parse(start)
	if err != nil {
		return Range{}, err
	}
	e, err := Parse(end)
	if err != nil {
		return Range{}, err
	}
	return Range{Start: s, End: e}, nil
}

// Format renders minutes as "HH:MM", wrapping values outside one day
func Format(minutes int) string {
	m := ((minutes % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// FormatDuration renders a span as "HH:MM" without wrapping
func FormatDuration(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// CrossesMidnight reports whether the window ends on the following day
func (r Range) CrossesMidnight() bool { return r.End <= r.Start }

// normalized returns the window with end pushed past start
func (r Range) normalized() (int, int) {
	if r.CrossesMidnight() {
		return r.Start, r.End + MinutesPerDay
	}
	return r.Start, r.End
}

// Minutes is the window length, a full day when start == end
func (r Range) Minutes() int {
	s, e := r.normalized()
	return e - s
}

// String renders "HH:MM-HH:MM"
func (r Range) String() string { return Format(r.Start) + "-" + Format(r.End) }

// Overlaps reports whether two windows share at least one minute
func (r Range) Overlaps(o Range) bool {
	return Overlaps(r.Start, r.End, o.Start, o.End)
}

// Overlaps tests [start1,end1) against [start2,end2) in minutes since midnight
// touching boundaries do not overlap
// a window crossing midnight is also compared one day later against the other
// so its early morning tail meets the other window's literal span
func Overlaps(start1, end1, start2, end2 int) bool {
	s1, e1 := Range{start1, end1}.normalized()
	s2, e2 := Range{start2, end2}.normalized()
	for _, shift := range [...]int{0, MinutesPerDay, -MinutesPerDay} {
		if s1 < e2+shift && s2+shift < e1 {
			return true
		}
	}
	return false
}

// OverlapsText is Overlaps over "HH:MM" inputs
func OverlapsText(start1, end1, start2, end2 string) (bool, error) {
	a, err := ParseRange(start1, end1)
	if err != nil {
		return false, err
	}
	b, err := ParseRange(start2, end2)
	if err != nil {
		return false, err
	}
	return a.Overlaps(b), nil
}
