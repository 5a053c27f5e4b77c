package interval

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/jakechorley/timegrid/pkg/core/labelparser"
)

const (
	// MinutesPerDay is the exclusive upper bound of a start and the inclusive bound of an end
	MinutesPerDay = 24 * 60

	// DefaultSpanMinutes is used when a time label has no end
	DefaultSpanMinutes = 60

	// FuzzyTolerance is the gap, in minutes, bridged by FuzzyUnion
	FuzzyTolerance = 60
)

// Interval is a half-open time range [Start, End) on a single civil date.
// Start and End are minutes since midnight.
type Interval struct {
	Date  civil.Date
	Start int
	End   int
}

// New creates an interval, checking the single-day invariant
func New(date civil.Date, start, end int) (Interval, error) {
	if start < 0 || start >= MinutesPerDay {
		return Interval{}, fmt.Errorf("start %d out of range [0, %d)", start, MinutesPerDay)
	}
	if end <= 0 || end > MinutesPerDay {
		return Interval{}, fmt.Errorf("end %d out of range (0, %d]", end, MinutesPerDay)
	}
	if start >= end {
		return Interval{}, fmt.Errorf("start %d must be before end %d", start, end)
	}
	return Interval{Date: date, Start: start, End: end}, nil
}

// ToMinutes converts a time of day to minutes since midnight
func ToMinutes(hh, mm int) int {
	return hh*60 + mm
}

// FromLabels resolves a grid cell's labels to an interval.
// The boolean is false when either label is unrecognized or the range is empty.
func FromLabels(dateLabel, timeLabel string) (Interval, bool) {
	return FromParsed(labelparser.ParseDateLabel(dateLabel), labelparser.ParseTimeLabel(timeLabel))
}

// FromParsed combines already parsed labels into an interval
func FromParsed(date labelparser.ParsedDate, tm labelparser.ParsedTime) (Interval, bool) {
	if !date.Recognized() || !tm.Recognized() {
		return Interval{}, false
	}

	start := ToMinutes(tm.Start.Hour, tm.Start.Minute)
	var end int
	if tm.HasEnd {
		end = ToMinutes(tm.End.Hour, tm.End.Minute)
	} else {
		end = min(start+DefaultSpanMinutes, MinutesPerDay)
	}

	iv, err := New(date.Date, start, end)
	if err != nil {
		return Interval{}, false
	}
	return iv, true
}

// Duration returns the length of the interval in minutes
func (iv Interval) Duration() int {
	return iv.End - iv.Start
}

func (iv Interval) String() string {
	return fmt.Sprintf("%s %s-%s", iv.Date, clock(iv.Start), clock(iv.End))
}

// OverlapsOrAdjacent reports whether a and b are on the same date and either overlap,
// touch, or are separated by a gap of at most tolerance minutes
func OverlapsOrAdjacent(a, b Interval, tolerance int) bool {
	if a.Date != b.Date {
		return false
	}
	if a.Start <= b.End && b.Start <= a.End {
		return true
	}
	gap := b.Start - a.End
	if b.Start < a.Start {
		gap = a.Start - b.End
	}
	return gap <= tolerance
}

// Contiguous is the strict merge rule: same date and the ranges overlap or touch
func Contiguous(a, b Interval) bool {
	return OverlapsOrAdjacent(a, b, 0)
}

// Union spans both intervals. Only intervals on the same date can be joined.
func Union(a, b Interval) (Interval, error) {
	if a.Date != b.Date {
		return Interval{}, fmt.Errorf("cannot join intervals on different dates (%s, %s)", a.Date, b.Date)
	}
	return Interval{Date: a.Date, Start: min(a.Start, b.Start), End: max(a.End, b.End)}, nil
}

// Contains reports whether inner lies entirely within outer
func Contains(outer, inner Interval) bool {
	return outer.Date == inner.Date && outer.Start <= inner.Start && inner.End <= outer.End
}

// MergeContiguous merges strictly contiguous intervals into maximal runs.
// The result is sorted by date then start.
func MergeContiguous(intervals []Interval) []Interval {
	return merge(intervals, 0)
}

// FuzzyUnion merges intervals separated by at most tolerance minutes.
// Used to consolidate historical patterns.
func FuzzyUnion(intervals []Interval, tolerance int) []Interval {
	return merge(intervals, tolerance)
}

func merge(intervals []Interval, tolerance int) []Interval {
	if len(intervals) == 0 {
		return nil
	}

	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	Sort(sorted)

	out := []Interval{sorted[0]}
	for _, next := range sorted[1:] {
		current := &out[len(out)-1]
		if next.Date == current.Date && next.Start <= current.End+tolerance {
			if next.End > current.End {
				current.End = next.End
			}
			continue
		}
		out = append(out, next)
	}
	return out
}

// Sort orders intervals by date, start and end
func Sort(intervals []Interval) {
	sort.Slice(intervals, func(i, j int) bool {
		a, b := intervals[i], intervals[j]
		if a.Date != b.Date {
			return a.Date.Before(b.Date)
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.End < b.End
	})
}

// GroupByDate partitions intervals by civil date, preserving input order within each group
func GroupByDate(intervals []Interval) map[civil.Date][]Interval {
	groups := make(map[civil.Date][]Interval)
	for _, iv := range intervals {
		groups[iv.Date] = append(groups[iv.Date], iv)
	}
	return groups
}

// FormatTimestamp renders a date and minute offset as an offset-free "YYYY-MM-DD HH:MM:SS" string
func FormatTimestamp(date civil.Date, minutes int) string {
	return fmt.Sprintf("%s %s:00", date, clock(minutes))
}

// ParseTimestamp extracts the civil date and minutes since midnight from a
// "YYYY-MM-DD HH:MM[:SS]" string. A "T" separator is also accepted. Any trailing
// fraction or offset is ignored; the value is never converted between zones.
func ParseTimestamp(s string) (civil.Date, int, error) {
	s = strings.TrimSpace(s)
	if len(s) < len("2006-01-02 15:04") {
		return civil.Date{}, 0, fmt.Errorf("timestamp %q too short", s)
	}

	date, err := civil.ParseDate(s[:10])
	if err != nil {
		return civil.Date{}, 0, fmt.Errorf("invalid date in timestamp %q: %w", s, err)
	}

	if s[10] != ' ' && s[10] != 'T' {
		return civil.Date{}, 0, fmt.Errorf("invalid date/time separator in timestamp %q", s)
	}

	clockPart := s[11:]
	parts := strings.SplitN(clockPart, ":", 3)
	if len(parts) < 2 || len(parts[0]) != 2 || len(parts[1]) < 2 {
		return civil.Date{}, 0, fmt.Errorf("invalid time in timestamp %q", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return civil.Date{}, 0, fmt.Errorf("invalid hour in timestamp %q: %w", s, err)
	}
	minute, err := strconv.Atoi(parts[1][:2])
	if err != nil {
		return civil.Date{}, 0, fmt.Errorf("invalid minute in timestamp %q: %w", s, err)
	}

	minutes := ToMinutes(hour, minute)
	if hour > 24 || minute > 59 || minutes > MinutesPerDay {
		return civil.Date{}, 0, fmt.Errorf("time out of range in timestamp %q", s)
	}

	return date, minutes, nil
}

// FromStored rebuilds an interval from a stored pattern's start and end strings
func FromStored(start, end string) (Interval, error) {
	startDate, startMinutes, err := ParseTimestamp(start)
	if err != nil {
		return Interval{}, err
	}
	endDate, endMinutes, err := ParseTimestamp(end)
	if err != nil {
		return Interval{}, err
	}
	// an end at midnight is read back as 00:00 on the following date
	if endMinutes == 0 && endDate == startDate.AddDays(1) {
		endDate, endMinutes = startDate, MinutesPerDay
	}
	if startDate != endDate {
		return Interval{}, fmt.Errorf("pattern spans more than one date (%s, %s)", start, end)
	}
	return New(startDate, startMinutes, endMinutes)
}

// StartTimestamp renders the start as a stored timestamp string
func (iv Interval) StartTimestamp() string {
	return FormatTimestamp(iv.Date, iv.Start)
}

// EndTimestamp renders the end as a stored timestamp string.
// An end at midnight is written as 00:00 on the following date, the form a
// timestamp column normalizes "24:00:00" to.
func (iv Interval) EndTimestamp() string {
	if iv.End >= MinutesPerDay {
		return FormatTimestamp(iv.Date.AddDays(1), iv.End-MinutesPerDay)
	}
	return FormatTimestamp(iv.Date, iv.End)
}

func clock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
