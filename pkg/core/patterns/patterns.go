package patterns

import (
	"fmt"
	"sort"

	"cloud.google.com/go/civil"

	"github.com/jakechorley/timegrid/pkg/core/interval"
)

// Policy selects how a submission is combined with a user's stored patterns
type Policy string

const (
	// PolicyReplace treats the submission as authoritative for every date it touches.
	// A later partial vote can shrink a user's known availability on that date.
	PolicyReplace Policy = "replace"

	// PolicyUnion unions the submission with the stored patterns on the touched dates,
	// bridging gaps of up to interval.FuzzyTolerance minutes. It never shrinks availability.
	PolicyUnion Policy = "union"
)

// ParsePolicy maps a configuration value to a Policy. An empty value selects PolicyReplace.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyReplace:
		return PolicyReplace, nil
	case PolicyUnion:
		return PolicyUnion, nil
	default:
		return "", fmt.Errorf("unknown merge policy %q", s)
	}
}

// Pattern is a stored usual-availability row as seen by the engine.
// Err is set when the stored timestamps could not be decoded.
type Pattern struct {
	ID       string
	Interval interval.Interval
	Err      error
}

// Changes are the row operations needed to bring a user's stored patterns up to date
type Changes struct {
	Retire []string
	Insert []interval.Interval
	// Dates lists the dates whose patterns changed, in chronological order
	Dates []civil.Date
}

// Empty reports whether applying the changes would be a no-op
func (c Changes) Empty() bool {
	return len(c.Retire) == 0 && len(c.Insert) == 0
}

// Plan computes the changes for one vote submission.
// submitted holds the intervals of the available votes whose labels could be resolved.
// existing holds all of the user's stored patterns, across every date and event.
// Dates not present in submitted are never touched. Applying the resulting changes and
// planning again with the same submission yields no further changes.
func Plan(existing []Pattern, submitted []interval.Interval, policy Policy) Changes {
	var changes Changes
	if len(submitted) == 0 {
		return changes
	}

	newByDate := interval.GroupByDate(interval.MergeContiguous(submitted))

	existingByDate := make(map[civil.Date][]Pattern)
	var corrupt []Pattern
	for _, p := range existing {
		if p.Err != nil {
			corrupt = append(corrupt, p)
			continue
		}
		existingByDate[p.Interval.Date] = append(existingByDate[p.Interval.Date], p)
	}

	dates := make([]civil.Date, 0, len(newByDate))
	for date := range newByDate {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	for _, date := range dates {
		current := existingByDate[date]
		target := targetFor(policy, newByDate[date], current)

		retire, insert := diff(current, target)
		if len(retire) == 0 && len(insert) == 0 {
			continue
		}
		changes.Retire = append(changes.Retire, retire...)
		changes.Insert = append(changes.Insert, insert...)
		changes.Dates = append(changes.Dates, date)
	}

	// Rows that cannot be decoded are unusable for suggestions; drop them once a
	// submission gives us something to replace them with
	for _, p := range corrupt {
		changes.Retire = append(changes.Retire, p.ID)
	}

	return changes
}

func targetFor(policy Policy, submitted []interval.Interval, current []Pattern) []interval.Interval {
	if policy != PolicyUnion {
		return submitted
	}
	all := make([]interval.Interval, 0, len(submitted)+len(current))
	all = append(all, submitted...)
	for _, p := range current {
		all = append(all, p.Interval)
	}
	return interval.FuzzyUnion(all, interval.FuzzyTolerance)
}

// diff matches stored rows against the target set for one date.
// Each target interval consumes at most one identical row; every other row is retired.
func diff(current []Pattern, target []interval.Interval) (retire []string, insert []interval.Interval) {
	kept := make([]bool, len(current))

	for _, iv := range target {
		matched := false
		for i, p := range current {
			if !kept[i] && p.Interval == iv {
				kept[i] = true
				matched = true
				break
			}
		}
		if !matched {
			insert = append(insert, iv)
		}
	}

	for i, p := range current {
		if !kept[i] {
			retire = append(retire, p.ID)
		}
	}

	return retire, insert
}

// Intervals returns the decodable intervals of a pattern set, sorted
func Intervals(ps []Pattern) []interval.Interval {
	out := make([]interval.Interval, 0, len(ps))
	for _, p := range ps {
		if p.Err == nil {
			out = append(out, p.Interval)
		}
	}
	interval.Sort(out)
	return out
}
