package labelparser

import (
	"fmt"
	"sort"
	"strings"
)

// GridValidation summarises problems found in a set of grid labels
type GridValidation struct {
	Errors   []string
	Warnings []string
}

// Valid reports whether the grid can be used to create an event
func (v GridValidation) Valid() bool {
	return len(v.Errors) == 0
}

// ValidateGrid checks the date and time labels of a candidate grid.
// Empty and duplicate labels are errors; labels that cannot be parsed are only warnings
// because such cells are still votable, they just take no part in pattern learning.
func ValidateGrid(dateLabels, timeLabels []string) GridValidation {
	var v GridValidation

	if len(dateLabels) == 0 {
		v.Errors = append(v.Errors, "at least one date label is required")
	}
	if len(timeLabels) == 0 {
		v.Errors = append(v.Errors, "at least one time label is required")
	}

	v.Errors = append(v.Errors, checkLabels("date", dateLabels)...)
	v.Errors = append(v.Errors, checkLabels("time", timeLabels)...)

	unrecognizedDates := 0
	for _, label := range dateLabels {
		if !ParseDateLabel(label).Recognized() {
			unrecognizedDates++
		}
	}
	unrecognizedTimes := 0
	for _, label := range timeLabels {
		if !ParseTimeLabel(label).Recognized() {
			unrecognizedTimes++
		}
	}

	if unrecognizedDates > 0 {
		v.Warnings = append(v.Warnings, fmt.Sprintf("%d date label(s) could not be recognized", unrecognizedDates))
	}
	if unrecognizedTimes > 0 {
		v.Warnings = append(v.Warnings, fmt.Sprintf("%d time label(s) could not be recognized", unrecognizedTimes))
	}

	return v
}

func checkLabels(kind string, labels []string) []string {
	var errs []string
	seen := make(map[string]int)
	for i, label := range labels {
		trimmed := strings.TrimSpace(label)
		if trimmed == "" {
			errs = append(errs, fmt.Sprintf("%s label %d is empty", kind, i+1))
			continue
		}
		if first, dup := seen[trimmed]; dup {
			errs = append(errs, fmt.Sprintf("%s label %d duplicates label %d (%q)", kind, i+1, first+1, trimmed))
			continue
		}
		seen[trimmed] = i
	}
	return errs
}

// SortDateLabels orders labels chronologically.
// Unrecognized labels keep their relative order and are placed after the recognized ones.
func SortDateLabels(labels []string, year int) []string {
	type keyed struct {
		label string
		key   string
		ok    bool
	}
	items := make([]keyed, len(labels))
	for i, label := range labels {
		p := ParseDateLabelInYear(label, year)
		items[i] = keyed{label: label, key: p.Date.String(), ok: p.Recognized()}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].ok != items[j].ok {
			return items[i].ok
		}
		return items[i].ok && items[i].key < items[j].key
	})

	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.label
	}
	return out
}

// SortTimeLabels orders labels by start time, with unrecognized labels last
func SortTimeLabels(labels []string) []string {
	type keyed struct {
		label string
		key   int
		ok    bool
	}
	items := make([]keyed, len(labels))
	for i, label := range labels {
		p := ParseTimeLabel(label)
		items[i] = keyed{label: label, key: p.Start.Hour*60 + p.Start.Minute, ok: p.Recognized()}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].ok != items[j].ok {
			return items[i].ok
		}
		return items[i].ok && items[i].key < items[j].key
	})

	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.label
	}
	return out
}
