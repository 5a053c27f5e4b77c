package services

import (
	"errors"
	"fmt"

	"github.com/jakechorley/timegrid/pkg/core/interval"
	"github.com/jakechorley/timegrid/pkg/core/patterns"
	"github.com/jakechorley/timegrid/pkg/core/suggestion"
	"github.com/jakechorley/timegrid/pkg/db"
)

// ErrInvalidInput is wrapped by errors caused by bad caller input
var ErrInvalidInput = errors.New("invalid input")

// gridOf converts an event grid into the suggestion engine's header representation
func gridOf(event *db.EventGrid) suggestion.Grid {
	grid := suggestion.Grid{
		Dates: make([]suggestion.Cell, len(event.Dates)),
		Times: make([]suggestion.Cell, len(event.Times)),
	}
	for i, d := range event.Dates {
		grid.Dates[i] = suggestion.Cell{ID: d.ID, Label: d.Label}
	}
	for i, t := range event.Times {
		grid.Times[i] = suggestion.Cell{ID: t.ID, Label: t.Label}
	}
	return grid
}

// decodePatterns converts stored rows into engine patterns.
// Rows whose timestamps cannot be decoded keep their error for the caller to report.
func decodePatterns(rows []db.Pattern) []patterns.Pattern {
	out := make([]patterns.Pattern, len(rows))
	for i, row := range rows {
		iv, err := interval.FromStored(row.StartTime, row.EndTime)
		out[i] = patterns.Pattern{ID: row.ID, Interval: iv, Err: err}
	}
	return out
}

// toNewPatterns converts intervals into rows ready to insert for userID
func toNewPatterns(userID string, intervals []interval.Interval) []db.NewPattern {
	out := make([]db.NewPattern, len(intervals))
	for i, iv := range intervals {
		out[i] = db.NewPattern{
			UserID:    userID,
			StartTime: iv.StartTimestamp(),
			EndTime:   iv.EndTimestamp(),
		}
	}
	return out
}

// clockOf renders minutes since midnight as HH:MM
func clockOf(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
