package suggestion

import (
	"github.com/jakechorley/timegrid/pkg/core/interval"
	"github.com/jakechorley/timegrid/pkg/core/labelparser"
)

// Cell is one header of an event grid: a date column or a time row
type Cell struct {
	ID    string
	Label string
}

// Grid holds the headers of an event's candidate grid
type Grid struct {
	Dates []Cell
	Times []Cell
}

// Suggestion is the predicted vote for a single grid cell
type Suggestion struct {
	DateCellID  string `json:"dateCellId"`
	TimeCellID  string `json:"timeCellId"`
	IsAvailable bool   `json:"isAvailable"`
}

// Suggest predicts availability for every cell of grid from a user's stored patterns.
// With no patterns it returns nil so callers can tell "no suggestion" apart from "nothing selected".
// A cell is suggested as available only when one pattern on the same date fully contains it;
// cells whose labels cannot be resolved are always unavailable.
func Suggest(stored []interval.Interval, grid Grid) []Suggestion {
	if len(stored) == 0 {
		return nil
	}

	byDate := interval.GroupByDate(stored)

	// Parse each header once rather than once per cell
	dates := make([]labelparser.ParsedDate, len(grid.Dates))
	for i, d := range grid.Dates {
		dates[i] = labelparser.ParseDateLabel(d.Label)
	}
	times := make([]labelparser.ParsedTime, len(grid.Times))
	for i, t := range grid.Times {
		times[i] = labelparser.ParseTimeLabel(t.Label)
	}

	out := make([]Suggestion, 0, len(grid.Dates)*len(grid.Times))
	for i, d := range grid.Dates {
		for j, t := range grid.Times {
			available := false
			if cell, ok := interval.FromParsed(dates[i], times[j]); ok {
				available = containedByAny(byDate[cell.Date], cell)
			}
			out = append(out, Suggestion{
				DateCellID:  d.ID,
				TimeCellID:  t.ID,
				IsAvailable: available,
			})
		}
	}
	return out
}

func containedByAny(candidates []interval.Interval, cell interval.Interval) bool {
	for _, p := range candidates {
		if interval.Contains(p, cell) {
			return true
		}
	}
	return false
}
