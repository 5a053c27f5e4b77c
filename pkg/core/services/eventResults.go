package services

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/jakechorley/timegrid/pkg/db"
)

// CellTally counts the available votes for one grid cell
type CellTally struct {
	DateCellID string   `json:"dateCellId"`
	TimeCellID string   `json:"timeCellId"`
	DateLabel  string   `json:"dateLabel"`
	TimeLabel  string   `json:"timeLabel"`
	Available  int      `json:"available"`
	Voters     []string `json:"voters"`
}

// EventResults represents the tallied votes of an event
type EventResults struct {
	Event        *db.EventGrid `json:"event"`
	Participants []string      `json:"participants"`
	Cells        []CellTally   `json:"cells"`
	// Best holds the cells with the most available votes, in grid order
	Best []CellTally `json:"best"`
}

// EventResultsStore defines the database operations needed to tally an event
type EventResultsStore interface {
	GetEvent(ctx context.Context, eventID string) (*db.EventGrid, error)
	GetVotes(ctx context.Context, eventID string) ([]db.Vote, error)
}

// GetEventResults tallies available votes for every cell of an event, in grid order
func GetEventResults(ctx context.Context, database EventResultsStore, logger *zap.Logger, eventID string) (*EventResults, error) {
	logger.Debug("Tallying event results", zap.String("event_id", eventID))

	event, err := database.GetEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event: %w", err)
	}

	votes, err := database.GetVotes(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch votes: %w", err)
	}

	voters := make(map[[2]string][]string)
	participants := make(map[string]bool)
	for _, v := range votes {
		participants[v.UserID] = true
		if v.IsAvailable {
			key := [2]string{v.DateCellID, v.TimeCellID}
			voters[key] = append(voters[key], v.UserID)
		}
	}

	results := &EventResults{
		Event:        event,
		Participants: make([]string, 0, len(participants)),
		Cells:        make([]CellTally, 0, len(event.Dates)*len(event.Times)),
	}
	for id := range participants {
		results.Participants = append(results.Participants, id)
	}
	sort.Strings(results.Participants)

	best := 0
	for _, d := range event.Dates {
		for _, t := range event.Times {
			ids := voters[[2]string{d.ID, t.ID}]
			sort.Strings(ids)
			cell := CellTally{
				DateCellID: d.ID,
				TimeCellID: t.ID,
				DateLabel:  d.Label,
				TimeLabel:  t.Label,
				Available:  len(ids),
				Voters:     append([]string{}, ids...),
			}
			results.Cells = append(results.Cells, cell)
			if cell.Available > best {
				best = cell.Available
			}
		}
	}

	if best > 0 {
		for _, cell := range results.Cells {
			if cell.Available == best {
				results.Best = append(results.Best, cell)
			}
		}
	}

	logger.Info("Event results tallied",
		zap.String("event_id", eventID),
		zap.Int("participants", len(results.Participants)),
		zap.Int("best_available", best))

	return results, nil
}
