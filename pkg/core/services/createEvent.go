package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/jakechorley/timegrid/pkg/core/labelparser"
	"github.com/jakechorley/timegrid/pkg/db"
)

// maxGeneratedDates caps the number of date columns an RRULE can produce
const maxGeneratedDates = 62

// CreateEventInput describes a new event and its candidate grid
type CreateEventInput struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	DateLabels  []string `json:"dates"`
	TimeLabels  []string `json:"times"`
	// DateRule is an RRULE whose occurrences are appended to DateLabels as YYYY-MM-DD labels
	DateRule string `json:"dateRule"`
	// RuleStart is the first candidate occurrence of DateRule; zero means today
	RuleStart time.Time `json:"ruleStart"`
	// SortChronologically orders recognized labels by date and time before unrecognized ones
	SortChronologically bool `json:"sortChronologically"`
}

// CreateEventResult represents the result of creating an event
type CreateEventResult struct {
	Event    *db.EventGrid `json:"event"`
	Warnings []string      `json:"warnings,omitempty"`
}

// CreateEvent validates the grid headers and stores a new event.
// Unrecognized labels are accepted and reported as warnings.
func CreateEvent(ctx context.Context, database db.EventStore, logger *zap.Logger, input CreateEventInput) (*CreateEventResult, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	dateLabels := trimLabels(input.DateLabels)
	timeLabels := trimLabels(input.TimeLabels)

	if input.DateRule != "" {
		generated, err := datesFromRule(input.DateRule, input.RuleStart)
		if err != nil {
			return nil, err
		}
		logger.Debug("Generated date labels from rule",
			zap.String("rule", input.DateRule),
			zap.Int("count", len(generated)))
		dateLabels = append(dateLabels, generated...)
	}

	validation := labelparser.ValidateGrid(dateLabels, timeLabels)
	if !validation.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(validation.Errors, "; "))
	}
	for _, w := range validation.Warnings {
		logger.Warn("Event grid warning", zap.String("title", title), zap.String("warning", w))
	}

	if input.SortChronologically {
		year := time.Now().Year()
		dateLabels = labelparser.SortDateLabels(dateLabels, year)
		timeLabels = labelparser.SortTimeLabels(timeLabels)
	}

	grid := &db.EventGrid{
		Event: db.Event{
			Title:       title,
			Description: strings.TrimSpace(input.Description),
		},
		Dates: make([]db.DateCell, len(dateLabels)),
		Times: make([]db.TimeCell, len(timeLabels)),
	}
	for i, label := range dateLabels {
		grid.Dates[i] = db.DateCell{Label: label, ColOrder: i}
	}
	for i, label := range timeLabels {
		grid.Times[i] = db.TimeCell{Label: label, RowOrder: i}
	}

	if err := database.InsertEvent(ctx, grid); err != nil {
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}

	logger.Info("Event created",
		zap.String("event_id", grid.ID),
		zap.String("title", title),
		zap.Int("dates", len(grid.Dates)),
		zap.Int("times", len(grid.Times)))

	return &CreateEventResult{Event: grid, Warnings: validation.Warnings}, nil
}

// GetEvent returns an event with its grid
func GetEvent(ctx context.Context, database db.EventStore, logger *zap.Logger, eventID string) (*db.EventGrid, error) {
	logger.Debug("Fetching event", zap.String("event_id", eventID))

	event, err := database.GetEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event: %w", err)
	}
	return event, nil
}

// ListEvents returns all events, newest first
func ListEvents(ctx context.Context, database db.EventStore, logger *zap.Logger) ([]db.Event, error) {
	events, err := database.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	logger.Debug("Listed events", zap.Int("count", len(events)))
	return events, nil
}

// datesFromRule expands an RRULE into YYYY-MM-DD labels, starting at start (or today)
func datesFromRule(rule string, start time.Time) ([]string, error) {
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date rule %q: %v", ErrInvalidInput, rule, err)
	}

	if !strings.Contains(strings.ToUpper(rule), "DTSTART") {
		if start.IsZero() {
			start = time.Now()
		}
		y, m, d := start.Date()
		r.DTStart(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
	}

	var labels []string
	next := r.Iterator()
	for len(labels) < maxGeneratedDates {
		occurrence, ok := next()
		if !ok {
			break
		}
		labels = append(labels, civil.DateOf(occurrence).String())
	}

	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: date rule %q produces no dates", ErrInvalidInput, rule)
	}
	return labels, nil
}

func trimLabels(labels []string) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = strings.TrimSpace(l)
	}
	return out
}
