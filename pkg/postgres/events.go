package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/timegrid/pkg/db"
)

// InsertEvent inserts an event and its grid headers in a single transaction.
// Missing IDs are generated and written back to event.
func (d *DB) InsertEvent(ctx context.Context, event *db.EventGrid) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	return d.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO events (id, title, description)
			VALUES ($1, $2, $3)
			RETURNING created_at
		`, event.ID, event.Title, event.Description).Scan(&event.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert event: %w", err)
		}

		for i := range event.Dates {
			cell := &event.Dates[i]
			if cell.ID == "" {
				cell.ID = uuid.New().String()
			}
			cell.EventID = event.ID
			_, err := tx.Exec(ctx, `
				INSERT INTO event_dates (id, event_id, date_label, col_order)
				VALUES ($1, $2, $3, $4)
			`, cell.ID, cell.EventID, cell.Label, cell.ColOrder)
			if err != nil {
				return fmt.Errorf("failed to insert event date %q: %w", cell.Label, err)
			}
		}

		for i := range event.Times {
			cell := &event.Times[i]
			if cell.ID == "" {
				cell.ID = uuid.New().String()
			}
			cell.EventID = event.ID
			_, err := tx.Exec(ctx, `
				INSERT INTO event_times (id, event_id, time_label, row_order)
				VALUES ($1, $2, $3, $4)
			`, cell.ID, cell.EventID, cell.Label, cell.RowOrder)
			if err != nil {
				return fmt.Errorf("failed to insert event time %q: %w", cell.Label, err)
			}
		}

		return nil
	})
}

// GetEvent retrieves an event with its date columns and time rows
func (d *DB) GetEvent(ctx context.Context, eventID string) (*db.EventGrid, error) {
	if _, err := uuid.Parse(eventID); err != nil {
		return nil, fmt.Errorf("event %s: %w", eventID, db.ErrNotFound)
	}

	var grid db.EventGrid
	err := d.pool.QueryRow(ctx, `
		SELECT id::text, title, description, created_at
		FROM events
		WHERE id = $1
	`, eventID).Scan(&grid.ID, &grid.Title, &grid.Description, &grid.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("event %s: %w", eventID, db.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query event: %w", err)
	}

	dateRows, err := d.pool.Query(ctx, `
		SELECT id::text, event_id::text, date_label, col_order
		FROM event_dates
		WHERE event_id = $1
		ORDER BY col_order
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query event dates: %w", err)
	}
	defer dateRows.Close()

	for dateRows.Next() {
		var c db.DateCell
		if err := dateRows.Scan(&c.ID, &c.EventID, &c.Label, &c.ColOrder); err != nil {
			return nil, fmt.Errorf("failed to scan event date: %w", err)
		}
		grid.Dates = append(grid.Dates, c)
	}
	if err := dateRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event dates: %w", err)
	}

	timeRows, err := d.pool.Query(ctx, `
		SELECT id::text, event_id::text, time_label, row_order
		FROM event_times
		WHERE event_id = $1
		ORDER BY row_order
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query event times: %w", err)
	}
	defer timeRows.Close()

	for timeRows.Next() {
		var c db.TimeCell
		if err := timeRows.Scan(&c.ID, &c.EventID, &c.Label, &c.RowOrder); err != nil {
			return nil, fmt.Errorf("failed to scan event time: %w", err)
		}
		grid.Times = append(grid.Times, c)
	}
	if err := timeRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event times: %w", err)
	}

	return &grid, nil
}

// ListEvents retrieves all events, newest first
func (d *DB) ListEvents(ctx context.Context) ([]db.Event, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id::text, title, description, created_at
		FROM events
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []db.Event
	for rows.Next() {
		var e db.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}
