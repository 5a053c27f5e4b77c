package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/timegrid/pkg/db"
)

// ReplaceVotes deletes the user's votes for the event and inserts the new set in one transaction
func (d *DB) ReplaceVotes(ctx context.Context, eventID, userID string, votes []db.Vote) error {
	return d.inTx(ctx, func(tx pgx.Tx) error {
		if err := deleteVotes(ctx, tx, eventID, userID); err != nil {
			return err
		}
		return insertVotes(ctx, tx, votes)
	})
}

// GetVotes retrieves all votes for an event
func (d *DB) GetVotes(ctx context.Context, eventID string) ([]db.Vote, error) {
	if !isUUID(eventID) {
		return nil, nil
	}

	rows, err := d.pool.Query(ctx, `
		SELECT event_id::text, user_id::text, event_date_id::text, event_time_id::text, is_available
		FROM votes
		WHERE event_id = $1
		ORDER BY voted_at, user_id
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query votes: %w", err)
	}
	defer rows.Close()

	var votes []db.Vote
	for rows.Next() {
		var v db.Vote
		if err := rows.Scan(&v.EventID, &v.UserID, &v.DateCellID, &v.TimeCellID, &v.IsAvailable); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		votes = append(votes, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating votes: %w", err)
	}

	return votes, nil
}

func deleteVotes(ctx context.Context, tx pgx.Tx, eventID, userID string) error {
	_, err := tx.Exec(ctx, `
		DELETE FROM votes WHERE event_id = $1 AND user_id = $2
	`, eventID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete votes: %w", err)
	}
	return nil
}

func insertVotes(ctx context.Context, tx pgx.Tx, votes []db.Vote) error {
	for _, v := range votes {
		_, err := tx.Exec(ctx, `
			INSERT INTO votes (event_id, user_id, event_date_id, event_time_id, is_available)
			VALUES ($1, $2, $3, $4, $5)
		`, v.EventID, v.UserID, v.DateCellID, v.TimeCellID, v.IsAvailable)
		if err != nil {
			return fmt.Errorf("failed to insert vote: %w", err)
		}
	}
	return nil
}
