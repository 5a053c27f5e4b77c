package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/timegrid/pkg/db"
)

// GetPatterns retrieves all of the user's patterns ordered by start time.
// Timestamps are read as text so no zone conversion is ever applied.
func (d *DB) GetPatterns(ctx context.Context, userID string) ([]db.Pattern, error) {
	if !isUUID(userID) {
		return nil, nil
	}

	rows, err := d.pool.Query(ctx, `
		SELECT id::text, user_id::text,
		       to_char(start_time, 'YYYY-MM-DD HH24:MI:SS'),
		       to_char(end_time, 'YYYY-MM-DD HH24:MI:SS')
		FROM user_availability_patterns
		WHERE user_id = $1
		ORDER BY start_time, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query patterns: %w", err)
	}
	defer rows.Close()

	var patterns []db.Pattern
	for rows.Next() {
		var p db.Pattern
		if err := rows.Scan(&p.ID, &p.UserID, &p.StartTime, &p.EndTime); err != nil {
			return nil, fmt.Errorf("failed to scan pattern: %w", err)
		}
		patterns = append(patterns, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating patterns: %w", err)
	}

	return patterns, nil
}

// DeletePatterns deletes the user's patterns with the given IDs
func (d *DB) DeletePatterns(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return d.inTx(ctx, func(tx pgx.Tx) error {
		return deletePatterns(ctx, tx, userID, ids)
	})
}

// InsertPatterns inserts pattern rows in a batch
func (d *DB) InsertPatterns(ctx context.Context, patterns []db.NewPattern) error {
	if len(patterns) == 0 {
		return nil
	}
	return d.inTx(ctx, func(tx pgx.Tx) error {
		return insertPatterns(ctx, tx, patterns)
	})
}

// ApplyPatternChanges retires and inserts the user's patterns in one transaction,
// so readers never observe the set half-replaced
func (d *DB) ApplyPatternChanges(ctx context.Context, userID string, retire []string, insert []db.NewPattern) error {
	for _, p := range insert {
		if p.UserID != userID {
			return fmt.Errorf("pattern for user %s cannot be applied to user %s", p.UserID, userID)
		}
	}

	return d.inTx(ctx, func(tx pgx.Tx) error {
		if err := deletePatterns(ctx, tx, userID, retire); err != nil {
			return err
		}
		return insertPatterns(ctx, tx, insert)
	})
}

// deletePatterns removes the user's rows among ids. Malformed ids cannot match a row and are dropped.
func deletePatterns(ctx context.Context, tx pgx.Tx, userID string, ids []string) error {
	if !isUUID(userID) {
		return nil
	}
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if isUUID(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	_, err := tx.Exec(ctx, `
		DELETE FROM user_availability_patterns
		WHERE user_id = $1 AND id = ANY($2::uuid[])
	`, userID, valid)
	if err != nil {
		return fmt.Errorf("failed to delete patterns: %w", err)
	}
	return nil
}

func insertPatterns(ctx context.Context, tx pgx.Tx, patterns []db.NewPattern) error {
	for _, p := range patterns {
		_, err := tx.Exec(ctx, `
			INSERT INTO user_availability_patterns (user_id, start_time, end_time)
			VALUES ($1, $2::timestamp, $3::timestamp)
		`, p.UserID, p.StartTime, p.EndTime)
		if err != nil {
			return fmt.Errorf("failed to insert pattern: %w", err)
		}
	}
	return nil
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
