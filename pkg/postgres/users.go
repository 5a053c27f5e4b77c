package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/timegrid/pkg/db"
)

// UpsertUser inserts the user or updates the existing row with the same external_id
func (d *DB) UpsertUser(ctx context.Context, user *db.User) (*db.User, bool, error) {
	id := user.ID
	if id == "" {
		id = uuid.New().String()
	}

	var out db.User
	var inserted bool
	// xmax is zero only for rows created by this statement
	err := d.pool.QueryRow(ctx, `
		INSERT INTO users (id, external_id, email, name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (external_id) DO UPDATE
			SET email = EXCLUDED.email, name = EXCLUDED.name, updated_at = NOW()
		RETURNING id::text, external_id, email, name, created_at, updated_at, (xmax = 0)
	`, id, user.ExternalID, user.Email, user.Name).Scan(
		&out.ID, &out.ExternalID, &out.Email, &out.Name, &out.CreatedAt, &out.UpdatedAt, &inserted,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert user: %w", err)
	}

	return &out, inserted, nil
}

// GetUser retrieves a user by ID
func (d *DB) GetUser(ctx context.Context, userID string) (*db.User, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("user %s: %w", userID, db.ErrNotFound)
	}

	var u db.User
	err := d.pool.QueryRow(ctx, `
		SELECT id::text, external_id, email, name, created_at, updated_at
		FROM users
		WHERE id = $1
	`, userID).Scan(&u.ID, &u.ExternalID, &u.Email, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", userID, db.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &u, nil
}
