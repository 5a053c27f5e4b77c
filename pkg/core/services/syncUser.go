package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jakechorley/timegrid/pkg/db"
)

// SyncUserInput carries the identity provider's view of a user
type SyncUserInput struct {
	ExternalID string `json:"externalId" binding:"required"`
	Email      string `json:"email" binding:"required"`
	Name       string `json:"name"`
}

// SyncUserResult represents the result of syncing a user
type SyncUserResult struct {
	User    *db.User `json:"user"`
	Created bool     `json:"created"`
}

// SyncUser creates the user or refreshes the one with the same external ID
func SyncUser(ctx context.Context, database db.UserStore, logger *zap.Logger, input SyncUserInput) (*SyncUserResult, error) {
	externalID := strings.TrimSpace(input.ExternalID)
	email := strings.TrimSpace(input.Email)
	if externalID == "" {
		return nil, fmt.Errorf("%w: external id is required", ErrInvalidInput)
	}
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}

	user, created, err := database.UpsertUser(ctx, &db.User{
		ExternalID: externalID,
		Email:      email,
		Name:       strings.TrimSpace(input.Name),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	logger.Info("User synced",
		zap.String("user_id", user.ID),
		zap.String("external_id", externalID),
		zap.Bool("created", created))

	return &SyncUserResult{User: user, Created: created}, nil
}
