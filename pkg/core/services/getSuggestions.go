package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/timegrid/pkg/core/patterns"
	"github.com/jakechorley/timegrid/pkg/core/suggestion"
	"github.com/jakechorley/timegrid/pkg/db"
)

// GetSuggestionsStore defines the database operations needed to suggest votes
type GetSuggestionsStore interface {
	GetEvent(ctx context.Context, eventID string) (*db.EventGrid, error)
	GetUser(ctx context.Context, userID string) (*db.User, error)
	GetPatterns(ctx context.Context, userID string) ([]db.Pattern, error)
}

// GetSuggestions predicts the user's votes for every cell of an event from their stored patterns.
// It returns nil when the user has no stored patterns.
func GetSuggestions(
	ctx context.Context,
	database GetSuggestionsStore,
	logger *zap.Logger,
	userID string,
	eventID string,
) ([]suggestion.Suggestion, error) {
	logger.Debug("Building suggestions", zap.String("user_id", userID), zap.String("event_id", eventID))

	event, err := database.GetEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event: %w", err)
	}

	if _, err := database.GetUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	rows, err := database.GetPatterns(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch patterns: %w", err)
	}

	decoded := decodePatterns(rows)
	for _, p := range decoded {
		if p.Err != nil {
			logger.Warn("Ignoring stored pattern that could not be decoded",
				zap.String("pattern_id", p.ID),
				zap.Error(p.Err))
		}
	}

	stored := patterns.Intervals(decoded)
	if len(stored) == 0 {
		logger.Debug("No stored patterns for user", zap.String("user_id", userID))
		return nil, nil
	}

	suggestions := suggestion.Suggest(stored, gridOf(event))

	available := 0
	for _, s := range suggestions {
		if s.IsAvailable {
			available++
		}
	}
	logger.Info("Suggestions built",
		zap.String("user_id", userID),
		zap.String("event_id", eventID),
		zap.Int("cells", len(suggestions)),
		zap.Int("available", available))

	return suggestions, nil
}
