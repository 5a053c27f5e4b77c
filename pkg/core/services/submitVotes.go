package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/timegrid/pkg/core/interval"
	"github.com/jakechorley/timegrid/pkg/core/labelparser"
	"github.com/jakechorley/timegrid/pkg/core/patterns"
	"github.com/jakechorley/timegrid/pkg/db"
)

// VoteInput is one submitted answer for a grid cell
type VoteInput struct {
	DateCellID  string `json:"dateCellId" binding:"required"`
	TimeCellID  string `json:"timeCellId" binding:"required"`
	IsAvailable bool   `json:"isAvailable"`
}

// PatternLearning reports what happened to the user's stored patterns after a submission.
// Learning is best effort: Err is set when it failed, but the votes are still saved.
type PatternLearning struct {
	Applied    bool     `json:"applied"`
	Unresolved int      `json:"unresolved"`
	Retired    int      `json:"retired"`
	Inserted   int      `json:"inserted"`
	Dates      []string `json:"dates,omitempty"`
	Err        error    `json:"-"`
}

// SubmitVotesResult represents the result of a vote submission
type SubmitVotesResult struct {
	EventID    string          `json:"eventId"`
	UserID     string          `json:"userId"`
	VotesSaved int             `json:"votesSaved"`
	Learned    PatternLearning `json:"learned"`
}

// SubmitVotesStore defines the database operations needed to submit votes
type SubmitVotesStore interface {
	GetEvent(ctx context.Context, eventID string) (*db.EventGrid, error)
	GetUser(ctx context.Context, userID string) (*db.User, error)
	ReplaceVotes(ctx context.Context, eventID, userID string, votes []db.Vote) error
	db.PatternStore
}

// SubmitVotes replaces a user's votes for an event and then updates the user's
// usual-availability patterns from the available cells.
// Failures before the votes are saved are returned; failures while learning patterns
// are logged and reported in the result only.
func SubmitVotes(
	ctx context.Context,
	database SubmitVotesStore,
	logger *zap.Logger,
	policy patterns.Policy,
	eventID string,
	userID string,
	votes []VoteInput,
) (*SubmitVotesResult, error) {
	logger.Debug("Submitting votes",
		zap.String("event_id", eventID),
		zap.String("user_id", userID),
		zap.Int("vote_count", len(votes)))

	event, err := database.GetEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event: %w", err)
	}

	if _, err := database.GetUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	rows, err := buildVotes(event, userID, votes)
	if err != nil {
		return nil, err
	}

	if err := database.ReplaceVotes(ctx, eventID, userID, rows); err != nil {
		return nil, fmt.Errorf("failed to save votes: %w", err)
	}

	logger.Info("Votes saved",
		zap.String("event_id", eventID),
		zap.String("user_id", userID),
		zap.Int("vote_count", len(rows)))

	result := &SubmitVotesResult{
		EventID:    eventID,
		UserID:     userID,
		VotesSaved: len(rows),
		Learned:    learnPatterns(ctx, database, logger, policy, event, userID, rows),
	}

	return result, nil
}

// buildVotes checks each vote references a cell of the event, at most once
func buildVotes(event *db.EventGrid, userID string, votes []VoteInput) ([]db.Vote, error) {
	dateIDs := make(map[string]bool, len(event.Dates))
	for _, d := range event.Dates {
		dateIDs[d.ID] = true
	}
	timeIDs := make(map[string]bool, len(event.Times))
	for _, t := range event.Times {
		timeIDs[t.ID] = true
	}

	seen := make(map[[2]string]bool, len(votes))
	rows := make([]db.Vote, 0, len(votes))
	for _, v := range votes {
		if !dateIDs[v.DateCellID] {
			return nil, fmt.Errorf("%w: date cell %s does not belong to event %s", ErrInvalidInput, v.DateCellID, event.ID)
		}
		if !timeIDs[v.TimeCellID] {
			return nil, fmt.Errorf("%w: time cell %s does not belong to event %s", ErrInvalidInput, v.TimeCellID, event.ID)
		}
		key := [2]string{v.DateCellID, v.TimeCellID}
		if seen[key] {
			return nil, fmt.Errorf("%w: duplicate vote for cell (%s, %s)", ErrInvalidInput, v.DateCellID, v.TimeCellID)
		}
		seen[key] = true

		rows = append(rows, db.Vote{
			EventID:     event.ID,
			UserID:      userID,
			DateCellID:  v.DateCellID,
			TimeCellID:  v.TimeCellID,
			IsAvailable: v.IsAvailable,
		})
	}
	return rows, nil
}

// learnPatterns folds the available votes into the user's stored patterns.
// It never returns an error; failures are logged and recorded in the result.
func learnPatterns(
	ctx context.Context,
	database db.PatternStore,
	logger *zap.Logger,
	policy patterns.Policy,
	event *db.EventGrid,
	userID string,
	votes []db.Vote,
) PatternLearning {
	var learning PatternLearning

	submitted, unresolved := resolveAvailable(event, votes)
	learning.Unresolved = unresolved
	if unresolved > 0 {
		logger.Debug("Skipping cells with unrecognized labels",
			zap.String("event_id", event.ID),
			zap.Int("count", unresolved))
	}

	if len(submitted) == 0 {
		logger.Debug("No available votes to learn from", zap.String("user_id", userID))
		learning.Applied = true
		return learning
	}

	rows, err := patternsForUpdate(ctx, database, userID)
	if err != nil {
		logger.Error("Pattern learning failed: could not fetch patterns", zap.String("user_id", userID), zap.Error(err))
		learning.Err = fmt.Errorf("failed to fetch patterns: %w", err)
		return learning
	}

	existing := decodePatterns(rows)
	for _, p := range existing {
		if p.Err != nil {
			logger.Warn("Stored pattern could not be decoded and will be retired",
				zap.String("pattern_id", p.ID),
				zap.Error(p.Err))
		}
	}

	changes := patterns.Plan(existing, submitted, policy)
	for _, d := range changes.Dates {
		learning.Dates = append(learning.Dates, d.String())
	}

	if changes.Empty() {
		logger.Debug("Patterns already up to date", zap.String("user_id", userID))
		learning.Applied = true
		return learning
	}

	insert := toNewPatterns(userID, changes.Insert)
	if err := applyChanges(ctx, database, userID, changes.Retire, insert); err != nil {
		logger.Error("Pattern learning failed: could not store patterns", zap.String("user_id", userID), zap.Error(err))
		learning.Err = err
		return learning
	}

	learning.Applied = true
	learning.Retired = len(changes.Retire)
	learning.Inserted = len(insert)

	logger.Info("Patterns updated",
		zap.String("user_id", userID),
		zap.String("policy", string(policy)),
		zap.Strings("dates", learning.Dates),
		zap.Int("retired", learning.Retired),
		zap.Int("inserted", learning.Inserted))

	return learning
}

// patternsForUpdate reads the rows a plan is computed against, bypassing any read cache
func patternsForUpdate(ctx context.Context, database db.PatternStore, userID string) ([]db.Pattern, error) {
	if fresh, ok := database.(db.FreshPatternReader); ok {
		return fresh.GetPatternsFresh(ctx, userID)
	}
	return database.GetPatterns(ctx, userID)
}

// applyChanges uses the store's atomic path when it has one and falls back to delete then insert
func applyChanges(ctx context.Context, database db.PatternStore, userID string, retire []string, insert []db.NewPattern) error {
	if applier, ok := database.(db.PatternChangeApplier); ok {
		if err := applier.ApplyPatternChanges(ctx, userID, retire, insert); err != nil {
			return fmt.Errorf("failed to apply pattern changes: %w", err)
		}
		return nil
	}

	if err := database.DeletePatterns(ctx, userID, retire); err != nil {
		return fmt.Errorf("failed to delete patterns: %w", err)
	}
	if err := database.InsertPatterns(ctx, insert); err != nil {
		return fmt.Errorf("failed to insert patterns: %w", err)
	}
	return nil
}

// resolveAvailable turns available votes into intervals.
// It returns the number of available votes whose labels could not be resolved.
func resolveAvailable(event *db.EventGrid, votes []db.Vote) ([]interval.Interval, int) {
	dates := make(map[string]labelparser.ParsedDate, len(event.Dates))
	for _, d := range event.Dates {
		dates[d.ID] = labelparser.ParseDateLabel(d.Label)
	}
	times := make(map[string]labelparser.ParsedTime, len(event.Times))
	for _, t := range event.Times {
		times[t.ID] = labelparser.ParseTimeLabel(t.Label)
	}

	var out []interval.Interval
	unresolved := 0
	for _, v := range votes {
		if !v.IsAvailable {
			continue
		}
		iv, ok := interval.FromParsed(dates[v.DateCellID], times[v.TimeCellID])
		if !ok {
			unresolved++
			continue
		}
		out = append(out, iv)
	}
	return out, unresolved
}
