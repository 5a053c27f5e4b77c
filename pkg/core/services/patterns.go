package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/timegrid/pkg/calendarexport"
	"github.com/jakechorley/timegrid/pkg/db"
)

// PatternView is a stored pattern shown to a user
type PatternView struct {
	ID    string `json:"id"`
	Date  string `json:"date"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// ListPatternsResult holds a user's decodable patterns in chronological order
type ListPatternsResult struct {
	UserID   string        `json:"userId"`
	Patterns []PatternView `json:"patterns"`
	// Corrupt counts stored rows that could not be decoded
	Corrupt int `json:"corrupt"`
}

// PatternReadStore defines the database operations needed to read a user's patterns
type PatternReadStore interface {
	GetUser(ctx context.Context, userID string) (*db.User, error)
	GetPatterns(ctx context.Context, userID string) ([]db.Pattern, error)
}

// ListPatterns returns the user's learned usual-availability windows
func ListPatterns(ctx context.Context, database PatternReadStore, logger *zap.Logger, userID string) (*ListPatternsResult, error) {
	if _, err := database.GetUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	entries, corrupt, err := readPatterns(ctx, database, logger, userID)
	if err != nil {
		return nil, err
	}

	result := &ListPatternsResult{
		UserID:   userID,
		Patterns: make([]PatternView, len(entries)),
		Corrupt:  corrupt,
	}
	for i, e := range entries {
		result.Patterns[i] = PatternView{
			ID:    e.ID,
			Date:  e.Interval.Date.String(),
			Start: clockOf(e.Interval.Start),
			End:   clockOf(e.Interval.End),
		}
	}

	logger.Debug("Listed patterns", zap.String("user_id", userID), zap.Int("count", len(entries)))
	return result, nil
}

// ExportPatterns renders the user's patterns as an iCalendar document
func ExportPatterns(ctx context.Context, database PatternReadStore, logger *zap.Logger, userID string) ([]byte, error) {
	user, err := database.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	entries, _, err := readPatterns(ctx, database, logger, userID)
	if err != nil {
		return nil, err
	}

	name := user.Name
	if name == "" {
		name = user.Email
	}

	out := calendarexport.Export(name+" usual availability", entries, time.Now())

	logger.Info("Patterns exported", zap.String("user_id", userID), zap.Int("count", len(entries)))
	return out, nil
}

// readPatterns decodes the user's stored rows in chronological order.
// Rows that cannot be decoded are logged and counted, not returned.
func readPatterns(ctx context.Context, database PatternReadStore, logger *zap.Logger, userID string) ([]calendarexport.Entry, int, error) {
	rows, err := database.GetPatterns(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch patterns: %w", err)
	}

	var entries []calendarexport.Entry
	corrupt := 0
	for _, p := range decodePatterns(rows) {
		if p.Err != nil {
			logger.Warn("Skipping stored pattern that could not be decoded",
				zap.String("pattern_id", p.ID),
				zap.Error(p.Err))
			corrupt++
			continue
		}
		entries = append(entries, calendarexport.Entry{ID: p.ID, Interval: p.Interval})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Interval, entries[j].Interval
		if a.Date != b.Date {
			return a.Date.Before(b.Date)
		}
		return a.Start < b.Start
	})

	return entries, corrupt, nil
}
