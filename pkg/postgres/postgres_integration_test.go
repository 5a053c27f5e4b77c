package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/timegrid/pkg/core/interval"
	"github.com/jakechorley/timegrid/pkg/db"
)

// newTestDB connects to TEST_DATABASE_URL and applies migrations, skipping when it is unset
func newTestDB(t *testing.T) *DB {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping postgres integration tests")
	}

	ctx := context.Background()
	database, err := NewDB(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(database.Close)

	require.NoError(t, database.RunMigrations(ctx))
	return database
}

func TestIntegration_EventVotesAndPatterns(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	user, created, err := database.UpsertUser(ctx, &db.User{ExternalID: "it-" + uuid.New().String(), Email: "it@example.com", Name: "Integration"})
	require.NoError(t, err)
	assert.True(t, created)

	_, created, err = database.UpsertUser(ctx, &db.User{ExternalID: user.ExternalID, Email: "it2@example.com", Name: "Integration"})
	require.NoError(t, err)
	assert.False(t, created)

	grid := &db.EventGrid{
		Event: db.Event{Title: "Integration event"},
		Dates: []db.DateCell{{Label: "2025-06-27", ColOrder: 0}},
		Times: []db.TimeCell{{Label: "09:00-10:00", RowOrder: 0}, {Label: "10:00-11:00", RowOrder: 1}},
	}
	require.NoError(t, database.InsertEvent(ctx, grid))

	got, err := database.GetEvent(ctx, grid.ID)
	require.NoError(t, err)
	require.Len(t, got.Times, 2)
	assert.Equal(t, "10:00-11:00", got.Times[1].Label)

	_, err = database.GetEvent(ctx, uuid.New().String())
	assert.ErrorIs(t, err, db.ErrNotFound)

	votes := []db.Vote{
		{EventID: grid.ID, UserID: user.ID, DateCellID: got.Dates[0].ID, TimeCellID: got.Times[0].ID, IsAvailable: true},
		{EventID: grid.ID, UserID: user.ID, DateCellID: got.Dates[0].ID, TimeCellID: got.Times[1].ID, IsAvailable: false},
	}
	require.NoError(t, database.ReplaceVotes(ctx, grid.ID, user.ID, votes))
	require.NoError(t, database.ReplaceVotes(ctx, grid.ID, user.ID, votes[:1]))

	stored, err := database.GetVotes(ctx, grid.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 1)

	require.NoError(t, database.InsertPatterns(ctx, []db.NewPattern{
		{UserID: user.ID, StartTime: "2025-06-27 09:00:00", EndTime: "2025-06-27 12:00:00"},
	}))
	patterns, err := database.GetPatterns(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.Equal(t, "2025-06-27 09:00:00", patterns[0].StartTime)
	assert.Equal(t, "2025-06-27 12:00:00", patterns[0].EndTime)

	err = database.ApplyPatternChanges(ctx, user.ID, []string{patterns[0].ID}, []db.NewPattern{
		{UserID: user.ID, StartTime: "2025-06-27 09:00:00", EndTime: "2025-06-27 10:00:00"},
		{UserID: user.ID, StartTime: "2025-06-27 11:00:00", EndTime: "2025-06-27 12:00:00"},
	})
	require.NoError(t, err)

	patterns, err = database.GetPatterns(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, patterns, 2)
	assert.Equal(t, "2025-06-27 10:00:00", patterns[0].EndTime)
	assert.Equal(t, "2025-06-27 11:00:00", patterns[1].StartTime)

	require.NoError(t, database.DeletePatterns(ctx, user.ID, []string{patterns[0].ID, patterns[1].ID}))
	patterns, err = database.GetPatterns(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, patterns)
}

func TestIntegration_PatternEndingAtMidnight(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	user, _, err := database.UpsertUser(ctx, &db.User{ExternalID: "it-" + uuid.New().String(), Email: "late@example.com"})
	require.NoError(t, err)

	late := interval.Interval{Date: civil.Date{Year: 2025, Month: time.June, Day: 27}, Start: 23*60 + 30, End: interval.MinutesPerDay}
	require.NoError(t, database.InsertPatterns(ctx, []db.NewPattern{
		{UserID: user.ID, StartTime: late.StartTimestamp(), EndTime: late.EndTimestamp()},
		// the "24:00:00" spelling is normalized by the column to the next date
		{UserID: user.ID, StartTime: "2025-06-28 00:00:00", EndTime: "2025-06-28 24:00:00"},
	}))

	patterns, err := database.GetPatterns(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, patterns, 2)

	got, err := interval.FromStored(patterns[0].StartTime, patterns[0].EndTime)
	require.NoError(t, err)
	assert.Equal(t, late, got)

	whole, err := interval.FromStored(patterns[1].StartTime, patterns[1].EndTime)
	require.NoError(t, err)
	assert.Equal(t, interval.MinutesPerDay, whole.End)
	assert.Equal(t, 28, whole.Date.Day)
}

func TestIntegration_PatternsForMalformedUserID(t *testing.T) {
	database := newTestDB(t)

	patterns, err := database.GetPatterns(context.Background(), "not-a-uuid")
	require.NoError(t, err)
	assert.Empty(t, patterns)
}

func TestIsUUID(t *testing.T) {
	assert.True(t, isUUID(uuid.New().String()))
	assert.False(t, isUUID("not-a-uuid"))
	assert.False(t, isUUID(""))
}
