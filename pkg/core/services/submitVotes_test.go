package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/timegrid/pkg/core/patterns"
	"github.com/jakechorley/timegrid/pkg/db"
	"github.com/jakechorley/timegrid/pkg/memstore"
)

const christmas = "2024-12-25"

var morningSlots = []string{"09:00-10:00", "10:00-11:00", "11:00-12:00"}

func vote(date, time string, available bool) VoteInput {
	return VoteInput{DateCellID: date, TimeCellID: time, IsAvailable: available}
}

func TestSubmitVotes_ContiguousSlotsMergeIntoOnePattern(t *testing.T) {
	store := newMockStore()
	store.addEvent("e1", []string{christmas}, morningSlots)
	store.addUser("u1")

	result, err := SubmitVotes(context.Background(), store, zap.NewNop(), patterns.PolicyReplace, "e1", "u1", []VoteInput{
		vote(christmas, "09:00-10:00", true),
		vote(christmas, "10:00-11:00", true),
		vote(christmas, "11:00-12:00", true),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.VotesSaved)
	assert.True(t, result.Learned.Applied)
	assert.NoError(t, result.Learned.Err)
	assert.Equal(t, 1, result.Learned.Inserted)
	assert.Equal(t, []string{christmas}, result.Learned.Dates)
	assert.Equal(t, []string{"2024-12-25 09:00:00-2024-12-25 12:00:00"}, store.storedRanges("u1"))
}

func TestSubmitVotes_ResubmissionReplacesSameDatePatterns(t *testing.T) {
	store := newMockStore()
	store.addEvent("e1", []string{christmas}, morningSlots)
	store.addEvent("e2", []string{christmas}, morningSlots)
	store.addUser("u1")
	ctx := context.Background()
	logger := zap.NewNop()

	_, err := SubmitVotes(ctx, store, logger, patterns.PolicyReplace, "e1", "u1", []VoteInput{
		vote(christmas, "09:00-10:00", true),
		vote(christmas, "10:00-11:00", true),
		vote(christmas, "11:00-12:00", true),
	})
	require.NoError(t, err)

	result, err := SubmitVotes(ctx, store, logger, patterns.PolicyReplace, "e2", "u1", []VoteInput{
		vote(christmas, "09:00-10:00", true),
		vote(christmas, "10:00-11:00", false),
		vote(christmas, "11:00-12:00", true),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Learned.Retired)
	assert.Equal(t, 2, result.Learned.Inserted)
	assert.ElementsMatch(t, []string{
		"2024-12-25 09:00:00-2024-12-25 10:00:00",
		"2024-12-25 11:00:00-2024-12-25 12:00:00",
	}, store.storedRanges("u1"))
}

func TestSubmitVotes_Idempotent(t *testing.T) {
	store := newMockStore()
	store.addEvent("e1", []string{christmas, "2024-12-26"}, morningSlots)
	store.addUser("u1")
	ctx := context.Background()
	votes := []VoteInput{
		vote(christmas, "09:00-10:00", true),
		vote(christmas, "11:00-12:00", true),
		vote("2024-12-26", "10:00-11:00", true),
	}

	_, err := SubmitVotes(ctx, store, zap.NewNop(), patterns.PolicyReplace, "e1", "u1", votes)
	require.NoError(t, err)
	first := store.storedRanges("u1")

	result, err := SubmitVotes(ctx, store, zap.NewNop(), patterns.PolicyReplace, "e1", "u1", votes)
	require.NoError(t, err)

	assert.ElementsMatch(t, first, store.storedRanges("u1"))
	assert.True(t, result.Learned.Applied)
	assert.Zero(t, result.Learned.Retired)
	assert.Zero(t, result.Learned.Inserted)
	assert.Empty(t, result.Learned.Dates)
}

func TestSubmitVotes_UntouchedDatesKeepTheirPatterns(t *testing.T) {
	store := newMockStore()
	store.addEvent("e1", []string{christmas}, morningSlots)
	store.addUser("u1")
	store.patterns = []db.Pattern{
		{ID: "boxing-day", UserID: "u1", StartTime: "2024-12-26 09:00:00", EndTime: "2024-12-26 17:00:00"},
	}

	_, err := SubmitVotes(context.Background(), store, zap.NewNop(), patterns.PolicyReplace, "e1", "u1", []VoteInput{
		vote(christmas, "10:00-11:00", true),
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		"2024-12-26 09:00:00-2024-12-26 17:00:00",
		"2024-12-25 10:00:00-2024-12-25 11:00:00",
	}, store.storedRanges("u1"))
}

func TestSubmitVotes_UnionPolicyNeverShrinks(t *testing.T) {
	store := newMockStore()
	store.addEvent("e1", []string{christmas}, morningSlots)
	store.addUser("u1")
	store.patterns = []db.Pattern{
		{ID: "p1", UserID: "u1", StartTime: "2024-12-25 09:00:00", EndTime: "2024-12-25 12:00:00"},
	}

	result, err := SubmitVotes(context.Background(), store, zap.NewNop(), patterns.PolicyUnion, "e1", "u1", []VoteInput{
		vote(christmas, "09:00-10:00", true),
		vote(christmas, "10:00-11:00", false),
		vote(christmas, "11:00-12:00", true),
	})
	require.NoError(t, err)

	assert.Zero(t, result.Learned.Retired)
	assert.Equal(t, []string{"2024-12-25 09:00:00-2024-12-25 12:00:00"}, store.storedRanges("u1"))
}

func TestSubmitVotes_UnrecognizedCellsAreSkipped(t *testing.T) {
	store := newMockStore()
	store.addEvent("e1", []string{christmas, "someday"}, []string{"Morning", "09:00-10:00"})
	store.addUser("u1")

	result, err := SubmitVotes(context.Background(), store, zap.NewNop(), patterns.PolicyReplace, "e1", "u1", []VoteInput{
		vote(christmas, "Morning", true),
		vote(christmas, "09:00-10:00", true),
		vote("someday", "09:00-10:00", true),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.VotesSaved)
	assert.Equal(t, 2, result.Learned.Unresolved)
	assert.Equal(t, []string{"2024-12-25 09:00:00-2024-12-25 10:00:00"}, store.storedRanges("u1"))
}

func TestSubmitVotes_NoAvailableVotesLeavesPatternsAlone(t *testing.T) {
	store := newMockStore()
	store.addEvent("e1", []string{christmas}, morningSlots)
	store.addUser("u1")
	store.patterns = []db.Pattern{
		{ID: "p1", UserID: "u1", StartTime: "2024-12-25 09:00:00", EndTime: "2024-12-25 12:00:00"},
	}

	result, err := SubmitVotes(context.Background(), store, zap.NewNop(), patterns.PolicyReplace, "e1", "u1", []VoteInput{
		vote(christmas, "09:00-10:00", false),
	})
	require.NoError(t, err)

	assert.True(t, result.Learned.Applied)
	assert.Equal(t, 0, store.deleteCalls)
	assert.Len(t, store.storedRanges("u1"), 1)
}

func TestSubmitVotes_EventNotFound(t *testing.T) {
	store := newMockStore()
	store.addUser("u1")

	_, err := SubmitVotes(context.Background(), store, zap.NewNop(), patterns.PolicyReplace, "missing", "u1", nil)

	assert.ErrorIs(t, err, db.ErrNotFound)
	assert.Equal(t, 0, store.replaceVotesCalls)
}

func TestSubmitVotes_UserNotFound(t *testing.T) {
	store := newMockStore()
	store.addEvent("e1", []string{christmas}, morningSlots)

	_, err := SubmitVotes(context.Background(), store, zap.NewNop(), patterns.PolicyReplace, "e1", "nobody", nil)

	assert.ErrorIs(t, err, db.ErrNotFound)
	assert.Equal(t, 0, store.replaceVotesCalls)
}

func TestSubmitVotes_RejectsForeignCell(t *testing.T) {
	store := newMockStore()
	store.addEvent("e1", []string{christmas}, morningSlots)
	store.addUser("u1")

	_, err := SubmitVotes(context.Background(), store, zap.NewNop(), patterns.PolicyReplace, "e1", "u1", []VoteInput{
		vote("2030-01-01", "09:00-10:00", true),
	})

	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 0, store.replaceVotesCalls)
}

func TestSubmitVotes_RejectsDuplicateCell(t *testing.T) {
	store := newMockStore()
	store.addEvent("e1", []string{christmas}, morningSlots)
	store.addUser("u1")

	_, err := SubmitVotes(context.Background(), store, zap.NewNop(), patterns.PolicyReplace, "e1", "u1", []VoteInput{
		vote(christmas, "09:00-10:00", true),
		vote(christmas, "09:00-10:00", false),
	})

	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSubmitVotes_ReplaceVotesFailureIsReturned(t *testing.T) {
	store := newMockStore()
	store.addEvent("e1", []string{christmas}, morningSlots)
	store.addUser("u1")
	store.replaceVotesErr = errors.New("connection reset")

	_, err := SubmitVotes(context.Background(), store, zap.NewNop(), patterns.PolicyReplace, "e1", "u1", []VoteInput{
		vote(christmas, "09:00-10:00", true),
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save votes")
	assert.Equal(t, 0, store.insertCalls)
}

func TestSubmitVotes_PatternFailuresDoNotFailSubmission(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*mockStore)
	}{
		{"get patterns", func(m *mockStore) { m.getPatternsErr = errors.New("read timeout") }},
		{"delete patterns", func(m *mockStore) { m.deletePatternsErr = errors.New("write timeout") }},
		{"insert patterns", func(m *mockStore) { m.insertPatternsErr = errors.New("write timeout") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockStore()
			store.addEvent("e1", []string{christmas}, morningSlots)
			store.addUser("u1")
			tt.setup(store)

			result, err := SubmitVotes(context.Background(), store, zap.NewNop(), patterns.PolicyReplace, "e1", "u1", []VoteInput{
				vote(christmas, "09:00-10:00", true),
			})
			require.NoError(t, err)

			assert.Equal(t, 1, result.VotesSaved)
			assert.False(t, result.Learned.Applied)
			assert.Error(t, result.Learned.Err)

			saved, err := store.GetVotes(context.Background(), "e1")
			require.NoError(t, err)
			assert.Len(t, saved, 1)
		})
	}
}

func TestSubmitVotes_CorruptRowsAreRetired(t *testing.T) {
	store := newMockStore()
	store.addEvent("e1", []string{christmas}, morningSlots)
	store.addUser("u1")
	store.patterns = []db.Pattern{
		{ID: "bad", UserID: "u1", StartTime: "not a time", EndTime: "2024-12-25 10:00:00"},
	}

	result, err := SubmitVotes(context.Background(), store, zap.NewNop(), patterns.PolicyReplace, "e1", "u1", []VoteInput{
		vote(christmas, "09:00-10:00", true),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Learned.Retired)
	assert.Equal(t, []string{"2024-12-25 09:00:00-2024-12-25 10:00:00"}, store.storedRanges("u1"))
}

func TestSubmitVotes_AtomicStore(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()
	store := memstore.NewDB()

	user, _, err := store.UpsertUser(ctx, &db.User{ExternalID: "ext-1", Email: "a@example.com"})
	require.NoError(t, err)

	first := &db.EventGrid{
		Event: db.Event{Title: "first"},
		Dates: []db.DateCell{{Label: "12/25"}},
		Times: []db.TimeCell{{Label: "09:00-10:00", RowOrder: 0}, {Label: "10:00-11:00", RowOrder: 1}, {Label: "11:00-12:00", RowOrder: 2}},
	}
	require.NoError(t, store.InsertEvent(ctx, first))
	second := &db.EventGrid{
		Event: db.Event{Title: "second"},
		Dates: []db.DateCell{{Label: "12/25"}},
		Times: []db.TimeCell{{Label: "09:00-10:00", RowOrder: 0}, {Label: "10:00-11:00", RowOrder: 1}, {Label: "11:00-12:00", RowOrder: 2}},
	}
	require.NoError(t, store.InsertEvent(ctx, second))

	cells := func(grid *db.EventGrid, available ...bool) []VoteInput {
		out := make([]VoteInput, len(grid.Times))
		for i, tc := range grid.Times {
			out[i] = VoteInput{DateCellID: grid.Dates[0].ID, TimeCellID: tc.ID, IsAvailable: available[i]}
		}
		return out
	}

	_, err = SubmitVotes(ctx, store, logger, patterns.PolicyReplace, first.ID, user.ID, cells(first, true, true, true))
	require.NoError(t, err)

	stored, err := store.GetPatterns(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "09:00:00", stored[0].StartTime[11:])
	assert.Equal(t, "12:00:00", stored[0].EndTime[11:])

	_, err = SubmitVotes(ctx, store, logger, patterns.PolicyReplace, second.ID, user.ID, cells(second, true, false, true))
	require.NoError(t, err)

	stored, err = store.GetPatterns(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "10:00:00", stored[0].EndTime[11:])
	assert.Equal(t, "11:00:00", stored[1].StartTime[11:])
}

func TestSubmitVotes_LateEveningCellIsLearned(t *testing.T) {
	store := newMockStore()
	store.addEvent("e1", []string{christmas}, []string{"23:30"})
	store.addEvent("e2", []string{christmas}, []string{"23:30"})
	store.addUser("u1")
	ctx := context.Background()
	votes := []VoteInput{vote(christmas, "23:30", true)}

	result, err := SubmitVotes(ctx, store, zap.NewNop(), patterns.PolicyReplace, "e1", "u1", votes)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Learned.Unresolved)
	assert.Equal(t, []string{"2024-12-25 23:30:00-2024-12-26 00:00:00"}, store.storedRanges("u1"))

	// the stored midnight end decodes on the same date, so nothing is rewritten
	result, err = SubmitVotes(ctx, store, zap.NewNop(), patterns.PolicyReplace, "e2", "u1", votes)
	require.NoError(t, err)
	assert.Zero(t, result.Learned.Retired)
	assert.Zero(t, result.Learned.Inserted)
}

// cachedStore serves GetPatterns from a fixed, possibly outdated snapshot
type cachedStore struct {
	*mockStore
	snapshot []db.Pattern
}

func (c *cachedStore) GetPatterns(ctx context.Context, userID string) ([]db.Pattern, error) {
	return c.snapshot, nil
}

func (c *cachedStore) GetPatternsFresh(ctx context.Context, userID string) ([]db.Pattern, error) {
	return c.mockStore.GetPatterns(ctx, userID)
}

func TestSubmitVotes_PlansAgainstFreshPatterns(t *testing.T) {
	inner := newMockStore()
	inner.addEvent("e1", []string{christmas}, morningSlots)
	inner.addUser("u1")
	require.NoError(t, inner.InsertPatterns(context.Background(), []db.NewPattern{
		{UserID: "u1", StartTime: "2024-12-25 09:00:00", EndTime: "2024-12-25 12:00:00"},
	}))
	store := &cachedStore{
		mockStore: inner,
		snapshot:  []db.Pattern{{ID: "gone", UserID: "u1", StartTime: "2024-12-25 09:00:00", EndTime: "2024-12-25 10:00:00"}},
	}

	result, err := SubmitVotes(context.Background(), store, zap.NewNop(), patterns.PolicyReplace, "e1", "u1", []VoteInput{
		vote(christmas, "09:00-10:00", true),
		vote(christmas, "10:00-11:00", true),
		vote(christmas, "11:00-12:00", true),
	})
	require.NoError(t, err)

	assert.True(t, result.Learned.Applied)
	assert.Zero(t, result.Learned.Retired)
	assert.Zero(t, result.Learned.Inserted)
	assert.Equal(t, []string{"2024-12-25 09:00:00-2024-12-25 12:00:00"}, inner.storedRanges("u1"))
}
