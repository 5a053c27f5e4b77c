package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jakechorley/timegrid/pkg/db"
)

// DB is an in-process implementation of db.Database.
// It is used for local development and tests; data is lost when the process exits.
type DB struct {
	mu       sync.Mutex
	users    map[string]db.User
	events   map[string]db.EventGrid
	votes    map[string][]db.Vote // keyed by event ID
	patterns map[string][]db.Pattern
	now      func() time.Time
}

var _ db.Database = (*DB)(nil)

// NewDB creates an empty store
func NewDB() *DB {
	return &DB{
		users:    make(map[string]db.User),
		events:   make(map[string]db.EventGrid),
		votes:    make(map[string][]db.Vote),
		patterns: make(map[string][]db.Pattern),
		now:      time.Now,
	}
}

// InsertEvent stores an event with its grid. Missing IDs are generated.
func (d *DB) InsertEvent(ctx context.Context, event *db.EventGrid) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if _, exists := d.events[event.ID]; exists {
		return fmt.Errorf("event %s already exists", event.ID)
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = d.now().UTC()
	}
	for i := range event.Dates {
		if event.Dates[i].ID == "" {
			event.Dates[i].ID = uuid.New().String()
		}
		event.Dates[i].EventID = event.ID
	}
	for i := range event.Times {
		if event.Times[i].ID == "" {
			event.Times[i].ID = uuid.New().String()
		}
		event.Times[i].EventID = event.ID
	}

	d.events[event.ID] = cloneGrid(*event)
	return nil
}

// GetEvent returns the event with its grid ordered by column and row
func (d *DB) GetEvent(ctx context.Context, eventID string) (*db.EventGrid, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	grid, ok := d.events[eventID]
	if !ok {
		return nil, fmt.Errorf("event %s: %w", eventID, db.ErrNotFound)
	}
	out := cloneGrid(grid)
	sort.SliceStable(out.Dates, func(i, j int) bool { return out.Dates[i].ColOrder < out.Dates[j].ColOrder })
	sort.SliceStable(out.Times, func(i, j int) bool { return out.Times[i].RowOrder < out.Times[j].RowOrder })
	return &out, nil
}

// ListEvents returns all events, newest first
func (d *DB) ListEvents(ctx context.Context) ([]db.Event, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	events := make([]db.Event, 0, len(d.events))
	for _, grid := range d.events {
		events = append(events, grid.Event)
	}
	sort.Slice(events, func(i, j int) bool {
		if !events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].CreatedAt.After(events[j].CreatedAt)
		}
		return events[i].ID < events[j].ID
	})
	return events, nil
}

// UpsertUser creates or updates a user keyed by ExternalID
func (d *DB) UpsertUser(ctx context.Context, user *db.User) (*db.User, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now().UTC()
	for id, existing := range d.users {
		if existing.ExternalID == user.ExternalID {
			existing.Email = user.Email
			existing.Name = user.Name
			existing.UpdatedAt = now
			d.users[id] = existing
			out := existing
			return &out, false, nil
		}
	}

	created := *user
	if created.ID == "" {
		created.ID = uuid.New().String()
	}
	created.CreatedAt = now
	created.UpdatedAt = now
	d.users[created.ID] = created
	out := created
	return &out, true, nil
}

// GetUser returns a user by ID
func (d *DB) GetUser(ctx context.Context, userID string) (*db.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	user, ok := d.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, db.ErrNotFound)
	}
	return &user, nil
}

// ReplaceVotes swaps the user's votes for the event in one step
func (d *DB) ReplaceVotes(ctx context.Context, eventID, userID string, votes []db.Vote) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	kept := make([]db.Vote, 0, len(d.votes[eventID])+len(votes))
	for _, v := range d.votes[eventID] {
		if v.UserID != userID {
			kept = append(kept, v)
		}
	}
	kept = append(kept, votes...)
	d.votes[eventID] = kept
	return nil
}

// GetVotes returns all votes cast for an event
func (d *DB) GetVotes(ctx context.Context, eventID string) ([]db.Vote, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]db.Vote, len(d.votes[eventID]))
	copy(out, d.votes[eventID])
	return out, nil
}

// GetPatterns returns the user's patterns ordered by start time
func (d *DB) GetPatterns(ctx context.Context, userID string) ([]db.Pattern, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]db.Pattern, len(d.patterns[userID]))
	copy(out, d.patterns[userID])
	// offset-free timestamps sort lexically in chronological order
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

// DeletePatterns removes the user's patterns with the given IDs
func (d *DB) DeletePatterns(ctx context.Context, userID string, ids []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.deletePatterns(userID, ids)
	return nil
}

// InsertPatterns stores new pattern rows
func (d *DB) InsertPatterns(ctx context.Context, patterns []db.NewPattern) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.insertPatterns(patterns)
	return nil
}

// ApplyPatternChanges retires and inserts patterns under a single lock
func (d *DB) ApplyPatternChanges(ctx context.Context, userID string, retire []string, insert []db.NewPattern) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, p := range insert {
		if p.UserID != userID {
			return fmt.Errorf("pattern for user %s cannot be applied to user %s", p.UserID, userID)
		}
	}

	d.deletePatterns(userID, retire)
	d.insertPatterns(insert)
	return nil
}

func (d *DB) deletePatterns(userID string, ids []string) {
	if len(ids) == 0 {
		return
	}
	remove := make(map[string]bool, len(ids))
	for _, id := range ids {
		remove[id] = true
	}
	kept := d.patterns[userID][:0]
	for _, p := range d.patterns[userID] {
		if !remove[p.ID] {
			kept = append(kept, p)
		}
	}
	d.patterns[userID] = kept
}

func (d *DB) insertPatterns(patterns []db.NewPattern) {
	for _, p := range patterns {
		d.patterns[p.UserID] = append(d.patterns[p.UserID], db.Pattern{
			ID:        uuid.New().String(),
			UserID:    p.UserID,
			StartTime: p.StartTime,
			EndTime:   p.EndTime,
		})
	}
}

func cloneGrid(g db.EventGrid) db.EventGrid {
	out := g
	out.Dates = append([]db.DateCell(nil), g.Dates...)
	out.Times = append([]db.TimeCell(nil), g.Times...)
	return out
}
