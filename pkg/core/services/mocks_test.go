package services

import (
	"context"
	"fmt"

	"github.com/jakechorley/timegrid/pkg/db"
)

// mockStore implements the narrow store interfaces used by the services.
// It deliberately does not implement db.PatternChangeApplier so the delete then insert path is exercised.
type mockStore struct {
	events   map[string]*db.EventGrid
	users    map[string]*db.User
	votes    []db.Vote
	patterns []db.Pattern
	nextID   int

	getEventErr       error
	replaceVotesErr   error
	getVotesErr       error
	getPatternsErr    error
	deletePatternsErr error
	insertPatternsErr error
	insertEventErr    error
	upsertUserErr     error

	replaceVotesCalls int
	deleteCalls       int
	insertCalls       int
}

func newMockStore() *mockStore {
	return &mockStore{
		events: make(map[string]*db.EventGrid),
		users:  make(map[string]*db.User),
	}
}

func (m *mockStore) GetEvent(ctx context.Context, eventID string) (*db.EventGrid, error) {
	if m.getEventErr != nil {
		return nil, m.getEventErr
	}
	event, ok := m.events[eventID]
	if !ok {
		return nil, fmt.Errorf("event %s: %w", eventID, db.ErrNotFound)
	}
	return event, nil
}

func (m *mockStore) InsertEvent(ctx context.Context, event *db.EventGrid) error {
	if m.insertEventErr != nil {
		return m.insertEventErr
	}
	event.ID = m.id("event")
	for i := range event.Dates {
		event.Dates[i].ID = m.id("date")
		event.Dates[i].EventID = event.ID
	}
	for i := range event.Times {
		event.Times[i].ID = m.id("time")
		event.Times[i].EventID = event.ID
	}
	m.events[event.ID] = event
	return nil
}

func (m *mockStore) ListEvents(ctx context.Context) ([]db.Event, error) {
	var out []db.Event
	for _, e := range m.events {
		out = append(out, e.Event)
	}
	return out, nil
}

func (m *mockStore) GetUser(ctx context.Context, userID string) (*db.User, error) {
	user, ok := m.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, db.ErrNotFound)
	}
	return user, nil
}

func (m *mockStore) UpsertUser(ctx context.Context, user *db.User) (*db.User, bool, error) {
	if m.upsertUserErr != nil {
		return nil, false, m.upsertUserErr
	}
	for _, existing := range m.users {
		if existing.ExternalID == user.ExternalID {
			existing.Email = user.Email
			existing.Name = user.Name
			return existing, false, nil
		}
	}
	created := *user
	created.ID = m.id("user")
	m.users[created.ID] = &created
	return &created, true, nil
}

func (m *mockStore) ReplaceVotes(ctx context.Context, eventID, userID string, votes []db.Vote) error {
	m.replaceVotesCalls++
	if m.replaceVotesErr != nil {
		return m.replaceVotesErr
	}
	kept := m.votes[:0]
	for _, v := range m.votes {
		if v.EventID != eventID || v.UserID != userID {
			kept = append(kept, v)
		}
	}
	m.votes = append(kept, votes...)
	return nil
}

func (m *mockStore) GetVotes(ctx context.Context, eventID string) ([]db.Vote, error) {
	if m.getVotesErr != nil {
		return nil, m.getVotesErr
	}
	var out []db.Vote
	for _, v := range m.votes {
		if v.EventID == eventID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *mockStore) GetPatterns(ctx context.Context, userID string) ([]db.Pattern, error) {
	if m.getPatternsErr != nil {
		return nil, m.getPatternsErr
	}
	var out []db.Pattern
	for _, p := range m.patterns {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockStore) DeletePatterns(ctx context.Context, userID string, ids []string) error {
	m.deleteCalls++
	if m.deletePatternsErr != nil {
		return m.deletePatternsErr
	}
	remove := make(map[string]bool, len(ids))
	for _, id := range ids {
		remove[id] = true
	}
	kept := m.patterns[:0]
	for _, p := range m.patterns {
		if !(p.UserID == userID && remove[p.ID]) {
			kept = append(kept, p)
		}
	}
	m.patterns = kept
	return nil
}

func (m *mockStore) InsertPatterns(ctx context.Context, patterns []db.NewPattern) error {
	m.insertCalls++
	if m.insertPatternsErr != nil {
		return m.insertPatternsErr
	}
	for _, p := range patterns {
		m.patterns = append(m.patterns, db.Pattern{
			ID:        m.id("pattern"),
			UserID:    p.UserID,
			StartTime: p.StartTime,
			EndTime:   p.EndTime,
		})
	}
	return nil
}

func (m *mockStore) id(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

// addEvent stores an event whose cell IDs are the labels themselves
func (m *mockStore) addEvent(id string, dates, times []string) *db.EventGrid {
	event := &db.EventGrid{Event: db.Event{ID: id, Title: id}}
	for i, label := range dates {
		event.Dates = append(event.Dates, db.DateCell{ID: label, EventID: id, Label: label, ColOrder: i})
	}
	for i, label := range times {
		event.Times = append(event.Times, db.TimeCell{ID: label, EventID: id, Label: label, RowOrder: i})
	}
	m.events[id] = event
	return event
}

func (m *mockStore) addUser(id string) {
	m.users[id] = &db.User{ID: id, ExternalID: "ext-" + id, Email: id + "@example.com", Name: id}
}

// storedRanges returns the user's patterns as "start-end" strings
func (m *mockStore) storedRanges(userID string) []string {
	var out []string
	for _, p := range m.patterns {
		if p.UserID == userID {
			out = append(out, p.StartTime+"-"+p.EndTime)
		}
	}
	return out
}
