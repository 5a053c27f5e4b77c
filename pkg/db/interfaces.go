package db

import "context"

// EventStore defines the interface for event and grid operations
type EventStore interface {
	InsertEvent(ctx context.Context, event *EventGrid) error
	GetEvent(ctx context.Context, eventID string) (*EventGrid, error)
	ListEvents(ctx context.Context) ([]Event, error)
}

// UserStore defines the interface for user operations
type UserStore interface {
	// UpsertUser creates the user or updates the one with the same ExternalID.
	// The boolean reports whether a new user was created.
	UpsertUser(ctx context.Context, user *User) (*User, bool, error)
	GetUser(ctx context.Context, userID string) (*User, error)
}

// VoteStore defines the interface for vote operations
type VoteStore interface {
	// ReplaceVotes deletes every vote of the user for the event and inserts votes in their place
	ReplaceVotes(ctx context.Context, eventID, userID string, votes []Vote) error
	GetVotes(ctx context.Context, eventID string) ([]Vote, error)
}

// PatternStore defines the interface for stored usual-availability patterns
type PatternStore interface {
	// GetPatterns returns all of the user's patterns ordered by start time
	GetPatterns(ctx context.Context, userID string) ([]Pattern, error)
	DeletePatterns(ctx context.Context, userID string, ids []string) error
	InsertPatterns(ctx context.Context, patterns []NewPattern) error
}

// PatternChangeApplier is implemented by stores that can retire and insert a user's
// patterns as a single atomic operation
type PatternChangeApplier interface {
	ApplyPatternChanges(ctx context.Context, userID string, retire []string, insert []NewPattern) error
}

// FreshPatternReader is implemented by caching stores. GetPatternsFresh reads the
// backing store directly, skipping any cached copy.
type FreshPatternReader interface {
	GetPatternsFresh(ctx context.Context, userID string) ([]Pattern, error)
}

// Database defines the interface for all database operations.
// Both the postgres and memstore backends implement this interface.
type Database interface {
	EventStore
	UserStore
	VoteStore
	PatternStore
	PatternChangeApplier
}
