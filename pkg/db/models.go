package db

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("not found")

// User represents a participant synced from the identity provider
type User struct {
	ID         string    `json:"id"`
	ExternalID string    `json:"externalId"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Event represents a scheduling poll
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// DateCell is a column header of an event grid
type DateCell struct {
	ID       string `json:"id"`
	EventID  string `json:"eventId"`
	Label    string `json:"label"`
	ColOrder int    `json:"colOrder"`
}

// TimeCell is a row header of an event grid
type TimeCell struct {
	ID       string `json:"id"`
	EventID  string `json:"eventId"`
	Label    string `json:"label"`
	RowOrder int    `json:"rowOrder"`
}

// EventGrid is an event together with its date columns and time rows,
// ordered by ColOrder and RowOrder
type EventGrid struct {
	Event
	Dates []DateCell `json:"dates"`
	Times []TimeCell `json:"times"`
}

// Vote represents one participant's answer for one grid cell
type Vote struct {
	EventID     string `json:"eventId"`
	UserID      string `json:"userId"`
	DateCellID  string `json:"dateCellId"`
	TimeCellID  string `json:"timeCellId"`
	IsAvailable bool   `json:"isAvailable"`
}

// Pattern represents a stored usual-availability row.
// StartTime and EndTime are "YYYY-MM-DD HH:MM:SS" strings with no zone offset.
type Pattern struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// NewPattern is a pattern row that has not been assigned an ID yet
type NewPattern struct {
	UserID    string `json:"userId"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}
