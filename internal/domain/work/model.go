package work

import (
	"strings"
	"time"
)

// State is a user's progress on a work.
type State string

const (
	StateCompleted  State = "completed"
	StateDoing      State = "doing"
	StateNotStarted State = "not_started"
)

// legacyNotStarted is the spelling stored by older clients.
const legacyNotStarted = "not yet started"

// DeadlineLayout is the calendar-date format accepted for deadlines.
const DeadlineLayout = "2006-01-02"

// ParseState normalises a client-supplied state.
func ParseState(raw string) (State, error) {
	switch s := strings.ToLower(strings.TrimSpace(raw)); s {
	case string(StateCompleted), string(StateDoing), string(StateNotStarted):
		return State(s), nil
	case legacyNotStarted, "not-started", "notyetstarted":
		return StateNotStarted, nil
	default:
		return "", ErrInvalidState
	}
}

// StatusEntry is one user's recorded progress on a work.
type StatusEntry struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	State     State     `json:"state"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Counts tallies a work's status entries by state.
type Counts struct {
	Completed     int `json:"completed"`
	Doing         int `json:"doing"`
	NotYetStarted int `json:"notYetStarted"`
}

// Total returns the number of entries the counts describe.
func (c Counts) Total() int {
	return c.Completed + c.Doing + c.NotYetStarted
}

// Work is an assignment with per-user completion tracking.
type Work struct {
	ID          string        `json:"id"`
	Subject     string        `json:"subject"`
	Description string        `json:"work"`
	Deadline    string        `json:"deadline"`
	AddedBy     string        `json:"addedBy"`
	FileURL     string        `json:"fileUrl"`
	CreatedAt   time.Time     `json:"createdAt"`
	Status      []StatusEntry `json:"status"`
	Counts      Counts        `json:"counts"`
	Version     int64         `json:"-"`
}

// Totals aggregates counts across every stored work.
type Totals struct {
	TotalWorks    int `json:"totalWorks"`
	Completed     int `json:"completed"`
	Doing         int `json:"doing"`
	NotYetStarted int `json:"notYetStarted"`
}
