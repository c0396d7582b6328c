// Package model holds the records shared by the server, the HTTP client and
// the client-side stores.
package model

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the wire format of Task.StartDate.
const DateLayout = "2006-01-02"

var (
	ErrTitleRequired   = errors.New("title is required")
	ErrInvalidPriority = errors.New("priority must be one of high, medium, low")
	ErrInvalidStatus   = errors.New("status must be one of pending, in-progress, done")
	ErrInvalidDate     = errors.New("start_date must be a YYYY-MM-DD date")
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Valid reports whether p is one of the enumerated priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Valid reports whether s is one of the enumerated statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Toggled flips completion: done becomes pending, anything else becomes done.
func (s Status) Toggled() Status {
	if s == StatusDone {
		return StatusPending
	}
	return StatusDone
}

// Task is a top-level task owned by a single identity.
type Task struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Priority  Priority  `json:"priority"`
	Status    Status    `json:"status"`
	StartDate string    `json:"start_date"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaskDraft is the caller-supplied part of a new task. Status and StartDate
// may be left empty and are defaulted by Normalize.
type TaskDraft struct {
	Title     string   `json:"title"`
	Priority  Priority `json:"priority"`
	Status    Status   `json:"status,omitempty"`
	StartDate string   `json:"start_date,omitempty"`
	Notes     string   `json:"notes,omitempty"`
}

// Normalize trims the title and fills in the default status and start date.
func (d TaskDraft) Normalize(now time.Time) TaskDraft {
	d.Title = strings.TrimSpace(d.Title)
	if d.Status == "" {
		d.Status = StatusPending
	}
	if d.StartDate == "" {
		d.StartDate = now.Format(DateLayout)
	}
	return d
}

// Validate checks the draft without touching defaults.
func (d TaskDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrTitleRequired
	}
	if !d.Priority.Valid() {
		return ErrInvalidPriority
	}
	if d.Status != "" && !d.Status.Valid() {
		return ErrInvalidStatus
	}
	if d.StartDate != "" {
		if _, err := time.Parse(DateLayout, d.StartDate); err != nil {
			return ErrInvalidDate
		}
	}
	return nil
}

// TaskPatch is a partial update; nil fields are left untouched.
type TaskPatch struct {
	Title     *string   `json:"title,omitempty"`
	Priority  *Priority `json:"priority,omitempty"`
	Status    *Status   `json:"status,omitempty"`
	StartDate *string   `json:"start_date,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
}

func (p TaskPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return ErrTitleRequired
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return ErrInvalidPriority
	}
	if p.Status != nil && !p.Status.Valid() {
		return ErrInvalidStatus
	}
	if p.StartDate != nil {
		if _, err := time.Parse(DateLayout, *p.StartDate); err != nil {
			return ErrInvalidDate
		}
	}
	return nil
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Priority == nil && p.Status == nil && p.StartDate == nil && p.Notes == nil
}

// Apply returns t with the patch applied. The title is trimmed.
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.StartDate != nil {
		t.StartDate = *p.StartDate
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	return t
}

// SearchResult is a task returned by semantic search. Similarity is in [0,1].
type SearchResult struct {
	Task
	Similarity float64 `json:"similarity"`
}
