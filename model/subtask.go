package model

import (
	"strings"
	"time"
)

// Subtask belongs to exactly one parent Task.
type Subtask struct {
	ID           string    `json:"id"`
	ParentTaskID string    `json:"parent_task_id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title"`
	Status       Status    `json:"status"`
	Notes        string    `json:"notes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type SubtaskDraft struct {
	Title  string `json:"title"`
	Status Status `json:"status,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

func (d SubtaskDraft) Normalize() SubtaskDraft {
	d.Title = strings.TrimSpace(d.Title)
	if d.Status == "" {
		d.Status = StatusPending
	}
	return d
}

func (d SubtaskDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrTitleRequired
	}
	if d.Status != "" && !d.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

type SubtaskPatch struct {
	Title  *string `json:"title,omitempty"`
	Status *Status `json:"status,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}

func (p SubtaskPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return ErrTitleRequired
	}
	if p.Status != nil && !p.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

func (p SubtaskPatch) Empty() bool {
	return p.Title == nil && p.Status == nil && p.Notes == nil
}

func (p SubtaskPatch) Apply(s Subtask) Subtask {
	if p.Title != nil {
		s.Title = strings.TrimSpace(*p.Title)
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.Notes != nil {
		s.Notes = *p.Notes
	}
	return s
}
