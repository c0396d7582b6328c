package model

import (
	"errors"
	"testing"
	"time"
)

func TestStatusToggledIsItsOwnInverseFromDoneAndPending(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusDone} {
		if got := s.Toggled().Toggled(); got != s {
			t.Errorf("toggle twice from %q gave %q", s, got)
		}
	}
	if got := StatusInProgress.Toggled(); got != StatusDone {
		t.Errorf("in-progress toggled = %q, want done", got)
	}
}

func TestTaskDraftValidate(t *testing.T) {
	tests := []struct {
		name  string
		draft TaskDraft
		want  error
	}{
		{"ok", TaskDraft{Title: "Write report", Priority: PriorityHigh}, nil},
		{"blank title", TaskDraft{Title: "   ", Priority: PriorityHigh}, ErrTitleRequired},
		{"missing priority", TaskDraft{Title: "x"}, ErrInvalidPriority},
		{"bad status", TaskDraft{Title: "x", Priority: PriorityLow, Status: "blocked"}, ErrInvalidStatus},
		{"bad date", TaskDraft{Title: "x", Priority: PriorityLow, StartDate: "12/01/2024"}, ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.draft.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTaskDraftNormalizeDefaults(t *testing.T) {
	now := time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC)
	d := TaskDraft{Title: "  Plan trip ", Priority: PriorityMedium}.Normalize(now)

	if d.Title != "Plan trip" {
		t.Errorf("title = %q", d.Title)
	}
	if d.Status != StatusPending {
		t.Errorf("status = %q, want pending", d.Status)
	}
	if d.StartDate != "2024-03-09" {
		t.Errorf("start date = %q", d.StartDate)
	}
}

func TestNormalizeTheme(t *testing.T) {
	cases := map[string]Theme{
		"light":        ThemeLight,
		"classic-dark": ThemeClassicDark,
		"dark":         ThemeClassicDark,
		"system":       ThemeLight,
		"":             ThemeLight,
	}
	for raw, want := range cases {
		if got := NormalizeTheme(raw); got != want {
			t.Errorf("NormalizeTheme(%q) = %q, want %q", raw, got, want)
		}
	}
}
