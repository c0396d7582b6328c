package database

import (
	"fmt"
	"time"

	"github.com/CrowderSoup/taskflow-pro/model"
)

// timeLayout is fixed-width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type scanner interface {
	Scan(dest ...any) error
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

const taskColumns = `id, user_id, title, priority, status, start_date, notes, created_at, updated_at`

func scanTask(s scanner, extra ...any) (model.Task, error) {
	var t model.Task
	var priority, status, created, updated string
	dest := append([]any{&t.ID, &t.UserID, &t.Title, &priority, &status, &t.StartDate, &t.Notes, &created, &updated}, extra...)
	if err := s.Scan(dest...); err != nil {
		return model.Task{}, err
	}
	t.Priority = model.Priority(priority)
	t.Status = model.Status(status)

	var err error
	if t.CreatedAt, err = parseTime(created); err != nil {
		return model.Task{}, err
	}
	if t.UpdatedAt, err = parseTime(updated); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

const subtaskColumns = `id, parent_task_id, user_id, title, status, notes, created_at, updated_at`

func scanSubtask(s scanner) (model.Subtask, error) {
	var st model.Subtask
	var status, created, updated string
	if err := s.Scan(&st.ID, &st.ParentTaskID, &st.UserID, &st.Title, &status, &st.Notes, &created, &updated); err != nil {
		return model.Subtask{}, err
	}
	st.Status = model.Status(status)

	var err error
	if st.CreatedAt, err = parseTime(created); err != nil {
		return model.Subtask{}, err
	}
	if st.UpdatedAt, err = parseTime(updated); err != nil {
		return model.Subtask{}, err
	}
	return st, nil
}

const preferenceColumns = `user_id, theme, feature_previews, command_menu_enabled, created_at, updated_at`

func scanPreferences(s scanner) (model.Preferences, error) {
	var p model.Preferences
	var theme, created, updated string
	if err := s.Scan(&p.UserID, &theme, &p.FeaturePreviews, &p.CommandMenuEnabled, &created, &updated); err != nil {
		return model.Preferences{}, err
	}
	p.Theme = model.NormalizeTheme(theme)

	var err error
	if p.CreatedAt, err = parseTime(created); err != nil {
		return model.Preferences{}, err
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return model.Preferences{}, err
	}
	return p, nil
}
