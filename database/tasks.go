package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/CrowderSoup/taskflow-pro/model"
)

// TaskService stores tasks. Every call is scoped to the owning user id.
type TaskService struct {
	db  *sql.DB
	now func() time.Time
}

func NewTaskService(db *sql.DB) *TaskService {
	return &TaskService{db: db, now: time.Now}
}

// List returns the user's tasks, newest first.
func (s *TaskService) List(ctx context.Context, userID string) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE user_id = ? ORDER BY created_at DESC, rowid DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *TaskService) Get(ctx context.Context, userID, id string) (model.Task, error) {
	return getTask(ctx, s.db, userID, id)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getTask(ctx context.Context, q queryRower, userID, id string) (model.Task, error) {
	row := q.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ? AND user_id = ?", id, userID)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, ErrNotFound
	}
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to query task: %w", err)
	}
	return t, nil
}

// Create inserts a validated draft, filling in the default status and start
// date.
func (s *TaskService) Create(ctx context.Context, userID string, draft model.TaskDraft) (model.Task, error) {
	now := s.now().UTC()
	draft = draft.Normalize(now)

	t := model.Task{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     draft.Title,
		Priority:  draft.Priority,
		Status:    draft.Status,
		StartDate: draft.StartDate,
		Notes:     draft.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx, "INSERT INTO tasks ("+taskColumns+", text_updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		t.ID, t.UserID, t.Title, string(t.Priority), string(t.Status), t.StartDate, t.Notes,
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt), formatTime(t.UpdatedAt))
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to insert task: %w", err)
	}
	return t, nil
}

// Update applies patch and returns the stored record. text_updated_at only
// moves when the searchable text (title or notes) changes.
func (s *TaskService) Update(ctx context.Context, userID, id string, patch model.TaskPatch) (model.Task, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := getTask(ctx, tx, userID, id)
	if err != nil {
		return model.Task{}, err
	}

	t := patch.Apply(current)
	t.UpdatedAt = s.now().UTC()
	updated := formatTime(t.UpdatedAt)
	textChanged := t.Title != current.Title || t.Notes != current.Notes
	_, err = tx.ExecContext(ctx, `UPDATE tasks SET title = ?, priority = ?, status = ?, start_date = ?, notes = ?, updated_at = ?,
		text_updated_at = CASE WHEN ? THEN ? ELSE text_updated_at END
		WHERE id = ? AND user_id = ?`,
		t.Title, string(t.Priority), string(t.Status), t.StartDate, t.Notes, updated,
		textChanged, updated, id, userID)
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to update task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.Task{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return t, nil
}

// Delete removes the task; its subtasks and embedding go with it.
func (s *TaskService) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
