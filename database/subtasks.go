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

// SubtaskService stores subtasks. A parent task owned by someone else is
// reported as ErrNotFound.
type SubtaskService struct {
	db  *sql.DB
	now func() time.Time
}

func NewSubtaskService(db *sql.DB) *SubtaskService {
	return &SubtaskService{db: db, now: time.Now}
}

func (s *SubtaskService) ownsTask(ctx context.Context, userID, taskID string) error {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM tasks WHERE id = ? AND user_id = ?", taskID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to query task: %w", err)
	}
	return nil
}

// List returns the subtasks of parentTaskID, oldest first.
func (s *SubtaskService) List(ctx context.Context, userID, parentTaskID string) ([]model.Subtask, error) {
	if err := s.ownsTask(ctx, userID, parentTaskID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+subtaskColumns+" FROM subtasks WHERE parent_task_id = ? AND user_id = ? ORDER BY created_at ASC, rowid ASC",
		parentTaskID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query subtasks: %w", err)
	}
	defer rows.Close()

	subtasks := []model.Subtask{}
	for rows.Next() {
		st, err := scanSubtask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subtask: %w", err)
		}
		subtasks = append(subtasks, st)
	}
	return subtasks, rows.Err()
}

func (s *SubtaskService) Create(ctx context.Context, userID, parentTaskID string, draft model.SubtaskDraft) (model.Subtask, error) {
	if err := s.ownsTask(ctx, userID, parentTaskID); err != nil {
		return model.Subtask{}, err
	}

	now := s.now().UTC()
	draft = draft.Normalize()
	st := model.Subtask{
		ID:           uuid.NewString(),
		ParentTaskID: parentTaskID,
		UserID:       userID,
		Title:        draft.Title,
		Status:       draft.Status,
		Notes:        draft.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := s.db.ExecContext(ctx, "INSERT INTO subtasks ("+subtaskColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		st.ID, st.ParentTaskID, st.UserID, st.Title, string(st.Status), st.Notes,
		formatTime(st.CreatedAt), formatTime(st.UpdatedAt))
	if err != nil {
		return model.Subtask{}, fmt.Errorf("failed to insert subtask: %w", err)
	}
	return st, nil
}

func (s *SubtaskService) Update(ctx context.Context, userID, id string, patch model.SubtaskPatch) (model.Subtask, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Subtask{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, "SELECT "+subtaskColumns+" FROM subtasks WHERE id = ? AND user_id = ?", id, userID)
	current, err := scanSubtask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Subtask{}, ErrNotFound
	}
	if err != nil {
		return model.Subtask{}, fmt.Errorf("failed to query subtask: %w", err)
	}

	st := patch.Apply(current)
	st.UpdatedAt = s.now().UTC()
	_, err = tx.ExecContext(ctx, "UPDATE subtasks SET title = ?, status = ?, notes = ?, updated_at = ? WHERE id = ? AND user_id = ?",
		st.Title, string(st.Status), st.Notes, formatTime(st.UpdatedAt), id, userID)
	if err != nil {
		return model.Subtask{}, fmt.Errorf("failed to update subtask: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.Subtask{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return st, nil
}

func (s *SubtaskService) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM subtasks WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete subtask: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete subtask: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
