package tasks

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/CrowderSoup/taskflow-pro/model"
)

var ErrSubtaskNotFound = errors.New("subtask not found")

// SubtaskBackend is the persistence collaborator for subtasks.
type SubtaskBackend interface {
	// ListSubtasks returns the parent's subtasks, oldest first.
	ListSubtasks(ctx context.Context, parentTaskID string) ([]model.Subtask, error)
	InsertSubtask(ctx context.Context, parentTaskID string, draft model.SubtaskDraft) (model.Subtask, error)
	UpdateSubtask(ctx context.Context, id string, patch model.SubtaskPatch) (model.Subtask, error)
	DeleteSubtask(ctx context.Context, id string) error
}

// SubtaskStore mirrors Store for the subtasks of one parent task. New
// subtasks are appended since the list is kept oldest first.
type SubtaskStore struct {
	backend  SubtaskBackend
	parentID string

	mu       sync.Mutex
	subtasks []model.Subtask
	lastErr  error
}

func NewSubtaskStore(backend SubtaskBackend, parentTaskID string) *SubtaskStore {
	return &SubtaskStore{backend: backend, parentID: parentTaskID}
}

func (s *SubtaskStore) ParentTaskID() string { return s.parentID }

func (s *SubtaskStore) Load(ctx context.Context) error {
	if s.parentID == "" {
		s.mu.Lock()
		s.subtasks = nil
		s.mu.Unlock()
		return nil
	}
	sts, err := s.backend.ListSubtasks(ctx, s.parentID)
	if err != nil {
		return s.fail(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subtasks = sts
	s.lastErr = nil
	return nil
}

func (s *SubtaskStore) List() []model.Subtask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.subtasks)
}

func (s *SubtaskStore) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *SubtaskStore) Add(ctx context.Context, draft model.SubtaskDraft) (model.Subtask, error) {
	if err := draft.Validate(); err != nil {
		return model.Subtask{}, s.fail(err)
	}
	created, err := s.backend.InsertSubtask(ctx, s.parentID, draft.Normalize())
	if err != nil {
		return model.Subtask{}, s.fail(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.subtasks = append(s.subtasks, created)
	return created, nil
}

func (s *SubtaskStore) Update(ctx context.Context, id string, patch model.SubtaskPatch) (model.Subtask, error) {
	if err := patch.Validate(); err != nil {
		return model.Subtask{}, s.fail(err)
	}
	updated, err := s.backend.UpdateSubtask(ctx, id, patch)
	if err != nil {
		return model.Subtask{}, s.fail(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		s.subtasks[i] = updated
	}
	return updated, nil
}

func (s *SubtaskStore) Delete(ctx context.Context, id string) error {
	if err := s.backend.DeleteSubtask(ctx, id); err != nil {
		return s.fail(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		s.subtasks = slices.Delete(s.subtasks, i, i+1)
	}
	return nil
}

func (s *SubtaskStore) Toggle(ctx context.Context, id string) (model.Subtask, error) {
	s.mu.Lock()
	i := s.index(id)
	var current model.Subtask
	if i >= 0 {
		current = s.subtasks[i]
	}
	s.mu.Unlock()
	if i < 0 {
		return model.Subtask{}, s.fail(ErrSubtaskNotFound)
	}

	next := current.Status.Toggled()
	return s.Update(ctx, id, model.SubtaskPatch{Status: &next})
}

func (s *SubtaskStore) index(id string) int {
	return slices.IndexFunc(s.subtasks, func(st model.Subtask) bool { return st.ID == id })
}

func (s *SubtaskStore) fail(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
	return err
}
