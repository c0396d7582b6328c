package tasks

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/CrowderSoup/taskflow-pro/model"
)

var ErrTaskNotFound = errors.New("task not found")

// Backend is the persistence collaborator for tasks of one identity.
type Backend interface {
	// ListTasks returns the identity's tasks, newest first.
	ListTasks(ctx context.Context) ([]model.Task, error)
	InsertTask(ctx context.Context, draft model.TaskDraft) (model.Task, error)
	UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// Store holds the authoritative local task list. Local state changes only
// after the backend confirms a mutation, and is then replaced by the
// backend's record. The lock is never held across a backend call, so when
// two mutations of the same task are in flight the last response wins.
type Store struct {
	backend Backend
	now     func() time.Time

	mu      sync.Mutex
	tasks   []model.Task
	lastErr error
}

func NewStore(backend Backend) *Store {
	return &Store{backend: backend, now: time.Now}
}

// Load replaces local state with the backend's list.
func (s *Store) Load(ctx context.Context) error {
	ts, err := s.backend.ListTasks(ctx)
	if err != nil {
		return s.fail(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = ts
	s.lastErr = nil
	return nil
}

// List returns a copy of the local tasks, newest first.
func (s *Store) List() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tasks)
}

// Get returns the local copy of a task.
func (s *Store) Get(id string) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return model.Task{}, false
	}
	return s.tasks[i], true
}

// Err is the most recent failure, or nil after a successful Load.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Add validates the draft, persists it and prepends the stored record.
func (s *Store) Add(ctx context.Context, draft model.TaskDraft) (model.Task, error) {
	if err := draft.Validate(); err != nil {
		return model.Task{}, s.fail(err)
	}
	created, err := s.backend.InsertTask(ctx, draft.Normalize(s.now()))
	if err != nil {
		return model.Task{}, s.fail(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = slices.Insert(s.tasks, 0, created)
	return created, nil
}

// Update persists a partial change and replaces the local record with the
// one the backend returns.
func (s *Store) Update(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	if err := patch.Validate(); err != nil {
		return model.Task{}, s.fail(err)
	}
	updated, err := s.backend.UpdateTask(ctx, id, patch)
	if err != nil {
		return model.Task{}, s.fail(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		s.tasks[i] = updated
	}
	return updated, nil
}

// Delete removes the task locally once the backend confirms.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.backend.DeleteTask(ctx, id); err != nil {
		return s.fail(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		s.tasks = slices.Delete(s.tasks, i, i+1)
	}
	return nil
}

// Toggle flips a task between done and pending.
func (s *Store) Toggle(ctx context.Context, id string) (model.Task, error) {
	current, ok := s.Get(id)
	if !ok {
		return model.Task{}, s.fail(ErrTaskNotFound)
	}
	next := current.Status.Toggled()
	return s.Update(ctx, id, model.TaskPatch{Status: &next})
}

func (s *Store) index(id string) int {
	return slices.IndexFunc(s.tasks, func(t model.Task) bool { return t.ID == id })
}

func (s *Store) fail(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
	return err
}
