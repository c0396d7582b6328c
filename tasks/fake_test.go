package tasks_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/CrowderSoup/taskflow-pro/model"
)

var errBackend = errors.New("backend unavailable")

// fakeBackend is an in-memory Backend and SubtaskBackend with error injection.
type fakeBackend struct {
	mu       sync.Mutex
	seq      int
	tasks    []model.Task
	subtasks []model.Subtask

	InsertErr error
	UpdateErr error
	DeleteErr error
	ListErr   error

	inserts int
	updates int
	deletes int
}

func (f *fakeBackend) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeBackend) ListTasks(ctx context.Context) ([]model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	out := make([]model.Task, len(f.tasks))
	for i, t := range f.tasks {
		out[len(f.tasks)-1-i] = t
	}
	return out, nil
}

func (f *fakeBackend) InsertTask(ctx context.Context, d model.TaskDraft) (model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts++
	if f.InsertErr != nil {
		return model.Task{}, f.InsertErr
	}
	now := time.Now()
	t := model.Task{
		ID:        f.nextID("task"),
		UserID:    "user-1",
		Title:     d.Title,
		Priority:  d.Priority,
		Status:    d.Status,
		StartDate: d.StartDate,
		Notes:     d.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.tasks = append(f.tasks, t)
	return t, nil
}

func (f *fakeBackend) UpdateTask(ctx context.Context, id string, p model.TaskPatch) (model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if f.UpdateErr != nil {
		return model.Task{}, f.UpdateErr
	}
	for i, t := range f.tasks {
		if t.ID == id {
			t = p.Apply(t)
			t.UpdatedAt = time.Now()
			f.tasks[i] = t
			return t, nil
		}
	}
	return model.Task{}, errors.New("not found")
}

func (f *fakeBackend) DeleteTask(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeBackend) ListSubtasks(ctx context.Context, parentID string) ([]model.Subtask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	var out []model.Subtask
	for _, st := range f.subtasks {
		if st.ParentTaskID == parentID {
			out = append(out, st)
		}
	}
	return out, nil
}

func (f *fakeBackend) InsertSubtask(ctx context.Context, parentID string, d model.SubtaskDraft) (model.Subtask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts++
	if f.InsertErr != nil {
		return model.Subtask{}, f.InsertErr
	}
	st := model.Subtask{
		ID:           f.nextID("sub"),
		ParentTaskID: parentID,
		UserID:       "user-1",
		Title:        d.Title,
		Status:       d.Status,
		Notes:        d.Notes,
	}
	f.subtasks = append(f.subtasks, st)
	return st, nil
}

func (f *fakeBackend) UpdateSubtask(ctx context.Context, id string, p model.SubtaskPatch) (model.Subtask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if f.UpdateErr != nil {
		return model.Subtask{}, f.UpdateErr
	}
	for i, st := range f.subtasks {
		if st.ID == id {
			st = p.Apply(st)
			f.subtasks[i] = st
			return st, nil
		}
	}
	return model.Subtask{}, errors.New("not found")
}

func (f *fakeBackend) DeleteSubtask(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	for i, st := range f.subtasks {
		if st.ID == id {
			f.subtasks = append(f.subtasks[:i], f.subtasks[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}
