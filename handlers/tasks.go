package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/CrowderSoup/taskflow-pro/database"
	"github.com/CrowderSoup/taskflow-pro/model"
	"github.com/CrowderSoup/taskflow-pro/services"
)

// Publisher delivers change events to a user's live connections.
type Publisher interface {
	Publish(userID, eventType string, data any)
}

// TaskIndexer keeps task embeddings in step with task edits. Deleting a task
// drops its embedding through the foreign key.
type TaskIndexer interface {
	IndexTask(ctx context.Context, task model.Task) error
}

type TaskHandler struct {
	tasks   *database.TaskService
	indexer TaskIndexer
	hub     Publisher
}

func NewTaskHandler(tasks *database.TaskService, indexer TaskIndexer, hub Publisher) *TaskHandler {
	return &TaskHandler{tasks: tasks, indexer: indexer, hub: hub}
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found")
		return
	}

	tasks, err := h.tasks.List(r.Context(), id.UserID)
	if err != nil {
		serverError(w, r, "failed to list tasks", err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found")
		return
	}

	var draft model.TaskDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := draft.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.tasks.Create(r.Context(), id.UserID, draft)
	if err != nil {
		serverError(w, r, "failed to create task", err)
		return
	}

	h.index(r.Context(), task)
	h.hub.Publish(id.UserID, services.EventTaskCreated, task)
	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found")
		return
	}

	var patch model.TaskPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := patch.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.tasks.Update(r.Context(), id.UserID, mux.Vars(r)["id"], patch)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		serverError(w, r, "failed to update task", err)
		return
	}

	if patch.Title != nil || patch.Notes != nil {
		h.index(r.Context(), task)
	}
	h.hub.Publish(id.UserID, services.EventTaskUpdated, task)
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found")
		return
	}

	taskID := mux.Vars(r)["id"]
	err := h.tasks.Delete(r.Context(), id.UserID, taskID)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		serverError(w, r, "failed to delete task", err)
		return
	}

	h.hub.Publish(id.UserID, services.EventTaskDeleted, map[string]string{"id": taskID})
	w.WriteHeader(http.StatusNoContent)
}

// index is best effort; the backfill job retries tasks left without an
// embedding.
func (h *TaskHandler) index(ctx context.Context, task model.Task) {
	err := h.indexer.IndexTask(ctx, task)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrAIUnavailable):
		slog.Debug("skipping task embedding", "task_id", task.ID)
	default:
		slog.Warn("failed to index task", "task_id", task.ID, "error", err)
	}
}

func serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.Error(msg, "method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "Server error")
}
