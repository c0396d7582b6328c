package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/CrowderSoup/taskflow-pro/database"
	"github.com/CrowderSoup/taskflow-pro/model"
	"github.com/CrowderSoup/taskflow-pro/services"
)

type SubtaskHandler struct {
	subtasks *database.SubtaskService
	hub      Publisher
}

func NewSubtaskHandler(subtasks *database.SubtaskService, hub Publisher) *SubtaskHandler {
	return &SubtaskHandler{subtasks: subtasks, hub: hub}
}

func (h *SubtaskHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found")
		return
	}

	subtasks, err := h.subtasks.List(r.Context(), id.UserID, mux.Vars(r)["id"])
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		serverError(w, r, "failed to list subtasks", err)
		return
	}
	writeJSON(w, http.StatusOK, subtasks)
}

func (h *SubtaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found")
		return
	}

	var draft model.SubtaskDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := draft.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	st, err := h.subtasks.Create(r.Context(), id.UserID, mux.Vars(r)["id"], draft)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		serverError(w, r, "failed to create subtask", err)
		return
	}

	h.hub.Publish(id.UserID, services.EventSubtaskCreated, st)
	writeJSON(w, http.StatusCreated, st)
}

func (h *SubtaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found")
		return
	}

	var patch model.SubtaskPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := patch.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	st, err := h.subtasks.Update(r.Context(), id.UserID, mux.Vars(r)["id"], patch)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "subtask not found")
		return
	}
	if err != nil {
		serverError(w, r, "failed to update subtask", err)
		return
	}

	h.hub.Publish(id.UserID, services.EventSubtaskUpdated, st)
	writeJSON(w, http.StatusOK, st)
}

func (h *SubtaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found")
		return
	}

	subtaskID := mux.Vars(r)["id"]
	err := h.subtasks.Delete(r.Context(), id.UserID, subtaskID)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "subtask not found")
		return
	}
	if err != nil {
		serverError(w, r, "failed to delete subtask", err)
		return
	}

	h.hub.Publish(id.UserID, services.EventSubtaskDeleted, map[string]string{"id": subtaskID})
	w.WriteHeader(http.StatusNoContent)
}
