package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/CrowderSoup/taskflow-pro/database"
	"github.com/CrowderSoup/taskflow-pro/model"
	"github.com/CrowderSoup/taskflow-pro/services"
)

type PreferenceHandler struct {
	prefs *database.PreferenceService
	hub   Publisher
}

func NewPreferenceHandler(prefs *database.PreferenceService, hub Publisher) *PreferenceHandler {
	return &PreferenceHandler{prefs: prefs, hub: hub}
}

func (h *PreferenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found")
		return
	}

	p, err := h.prefs.Get(r.Context(), id.UserID)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "preferences not found")
		return
	}
	if err != nil {
		serverError(w, r, "failed to load preferences", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Create stores the record if none exists and returns what is stored.
func (h *PreferenceHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, h.prefs.Create, http.StatusCreated)
}

// Save upserts the whole record.
func (h *PreferenceHandler) Save(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, h.prefs.Save, http.StatusOK)
}

func (h *PreferenceHandler) write(w http.ResponseWriter, r *http.Request,
	store func(ctx context.Context, userID string, p model.Preferences) (model.Preferences, error), status int) {
	id, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found")
		return
	}

	var p model.Preferences
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := p.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := store(r.Context(), id.UserID, p)
	if err != nil {
		serverError(w, r, "failed to save preferences", err)
		return
	}

	h.hub.Publish(id.UserID, services.EventPreferencesUpdated, saved)
	writeJSON(w, status, saved)
}
