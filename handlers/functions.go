package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/CrowderSoup/taskflow-pro/model"
	"github.com/CrowderSoup/taskflow-pro/services"
)

// TaskSearcher is the semantic search backend of the smart-search function.
type TaskSearcher interface {
	Search(ctx context.Context, userID, query string) ([]model.SearchResult, error)
}

// FunctionHandler serves the AI-backed functions under /functions/v1.
type FunctionHandler struct {
	search    TaskSearcher
	generator services.SubtaskGenerator
	tracer    trace.Tracer
}

func NewFunctionHandler(search TaskSearcher, generator services.SubtaskGenerator, tracer trace.Tracer) *FunctionHandler {
	return &FunctionHandler{search: search, generator: generator, tracer: tracer}
}

// SmartSearch handles {query, userId} and answers {results} ranked by
// similarity, or {error}.
func (h *FunctionHandler) SmartSearch(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "functions.smart-search")
	defer span.End()

	id, ok := identityFrom(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found")
		return
	}

	var req struct {
		Query  string `json:"query"`
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		span.RecordError(err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "Query and userId are required")
		return
	}
	if req.UserID != id.UserID {
		writeError(w, http.StatusForbidden, "Forbidden")
		return
	}

	results, err := h.search.Search(ctx, req.UserID, req.Query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		slog.Error("smart search failed", "user_id", req.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "Search failed")
		return
	}
	if results == nil {
		results = []model.SearchResult{}
	}
	span.SetAttributes(attribute.Int("results", len(results)))
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// GenerateSubtasks handles {taskTitle} and answers {subtasks} or {error}.
func (h *FunctionHandler) GenerateSubtasks(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "functions.generate-subtasks")
	defer span.End()

	var req struct {
		TaskTitle string `json:"taskTitle"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	title := strings.TrimSpace(req.TaskTitle)
	if title == "" {
		writeError(w, http.StatusBadRequest, "Task title is required")
		return
	}

	subtasks, err := h.generator.Generate(ctx, title)
	if errors.Is(err, services.ErrAIUnavailable) {
		writeError(w, http.StatusServiceUnavailable, "AI provider not configured")
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		slog.Error("subtask generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate subtasks")
		return
	}
	span.SetAttributes(attribute.Int("subtasks", len(subtasks)))
	writeJSON(w, http.StatusOK, map[string]any{"subtasks": subtasks})
}
