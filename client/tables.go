package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/CrowderSoup/taskflow-pro/model"
	"github.com/CrowderSoup/taskflow-pro/prefs"
)

// ListTasks returns the identity's tasks, newest first.
func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	var out []model.Task
	if err := c.do(ctx, tableTimeout, http.MethodGet, "/api/tasks", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) InsertTask(ctx context.Context, draft model.TaskDraft) (model.Task, error) {
	var out model.Task
	err := c.do(ctx, tableTimeout, http.MethodPost, "/api/tasks", draft, &out)
	return out, err
}

func (c *Client) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	var out model.Task
	err := c.do(ctx, tableTimeout, http.MethodPatch, "/api/tasks/"+url.PathEscape(id), patch, &out)
	return out, err
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, tableTimeout, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), nil, nil)
}

// ListSubtasks returns a task's subtasks, oldest first.
func (c *Client) ListSubtasks(ctx context.Context, parentTaskID string) ([]model.Subtask, error) {
	var out []model.Subtask
	path := "/api/tasks/" + url.PathEscape(parentTaskID) + "/subtasks"
	if err := c.do(ctx, tableTimeout, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) InsertSubtask(ctx context.Context, parentTaskID string, draft model.SubtaskDraft) (model.Subtask, error) {
	var out model.Subtask
	path := "/api/tasks/" + url.PathEscape(parentTaskID) + "/subtasks"
	err := c.do(ctx, tableTimeout, http.MethodPost, path, draft, &out)
	return out, err
}

func (c *Client) UpdateSubtask(ctx context.Context, id string, patch model.SubtaskPatch) (model.Subtask, error) {
	var out model.Subtask
	err := c.do(ctx, tableTimeout, http.MethodPatch, "/api/subtasks/"+url.PathEscape(id), patch, &out)
	return out, err
}

func (c *Client) DeleteSubtask(ctx context.Context, id string) error {
	return c.do(ctx, tableTimeout, http.MethodDelete, "/api/subtasks/"+url.PathEscape(id), nil, nil)
}

// GetPreferences returns prefs.ErrNotFound when the identity has no record.
func (c *Client) GetPreferences(ctx context.Context) (model.Preferences, error) {
	var out model.Preferences
	err := c.do(ctx, tableTimeout, http.MethodGet, "/api/preferences", nil, &out)
	if StatusCode(err) == http.StatusNotFound {
		return model.Preferences{}, prefs.ErrNotFound
	}
	return out, err
}

func (c *Client) CreatePreferences(ctx context.Context, p model.Preferences) (model.Preferences, error) {
	var out model.Preferences
	err := c.do(ctx, tableTimeout, http.MethodPost, "/api/preferences", p, &out)
	return out, err
}

// SavePreferences upserts the whole record.
func (c *Client) SavePreferences(ctx context.Context, p model.Preferences) (model.Preferences, error) {
	var out model.Preferences
	err := c.do(ctx, tableTimeout, http.MethodPut, "/api/preferences", p, &out)
	return out, err
}
