package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const generateFailed = "failed to generate subtasks"

var ErrTaskTitleRequired = errors.New("task title is required")

type generateRequest struct {
	TaskTitle string `json:"taskTitle"`
}

type generateResponse struct {
	Subtasks []string `json:"subtasks"`
	Error    string   `json:"error,omitempty"`
}

// Generator asks the generate-subtasks function for subtask suggestions.
type Generator struct {
	client *Client
}

func NewGenerator(c *Client) *Generator {
	return &Generator{client: c}
}

// Generate returns suggested subtask titles. On failure it returns a nil
// slice and an error carrying the backend's message when there is one;
// success always yields a non-nil slice, possibly empty.
func (g *Generator) Generate(ctx context.Context, taskTitle string) ([]string, error) {
	if strings.TrimSpace(taskTitle) == "" {
		return nil, ErrTaskTitleRequired
	}

	var resp generateResponse
	err := g.client.do(ctx, functionTimeout, http.MethodPost, "/functions/v1/generate-subtasks",
		generateRequest{TaskTitle: taskTitle}, &resp)
	if err != nil {
		return nil, functionError(err, generateFailed)
	}
	if resp.Error != "" {
		return nil, &APIError{StatusCode: http.StatusOK, Message: resp.Error}
	}
	if resp.Subtasks == nil {
		return []string{}, nil
	}
	return resp.Subtasks, nil
}

// functionError keeps the backend's own message when it sent one and falls
// back to generic otherwise. The cause stays in the chain.
func functionError(err error, generic string) error {
	if errors.Is(err, ErrNotConfigured) {
		return err
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return err
		}
		return &APIError{StatusCode: apiErr.StatusCode, Message: generic}
	}
	return fmt.Errorf("%s: %w", generic, err)
}
