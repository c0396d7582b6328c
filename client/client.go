// Package client talks to a TaskFlow backend over HTTP: the persistence
// tables, the auth endpoints, the two edge functions and the change stream.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	// EnvURL and EnvAnonKey gate whether a real backend is used.
	EnvURL     = "TASKFLOW_URL"
	EnvAnonKey = "TASKFLOW_ANON_KEY"

	tableTimeout    = 10 * time.Second
	functionTimeout = 30 * time.Second
)

// ErrNotConfigured is returned by every call when the backend URL or anon
// key is missing.
var ErrNotConfigured = errors.New("taskflow backend not configured")

// Config locates the backend.
type Config struct {
	URL        string
	AnonKey    string
	HTTPClient *http.Client
}

// ConfigFromEnv reads TASKFLOW_URL and TASKFLOW_ANON_KEY.
func ConfigFromEnv() Config {
	return Config{
		URL:     os.Getenv(EnvURL),
		AnonKey: os.Getenv(EnvAnonKey),
	}
}

// Configured reports whether both required values are present.
func (c Config) Configured() bool {
	return c.URL != "" && c.AnonKey != ""
}

// APIError is an error reported by the backend itself. Message is the
// backend's {"error": ...} text and is empty when the response carried none.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// StatusCode returns the HTTP status of an *APIError in err's chain, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Client is bound to one identity through its access token. An empty token
// is fine for the auth endpoints.
type Client struct {
	cfg   Config
	token string
	http  *http.Client
}

func New(cfg Config, accessToken string) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	return &Client{cfg: cfg, token: accessToken, http: hc}
}

// Configured reports whether calls will reach a backend.
func (c *Client) Configured() bool {
	return c.cfg.Configured()
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.URL+path, r)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("apikey", c.cfg.AnonKey)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// do sends a JSON request and decodes a JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, timeout time.Duration, method, path string, body, out any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp.StatusCode, respBody)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeAPIError(status int, body []byte) error {
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return &APIError{StatusCode: status}
	}
	return &APIError{StatusCode: status, Message: payload.Error}
}
