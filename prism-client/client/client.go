// Package client talks to the prism-api REST interface.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"

	"prism-todo/prism-api/domain"
)

// ErrRequestFailed wraps every transport error and non-2xx response. Error
// bodies are not interpreted.
var ErrRequestFailed = errors.New("request failed")

// StatusError reports a non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

func (e *StatusError) Unwrap() error { return ErrRequestFailed }

// Health mirrors GET /api/health.
type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Database  string `json:"database"`
}

// Client wraps http.Client with typed task operations.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New creates a Client for baseURL, e.g. "http://localhost:8080".
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: hc}
}

// ListTasks runs a query. An empty filter means "all".
func (c *Client) ListTasks(ctx context.Context, q domain.Query) ([]domain.Task, error) {
	params := url.Values{}
	if q.Filter != "" && q.Filter != domain.FilterAll {
		params.Set("filter", string(q.Filter))
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	path := "/api/tasks"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	var tasks []domain.Task
	if err := c.do(ctx, http.MethodGet, path, nil, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks, nil
}

func (c *Client) CreateTask(ctx context.Context, text string, important bool) (domain.Task, error) {
	var t domain.Task
	err := c.do(ctx, http.MethodPost, "/api/tasks", domain.CreateInput{Text: &text, Important: &important}, &t)
	return t, err
}

func (c *Client) UpdateTask(ctx context.Context, id string, p domain.TaskPatch) (domain.Task, error) {
	var t domain.Task
	err := c.do(ctx, http.MethodPut, "/api/tasks/"+url.PathEscape(id), p, &t)
	return t, err
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), nil, nil)
}

func (c *Client) Stats(ctx context.Context) (domain.Stats, error) {
	var s domain.Stats
	err := c.do(ctx, http.MethodGet, "/api/tasks/stats", nil, &s)
	return s, err
}

func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	err := c.do(ctx, http.MethodGet, "/api/health", nil, &h)
	return h, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := sonic.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Method: method, Path: path, Status: resp.StatusCode}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := sonic.ConfigStd.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %v", ErrRequestFailed, method, path, err)
	}
	return nil
}
