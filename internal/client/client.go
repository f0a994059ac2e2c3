// Package client is a typed HTTP client for the taskfeed API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"taskfeed/pkg/activity"
	"taskfeed/pkg/task"
	"taskfeed/pkg/user"
)

// Error is a non-2xx response. Body holds the decoded error object, e.g.
// {"alreadyliked": "User already liked this task"}.
type Error struct {
	Status int
	Body   map[string]string
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Body))
	for k := range e.Body {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Body[k]
	}
	return fmt.Sprintf("taskfeed: %d %s", e.Status, strings.Join(parts, "; "))
}

// Has reports whether the error body carries key.
func (e *Error) Has(key string) bool {
	_, ok := e.Body[key]
	return ok
}

// Client talks to one taskfeed server.
type Client struct {
	base  string
	token string
	http  *http.Client
}

// New creates a Client for baseURL, e.g. "http://localhost:8080".
func New(baseURL string) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// WithToken returns a copy of c authenticating as the token's subject.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// Token returns the bearer token in use.
func (c *Client) Token() string { return c.token }

type Registration struct {
	User  user.User `json:"user"`
	Token string    `json:"token"`
}

func (c *Client) Register(ctx context.Context, name, email, avatar string) (*Registration, error) {
	var out Registration
	body := map[string]string{"name": name, "email": email, "avatar": avatar}
	if err := c.do(ctx, http.MethodPost, "/users/register", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListTasks(ctx context.Context) ([]task.Task, error) {
	var out []task.Task
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (*task.Task, error) {
	var out task.Task
	if err := c.do(ctx, http.MethodGet, "/tasks/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateTask(ctx context.Context, d task.Draft) (*task.Task, error) {
	var out task.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", d, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil)
}

func (c *Client) Like(ctx context.Context, id string) (*task.Task, error) {
	return c.mutate(ctx, http.MethodPost, "/tasks/like/"+url.PathEscape(id), nil)
}

func (c *Client) Unlike(ctx context.Context, id string) (*task.Task, error) {
	return c.mutate(ctx, http.MethodPost, "/tasks/unlike/"+url.PathEscape(id), nil)
}

func (c *Client) Comment(ctx context.Context, id string, d task.Draft) (*task.Task, error) {
	return c.mutate(ctx, http.MethodPost, "/tasks/comment/"+url.PathEscape(id), d)
}

func (c *Client) Uncomment(ctx context.Context, id, commentID string) (*task.Task, error) {
	return c.mutate(ctx, http.MethodDelete, "/tasks/comment/"+url.PathEscape(id)+"/"+url.PathEscape(commentID), nil)
}

// Activity returns recent activity, optionally for one task.
func (c *Client) Activity(ctx context.Context, taskID string, limit int) ([]activity.Event, error) {
	q := url.Values{}
	if taskID != "" {
		q.Set("task", taskID)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/activity"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []activity.Event
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) mutate(ctx context.Context, method, path string, body any) (*task.Task, error) {
	var out task.Task
	if err := c.do(ctx, method, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &Error{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr.Body)
		return apiErr
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
