package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yockii/yoctl/internal/config"
	"github.com/yockii/yoctl/pkg/logging"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 10 * time.Second

// Client talks to one manager endpoint with one token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a client for baseURL. It fails with ErrNoToken when
// token is empty.
func NewClient(baseURL, token string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrNoToken
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the endpoint the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Token returns the access token.
func (c *Client) Token() string {
	return c.token
}

// GetConfig fetches the runtime configuration.
func (c *Client) GetConfig(ctx context.Context) (*config.Document, error) {
	var resp struct {
		Config *config.Document `json:"config"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/config", nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Config == nil {
		resp.Config = config.NewDocument()
	}
	resp.Config.Normalize()
	return resp.Config, nil
}

// PutConfig replaces the runtime configuration with doc.
func (c *Client) PutConfig(ctx context.Context, doc *config.Document) error {
	return c.do(ctx, http.MethodPut, "/api/config", nil, doc, nil)
}

// ListCronJobs returns the scheduled jobs of agent.
func (c *Client) ListCronJobs(ctx context.Context, agent string) ([]CronJob, error) {
	var resp struct {
		CronJobs []CronJob `json:"cronJobs"`
	}
	if err := c.getForAgent(ctx, "/api/cron", agent, &resp); err != nil {
		return nil, err
	}
	return resp.CronJobs, nil
}

// ListTasks returns the background tasks of agent.
func (c *Client) ListTasks(ctx context.Context, agent string) ([]Task, error) {
	var resp struct {
		Tasks []Task `json:"tasks"`
	}
	if err := c.getForAgent(ctx, "/api/tasks", agent, &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

// ListSessions returns the chat sessions of agent.
func (c *Client) ListSessions(ctx context.Context, agent string) ([]Session, error) {
	var resp struct {
		Sessions []Session `json:"sessions"`
	}
	if err := c.getForAgent(ctx, "/api/sessions", agent, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

// InstanceStatus reports whether the runtime process is running.
func (c *Client) InstanceStatus(ctx context.Context) (*InstanceStatus, error) {
	var resp struct {
		Status *InstanceStatus `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/instance", nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Status == nil {
		return &InstanceStatus{}, nil
	}
	return resp.Status, nil
}

// InstanceAction starts, stops or restarts the runtime process and returns
// the manager's message.
func (c *Client) InstanceAction(ctx context.Context, action Action) (string, error) {
	if !action.IsValid() {
		return "", fmt.Errorf("invalid instance action %q (expected start, stop or restart)", action)
	}
	var resp struct {
		Message string `json:"message"`
	}
	query := url.Values{"action": []string{string(action)}}
	if err := c.do(ctx, http.MethodPost, "/api/instance", query, nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *Client) getForAgent(ctx context.Context, path, agent string, out any) error {
	if strings.TrimSpace(agent) == "" {
		return ErrAgentRequired
	}
	return c.do(ctx, http.MethodGet, path, url.Values{"agent": []string{agent}}, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("token", c.token)
	target := c.baseURL + path + "?" + query.Encode()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logging.Debug("API", "%s %s failed after %s: %v", method, path, time.Since(start), err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	logging.Debug("API", "%s %s -> %d in %s", method, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
