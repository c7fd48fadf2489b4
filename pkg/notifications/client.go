package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/questnotify/pkg/logger"
	"github.com/dmitrymomot/questnotify/pkg/token"
)

const defaultTimeout = 10 * time.Second

// API is the REST surface a Syncer depends on.
type API interface {
	List(ctx context.Context, d Domain) ([]Notification, error)
	UnreadCount(ctx context.Context, d Domain) (int, error)
	MarkSeen(ctx context.Context, d Domain, id int64) error
}

// Client talks to the notification REST endpoints with a bearer token.
type Client struct {
	baseURL    string
	tokens     token.Provider
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithClientLogger sets the logger for the Client.
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, tokens token.Provider, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logger.Component("notifications.client"))
	return c
}

type listResponse struct {
	Notifications []Notification `json:"notifications"`
}

type countResponse struct {
	Status      string `json:"status"`
	UnreadCount *int   `json:"unreadCount"`
}

// List fetches the full notification list of domain d.
func (c *Client) List(ctx context.Context, d Domain) ([]Notification, error) {
	var resp listResponse
	if err := c.do(ctx, http.MethodGet, d.ListPath, &resp); err != nil {
		return nil, err
	}
	if resp.Notifications == nil {
		return []Notification{}, nil
	}
	return resp.Notifications, nil
}

// UnreadCount fetches the server-side unread counter of domain d.
func (c *Client) UnreadCount(ctx context.Context, d Domain) (int, error) {
	var resp countResponse
	if err := c.do(ctx, http.MethodGet, d.CountPath, &resp); err != nil {
		return 0, err
	}
	if resp.UnreadCount == nil {
		return 0, fmt.Errorf("%w: %s: missing unreadCount", ErrDecode, d.CountPath)
	}
	return *resp.UnreadCount, nil
}

// MarkSeen asks the server to mark notification id of domain d as seen.
func (c *Client) MarkSeen(ctx context.Context, d Domain, id int64) error {
	method := d.MarkSeenMethod
	if method == "" {
		method = http.MethodPost
	}
	return c.do(ctx, method, d.MarkSeenURLPath(id), nil)
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	tok, err := token.Require(ctx, c.tokens)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("notifications: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notifications: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.DebugContext(ctx, "api request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		logger.Duration(time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	return nil
}
