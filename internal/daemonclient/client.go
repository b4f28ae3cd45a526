// Package daemonclient queries a running daemon's health endpoints.
package daemonclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/leefowlercu/hwnotify/internal/config"
	"github.com/leefowlercu/hwnotify/internal/daemon"
)

// DefaultTimeout bounds every request to the daemon.
const DefaultTimeout = 5 * time.Second

// Client talks to the daemon's HTTP server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithBaseURL overrides the address derived from config.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// New creates a Client using daemon configuration.
func New(cfg config.DaemonConfig, opts ...Option) *Client {
	client := &Client{
		baseURL: ResolveBaseURL(cfg),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// NewFromConfig creates a Client from the root config.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config not initialized")
	}
	return New(cfg.Daemon, opts...), nil
}

// ResolveBaseURL builds the daemon base URL from config.
func ResolveBaseURL(cfg config.DaemonConfig) string {
	return "http://" + net.JoinHostPort(NormalizeBind(cfg.HTTPBind), strconv.Itoa(cfg.HTTPPort))
}

// NormalizeBind maps wildcard binds to loopback for local clients.
func NormalizeBind(bind string) string {
	switch bind {
	case "", "0.0.0.0":
		return "127.0.0.1"
	case "::":
		return "::1"
	}
	return strings.Trim(bind, "[]")
}

// Live reports whether /healthz answers.
func (c *Client) Live(ctx context.Context) error {
	var resp daemon.LivezResponse
	return c.getJSON(ctx, "/healthz", &resp)
}

// Ready fetches /readyz health status, including the poller component.
// A 503 carrying a JSON body is a not-ready daemon, not a request failure.
func (c *Client) Ready(ctx context.Context) (*daemon.HealthStatus, error) {
	var status daemon.HealthStatus
	if err := c.getJSON(ctx, "/readyz", &status, http.StatusServiceUnavailable); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any, alsoAccept ...int) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request; %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to daemon; %w", err)
	}
	defer resp.Body.Close()

	accepted := resp.StatusCode == http.StatusOK ||
		(slices.Contains(alsoAccept, resp.StatusCode) && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json"))
	if !accepted {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("daemon request failed; status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response; %w", err)
	}

	return nil
}
