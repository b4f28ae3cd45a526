// Package practicum implements the review-status API client used by the
// poll loop.
package practicum

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/leefowlercu/hwnotify/internal/homework"
	"github.com/leefowlercu/hwnotify/internal/metrics"
	"github.com/leefowlercu/hwnotify/internal/version"
)

const (
	// DefaultEndpoint is the homework status endpoint of the review API.
	DefaultEndpoint = "https://practicum.yandex.ru/api/user_api/homework_statuses/"

	// DefaultTimeout bounds a single poll request.
	DefaultTimeout = 30 * time.Second

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 4 << 20

	// snippetLen caps body excerpts carried by errors.
	snippetLen = 256
)

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client polls the review-status API.
type Client struct {
	endpoint string
	token    string
	timeout  time.Duration
	doer     Doer
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the API endpoint.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithDoer replaces the HTTP transport.
func WithDoer(doer Doer) Option {
	return func(c *Client) {
		if doer != nil {
			c.doer = doer
		}
	}
}

// NewClient creates a review API client authenticated with token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		endpoint: DefaultEndpoint,
		token:    token,
		timeout:  DefaultTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.doer == nil {
		c.doer = &http.Client{Timeout: c.timeout}
	}

	return c
}

// Endpoint returns the configured API endpoint.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Poll requests submissions updated since cursor and returns the decoded body.
// Errors are *homework.TransportError, *homework.UnexpectedStatusError or
// *homework.DecodeError.
func (c *Client) Poll(ctx context.Context, cursor int64) (any, error) {
	start := time.Now()
	raw, err := c.poll(ctx, cursor)
	metrics.RecordPoll(string(homework.KindOf(err)), time.Since(start))
	return raw, err
}

func (c *Client) poll(ctx context.Context, cursor int64) (any, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, &homework.TransportError{Err: fmt.Errorf("failed to parse endpoint; %w", err)}
	}
	q := u.Query()
	q.Set("from_date", strconv.FormatInt(cursor, 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &homework.TransportError{Err: fmt.Errorf("failed to create request; %w", err)}
	}
	req.Header.Set("Authorization", "OAuth "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, &homework.TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &homework.TransportError{Err: fmt.Errorf("failed to read response; %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &homework.UnexpectedStatusError{
			StatusCode: resp.StatusCode,
			Snippet:    snippet(body),
		}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, &homework.DecodeError{Snippet: snippet(body), Err: err}
	}
	if dec.More() {
		return nil, &homework.DecodeError{Snippet: snippet(body), Err: errors.New("trailing data after JSON value")}
	}

	return raw, nil
}

// snippet returns at most snippetLen bytes of body for diagnostics. A rune
// split by the cut is dropped and each invalid byte is written as \xNN.
func snippet(body []byte) string {
	if len(body) <= snippetLen {
		return escapeInvalid(body)
	}
	cut := body[:snippetLen]
	for i := len(cut) - 1; i >= 0 && i > len(cut)-utf8.UTFMax; i-- {
		if utf8.RuneStart(cut[i]) {
			if !utf8.FullRune(cut[i:]) {
				cut = cut[:i]
			}
			break
		}
	}
	return escapeInvalid(cut) + "..."
}

func escapeInvalid(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var sb strings.Builder
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			fmt.Fprintf(&sb, `\x%02x`, b[0])
		} else {
			sb.Write(b[:size])
		}
		b = b[size:]
	}
	return sb.String()
}
