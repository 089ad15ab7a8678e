// Package api is the HTTP client for the planning backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stefanpenner/tempo/pkg/store"
)

// DefaultBaseURL is the backend address used when nothing else is set.
const DefaultBaseURL = "http://localhost:5000"

// DefaultTimeout bounds every request.
const DefaultTimeout = 30 * time.Second

// ErrUnauthorized means the stored token was rejected and has been cleared.
var ErrUnauthorized = errors.New("not logged in (run `tempo login`)")

// Error is a non-2xx backend response.
type Error struct {
	Status         int
	Message        string
	Body           string
	RemainingScore *int // set on budget conflicts
}

func (e *Error) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

// Unwrap lets errors.Is match ErrUnauthorized for 401/422 responses.
func (e *Error) Unwrap() error {
	if e.Status == http.StatusUnauthorized || e.Status == http.StatusUnprocessableEntity {
		return ErrUnauthorized
	}
	return nil
}

// Session stores the bearer token and the logged-in user.
type Session interface {
	Token() string
	Save(token string, u *store.User) error
	Clear()
}

// Client talks to the backend REST surface.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    Session
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for baseURL. session may be nil for
// unauthenticated use.
func NewClient(baseURL string, session Session, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		session:    session,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type requestOpts struct {
	// noAuthReset keeps the session on 401/422, for the login call itself.
	noAuthReset bool
}

// do sends a JSON request and decodes a JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, in, out any, ro requestOpts) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != nil {
		if tok := c.session.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed", "method", method, "path", path, "request_id", reqID, "err", err)
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug("request", "method", method, "path", path, "status", resp.StatusCode,
		"request_id", reqID, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := parseError(resp.StatusCode, data)
		if errors.Is(apiErr, ErrUnauthorized) && !ro.noAuthReset && c.session != nil {
			c.logger.Info("token rejected, clearing session", "status", resp.StatusCode)
			c.session.Clear()
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// parseError prefers the JSON error field, then a plain-text body, then a
// generic message.
func parseError(status int, body []byte) *Error {
	e := &Error{Status: status, Body: string(body), Message: "request failed"}

	var payload struct {
		Error          string `json:"error"`
		Message        string `json:"msg"`
		RemainingScore *int   `json:"remaining_score"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Error != "":
			e.Message = payload.Error
		case payload.Message != "":
			e.Message = payload.Message
		}
		e.RemainingScore = payload.RemainingScore
		return e
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		e.Message = text
	}
	return e
}
