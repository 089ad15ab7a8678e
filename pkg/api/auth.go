package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/stefanpenner/tempo/pkg/store"
)

// Health is the payload of GET /health.
type Health struct {
	Status      string         `json:"status"`
	Timestamp   string         `json:"timestamp"`
	DataSources map[string]int `json:"data_sources,omitempty"`
}

// OK reports whether the backend considers itself healthy.
func (h *Health) OK() bool {
	return h != nil && h.Status == "ok"
}

// Health checks the backend. It needs no token.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.do(ctx, http.MethodGet, "/health", nil, &h, requestOpts{noAuthReset: true}); err != nil {
		return nil, err
	}
	return &h, nil
}

// LoginResult is the payload of POST /api/auth/login.
type LoginResult struct {
	AccessToken string     `json:"access_token"`
	User        store.User `json:"user"`
}

// Login exchanges credentials for a token and stores both token and user in
// the session. A rejected login leaves any existing session alone.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, errors.New("username and password are required")
	}

	body := map[string]string{"username": username, "password": password}
	var res LoginResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &res, requestOpts{noAuthReset: true}); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if res.AccessToken == "" {
		return nil, errors.New("login: backend returned no token")
	}
	if c.session != nil {
		if err := c.session.Save(res.AccessToken, &res.User); err != nil {
			return nil, fmt.Errorf("saving session: %w", err)
		}
	}
	return &res, nil
}
