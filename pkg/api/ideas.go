package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Priority ranks an idea.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Idea is an entry of the idea inbox.
type Idea struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	Priority  Priority `json:"priority"`
	CreatedAt string   `json:"createdAt,omitempty"`
}

// IdeaInput is the body for creating or editing an idea. Empty fields are
// left unchanged on edit.
type IdeaInput struct {
	Text     string   `json:"text,omitempty"`
	Priority Priority `json:"priority,omitempty"`
}

func (in IdeaInput) validate() error {
	if in.Priority != "" && !in.Priority.Valid() {
		return fmt.Errorf("priority must be high, medium or low, got %q", in.Priority)
	}
	return nil
}

// ListIdeas returns ideas newest first.
func (c *Client) ListIdeas(ctx context.Context) ([]Idea, error) {
	var ideas []Idea
	if err := c.do(ctx, http.MethodGet, "/ideas", nil, &ideas, requestOpts{}); err != nil {
		return nil, err
	}
	return ideas, nil
}

// CreateIdea adds an idea.
func (c *Client) CreateIdea(ctx context.Context, in IdeaInput) (*Idea, error) {
	in.Text = strings.TrimSpace(in.Text)
	if in.Text == "" {
		return nil, errors.New("idea text is required")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	var idea Idea
	if err := c.do(ctx, http.MethodPost, "/ideas", in, &idea, requestOpts{}); err != nil {
		return nil, err
	}
	return &idea, nil
}

// UpdateIdea edits an idea's text or priority.
func (c *Client) UpdateIdea(ctx context.Context, id string, in IdeaInput) (*Idea, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("idea id is required")
	}
	in.Text = strings.TrimSpace(in.Text)
	if err := in.validate(); err != nil {
		return nil, err
	}
	var idea Idea
	if err := c.do(ctx, http.MethodPut, "/ideas/"+url.PathEscape(id), in, &idea, requestOpts{}); err != nil {
		return nil, err
	}
	return &idea, nil
}

// DeleteIdea removes an idea.
func (c *Client) DeleteIdea(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("idea id is required")
	}
	return c.do(ctx, http.MethodDelete, "/ideas/"+url.PathEscape(id), nil, nil, requestOpts{})
}
