package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// DefaultTypeColor is what the backend stores when no color is sent.
const DefaultTypeColor = "#000000"

// DefaultCategory labels events without a custom type.
const DefaultCategory = "默认"

var colorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// EventType is a user-defined event category.
type EventType struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// EventTypeInput is the body for creating or editing a type. Empty fields
// are left unchanged on edit.
type EventTypeInput struct {
	Name  string `json:"name,omitempty"`
	Color string `json:"color,omitempty"`
}

func (in EventTypeInput) validate() error {
	if in.Color != "" && !colorRe.MatchString(in.Color) {
		return fmt.Errorf("color must look like #1a2b3c, got %q", in.Color)
	}
	return nil
}

// ListEventTypes returns the user's event types sorted by name.
func (c *Client) ListEventTypes(ctx context.Context) ([]EventType, error) {
	var types []EventType
	if err := c.do(ctx, http.MethodGet, "/event-types", nil, &types, requestOpts{}); err != nil {
		return nil, err
	}
	return types, nil
}

// CreateEventType adds a type. The backend answers 409 for a taken name.
func (c *Client) CreateEventType(ctx context.Context, in EventTypeInput) (*EventType, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, errors.New("type name is required")
	}
	if in.Color == "" {
		in.Color = DefaultTypeColor
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	var t EventType
	if err := c.do(ctx, http.MethodPost, "/event-types", in, &t, requestOpts{}); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateEventType renames or recolors a type.
func (c *Client) UpdateEventType(ctx context.Context, id string, in EventTypeInput) (*EventType, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("type id is required")
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" && in.Color == "" {
		return nil, errors.New("nothing to change")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	var t EventType
	if err := c.do(ctx, http.MethodPut, "/event-types/"+url.PathEscape(id), in, &t, requestOpts{}); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteEventType removes a type.
func (c *Client) DeleteEventType(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("type id is required")
	}
	return c.do(ctx, http.MethodDelete, "/event-types/"+url.PathEscape(id), nil, nil, requestOpts{})
}

// FindEventType matches ref against type ids, then names without regard to
// case. It returns nil when nothing matches.
func FindEventType(types []EventType, ref string) *EventType {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}
	for i := range types {
		if types[i].ID == ref {
			return &types[i]
		}
	}
	for i := range types {
		if strings.EqualFold(types[i].Name, ref) {
			return &types[i]
		}
	}
	return nil
}

// WithType sets the event's category and custom type. A nil type leaves the
// backend defaults.
func (in EventInput) WithType(t *EventType) EventInput {
	if t != nil {
		in.Category = t.Name
		in.CustomTypeID = t.ID
	}
	return in
}

// ResolveEventType looks ref up on the backend. An empty ref returns nil.
func (c *Client) ResolveEventType(ctx context.Context, ref string) (*EventType, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, nil
	}
	types, err := c.ListEventTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing event types: %w", err)
	}
	t := FindEventType(types, ref)
	if t == nil {
		return nil, fmt.Errorf("unknown event type %q (see `tempo types`)", ref)
	}
	return t, nil
}
