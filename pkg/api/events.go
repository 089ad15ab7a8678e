package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// EventTimeLayout is the naive ISO timestamp the backend parses.
const EventTimeLayout = "2006-01-02T15:04:05"

// Event is a calendar event.
type Event struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Start        string `json:"start"`
	End          string `json:"end"`
	AllDay       bool   `json:"allDay"`
	Category     string `json:"category,omitempty"`
	Urgency      string `json:"urgency,omitempty"`
	Remark       string `json:"remark,omitempty"`
	CustomTypeID string `json:"customTypeId,omitempty"`
	IsCompleted  bool   `json:"isCompleted,omitempty"`
	Efficiency   string `json:"efficiency,omitempty"`
}

// EventInput is the body of POST /events.
type EventInput struct {
	Title        string
	Start        time.Time
	End          time.Time
	AllDay       bool
	Category     string
	Urgency      string
	Remark       string
	CustomTypeID string
}

type eventBody struct {
	Title        string `json:"title"`
	Start        string `json:"start"`
	End          string `json:"end"`
	AllDay       bool   `json:"allDay"`
	Category     string `json:"category,omitempty"`
	Urgency      string `json:"urgency,omitempty"`
	Remark       string `json:"remark,omitempty"`
	CustomTypeID string `json:"customTypeId,omitempty"`
}

// Validate checks required fields and the time range.
func (in EventInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return errors.New("event title is required")
	}
	if in.Start.IsZero() {
		return errors.New("event start is required")
	}
	if !in.End.IsZero() && in.End.Before(in.Start) {
		return errors.New("event end is before its start")
	}
	return nil
}

// ListEvents returns all of the user's events.
func (c *Client) ListEvents(ctx context.Context) ([]Event, error) {
	var events []Event
	if err := c.do(ctx, http.MethodGet, "/events", nil, &events, requestOpts{}); err != nil {
		return nil, err
	}
	return events, nil
}

// CreateEvent schedules a calendar event. A zero End means one hour.
func (c *Client) CreateEvent(ctx context.Context, in EventInput) (*Event, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	end := in.End
	if end.IsZero() {
		end = in.Start.Add(time.Hour)
	}
	body := eventBody{
		Title:        strings.TrimSpace(in.Title),
		Start:        in.Start.Format(EventTimeLayout),
		End:          end.Format(EventTimeLayout),
		AllDay:       in.AllDay,
		Category:     in.Category,
		Urgency:      in.Urgency,
		Remark:       strings.TrimSpace(in.Remark),
		CustomTypeID: in.CustomTypeID,
	}
	var ev Event
	if err := c.do(ctx, http.MethodPost, "/events", body, &ev, requestOpts{}); err != nil {
		return nil, err
	}
	return &ev, nil
}

// Efficiency is the self-rating given when an event is completed.
type Efficiency string

const (
	EfficiencyHigh   Efficiency = "high"
	EfficiencyMedium Efficiency = "medium"
	EfficiencyLow    Efficiency = "low"
)

// Valid reports whether e is a known rating.
func (e Efficiency) Valid() bool {
	switch e {
	case EfficiencyHigh, EfficiencyMedium, EfficiencyLow:
		return true
	}
	return false
}

// CompleteEvent marks an event done with an efficiency rating.
func (c *Client) CompleteEvent(ctx context.Context, id string, eff Efficiency) (*Event, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("event id is required")
	}
	if !eff.Valid() {
		return nil, fmt.Errorf("efficiency must be high, medium or low, got %q", eff)
	}
	body := struct {
		Efficiency Efficiency `json:"efficiency"`
	}{eff}
	var ev Event
	if err := c.do(ctx, http.MethodPost, "/events/"+url.PathEscape(id)+"/complete", body, &ev, requestOpts{}); err != nil {
		return nil, err
	}
	return &ev, nil
}

// UndoCompleteEvent clears an event's completion. Undoing an open event is
// a no-op on the backend.
func (c *Client) UndoCompleteEvent(ctx context.Context, id string) (*Event, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("event id is required")
	}
	var ev Event
	if err := c.do(ctx, http.MethodDelete, "/events/"+url.PathEscape(id)+"/complete", nil, &ev, requestOpts{}); err != nil {
		return nil, err
	}
	return &ev, nil
}

// InputLayout is the start format shown to users.
const InputLayout = "2006-01-02 15:04"

var startLayouts = []string{InputLayout, EventTimeLayout, "2006-01-02T15:04", "2006-01-02"}

// ParseStart reads a user-typed event start in now's location. A bare
// "15:04" means that time on now's day.
func ParseStart(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("event start is required")
	}
	if t, err := time.ParseInLocation("15:04", s, now.Location()); err == nil {
		return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location()), nil
	}
	for _, layout := range startLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse start %q (want %s)", s, InputLayout)
}

// NextSlot rounds now up to the next quarter hour.
func NextSlot(now time.Time) time.Time {
	t := now.Truncate(15 * time.Minute)
	if !t.After(now) {
		t = t.Add(15 * time.Minute)
	}
	return t
}
