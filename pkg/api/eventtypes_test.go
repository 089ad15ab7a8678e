package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTypes(t *testing.T) {
	var created EventTypeInput
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			assert.Equal(t, "/event-types", r.URL.Path)
			io.WriteString(w, `[{"id":"a1","name":"Deep work","color":"#112233"},{"id":"b2","name":"Admin","color":"#000000"}]`)
		case r.Method == http.MethodPost:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
			if created.Name == "Admin" {
				w.WriteHeader(http.StatusConflict)
				io.WriteString(w, `{"error":"name taken"}`)
				return
			}
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(EventType{ID: "c3", Name: created.Name, Color: created.Color})
		case r.Method == http.MethodPut:
			assert.Equal(t, "/event-types/a1", r.URL.Path)
			var in map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			assert.Equal(t, map[string]any{"color": "#abcdef"}, in)
			io.WriteString(w, `{"id":"a1","name":"Deep work","color":"#abcdef"}`)
		case r.Method == http.MethodDelete:
			assert.Equal(t, "/event-types/a1", r.URL.Path)
			io.WriteString(w, `{"status":"deleted"}`)
		}
	})
	ctx := context.Background()

	types, err := c.ListEventTypes(ctx)
	require.NoError(t, err)
	require.Len(t, types, 2)

	et, err := c.CreateEventType(ctx, EventTypeInput{Name: " Reading "})
	require.NoError(t, err)
	assert.Equal(t, "Reading", et.Name)
	assert.Equal(t, DefaultTypeColor, created.Color)

	_, err = c.CreateEventType(ctx, EventTypeInput{Name: "Admin"})
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)

	_, err = c.CreateEventType(ctx, EventTypeInput{Name: "x", Color: "red"})
	assert.Error(t, err)
	_, err = c.CreateEventType(ctx, EventTypeInput{Name: "  "})
	assert.Error(t, err)

	et, err = c.UpdateEventType(ctx, "a1", EventTypeInput{Color: "#abcdef"})
	require.NoError(t, err)
	assert.Equal(t, "#abcdef", et.Color)
	_, err = c.UpdateEventType(ctx, "a1", EventTypeInput{})
	assert.Error(t, err)

	require.NoError(t, c.DeleteEventType(ctx, "a1"))
}

func TestFindEventType(t *testing.T) {
	types := []EventType{{ID: "a1", Name: "Deep work"}, {ID: "b2", Name: "Admin"}}

	assert.Equal(t, "a1", FindEventType(types, "a1").ID)
	assert.Equal(t, "b2", FindEventType(types, " admin ").ID)
	assert.Nil(t, FindEventType(types, "gym"))
	assert.Nil(t, FindEventType(types, ""))
}

func TestCreateEventWithType(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			io.WriteString(w, `[{"id":"a1","name":"Deep work","color":"#112233"}]`)
			return
		}
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Deep work", body["category"])
		assert.Equal(t, "a1", body["customTypeId"])
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"e1","title":"focus","customTypeId":"a1"}`)
	})
	ctx := context.Background()

	et, err := c.ResolveEventType(ctx, "deep work")
	require.NoError(t, err)
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)
	ev, err := c.CreateEvent(ctx, EventInput{Title: "focus", Start: start}.WithType(et))
	require.NoError(t, err)
	assert.Equal(t, "a1", ev.CustomTypeID)

	_, err = c.ResolveEventType(ctx, "gym")
	assert.ErrorContains(t, err, "unknown event type")

	none, err := c.ResolveEventType(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestListAndCompleteEvents(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			io.WriteString(w, `[{"id":"e1","title":"record","start":"2026-03-01T09:00:00","end":"2026-03-01T10:00:00","isCompleted":false}]`)
		case r.Method == http.MethodPost:
			assert.Equal(t, "/events/e1/complete", r.URL.Path)
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "high", body["efficiency"])
			io.WriteString(w, `{"id":"e1","title":"record","isCompleted":true,"efficiency":"high"}`)
		case r.Method == http.MethodDelete:
			assert.Equal(t, "/events/e1/complete", r.URL.Path)
			io.WriteString(w, `{"id":"e1","title":"record","isCompleted":false}`)
		}
	})
	ctx := context.Background()

	events, err := c.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "record", events[0].Title)

	ev, err := c.CompleteEvent(ctx, "e1", EfficiencyHigh)
	require.NoError(t, err)
	assert.True(t, ev.IsCompleted)
	assert.Equal(t, "high", ev.Efficiency)

	_, err = c.CompleteEvent(ctx, "e1", "great")
	assert.Error(t, err)

	ev, err = c.UndoCompleteEvent(ctx, "e1")
	require.NoError(t, err)
	assert.False(t, ev.IsCompleted)
}
