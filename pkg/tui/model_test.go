package tui

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanpenner/tempo/pkg/api"
	"github.com/stefanpenner/tempo/pkg/board"
	"github.com/stefanpenner/tempo/pkg/logging"
	"github.com/stefanpenner/tempo/pkg/plan"
	"github.com/stefanpenner/tempo/pkg/store"
)

// fakeClient serves plans, echoes plan updates and records events.
type fakeClient struct {
	list      *plan.List
	types     []api.EventType
	events    []api.EventInput
	eventErr  error
	updateErr error
	updates   int
}

func (f *fakeClient) ListPlans(ctx context.Context) (*plan.List, error) {
	return f.list, nil
}

func (f *fakeClient) UpdatePlan(ctx context.Context, id string, d plan.Draft) (*plan.Result, error) {
	f.updates++
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	p := plan.Plan{ID: id, Title: d.Title, Year: d.Year, Status: d.Status}
	for _, g := range d.Goals {
		p.Goals = append(p.Goals, plan.Goal{ID: g.ID, Name: g.Name, Details: g.Details, ScoreAllocation: g.ScoreAllocation, Status: g.Status})
	}
	return &plan.Result{Plan: p, RemainingScore: 80}, nil
}

func (f *fakeClient) Health(ctx context.Context) (*api.Health, error) {
	return &api.Health{Status: "ok"}, nil
}

func (f *fakeClient) Login(ctx context.Context, username, password string) (*api.LoginResult, error) {
	return &api.LoginResult{AccessToken: "t", User: store.User{Username: username}}, nil
}

func (f *fakeClient) CreateEvent(ctx context.Context, in api.EventInput) (*api.Event, error) {
	if f.eventErr != nil {
		return nil, f.eventErr
	}
	f.events = append(f.events, in)
	return &api.Event{ID: "e1", Title: in.Title}, nil
}

func (f *fakeClient) ResolveEventType(ctx context.Context, ref string) (*api.EventType, error) {
	if ref == "" {
		return nil, nil
	}
	if t := api.FindEventType(f.types, ref); t != nil {
		return t, nil
	}
	return nil, fmt.Errorf("unknown event type %q", ref)
}

func setupModel(t *testing.T) (Model, *fakeClient, *board.Board) {
	t.Helper()
	ctx := context.Background()

	st, err := store.NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	fc := &fakeClient{list: &plan.List{
		RemainingScore: 80,
		Plans: []plan.Plan{
			{ID: "P", Title: "Podcast", Status: plan.PlanActive, Goals: []plan.Goal{
				{ID: "G", Name: "Pilot episode", ScoreAllocation: 10, Status: plan.GoalPending,
					Details: "write outline\nrecord draft\nedit audio"},
				{ID: "H", Name: "Cover art", ScoreAllocation: 10, Status: plan.GoalPending, Details: "sketch"},
			}},
		},
	}}
	b := board.New(plan.NewStore(fc), st, fc, logging.Discard())
	require.NoError(t, b.Load(ctx, false))
	_, err = b.Enqueue("P", "G")
	require.NoError(t, err)

	m := NewModel(ctx, b, fc, Options{Logger: logging.Discard()})
	return m, fc, b
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var outline = board.TaskRef{PlanID: "P", GoalID: "G", TaskID: "G-0"}

func laneOf(t *testing.T, b *board.Board, ref board.TaskRef) store.TaskStatus {
	t.Helper()
	card, ok := b.Card(ref)
	require.True(t, ok)
	return card.Lane
}

// selectOutline expands the goal card and moves the cursor to its first task.
func selectOutline(t *testing.T, m Model) Model {
	t.Helper()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = update(t, m, keys("j"))
	item, ok := m.selectedLaneItem()
	require.True(t, ok)
	require.NotNil(t, item.Task)
	require.Equal(t, "write outline", item.Task.Text)
	return m
}

func TestMoveToTodoKeepsGoalPending(t *testing.T) {
	m, fc, b := setupModel(t)
	m = selectOutline(t, m)

	_, cmd := update(t, m, keys("2"))
	assert.Equal(t, store.TaskTodo, laneOf(t, b, outline))
	assert.False(t, b.Sync.IsUnsynced("P"))
	assert.Nil(t, cmd)
	assert.Equal(t, 0, fc.updates)
}

func TestMoveToDonePushesPlan(t *testing.T) {
	m, fc, b := setupModel(t)
	m = selectOutline(t, m)

	m, cmd := update(t, m, keys("4"))
	assert.Equal(t, store.TaskDone, laneOf(t, b, outline))
	assert.True(t, b.Sync.IsUnsynced("P"))
	require.NotNil(t, cmd)

	m, _ = update(t, m, cmd())
	assert.Equal(t, 1, fc.updates)
	assert.False(t, b.Sync.IsUnsynced("P"))
	assert.Equal(t, plan.GoalExecuting, b.Plans.FindByID("P").FindGoal("G").Status)
	assert.False(t, m.busy["push"])
}

func TestPushRetriedOnNextStatusChange(t *testing.T) {
	m, fc, b := setupModel(t)
	fc.updateErr = errors.New("HTTP 503: maintenance")
	m = selectOutline(t, m)

	m, cmd := update(t, m, keys("4"))
	require.NotNil(t, cmd)
	m, cmd = update(t, m, cmd())
	assert.Nil(t, cmd)
	assert.Equal(t, 1, fc.updates)
	require.True(t, b.Sync.IsUnsynced("P"))

	fc.updateErr = nil
	ctx := context.Background()
	for _, id := range []string{"G-1", "G-2"} {
		_, err := b.MoveTask(ctx, board.TaskRef{PlanID: "P", GoalID: "G", TaskID: id}, store.TaskDone, nil)
		require.NoError(t, err)
	}
	cmd = m.refresh(true)
	require.NotNil(t, cmd, "status changed to done, a push must follow")

	m, _ = update(t, m, cmd())
	assert.Equal(t, 2, fc.updates)
	assert.False(t, b.Sync.IsUnsynced("P"))
	assert.Equal(t, plan.GoalDone, b.Plans.FindByID("P").FindGoal("G").Status)
	assert.False(t, m.busy["push"])
}

func TestDoingWithEventType(t *testing.T) {
	m, fc, b := setupModel(t)
	fc.types = []api.EventType{{ID: "a1", Name: "Deep work"}}
	m = selectOutline(t, m)

	m, _ = update(t, m, keys("3"))
	m.eventInputs[eventType].SetValue("deep work")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	assert.Equal(t, store.TaskDoing, laneOf(t, b, outline))
	require.Len(t, fc.events, 1)
	assert.Equal(t, "a1", fc.events[0].CustomTypeID)
	assert.Equal(t, "Deep work", fc.events[0].Category)
}

func TestDoingUnknownEventTypeKeepsModal(t *testing.T) {
	m, fc, b := setupModel(t)
	m = selectOutline(t, m)

	m, _ = update(t, m, keys("3"))
	m.eventInputs[eventType].SetValue("gym")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	assert.True(t, m.showEventModal)
	assert.Contains(t, m.eventErr, "unknown event type")
	assert.Empty(t, fc.events)
	assert.Equal(t, store.TaskBacklog, laneOf(t, b, outline))
}

func TestDoingEscCancels(t *testing.T) {
	m, fc, b := setupModel(t)
	m = selectOutline(t, m)

	m, _ = update(t, m, keys("3"))
	require.True(t, m.showEventModal)
	assert.Equal(t, "write outline", m.eventInputs[eventTitle].Value())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.showEventModal)
	assert.Equal(t, store.TaskBacklog, laneOf(t, b, outline))
	assert.Empty(t, fc.events)
}

func TestDoingCommitsAfterEvent(t *testing.T) {
	m, fc, b := setupModel(t)
	m = selectOutline(t, m)

	m, _ = update(t, m, keys("3"))
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, m.busy["event"])
	assert.Equal(t, store.TaskBacklog, laneOf(t, b, outline))

	m, _ = update(t, m, cmd())
	assert.False(t, m.showEventModal)
	assert.Equal(t, store.TaskDoing, laneOf(t, b, outline))
	require.Len(t, fc.events, 1)
	assert.Equal(t, "write outline", fc.events[0].Title)
	assert.Equal(t, time.Hour, fc.events[0].End.Sub(fc.events[0].Start))
	assert.Equal(t, "Podcast / Pilot episode", fc.events[0].Remark)
}

func TestEventFailureKeepsTaskInBacklog(t *testing.T) {
	m, fc, b := setupModel(t)
	fc.eventErr = errors.New("calendar down")
	m = selectOutline(t, m)

	m, _ = update(t, m, keys("3"))
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	assert.True(t, m.showEventModal)
	assert.Contains(t, m.eventErr, "calendar down")
	assert.Equal(t, store.TaskBacklog, laneOf(t, b, outline))
}

func TestEventModalRejectsBadDuration(t *testing.T) {
	m, fc, _ := setupModel(t)
	m = selectOutline(t, m)

	m, _ = update(t, m, keys("3"))
	m.eventInputs[eventDuration].SetValue("soon")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.NotEmpty(t, m.eventErr)
	assert.Empty(t, fc.events)
}

func TestBacklogKeyReturnsTaskToGoal(t *testing.T) {
	m, _, b := setupModel(t)
	_, err := b.MoveTask(context.Background(), outline, store.TaskTodo, nil)
	require.NoError(t, err)
	m.refresh(false)

	m, _ = update(t, m, keys("l"))
	item, ok := m.selectedLaneItem()
	require.True(t, ok)
	require.Equal(t, "write outline", item.Task.Text)

	m, _ = update(t, m, keys("1"))
	assert.Equal(t, store.TaskBacklog, laneOf(t, b, outline))
	assert.Empty(t, m.view.Column(store.TaskTodo).Tasks)
}

func TestOfflineDefersPush(t *testing.T) {
	m, fc, b := setupModel(t)
	m, _ = update(t, m, HealthMsg{OK: false})
	m = selectOutline(t, m)

	m, cmd := update(t, m, keys("4"))
	assert.Nil(t, cmd)
	assert.Equal(t, store.TaskDone, laneOf(t, b, outline))
	assert.True(t, b.Sync.IsUnsynced("P"))
	assert.Zero(t, fc.updates)

	_, cmd = update(t, m, HealthMsg{OK: true})
	assert.NotNil(t, cmd)
}

func TestPlansViewTogglesQueue(t *testing.T) {
	m, _, b := setupModel(t)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, modePlans, m.mode)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Len(t, m.planItems, 3)
	assert.True(t, m.planItems[1].Queued)

	m, _ = update(t, m, keys("j"))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.False(t, b.Queue.IsQueued("P", "G"))
	assert.False(t, m.planItems[1].Queued)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.True(t, b.Queue.IsQueued("P", "G"))
}

func TestDequeueKeyRemovesGoalCard(t *testing.T) {
	m, _, b := setupModel(t)

	m, _ = update(t, m, keys("x"))
	assert.False(t, b.Queue.IsQueued("P", "G"))
	assert.Empty(t, m.view.Column(store.TaskBacklog).Goals)
}

func TestUnauthorizedLoadOpensLogin(t *testing.T) {
	m, _, _ := setupModel(t)

	m, _ = update(t, m, PlansLoadedMsg{Err: &api.Error{Status: 401, Message: "Token has expired"}})
	require.True(t, m.showLoginModal)

	m.loginInputs[0].SetValue("ana")
	m.loginInputs[1].SetValue("secret")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	m, _ = update(t, m, cmd())
	assert.False(t, m.showLoginModal)
	assert.True(t, m.busy["load"])
}

func TestViewRenders(t *testing.T) {
	m, _, _ := setupModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})

	out := m.View()
	assert.Contains(t, out, "BACKLOG")
	assert.Contains(t, out, "DOING")
	assert.Contains(t, out, "Pilot episode")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Contains(t, m.View(), "Podcast")
}
