package board

import (
	"context"
	"errors"
	"testing"

	"github.com/stefanpenner/tempo/pkg/plan"
	"github.com/stefanpenner/tempo/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	list *plan.List
	err  error
}

func (f *fakeFetcher) ListPlans(ctx context.Context) (*plan.List, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.list, nil
}

type fakeUpdater struct {
	err   error
	calls int
}

func (f *fakeUpdater) UpdatePlan(ctx context.Context, id string, d plan.Draft) (*plan.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	p := plan.Plan{ID: id, Title: d.Title, Year: d.Year, Status: d.Status}
	for _, g := range d.Goals {
		p.Goals = append(p.Goals, plan.Goal{
			ID:              g.ID,
			PlanID:          id,
			Name:            g.Name,
			Details:         g.Details,
			ScoreAllocation: g.ScoreAllocation,
			Status:          g.Status,
		})
	}
	return &plan.Result{Plan: p, RemainingScore: 70}, nil
}

func podcastPlans() *plan.List {
	return &plan.List{
		RemainingScore: 70,
		Plans: []plan.Plan{
			{ID: "P", Title: "Podcast", Year: 2026, Status: plan.PlanActive, ScoreAllocation: 20, Goals: []plan.Goal{
				{ID: "G", Name: "Pilot episode", ScoreAllocation: 10, Status: plan.GoalPending,
					Details: "write outline\nrecord draft\nedit audio"},
				{ID: "H", Name: "Cover art", ScoreAllocation: 10, Status: plan.GoalPending,
					Details: "sketch"},
			}},
			{ID: "Q", Title: "Empty", Status: plan.PlanDraft},
		},
	}
}

type testBoard struct {
	*Board
	storage *store.Store
	fetcher *fakeFetcher
	updater *fakeUpdater
}

func setupBoard(t *testing.T) *testBoard {
	t.Helper()
	s, err := store.NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return newTestBoard(t, s)
}

func newTestBoard(t *testing.T, s *store.Store) *testBoard {
	t.Helper()
	f := &fakeFetcher{list: podcastPlans()}
	u := &fakeUpdater{}
	b := New(plan.NewStore(f), s, u, nil)
	require.NoError(t, b.Load(context.Background(), false))
	return &testBoard{Board: b, storage: s, fetcher: f, updater: u}
}

func ref(task string) TaskRef {
	return TaskRef{PlanID: "P", GoalID: "G", TaskID: task}
}

func cancelGate(context.Context, TaskCard) (bool, error) { return false, nil }

func TestRenderOnlyShowsQueuedGoals(t *testing.T) {
	b := setupBoard(t)

	v := b.Render()
	assert.Empty(t, v.Column(store.TaskBacklog).Goals)

	_, err := b.Enqueue("P", "G")
	require.NoError(t, err)
	v = b.Render()
	require.Len(t, v.Column(store.TaskBacklog).Goals, 1)
	card := v.Column(store.TaskBacklog).Goals[0]
	assert.Equal(t, "Pilot episode", card.GoalName)
	assert.Equal(t, "Podcast", card.PlanTitle)
	assert.Equal(t, plan.GoalPending, card.Status)
	assert.Len(t, card.Tasks, 3)
	assert.Equal(t, []string{"G-0", "G-1", "G-2"}, []string{card.Tasks[0].ID, card.Tasks[1].ID, card.Tasks[2].ID})
	assert.Empty(t, v.Dirty)
	assert.Equal(t, 0, b.updater.calls)
}

func TestEnqueueUnknownGoal(t *testing.T) {
	b := setupBoard(t)
	_, err := b.Enqueue("P", "nope")
	assert.ErrorIs(t, err, ErrUnknownGoal)
}

func TestMoveToDoingMakesGoalExecuting(t *testing.T) {
	b := setupBoard(t)
	b.Enqueue("P", "G")

	moved, err := b.MoveTask(context.Background(), ref("G-1"), store.TaskDoing, Approve)
	require.NoError(t, err)
	assert.True(t, moved)

	v := b.Render()
	require.Len(t, v.Column(store.TaskDoing).Tasks, 1)
	assert.Equal(t, "record draft", v.Column(store.TaskDoing).Tasks[0].Text)
	card, ok := v.Goal("P", "G")
	require.True(t, ok)
	assert.Equal(t, plan.GoalExecuting, card.Status)
	assert.Len(t, card.Tasks, 2)
	assert.True(t, card.Unsynced)
	assert.Equal(t, []string{"P"}, v.Dirty)

	// Derived status lands in the plan cache.
	p := b.Plans.FindByID("P")
	assert.Equal(t, plan.GoalExecuting, p.FindGoal("G").Status)
	assert.Equal(t, plan.PlanActive, p.Status)

	// Re-rendering is idempotent.
	v = b.Render()
	assert.Empty(t, v.Dirty)
	card, _ = v.Goal("P", "G")
	assert.Equal(t, plan.GoalExecuting, card.Status)
}

func TestDoingWinsOverDone(t *testing.T) {
	b := setupBoard(t)
	b.Enqueue("P", "G")
	ctx := context.Background()

	_, err := b.MoveTask(ctx, ref("G-1"), store.TaskDoing, Approve)
	require.NoError(t, err)
	_, err = b.MoveTask(ctx, ref("G-0"), store.TaskDone, nil)
	require.NoError(t, err)
	_, err = b.MoveTask(ctx, ref("G-2"), store.TaskDone, nil)
	require.NoError(t, err)

	v := b.Render()
	card, _ := v.Goal("P", "G")
	assert.Equal(t, plan.GoalExecuting, card.Status)
	assert.Len(t, v.Column(store.TaskDone).Tasks, 2)
	assert.Equal(t, 2, card.Done)
	assert.Equal(t, 3, card.Total)
	assert.Empty(t, card.Tasks)

	_, err = b.MoveTask(ctx, ref("G-1"), store.TaskDone, nil)
	require.NoError(t, err)
	card, _ = b.Render().Goal("P", "G")
	assert.Equal(t, plan.GoalDone, card.Status)
	// The other goal of the plan is still pending, so the plan stays active.
	assert.Equal(t, plan.PlanActive, card.PlanStatus)
}

func TestAllGoalsDoneArchivesPlan(t *testing.T) {
	b := setupBoard(t)
	ctx := context.Background()
	b.Enqueue("P", "G")
	b.Enqueue("P", "H")
	for _, r := range []TaskRef{ref("G-0"), ref("G-1"), ref("G-2"), {PlanID: "P", GoalID: "H", TaskID: "H-0"}} {
		_, err := b.MoveTask(ctx, r, store.TaskDone, nil)
		require.NoError(t, err)
	}

	card, _ := b.Render().Goal("P", "H")
	assert.Equal(t, plan.PlanArchived, card.PlanStatus)
	assert.Equal(t, plan.PlanArchived, b.Plans.FindByID("P").Status)
}

func TestMoveToDoingGate(t *testing.T) {
	b := setupBoard(t)
	b.Enqueue("P", "G")
	ctx := context.Background()

	moved, err := b.MoveTask(ctx, ref("G-0"), store.TaskDoing, cancelGate)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, store.TaskBacklog, b.Tasks.Get("P", "G", "G-0"))

	gateErr := errors.New("HTTP 500: calendar down")
	moved, err = b.MoveTask(ctx, ref("G-0"), store.TaskDoing, func(context.Context, TaskCard) (bool, error) {
		return false, gateErr
	})
	assert.ErrorIs(t, err, gateErr)
	assert.False(t, moved)
	assert.Equal(t, store.TaskBacklog, b.Tasks.Get("P", "G", "G-0"))

	_, err = b.MoveTask(ctx, ref("G-0"), store.TaskDoing, nil)
	assert.ErrorIs(t, err, ErrNoGate)

	var seen TaskCard
	moved, err = b.MoveTask(ctx, ref("G-0"), store.TaskDoing, func(_ context.Context, c TaskCard) (bool, error) {
		seen = c
		return true, nil
	})
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, "write outline", seen.Text)

	// Already doing: the gate is not consulted again.
	moved, err = b.MoveTask(ctx, ref("G-0"), store.TaskDoing, cancelGate)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, store.TaskDoing, b.Tasks.Get("P", "G", "G-0"))
}

func TestMoveTaskRejects(t *testing.T) {
	b := setupBoard(t)
	ctx := context.Background()

	_, err := b.MoveTask(ctx, ref("G-0"), store.TaskTodo, nil)
	assert.ErrorIs(t, err, ErrUnknownTask, "goal not queued")

	b.Enqueue("P", "G")
	_, err = b.MoveTask(ctx, ref("G-9"), store.TaskTodo, nil)
	assert.ErrorIs(t, err, ErrUnknownTask)

	_, err = b.MoveTask(ctx, ref("G-0"), store.TaskBacklog, nil)
	assert.ErrorIs(t, err, ErrBacklogLane)

	_, err = b.MoveTask(ctx, ref("G-0"), store.TaskStatus("later"), nil)
	assert.Error(t, err)
}

func TestDropOnGoal(t *testing.T) {
	b := setupBoard(t)
	b.Enqueue("P", "G")
	b.Enqueue("P", "H")
	_, err := b.MoveTask(context.Background(), ref("G-2"), store.TaskTodo, nil)
	require.NoError(t, err)

	assert.False(t, b.DropOnGoal(ref("G-2"), "P", "H"))
	assert.Equal(t, store.TaskTodo, b.Tasks.Get("P", "G", "G-2"))

	assert.True(t, b.DropOnGoal(ref("G-2"), "P", "G"))
	assert.Equal(t, store.TaskBacklog, b.Tasks.Get("P", "G", "G-2"))
	assert.False(t, b.DropOnGoal(ref("G-2"), "P", "G"))
}

func TestDequeuePrunesTaskStatuses(t *testing.T) {
	b := setupBoard(t)
	ctx := context.Background()
	b.Enqueue("P", "G")
	b.MoveTask(ctx, ref("G-0"), store.TaskDone, nil)
	b.MoveTask(ctx, ref("G-1"), store.TaskDoing, Approve)
	b.MoveTask(ctx, ref("G-2"), store.TaskTodo, nil)
	b.Render()
	require.Equal(t, 3, b.Tasks.Len())

	assert.True(t, b.Dequeue("P", "G"))
	v := b.Render()
	assert.Equal(t, 0, b.Tasks.Len())
	_, ok := v.Goal("P", "G")
	assert.False(t, ok)
	for _, col := range v.Columns {
		assert.Empty(t, col.Tasks)
	}

	// Pruned state is persisted.
	assert.Equal(t, 0, store.LoadTaskStatusMap(b.storage, nil).Len())
}

func TestRenderPrunesEditedDetails(t *testing.T) {
	b := setupBoard(t)
	b.Enqueue("P", "G")
	b.Queue.Add("P", "gone")
	b.MoveTask(context.Background(), ref("G-2"), store.TaskDone, nil)
	b.Render()

	p := b.Plans.FindByID("P")
	p.FindGoal("G").Details = "write outline\nrecord draft"
	b.Plans.Upsert(*p)

	b.Render()
	assert.Equal(t, 0, b.Tasks.Len())
	assert.Equal(t, []store.QueueEntry{{PlanID: "P", GoalID: "G"}}, b.Queue.Entries())
}

func TestNoPruneBeforePlansLoad(t *testing.T) {
	s, err := store.NewStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	q := store.LoadQueue(s, nil)
	q.Add("P", "G")
	store.LoadTaskStatusMap(s, nil).Set("P", "G", "G-0", store.TaskDoing)

	f := &fakeFetcher{err: errors.New("connection refused")}
	b := New(plan.NewStore(f), s, &fakeUpdater{}, nil)
	require.Error(t, b.Load(context.Background(), false))

	v := b.Render()
	assert.False(t, v.Loaded)
	assert.Error(t, v.Err)
	assert.Equal(t, 1, b.Queue.Len())
	assert.Equal(t, 1, b.Tasks.Len())
}

func TestMalformedTaskStorageRendersEmpty(t *testing.T) {
	s, err := store.NewStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Set(store.KeyTaskStatus, []byte(`{"broken":`)))
	require.NoError(t, s.Set(store.KeyExecutionQueue, []byte(`[{"planId":"P","goalId":"G"}]`)))

	b := newTestBoard(t, s)
	var v View
	require.NotPanics(t, func() { v = b.Render() })
	card, ok := v.Goal("P", "G")
	require.True(t, ok)
	assert.Len(t, card.Tasks, 3)
	assert.Equal(t, plan.GoalPending, card.Status)
}

func TestToggleExpandedSurvivesRender(t *testing.T) {
	b := setupBoard(t)
	b.Enqueue("P", "G")

	assert.True(t, b.ToggleExpanded("P", "G"))
	card, _ := b.Render().Goal("P", "G")
	assert.True(t, card.Expanded)
	card, _ = b.Render().Goal("P", "G")
	assert.True(t, card.Expanded)

	assert.False(t, b.ToggleExpanded("P", "G"))
	card, _ = b.Render().Goal("P", "G")
	assert.False(t, card.Expanded)
}

func TestToggleQueued(t *testing.T) {
	b := setupBoard(t)

	queued, err := b.ToggleQueued("P", "H")
	require.NoError(t, err)
	assert.True(t, queued)
	queued, err = b.ToggleQueued("P", "H")
	require.NoError(t, err)
	assert.False(t, queued)
	assert.Equal(t, 0, b.Queue.Len())
}

func TestReconcileRetriesFailedPush(t *testing.T) {
	b := setupBoard(t)
	ctx := context.Background()
	b.Enqueue("P", "G")
	b.MoveTask(ctx, ref("G-0"), store.TaskDoing, Approve)
	require.Equal(t, []string{"P"}, b.Render().Dirty)

	b.updater.err = errors.New("HTTP 503: maintenance")
	n, err := b.Reconcile(ctx)
	require.Error(t, err)
	assert.Equal(t, 0, n)
	card, _ := b.Render().Goal("P", "G")
	assert.True(t, card.Unsynced)
	assert.Equal(t, plan.GoalExecuting, card.Status, "no rollback on failure")

	b.updater.err = nil
	n, err = b.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, b.updater.calls)

	v := b.Render()
	card, _ = v.Goal("P", "G")
	assert.False(t, card.Unsynced)
	assert.Empty(t, v.Dirty)
	assert.Equal(t, plan.GoalExecuting, b.Plans.FindByID("P").FindGoal("G").Status)
	assert.Equal(t, 70, v.RemainingScore)
}

func TestRenderReportsChangesOnUnsyncedPlan(t *testing.T) {
	b := setupBoard(t)
	ctx := context.Background()
	b.Enqueue("P", "G")
	b.MoveTask(ctx, ref("G-0"), store.TaskDone, nil)
	v := b.Render()
	require.Equal(t, []string{"P"}, v.Dirty)
	assert.Equal(t, []string{"P"}, v.Changed)

	b.updater.err = errors.New("HTTP 503: maintenance")
	_, err := b.Reconcile(ctx)
	require.Error(t, err)

	b.MoveTask(ctx, ref("G-1"), store.TaskDone, nil)
	b.MoveTask(ctx, ref("G-2"), store.TaskDone, nil)
	v = b.Render()
	assert.Empty(t, v.Dirty, "already unsynced")
	assert.Equal(t, []string{"P"}, v.Changed)
	assert.Equal(t, plan.GoalDone, b.Plans.FindByID("P").FindGoal("G").Status)

	assert.Empty(t, b.Render().Changed)
}

func TestStatePersistsAcrossBoards(t *testing.T) {
	s, err := store.NewStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	b := newTestBoard(t, s)
	b.Enqueue("P", "G")
	b.MoveTask(context.Background(), ref("G-1"), store.TaskTodo, nil)

	again := newTestBoard(t, s)
	v := again.Render()
	require.Len(t, v.Column(store.TaskTodo).Tasks, 1)
	assert.Equal(t, "G-1", v.Column(store.TaskTodo).Tasks[0].ID)
}
