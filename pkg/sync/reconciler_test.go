package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/stefanpenner/tempo/pkg/plan"
	"github.com/stefanpenner/tempo/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUpdater struct {
	err   error
	calls []string
	last  plan.Draft
}

func (f *fakeUpdater) UpdatePlan(ctx context.Context, id string, d plan.Draft) (*plan.Result, error) {
	f.calls = append(f.calls, id)
	f.last = d
	if f.err != nil {
		return nil, f.err
	}
	return &plan.Result{Plan: plan.Plan{ID: id, Title: d.Title, Status: d.Status}, RemainingScore: 55}, nil
}

func setupReconciler(t *testing.T, u PlanUpdater) (*Reconciler, *store.Store) {
	t.Helper()
	s, err := store.NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return NewReconciler(u, s, nil), s
}

func TestMarkDirtyPersists(t *testing.T) {
	r, s := setupReconciler(t, &fakeUpdater{})

	assert.True(t, r.MarkDirty("p1"))
	assert.False(t, r.MarkDirty(" p1 "))
	assert.True(t, r.IsUnsynced("p1"))

	again := NewReconciler(&fakeUpdater{}, s, nil)
	assert.Equal(t, []string{"p1"}, again.Unsynced())
}

func TestCorruptUnsyncedSetIsEmpty(t *testing.T) {
	s, err := store.NewStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Set(store.KeyUnsyncedPlans, []byte("{nope")))

	r := NewReconciler(&fakeUpdater{}, s, nil)
	assert.Empty(t, r.Unsynced())
}

func TestPushFailureKeepsPlanUnsynced(t *testing.T) {
	u := &fakeUpdater{err: errors.New("HTTP 500: boom")}
	r, _ := setupReconciler(t, u)
	p := plan.Plan{ID: "p1", Title: "Podcast", Status: plan.PlanActive, Goals: []plan.Goal{
		{ID: "g1", Name: "Season one", ScoreAllocation: 10, Status: plan.GoalExecuting},
	}}
	r.MarkDirty("p1")

	_, err := r.Push(context.Background(), p)
	require.Error(t, err)
	assert.True(t, r.IsUnsynced("p1"))
	assert.Equal(t, plan.GoalExecuting, u.last.Goals[0].Status)

	u.err = nil
	lookup := func(id string) *plan.Plan {
		if id == "p1" {
			return &p
		}
		return nil
	}
	results, err := r.Flush(context.Background(), lookup)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 55, results[0].RemainingScore)
	assert.False(t, r.IsUnsynced("p1"))
	assert.Equal(t, []string{"p1", "p1"}, u.calls)
}

func TestFlushForgetsUnknownPlans(t *testing.T) {
	u := &fakeUpdater{}
	r, _ := setupReconciler(t, u)
	r.MarkDirty("gone")

	results, err := r.Flush(context.Background(), func(string) *plan.Plan { return nil })
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, r.Unsynced())
	assert.Empty(t, u.calls)
}

func TestFlushJoinsErrors(t *testing.T) {
	u := &fakeUpdater{err: errors.New("offline")}
	r, _ := setupReconciler(t, u)
	r.MarkDirty("a")
	r.MarkDirty("b")

	_, err := r.Flush(context.Background(), func(id string) *plan.Plan { return &plan.Plan{ID: id} })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pushing plan a")
	assert.Contains(t, err.Error(), "pushing plan b")
	assert.Equal(t, []string{"a", "b"}, r.Unsynced())
}
