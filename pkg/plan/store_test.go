package plan

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	list  *List
	err   error
	calls int
}

func (f *fakeFetcher) ListPlans(ctx context.Context) (*List, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.list, nil
}

func samplePlans() *List {
	return &List{
		RemainingScore: 40,
		Plans: []Plan{
			{ID: "p1", Title: "Podcast", Status: PlanActive, ScoreAllocation: 30, Goals: []Goal{
				{ID: "g1", Name: "Season one", ScoreAllocation: 30, Status: GoalPending},
			}},
			{ID: "p2", Title: "Health", Status: PlanActive, ScoreAllocation: 30},
		},
	}
}

func TestStoreLoadCachesSuccessfulLoad(t *testing.T) {
	f := &fakeFetcher{list: samplePlans()}
	s := NewStore(f)

	require.NoError(t, s.Load(context.Background(), false))
	require.NoError(t, s.Load(context.Background(), false))
	assert.Equal(t, 1, f.calls)
	assert.True(t, s.Loaded())
	assert.Equal(t, 40, s.RemainingScore())
	assert.Len(t, s.Plans(), 2)

	require.NoError(t, s.Load(context.Background(), true))
	assert.Equal(t, 2, f.calls)
}

func TestStoreLoadFailureKeepsCache(t *testing.T) {
	f := &fakeFetcher{list: samplePlans()}
	s := NewStore(f)
	require.NoError(t, s.Load(context.Background(), false))

	f.err = errors.New("connection refused")
	err := s.Load(context.Background(), true)
	require.Error(t, err)
	assert.ErrorIs(t, err, f.err)
	assert.Equal(t, f.err, s.LastError())
	assert.Len(t, s.Plans(), 2)
	assert.Equal(t, 40, s.RemainingScore())

	f.err = nil
	require.NoError(t, s.Load(context.Background(), true))
	assert.NoError(t, s.LastError())
}

func TestStoreLoadFailureBeforeFirstLoad(t *testing.T) {
	s := NewStore(&fakeFetcher{err: errors.New("offline")})
	assert.Error(t, s.Load(context.Background(), false))
	assert.False(t, s.Loaded())
	assert.Empty(t, s.Plans())
	assert.Equal(t, ScoreBudget, s.RemainingScore())
}

func TestStoreUpsert(t *testing.T) {
	s := NewStore(&fakeFetcher{list: samplePlans()})
	require.NoError(t, s.Load(context.Background(), false))

	s.Upsert(Plan{ID: "p3", Title: "New"})
	plans := s.Plans()
	require.Len(t, plans, 3)
	assert.Equal(t, "p3", plans[0].ID)

	s.Upsert(Plan{ID: " p2 ", Title: "Health v2"})
	plans = s.Plans()
	require.Len(t, plans, 3)
	assert.Equal(t, "Health v2", plans[2].Title)
}

func TestStoreFindByID(t *testing.T) {
	s := NewStore(&fakeFetcher{list: samplePlans()})
	require.NoError(t, s.Load(context.Background(), false))

	p := s.FindByID(" p1")
	require.NotNil(t, p)
	assert.Equal(t, "Podcast", p.Title)
	assert.NotNil(t, p.FindGoal("g1"))
	assert.Nil(t, p.FindGoal("g9"))

	assert.Nil(t, s.FindByID("missing"))
	assert.Nil(t, s.FindByID(""))

	// Returned plans are copies.
	p.Goals[0].Name = "changed"
	assert.Equal(t, "Season one", s.FindByID("p1").Goals[0].Name)
}

func TestStoreRemove(t *testing.T) {
	s := NewStore(&fakeFetcher{list: samplePlans()})
	require.NoError(t, s.Load(context.Background(), false))

	assert.True(t, s.Remove("p1"))
	assert.False(t, s.Remove("p1"))
	assert.Len(t, s.Plans(), 1)
}
