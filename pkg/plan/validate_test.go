package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDraft(t *testing.T) {
	valid := func() Draft {
		return Draft{
			Title: "Podcast",
			Year:  2026,
			Goals: []GoalDraft{{Name: "Season one", ScoreAllocation: 20}},
		}
	}

	tests := []struct {
		name      string
		mutate    func(d *Draft)
		available int
		field     string
	}{
		{name: "valid", mutate: func(d *Draft) {}, available: 100},
		{name: "missing title", mutate: func(d *Draft) { d.Title = "" }, available: 100, field: "title"},
		{name: "year out of range", mutate: func(d *Draft) { d.Year = 1999 }, available: 100, field: "year"},
		{name: "year omitted", mutate: func(d *Draft) { d.Year = 0 }, available: 100},
		{name: "no goals", mutate: func(d *Draft) { d.Goals = nil }, available: 100, field: "goals"},
		{name: "unnamed goal", mutate: func(d *Draft) { d.Goals[0].Name = "" }, available: 100, field: "goals[0]"},
		{name: "zero score", mutate: func(d *Draft) { d.Goals[0].ScoreAllocation = 0 }, available: 100, field: "goals[0]"},
		{name: "score above budget", mutate: func(d *Draft) { d.Goals[0].ScoreAllocation = 101 }, available: 200, field: "goals[0]"},
		{name: "bad goal status", mutate: func(d *Draft) { d.Goals[0].Status = "paused" }, available: 100, field: "goals[0]"},
		{name: "over remaining", mutate: func(d *Draft) {}, available: 10, field: "goals"},
		{name: "exactly remaining", mutate: func(d *Draft) {}, available: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid()
			tt.mutate(&d)
			err := ValidateDraft(d, tt.available)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestDraftFromPlanKeepsGoalIdentity(t *testing.T) {
	p := Plan{
		ID: "p1", Title: "Podcast", Year: 2026, Status: PlanActive,
		Goals: []Goal{{ID: "g1", Name: "Season one", Details: "a\nb", ScoreAllocation: 20, Status: GoalExecuting}},
	}
	d := DraftFromPlan(p)
	require.Len(t, d.Goals, 1)
	assert.Equal(t, "g1", d.Goals[0].ID)
	assert.Equal(t, GoalExecuting, d.Goals[0].Status)
	assert.Equal(t, PlanActive, d.Status)
	assert.Equal(t, 20, d.GoalTotal())
}
