package plan

import (
	"strings"
	"time"
)

// ScoreBudget is the number of points shared across all of a user's plans.
const ScoreBudget = 100

// PlanStatus is the backend's lifecycle state for an annual plan.
type PlanStatus string

const (
	PlanDraft    PlanStatus = "draft"
	PlanActive   PlanStatus = "active"
	PlanArchived PlanStatus = "archived"
)

// Valid reports whether s is one of the backend's plan states.
func (s PlanStatus) Valid() bool {
	switch s {
	case PlanDraft, PlanActive, PlanArchived:
		return true
	}
	return false
}

// GoalStatus is the execution state of a goal. On the board it is derived
// from the goal's task lanes.
type GoalStatus string

const (
	GoalPending   GoalStatus = "pending"
	GoalExecuting GoalStatus = "executing"
	GoalDone      GoalStatus = "done"
)

// Valid reports whether s is one of the backend's goal states.
func (s GoalStatus) Valid() bool {
	switch s {
	case GoalPending, GoalExecuting, GoalDone:
		return true
	}
	return false
}

// Plan is a year-scoped container of goals, as returned by /api/plans.
type Plan struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	Year            int        `json:"year,omitempty"`
	ScoreAllocation int        `json:"score_allocation"`
	Status          PlanStatus `json:"status"`
	Goals           []Goal     `json:"goals"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

// Goal is a named sub-objective of a plan. Details is free text whose
// non-empty lines are the goal's tasks.
type Goal struct {
	ID                string     `json:"id"`
	PlanID            string     `json:"plan_id,omitempty"`
	Name              string     `json:"name"`
	Details           string     `json:"details,omitempty"`
	ExpectedTimeframe string     `json:"expected_timeframe,omitempty"`
	ScoreAllocation   int        `json:"score_allocation"`
	Status            GoalStatus `json:"status"`
	SortOrder         int        `json:"sort_order"`
}

// FindGoal returns the goal with the given id, or nil.
func (p *Plan) FindGoal(goalID string) *Goal {
	goalID = NormalizeID(goalID)
	for i := range p.Goals {
		if NormalizeID(p.Goals[i].ID) == goalID {
			return &p.Goals[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the plan so callers can mutate goals without
// touching the cached value.
func (p Plan) Clone() Plan {
	c := p
	c.Goals = append([]Goal(nil), p.Goals...)
	return c
}

// GoalTotal sums the goal scores of the plan.
func (p *Plan) GoalTotal() int {
	total := 0
	for _, g := range p.Goals {
		total += g.ScoreAllocation
	}
	return total
}

// NormalizeID returns the canonical string form of an id. Ids are compared
// only after normalization.
func NormalizeID(id string) string {
	return strings.TrimSpace(id)
}

// List is the payload of GET /api/plans.
type List struct {
	RemainingScore int    `json:"remaining_score"`
	Plans          []Plan `json:"plans"`
}

// Result is the payload of plan create and update calls.
type Result struct {
	Plan           Plan `json:"plan"`
	RemainingScore int  `json:"remaining_score"`
}
