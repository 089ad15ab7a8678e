package plan

import (
	"fmt"
	"strings"
)

// Draft is the request body for creating or updating a plan.
type Draft struct {
	Title       string      `json:"title" yaml:"title"`
	Description string      `json:"description,omitempty" yaml:"-"`
	Year        int         `json:"year,omitempty" yaml:"year,omitempty"`
	Status      PlanStatus  `json:"status,omitempty" yaml:"status,omitempty"`
	Goals       []GoalDraft `json:"goals" yaml:"goals"`
}

// GoalDraft is one goal inside a Draft. ID and Status are sent only for
// existing goals so the backend keeps them.
type GoalDraft struct {
	ID                string     `json:"id,omitempty" yaml:"id,omitempty"`
	Name              string     `json:"name" yaml:"name"`
	Details           string     `json:"details,omitempty" yaml:"details,omitempty"`
	ExpectedTimeframe string     `json:"expected_timeframe,omitempty" yaml:"timeframe,omitempty"`
	ScoreAllocation   int        `json:"score_allocation" yaml:"score"`
	Status            GoalStatus `json:"status,omitempty" yaml:"status,omitempty"`
}

// DraftFromPlan builds an update body that preserves every field of p.
func DraftFromPlan(p Plan) Draft {
	d := Draft{
		Title:       p.Title,
		Description: p.Description,
		Year:        p.Year,
		Status:      p.Status,
	}
	for _, g := range p.Goals {
		d.Goals = append(d.Goals, GoalDraft{
			ID:                g.ID,
			Name:              g.Name,
			Details:           g.Details,
			ExpectedTimeframe: g.ExpectedTimeframe,
			ScoreAllocation:   g.ScoreAllocation,
			Status:            g.Status,
		})
	}
	return d
}

// GoalTotal sums the goal scores of the draft.
func (d *Draft) GoalTotal() int {
	total := 0
	for _, g := range d.Goals {
		total += g.ScoreAllocation
	}
	return total
}

// Normalize trims free-text fields in place.
func (d *Draft) Normalize() {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	for i := range d.Goals {
		g := &d.Goals[i]
		g.ID = NormalizeID(g.ID)
		g.Name = strings.TrimSpace(g.Name)
		g.Details = strings.TrimSpace(g.Details)
		g.ExpectedTimeframe = strings.TrimSpace(g.ExpectedTimeframe)
	}
}

// ValidationError is a client-side rejection raised before any request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateDraft checks a normalized draft. available is the score the draft
// may use: the server's remaining score, plus the plan's own current
// allocation when editing.
func ValidateDraft(d Draft, available int) error {
	if d.Title == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if d.Year != 0 && (d.Year < 2000 || d.Year > 2100) {
		return &ValidationError{Field: "year", Message: "year must be between 2000 and 2100"}
	}
	if d.Status != "" && !d.Status.Valid() {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("unknown plan status %q", d.Status)}
	}
	if len(d.Goals) == 0 {
		return &ValidationError{Field: "goals", Message: "add at least one goal"}
	}
	for i, g := range d.Goals {
		field := fmt.Sprintf("goals[%d]", i)
		if g.Name == "" {
			return &ValidationError{Field: field, Message: "every goal needs a name"}
		}
		if g.ScoreAllocation <= 0 {
			return &ValidationError{Field: field, Message: "goal score must be greater than 0"}
		}
		if g.ScoreAllocation > ScoreBudget {
			return &ValidationError{Field: field, Message: fmt.Sprintf("goal score cannot exceed %d", ScoreBudget)}
		}
		if g.Status != "" && !g.Status.Valid() {
			return &ValidationError{Field: field, Message: fmt.Sprintf("unknown goal status %q", g.Status)}
		}
	}
	if available < 0 {
		available = 0
	}
	if total := d.GoalTotal(); total > available {
		return &ValidationError{
			Field:   "goals",
			Message: fmt.Sprintf("%d points remaining, cannot allocate %d", available, total),
		}
	}
	return nil
}
