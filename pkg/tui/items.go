package tui

import (
	"strings"

	"github.com/stefanpenner/tempo/pkg/board"
	"github.com/stefanpenner/tempo/pkg/plan"
	"github.com/stefanpenner/tempo/pkg/store"
)

// LaneItem is one selectable row of a board lane: a goal card or a task.
type LaneItem struct {
	Goal  *board.GoalCard
	Task  *board.TaskCard
	Depth int
}

// ID returns a key that survives re-renders, used to keep the cursor on
// the same card.
func (i LaneItem) ID() string {
	if i.Task != nil {
		return store.TaskKey(i.Task.PlanID, i.Task.GoalID, i.Task.ID)
	}
	if i.Goal != nil {
		return store.QueueKey(i.Goal.PlanID, i.Goal.GoalID)
	}
	return ""
}

// FlattenColumn lists the rows of a lane. In the backlog each goal card is
// followed by its backlog tasks when expanded.
func FlattenColumn(col board.Column) []LaneItem {
	var items []LaneItem
	for gi := range col.Goals {
		g := &col.Goals[gi]
		items = append(items, LaneItem{Goal: g})
		if !g.Expanded {
			continue
		}
		for ti := range g.Tasks {
			items = append(items, LaneItem{Task: &g.Tasks[ti], Depth: 1})
		}
	}
	for ti := range col.Tasks {
		items = append(items, LaneItem{Task: &col.Tasks[ti]})
	}
	return items
}

// PlanItem is a row of the plans view: a plan header or one of its goals.
type PlanItem struct {
	ID         string
	ParentID   string
	Name       string
	Plan       *plan.Plan
	Goal       *plan.Goal
	Depth      int
	IsExpanded bool
	Queued     bool
}

// IsPlan reports whether the row is a plan header.
func (i PlanItem) IsPlan() bool {
	return i.Goal == nil
}

// FlattenPlans lists plans with the goals of expanded plans nested below.
func FlattenPlans(plans []plan.Plan, expanded map[string]bool, queued func(planID, goalID string) bool) []PlanItem {
	var result []PlanItem
	for pi := range plans {
		p := &plans[pi]
		id := plan.NormalizeID(p.ID)
		result = append(result, PlanItem{
			ID:         id,
			Name:       CleanLine(p.Title),
			Plan:       p,
			IsExpanded: expanded[id],
		})
		if !expanded[id] {
			continue
		}
		for gi := range p.Goals {
			g := &p.Goals[gi]
			result = append(result, PlanItem{
				ID:       store.QueueKey(id, g.ID),
				ParentID: id,
				Name:     CleanLine(g.Name),
				Plan:     p,
				Goal:     g,
				Depth:    1,
				Queued:   queued != nil && queued(id, g.ID),
			})
		}
	}
	return result
}

// FilterPlanItems keeps goals whose name contains query (case-insensitive)
// and the plan headers above them. Plan titles that match are kept too.
func FilterPlanItems(items []PlanItem, query string) []PlanItem {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return items
	}
	keepPlan := make(map[string]bool)
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Name), query) {
			if item.IsPlan() {
				keepPlan[item.ID] = true
			} else {
				keepPlan[item.ParentID] = true
			}
		}
	}
	var result []PlanItem
	for _, item := range items {
		switch {
		case item.IsPlan() && keepPlan[item.ID]:
			result = append(result, item)
		case !item.IsPlan() && strings.Contains(strings.ToLower(item.Name), query):
			result = append(result, item)
		}
	}
	return result
}
