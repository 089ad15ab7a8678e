package board

import (
	"github.com/stefanpenner/tempo/pkg/plan"
	"github.com/stefanpenner/tempo/pkg/store"
)

// View is one rendering of the board. Text fields hold raw user input;
// terminal renderers pass them through tui.CleanLine before printing.
type View struct {
	Columns        []Column // backlog, todo, doing, done
	Loaded         bool     // plans loaded at least once
	Err            error    // last plan load error
	RemainingScore int
	Dirty          []string // plans newly marked unsynced by this render
	Changed        []string // plans whose derived status changed in this render
}

// Column is one lane. Backlog holds goal cards, the others hold task cards.
type Column struct {
	Lane  store.TaskStatus
	Goals []GoalCard
	Tasks []TaskCard
}

// GoalCard is a queued goal in the backlog lane.
type GoalCard struct {
	PlanID     string
	PlanTitle  string
	PlanStatus plan.PlanStatus
	GoalID     string
	GoalName   string
	Status     plan.GoalStatus
	Score      int
	Timeframe  string
	Tasks      []TaskCard // tasks still in the backlog
	Total      int
	Done       int
	Expanded   bool
	Unsynced   bool
}

// TaskCard is a single task.
type TaskCard struct {
	PlanID    string
	PlanTitle string
	GoalID    string
	GoalName  string
	ID        string
	Index     int
	Text      string
	Lane      store.TaskStatus
}

// Ref returns the address of the task.
func (c TaskCard) Ref() TaskRef {
	return TaskRef{PlanID: c.PlanID, GoalID: c.GoalID, TaskID: c.ID}
}

// Column returns the column for lane.
func (v View) Column(lane store.TaskStatus) Column {
	return v.Columns[laneIndex(lane)]
}

// Goal returns the card of a queued goal.
func (v View) Goal(planID, goalID string) (GoalCard, bool) {
	key := store.QueueKey(planID, goalID)
	for _, g := range v.Columns[0].Goals {
		if store.QueueKey(g.PlanID, g.GoalID) == key {
			return g, true
		}
	}
	return GoalCard{}, false
}

func laneIndex(lane store.TaskStatus) int {
	for i, l := range store.Lanes {
		if l == lane {
			return i
		}
	}
	return 0
}
