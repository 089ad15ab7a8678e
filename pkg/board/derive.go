package board

import (
	"github.com/stefanpenner/tempo/pkg/plan"
	"github.com/stefanpenner/tempo/pkg/store"
)

// rollUp is the shared four-way rule: nothing → pending, all done → done,
// anything in progress or partly done → executing, else pending.
func rollUp(n, doing, done int) plan.GoalStatus {
	switch {
	case n == 0:
		return plan.GoalPending
	case done == n:
		return plan.GoalDone
	case doing > 0, done > 0:
		return plan.GoalExecuting
	default:
		return plan.GoalPending
	}
}

// DeriveGoalStatus rolls task lanes up into a goal status.
func DeriveGoalStatus(tasks []store.TaskStatus) plan.GoalStatus {
	var doing, done int
	for _, t := range tasks {
		switch store.NormalizeTaskStatus(string(t)) {
		case store.TaskDoing:
			doing++
		case store.TaskDone:
			done++
		}
	}
	return rollUp(len(tasks), doing, done)
}

// DerivePlanStatus rolls goal statuses up into a plan status. The tri-state
// maps onto the backend's vocabulary: pending and executing are active,
// done is archived.
func DerivePlanStatus(goals []plan.GoalStatus) plan.PlanStatus {
	var doing, done int
	for _, g := range goals {
		switch g {
		case plan.GoalExecuting:
			doing++
		case plan.GoalDone:
			done++
		}
	}
	if rollUp(len(goals), doing, done) == plan.GoalDone {
		return plan.PlanArchived
	}
	return plan.PlanActive
}
