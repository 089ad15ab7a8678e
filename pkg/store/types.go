package store

import (
	"strings"

	"github.com/stefanpenner/tempo/pkg/plan"
)

// Storage is a string-keyed blob store with localStorage semantics: a
// missing key is not an error.
type Storage interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Remove(key string) error
}

// KeyPrefix namespaces every key tempo writes.
const KeyPrefix = "tempo."

// Storage keys.
const (
	KeyExecutionQueue = KeyPrefix + "execution-queue"
	KeyTaskStatus     = KeyPrefix + "task-status"
	KeyAccessToken    = KeyPrefix + "access_token"
	KeyUser           = KeyPrefix + "user"
	KeyUnsyncedPlans  = KeyPrefix + "unsynced-plans"
)

// keySeparator joins ids into composite keys. Ids never contain it.
const keySeparator = "\x1f"

// TaskStatus is the kanban lane of a task.
type TaskStatus string

const (
	TaskBacklog TaskStatus = "backlog"
	TaskTodo    TaskStatus = "todo"
	TaskDoing   TaskStatus = "doing"
	TaskDone    TaskStatus = "done"
)

// Lanes lists the task lanes in board order.
var Lanes = []TaskStatus{TaskBacklog, TaskTodo, TaskDoing, TaskDone}

// Valid reports whether s is one of the four lanes.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskBacklog, TaskTodo, TaskDoing, TaskDone:
		return true
	}
	return false
}

// NormalizeTaskStatus coerces any input to a lane. Unknown values become
// backlog.
func NormalizeTaskStatus(s string) TaskStatus {
	st := TaskStatus(strings.ToLower(strings.TrimSpace(s)))
	if st.Valid() {
		return st
	}
	return TaskBacklog
}

// QueueEntry pins one goal of one plan for execution.
type QueueEntry struct {
	PlanID string `json:"planId"`
	GoalID string `json:"goalId"`
}

// Key returns the composite membership key of the entry.
func (e QueueEntry) Key() string {
	return QueueKey(e.PlanID, e.GoalID)
}

// QueueKey joins normalized plan and goal ids.
func QueueKey(planID, goalID string) string {
	return plan.NormalizeID(planID) + keySeparator + plan.NormalizeID(goalID)
}

// TaskKey joins normalized plan, goal and task ids.
func TaskKey(planID, goalID, taskID string) string {
	return QueueKey(planID, goalID) + keySeparator + plan.NormalizeID(taskID)
}
