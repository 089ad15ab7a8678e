package store

import (
	"encoding/json"
	"log/slog"

	"github.com/stefanpenner/tempo/pkg/plan"
)

// Queue is the execution queue: the goals the user has pinned for active
// work. Every mutation is written through to storage.
type Queue struct {
	storage Storage
	logger  *slog.Logger
	entries []QueueEntry
}

// LoadQueue reads the queue from storage. Missing or malformed content
// yields an empty queue; it never fails.
func LoadQueue(storage Storage, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{storage: storage, logger: logger}
	q.Reload()
	return q
}

// Reload replaces the in-memory queue with what storage currently holds.
func (q *Queue) Reload() {
	q.entries = nil

	data, ok, err := q.storage.Get(KeyExecutionQueue)
	if err != nil {
		q.logger.Warn("reading execution queue", "err", err)
		return
	}
	if !ok || len(data) == 0 {
		return
	}

	var raw []QueueEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		q.logger.Warn("execution queue is corrupt, starting empty", "err", err)
		return
	}

	seen := make(map[string]bool)
	for _, e := range raw {
		e.PlanID = plan.NormalizeID(e.PlanID)
		e.GoalID = plan.NormalizeID(e.GoalID)
		if e.PlanID == "" || e.GoalID == "" || seen[e.Key()] {
			continue
		}
		seen[e.Key()] = true
		q.entries = append(q.entries, e)
	}
}

// Entries returns a copy of the queue in insertion order.
func (q *Queue) Entries() []QueueEntry {
	return append([]QueueEntry(nil), q.entries...)
}

// Len returns the number of queued goals.
func (q *Queue) Len() int {
	return len(q.entries)
}

// IsQueued reports whether the goal is pinned.
func (q *Queue) IsQueued(planID, goalID string) bool {
	key := QueueKey(planID, goalID)
	for _, e := range q.entries {
		if e.Key() == key {
			return true
		}
	}
	return false
}

// Add pins a goal. It reports whether the queue changed.
func (q *Queue) Add(planID, goalID string) bool {
	planID = plan.NormalizeID(planID)
	goalID = plan.NormalizeID(goalID)
	if planID == "" || goalID == "" || q.IsQueued(planID, goalID) {
		return false
	}
	q.entries = append(q.entries, QueueEntry{PlanID: planID, GoalID: goalID})
	q.persist()
	return true
}

// Remove unpins a goal. It reports whether the queue changed.
func (q *Queue) Remove(planID, goalID string) bool {
	key := QueueKey(planID, goalID)
	kept := q.entries[:0:0]
	for _, e := range q.entries {
		if e.Key() != key {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(q.entries) {
		return false
	}
	q.entries = kept
	q.persist()
	return true
}

// Prune keeps only entries present in valid, persisting only on change.
func (q *Queue) Prune(valid []QueueEntry) bool {
	allowed := make(map[string]bool, len(valid))
	for _, e := range valid {
		allowed[e.Key()] = true
	}
	kept := q.entries[:0:0]
	for _, e := range q.entries {
		if allowed[e.Key()] {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(q.entries) {
		return false
	}
	q.entries = kept
	q.persist()
	return true
}

func (q *Queue) persist() {
	entries := q.entries
	if entries == nil {
		entries = []QueueEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		q.logger.Warn("encoding execution queue", "err", err)
		return
	}
	if err := q.storage.Set(KeyExecutionQueue, data); err != nil {
		q.logger.Warn("saving execution queue", "err", err)
	}
}
