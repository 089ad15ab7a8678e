package store

import (
	"encoding/json"
	"log/slog"
	"sort"
)

// TaskStatusMap holds the lane of every task that has left the backlog at
// least once, keyed by TaskKey.
type TaskStatusMap struct {
	storage  Storage
	logger   *slog.Logger
	statuses map[string]TaskStatus
}

// LoadTaskStatusMap reads the map from storage. Corrupt content yields an
// empty map; it never fails.
func LoadTaskStatusMap(storage Storage, logger *slog.Logger) *TaskStatusMap {
	if logger == nil {
		logger = slog.Default()
	}
	m := &TaskStatusMap{storage: storage, logger: logger}
	m.Reload()
	return m
}

// Reload replaces the in-memory map with what storage currently holds.
func (m *TaskStatusMap) Reload() {
	m.statuses = make(map[string]TaskStatus)

	data, ok, err := m.storage.Get(KeyTaskStatus)
	if err != nil {
		m.logger.Warn("reading task statuses", "err", err)
		return
	}
	if !ok || len(data) == 0 {
		return
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		m.logger.Warn("task status map is corrupt, starting empty", "err", err)
		return
	}
	for k, v := range raw {
		if st := TaskStatus(v); st.Valid() {
			m.statuses[k] = st
		}
	}
}

// Get returns the task's lane, backlog when unknown.
func (m *TaskStatusMap) Get(planID, goalID, taskID string) TaskStatus {
	if st, ok := m.statuses[TaskKey(planID, goalID, taskID)]; ok && st.Valid() {
		return st
	}
	return TaskBacklog
}

// Set moves a task to a lane. Invalid lanes are coerced to backlog. It
// returns false, without writing, when the lane is unchanged.
func (m *TaskStatusMap) Set(planID, goalID, taskID string, status TaskStatus) bool {
	status = NormalizeTaskStatus(string(status))
	if m.Get(planID, goalID, taskID) == status {
		return false
	}
	m.statuses[TaskKey(planID, goalID, taskID)] = status
	m.persist()
	return true
}

// Prune deletes every entry whose key is not in validKeys, persisting only
// when something was removed.
func (m *TaskStatusMap) Prune(validKeys map[string]struct{}) bool {
	changed := false
	for k := range m.statuses {
		if _, ok := validKeys[k]; !ok {
			delete(m.statuses, k)
			changed = true
		}
	}
	if changed {
		m.persist()
	}
	return changed
}

// Keys returns the stored keys in sorted order.
func (m *TaskStatusMap) Keys() []string {
	keys := make([]string, 0, len(m.statuses))
	for k := range m.statuses {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of stored entries.
func (m *TaskStatusMap) Len() int {
	return len(m.statuses)
}

func (m *TaskStatusMap) persist() {
	data, err := json.Marshal(m.statuses)
	if err != nil {
		m.logger.Warn("encoding task statuses", "err", err)
		return
	}
	if err := m.storage.Set(KeyTaskStatus, data); err != nil {
		m.logger.Warn("saving task statuses", "err", err)
	}
}
