// Package board is the Goal Execution Board: it projects plans, the
// execution queue and task lanes into four columns and applies moves.
package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/stefanpenner/tempo/pkg/plan"
	"github.com/stefanpenner/tempo/pkg/store"
	plansync "github.com/stefanpenner/tempo/pkg/sync"
)

var (
	ErrUnknownGoal = errors.New("goal not found")
	ErrUnknownTask = errors.New("task is not on the board")
	ErrBacklogLane = errors.New("drop the task on its goal card to return it to the backlog")
	ErrNoGate      = errors.New("moving to doing needs a calendar event")
)

// Gate runs the side effect that must succeed before a task enters doing.
// It returns false when the user cancelled.
type Gate func(ctx context.Context, card TaskCard) (bool, error)

// Approve is a Gate for callers that already completed the side effect.
func Approve(context.Context, TaskCard) (bool, error) { return true, nil }

// TaskRef addresses one task.
type TaskRef struct {
	PlanID string
	GoalID string
	TaskID string
}

// Board owns the plan cache and the locally persisted board state. One Board
// is built per process and shared by the TUI and CLI commands.
type Board struct {
	Plans *plan.Store
	Queue *store.Queue
	Tasks *store.TaskStatusMap
	Sync  *plansync.Reconciler

	logger *slog.Logger

	mu       sync.Mutex
	expanded map[string]bool
}

// New wires a board over a plan cache, local storage and the backend
// updater used for status push-back.
func New(plans *plan.Store, storage store.Storage, updater plansync.PlanUpdater, logger *slog.Logger) *Board {
	if logger == nil {
		logger = slog.Default()
	}
	return &Board{
		Plans:    plans,
		Queue:    store.LoadQueue(storage, logger),
		Tasks:    store.LoadTaskStatusMap(storage, logger),
		Sync:     plansync.NewReconciler(updater, storage, logger),
		logger:   logger,
		expanded: make(map[string]bool),
	}
}

// Load fetches plans (see plan.Store.Load).
func (b *Board) Load(ctx context.Context, force bool) error {
	return b.Plans.Load(ctx, force)
}

// Reload re-reads the queue, task lanes and unsynced set from storage, e.g.
// after another process changed them.
func (b *Board) Reload() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Queue.Reload()
	b.Tasks.Reload()
	b.Sync.Reload()
}

// Render builds the board view. It also recomputes derived goal and plan
// status for queued goals, applies changes to the plan cache and marks the
// plans unsynced, then prunes local state that no longer matches the plan
// cache. Pruning waits for the first successful plan load.
func (b *Board) Render() View {
	b.mu.Lock()
	defer b.mu.Unlock()

	v := View{
		Loaded:         b.Plans.Loaded(),
		Err:            b.Plans.LastError(),
		RemainingScore: b.Plans.RemainingScore(),
		Columns:        make([]Column, len(store.Lanes)),
	}
	for i, lane := range store.Lanes {
		v.Columns[i].Lane = lane
	}

	plans := make(map[string]*plan.Plan)
	var planOrder []string
	derived := make(map[string]map[string]plan.GoalStatus)
	var valid []store.QueueEntry
	validKeys := make(map[string]struct{})

	for _, e := range b.Queue.Entries() {
		p, seen := plans[e.PlanID]
		if !seen {
			p = b.Plans.FindByID(e.PlanID)
			plans[e.PlanID] = p
		}
		if p == nil {
			continue
		}
		g := p.FindGoal(e.GoalID)
		if g == nil {
			continue
		}
		valid = append(valid, e)
		if _, ok := derived[e.PlanID]; !ok {
			planOrder = append(planOrder, e.PlanID)
			derived[e.PlanID] = make(map[string]plan.GoalStatus)
		}

		card, lanes := b.goalCardLocked(e, p, g, &v, validKeys)
		card.Status = DeriveGoalStatus(lanes)
		derived[e.PlanID][e.GoalID] = card.Status
		v.Columns[0].Goals = append(v.Columns[0].Goals, card)
	}

	for _, id := range planOrder {
		if b.applyDerivedLocked(plans[id], derived[id]) {
			b.Plans.Upsert(*plans[id])
			v.Changed = append(v.Changed, id)
			if b.Sync.MarkDirty(id) {
				v.Dirty = append(v.Dirty, id)
			}
			b.logger.Info("derived plan status changed", "plan", id, "status", plans[id].Status)
		}
	}

	goals := v.Columns[0].Goals
	for i := range goals {
		goals[i].PlanStatus = plans[goals[i].PlanID].Status
		goals[i].Unsynced = b.Sync.IsUnsynced(goals[i].PlanID)
	}

	if v.Loaded {
		b.pruneLocked(valid, validKeys)
	}
	return v
}

func (b *Board) goalCardLocked(e store.QueueEntry, p *plan.Plan, g *plan.Goal, v *View, validKeys map[string]struct{}) (GoalCard, []store.TaskStatus) {
	card := GoalCard{
		PlanID:    e.PlanID,
		PlanTitle: p.Title,
		GoalID:    e.GoalID,
		GoalName:  g.Name,
		Score:     g.ScoreAllocation,
		Timeframe: g.ExpectedTimeframe,
		Expanded:  b.expanded[e.Key()],
	}

	var lanes []store.TaskStatus
	for _, t := range DeriveTasks(e.PlanID, *g) {
		lane := b.Tasks.Get(e.PlanID, e.GoalID, t.ID)
		validKeys[store.TaskKey(e.PlanID, e.GoalID, t.ID)] = struct{}{}
		lanes = append(lanes, lane)

		tc := TaskCard{
			PlanID:    e.PlanID,
			PlanTitle: p.Title,
			GoalID:    e.GoalID,
			GoalName:  g.Name,
			ID:        t.ID,
			Index:     t.Index,
			Text:      t.Text,
			Lane:      lane,
		}
		switch lane {
		case store.TaskBacklog:
			card.Tasks = append(card.Tasks, tc)
		case store.TaskDone:
			card.Done++
			fallthrough
		default:
			col := laneIndex(lane)
			v.Columns[col].Tasks = append(v.Columns[col].Tasks, tc)
		}
	}
	card.Total = len(lanes)
	return card, lanes
}

// applyDerivedLocked writes derived goal statuses and the rolled-up plan
// status into p, reporting whether anything changed.
func (b *Board) applyDerivedLocked(p *plan.Plan, goals map[string]plan.GoalStatus) bool {
	changed := false
	statuses := make([]plan.GoalStatus, 0, len(p.Goals))
	for i := range p.Goals {
		if st, ok := goals[plan.NormalizeID(p.Goals[i].ID)]; ok && p.Goals[i].Status != st {
			p.Goals[i].Status = st
			changed = true
		}
		statuses = append(statuses, p.Goals[i].Status)
	}
	if st := DerivePlanStatus(statuses); p.Status != st {
		p.Status = st
		changed = true
	}
	return changed
}

func (b *Board) pruneLocked(valid []store.QueueEntry, validKeys map[string]struct{}) {
	if b.Queue.Prune(valid) {
		b.logger.Info("pruned stale queue entries", "remaining", b.Queue.Len())
	}
	if b.Tasks.Prune(validKeys) {
		b.logger.Info("pruned stale task statuses", "remaining", b.Tasks.Len())
	}
	keep := make(map[string]bool, len(valid))
	for _, e := range valid {
		keep[e.Key()] = true
	}
	for k := range b.expanded {
		if !keep[k] {
			delete(b.expanded, k)
		}
	}
	for _, id := range b.Sync.Unsynced() {
		if b.Plans.FindByID(id) == nil {
			b.Sync.Forget(id)
		}
	}
}

// Card finds a task currently on the board.
func (b *Board) Card(ref TaskRef) (TaskCard, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cardLocked(ref)
}

func (b *Board) cardLocked(ref TaskRef) (TaskCard, bool) {
	planID := plan.NormalizeID(ref.PlanID)
	goalID := plan.NormalizeID(ref.GoalID)
	taskID := plan.NormalizeID(ref.TaskID)
	if !b.Queue.IsQueued(planID, goalID) {
		return TaskCard{}, false
	}
	p := b.Plans.FindByID(planID)
	if p == nil {
		return TaskCard{}, false
	}
	g := p.FindGoal(goalID)
	if g == nil {
		return TaskCard{}, false
	}
	for _, t := range DeriveTasks(planID, *g) {
		if t.ID == taskID {
			return TaskCard{
				PlanID:    planID,
				PlanTitle: p.Title,
				GoalID:    goalID,
				GoalName:  g.Name,
				ID:        t.ID,
				Index:     t.Index,
				Text:      t.Text,
				Lane:      b.Tasks.Get(planID, goalID, t.ID),
			}, true
		}
	}
	return TaskCard{}, false
}

// MoveTask moves a task into todo, doing or done. Todo and done commit
// unconditionally. Doing runs gate first and commits only when it returns
// true; a gate error leaves the task where it was. The result reports
// whether the lane changed.
func (b *Board) MoveTask(ctx context.Context, ref TaskRef, lane store.TaskStatus, gate Gate) (bool, error) {
	if !lane.Valid() {
		return false, fmt.Errorf("unknown lane %q", lane)
	}
	if lane == store.TaskBacklog {
		return false, ErrBacklogLane
	}

	card, ok := b.Card(ref)
	if !ok {
		return false, fmt.Errorf("%s: %w", ref.TaskID, ErrUnknownTask)
	}
	if card.Lane == lane {
		return false, nil
	}

	if lane == store.TaskDoing {
		if gate == nil {
			return false, ErrNoGate
		}
		approved, err := gate(ctx, card)
		if err != nil {
			return false, err
		}
		if !approved {
			b.logger.Debug("move to doing cancelled", "task", card.ID)
			return false, nil
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Tasks.Set(card.PlanID, card.GoalID, card.ID, lane), nil
}

// DropOnGoal handles a task dropped onto a goal card. Dropping onto its own
// goal returns it to the backlog; any other goal card ignores the drop.
func (b *Board) DropOnGoal(ref TaskRef, planID, goalID string) bool {
	if store.QueueKey(ref.PlanID, ref.GoalID) != store.QueueKey(planID, goalID) {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.cardLocked(ref); !ok {
		return false
	}
	return b.Tasks.Set(ref.PlanID, ref.GoalID, ref.TaskID, store.TaskBacklog)
}

// ToggleExpanded flips a backlog goal card open or closed and returns the
// new state. Expand state lives in memory only.
func (b *Board) ToggleExpanded(planID, goalID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	k := store.QueueKey(planID, goalID)
	b.expanded[k] = !b.expanded[k]
	if !b.expanded[k] {
		delete(b.expanded, k)
		return false
	}
	return true
}

// Enqueue pins a goal to the board. Once plans are loaded the goal must
// exist in the cache.
func (b *Board) Enqueue(planID, goalID string) (bool, error) {
	if b.Plans.Loaded() {
		p := b.Plans.FindByID(planID)
		if p == nil || p.FindGoal(goalID) == nil {
			return false, fmt.Errorf("%s/%s: %w", planID, goalID, ErrUnknownGoal)
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Queue.Add(planID, goalID), nil
}

// Dequeue removes a goal from the board. Its task lanes are pruned by the
// next Render.
func (b *Board) Dequeue(planID, goalID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Queue.Remove(planID, goalID)
}

// ToggleQueued enqueues or dequeues a goal and returns whether it is queued
// afterwards.
func (b *Board) ToggleQueued(planID, goalID string) (bool, error) {
	b.mu.Lock()
	queued := b.Queue.IsQueued(planID, goalID)
	b.mu.Unlock()
	if queued {
		b.Dequeue(planID, goalID)
		return false, nil
	}
	_, err := b.Enqueue(planID, goalID)
	return err == nil, err
}

// Reconcile pushes every unsynced plan and applies accepted results to the
// plan cache. It returns the number of plans the backend accepted.
func (b *Board) Reconcile(ctx context.Context) (int, error) {
	results, err := b.Sync.Flush(ctx, b.Plans.FindByID)

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, res := range results {
		b.applyResultLocked(res)
	}
	return len(results), err
}

// ApplyResult stores the plan and remaining score returned by a create or
// update call.
func (b *Board) ApplyResult(res *plan.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.applyResultLocked(res)
}

func (b *Board) applyResultLocked(res *plan.Result) {
	if res == nil {
		return
	}
	b.Plans.Upsert(res.Plan)
	b.Plans.SetRemainingScore(res.RemainingScore)
}
