// Package sync pushes optimistically derived plan status back to the backend
// and remembers which plans the backend has not accepted yet.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	gosync "sync"

	"github.com/stefanpenner/tempo/pkg/plan"
	"github.com/stefanpenner/tempo/pkg/store"
)

// PlanUpdater sends a full plan update to the backend.
type PlanUpdater interface {
	UpdatePlan(ctx context.Context, id string, d plan.Draft) (*plan.Result, error)
}

// Reconciler tracks unsynced plans in storage and pushes them.
//
// A plan is marked unsynced before its push starts and is cleared only when
// the backend accepts it, so a failed push is retried by the next Flush.
type Reconciler struct {
	updater PlanUpdater
	storage store.Storage
	logger  *slog.Logger

	mu       gosync.Mutex
	unsynced map[string]bool
}

// NewReconciler loads the persisted unsynced set.
func NewReconciler(updater PlanUpdater, storage store.Storage, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Reconciler{updater: updater, storage: storage, logger: logger}
	r.Reload()
	return r
}

// Reload re-reads the unsynced set from storage.
func (r *Reconciler) Reload() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.unsynced = make(map[string]bool)
	data, ok, err := r.storage.Get(store.KeyUnsyncedPlans)
	if err != nil {
		r.logger.Warn("reading unsynced plans", "err", err)
		return
	}
	if !ok || len(data) == 0 {
		return
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		r.logger.Warn("unsynced plan list is corrupt, starting empty", "err", err)
		return
	}
	for _, id := range ids {
		if id = plan.NormalizeID(id); id != "" {
			r.unsynced[id] = true
		}
	}
}

// MarkDirty records that the plan has local changes the backend has not
// seen. It reports whether the mark is new.
func (r *Reconciler) MarkDirty(planID string) bool {
	planID = plan.NormalizeID(planID)
	if planID == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unsynced[planID] {
		return false
	}
	r.unsynced[planID] = true
	r.persistLocked()
	return true
}

// Forget drops the unsynced mark without pushing, e.g. after the plan was
// deleted.
func (r *Reconciler) Forget(planID string) bool {
	planID = plan.NormalizeID(planID)
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.unsynced[planID] {
		return false
	}
	delete(r.unsynced, planID)
	r.persistLocked()
	return true
}

// IsUnsynced reports whether the plan is waiting for a successful push.
func (r *Reconciler) IsUnsynced(planID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unsynced[plan.NormalizeID(planID)]
}

// Unsynced returns the unsynced plan ids in sorted order.
func (r *Reconciler) Unsynced() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.unsynced))
	for id := range r.unsynced {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Push sends p to the backend. The plan stays unsynced when the call fails.
func (r *Reconciler) Push(ctx context.Context, p plan.Plan) (*plan.Result, error) {
	id := plan.NormalizeID(p.ID)
	r.logger.Debug("pushing plan", "plan", id, "status", p.Status)

	res, err := r.updater.UpdatePlan(ctx, id, plan.DraftFromPlan(p))
	if err != nil {
		r.logger.Warn("plan push failed, keeping it unsynced", "plan", id, "err", err)
		return nil, fmt.Errorf("pushing plan %s: %w", id, err)
	}
	r.Forget(id)
	return res, nil
}

// Flush pushes every unsynced plan. lookup returns the current cached plan;
// ids it cannot resolve are forgotten. Results of successful pushes are
// returned even when other pushes fail.
func (r *Reconciler) Flush(ctx context.Context, lookup func(id string) *plan.Plan) ([]*plan.Result, error) {
	var results []*plan.Result
	var errs []error
	for _, id := range r.Unsynced() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		p := lookup(id)
		if p == nil {
			r.logger.Info("dropping unsynced mark for unknown plan", "plan", id)
			r.Forget(id)
			continue
		}
		res, err := r.Push(ctx, *p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func (r *Reconciler) persistLocked() {
	ids := make([]string, 0, len(r.unsynced))
	for id := range r.unsynced {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	data, err := json.Marshal(ids)
	if err != nil {
		r.logger.Warn("encoding unsynced plans", "err", err)
		return
	}
	if err := r.storage.Set(store.KeyUnsyncedPlans, data); err != nil {
		r.logger.Warn("saving unsynced plans", "err", err)
	}
}
