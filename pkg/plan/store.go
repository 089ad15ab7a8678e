package plan

import (
	"context"
	"fmt"
	"sync"
)

// Fetcher loads the current user's plans from the backend.
type Fetcher interface {
	ListPlans(ctx context.Context) (*List, error)
}

// Store is the in-memory plan cache. It is the source of truth for names,
// score budgets and goal ordering; it never writes local storage.
//
// Store is safe for concurrent use. The fetch in Load runs without holding
// the lock.
type Store struct {
	fetcher Fetcher

	mu        sync.RWMutex
	plans     []Plan
	remaining int
	loaded    bool
	lastErr   error
}

// NewStore creates an empty plan cache backed by the given fetcher.
func NewStore(f Fetcher) *Store {
	return &Store{fetcher: f, remaining: ScoreBudget}
}

// Load fetches plans unless a successful load already happened and force is
// false. A failed fetch leaves the previous cache untouched.
func (s *Store) Load(ctx context.Context, force bool) error {
	if s.Loaded() && !force {
		return nil
	}
	list, err := s.fetcher.ListPlans(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err
		return fmt.Errorf("loading plans: %w", err)
	}
	s.plans = append([]Plan(nil), list.Plans...)
	s.remaining = list.RemainingScore
	s.loaded = true
	s.lastErr = nil
	return nil
}

// Loaded reports whether at least one load succeeded.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// LastError returns the error of the most recent failed load, cleared by a
// successful one.
func (s *Store) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Plans returns a copy of the cached plans in display order.
func (s *Store) Plans() []Plan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Plan, len(s.plans))
	for i, p := range s.plans {
		out[i] = p.Clone()
	}
	return out
}

// RemainingScore is the server-reported unallocated budget.
func (s *Store) RemainingScore() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remaining
}

// SetRemainingScore records a remaining score returned by a mutation.
func (s *Store) SetRemainingScore(n int) {
	if n < 0 {
		n = 0
	}
	s.mu.Lock()
	s.remaining = n
	s.mu.Unlock()
}

// Upsert replaces the plan with the same id, or prepends it so newly created
// plans show first.
func (s *Store) Upsert(p Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := NormalizeID(p.ID)
	for i := range s.plans {
		if NormalizeID(s.plans[i].ID) == id {
			s.plans[i] = p.Clone()
			return
		}
	}
	s.plans = append([]Plan{p.Clone()}, s.plans...)
}

// Remove drops a plan from the cache. It reports whether the plan existed.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	id = NormalizeID(id)
	for i := range s.plans {
		if NormalizeID(s.plans[i].ID) == id {
			s.plans = append(s.plans[:i], s.plans[i+1:]...)
			return true
		}
	}
	return false
}

// FindByID returns a copy of the cached plan with the given id, or nil.
func (s *Store) FindByID(id string) *Plan {
	id = NormalizeID(id)
	if id == "" {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.plans {
		if NormalizeID(s.plans[i].ID) == id {
			p := s.plans[i].Clone()
			return &p
		}
	}
	return nil
}
