package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/stefanpenner/tempo/pkg/plan"
)

// ListPlans returns the user's plans and remaining budget.
func (c *Client) ListPlans(ctx context.Context) (*plan.List, error) {
	var list plan.List
	if err := c.do(ctx, http.MethodGet, "/api/plans", nil, &list, requestOpts{}); err != nil {
		return nil, err
	}
	return &list, nil
}

// CreatePlan creates a plan. The draft is not validated here; callers run
// plan.ValidateDraft first.
func (c *Client) CreatePlan(ctx context.Context, d plan.Draft) (*plan.Result, error) {
	var res plan.Result
	if err := c.do(ctx, http.MethodPost, "/api/plans", d, &res, requestOpts{}); err != nil {
		return nil, err
	}
	return &res, nil
}

// UpdatePlan replaces a plan's fields and goals.
func (c *Client) UpdatePlan(ctx context.Context, id string, d plan.Draft) (*plan.Result, error) {
	id = plan.NormalizeID(id)
	if id == "" {
		return nil, errors.New("plan id is required")
	}
	var res plan.Result
	if err := c.do(ctx, http.MethodPut, "/api/plans/"+url.PathEscape(id), d, &res, requestOpts{}); err != nil {
		return nil, err
	}
	return &res, nil
}

// DeleteResult is the payload of DELETE /api/plans/{id}.
type DeleteResult struct {
	Deleted        bool `json:"deleted"`
	RemainingScore int  `json:"remaining_score"`
}

// DeletePlan deletes a plan and returns the new remaining budget.
func (c *Client) DeletePlan(ctx context.Context, id string) (*DeleteResult, error) {
	id = plan.NormalizeID(id)
	if id == "" {
		return nil, errors.New("plan id is required")
	}
	var res DeleteResult
	if err := c.do(ctx, http.MethodDelete, "/api/plans/"+url.PathEscape(id), nil, &res, requestOpts{}); err != nil {
		return nil, err
	}
	return &res, nil
}

// UpdateGoalStatus sets one goal's status directly.
func (c *Client) UpdateGoalStatus(ctx context.Context, goalID string, status plan.GoalStatus) (*plan.Result, error) {
	goalID = plan.NormalizeID(goalID)
	if goalID == "" {
		return nil, errors.New("goal id is required")
	}
	if !status.Valid() {
		return nil, fmt.Errorf("invalid goal status %q", status)
	}
	body := map[string]plan.GoalStatus{"status": status}
	var res plan.Result
	if err := c.do(ctx, http.MethodPatch, "/api/plan-goals/"+url.PathEscape(goalID)+"/status", body, &res, requestOpts{}); err != nil {
		return nil, err
	}
	return &res, nil
}

// ReorderGoals persists a new goal order. goalIDs must be non-empty and
// free of duplicates.
func (c *Client) ReorderGoals(ctx context.Context, planID string, goalIDs []string) (*plan.Plan, error) {
	planID = plan.NormalizeID(planID)
	if planID == "" {
		return nil, errors.New("plan id is required")
	}
	if len(goalIDs) == 0 {
		return nil, errors.New("goal order is empty")
	}
	seen := make(map[string]bool, len(goalIDs))
	ids := make([]string, 0, len(goalIDs))
	for _, id := range goalIDs {
		id = plan.NormalizeID(id)
		if id == "" {
			return nil, errors.New("goal order contains an empty id")
		}
		if seen[id] {
			return nil, fmt.Errorf("goal %s appears twice", id)
		}
		seen[id] = true
		ids = append(ids, id)
	}

	body := map[string][]string{"goal_ids": ids}
	var res struct {
		Plan plan.Plan `json:"plan"`
	}
	if err := c.do(ctx, http.MethodPatch, "/api/plans/"+url.PathEscape(planID)+"/goal-order", body, &res, requestOpts{}); err != nil {
		return nil, err
	}
	return &res.Plan, nil
}
