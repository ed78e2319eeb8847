package api

import (
	"errors"
	"fmt"
	"strings"

	"taskdeck/internal/model"
)

// OrderAssignment is one order-key write needed to persist a reorder.
type OrderAssignment struct {
	ID    string
	Order float64
}

// PlanReorder maps the original page's order keys onto the reordered ids.
//
// The set of keys in use on the page is preserved; only their assignment to
// ids changes. Keys are never renumbered beyond the page, so a reorder cannot
// disturb tasks on other pages.
func PlanReorder(reordered, original []model.Task) ([]OrderAssignment, error) {
	if len(reordered) != len(original) {
		return nil, fmt.Errorf("reorder: %d tasks reordered but %d original", len(reordered), len(original))
	}
	seen := make(map[string]bool, len(original))
	for _, t := range original {
		seen[strings.TrimSpace(t.ID)] = true
	}
	for _, t := range reordered {
		if !seen[strings.TrimSpace(t.ID)] {
			return nil, errors.New("reorder: reordered set differs from original page")
		}
	}

	slots := SlotOrders(original)
	var out []OrderAssignment
	for i, t := range reordered {
		if t.HasOrder() && t.OrderValue() == slots[i] {
			continue
		}
		out = append(out, OrderAssignment{ID: t.ID, Order: slots[i]})
	}
	return out, nil
}

// SlotOrders returns the order key of each position on the original page.
// Tasks without a key take the previous slot's key plus one (or 0 for the
// first slot), which keeps the slots non-decreasing for a sorted page.
func SlotOrders(original []model.Task) []float64 {
	slots := make([]float64, len(original))
	for i, t := range original {
		switch {
		case t.HasOrder():
			slots[i] = t.OrderValue()
		case i == 0:
			slots[i] = 0
		default:
			slots[i] = slots[i-1] + 1
		}
	}
	return slots
}

// ApplyPlan returns tasks with their order keys rewritten per plan.
func ApplyPlan(tasks []model.Task, plan []OrderAssignment) []model.Task {
	byID := make(map[string]float64, len(plan))
	for _, a := range plan {
		byID[a.ID] = a.Order
	}
	out := model.CloneTasks(tasks)
	for i := range out {
		if o, ok := byID[out[i].ID]; ok {
			out[i].Order = model.Float(o)
		}
	}
	return out
}
