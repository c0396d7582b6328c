// Package tasks is the client-side task core: the derivation pipeline that
// turns a raw task collection into a display list, and the stores that keep
// the signed-in identity's tasks and subtasks in sync with the backend.
package tasks

import (
	"fmt"
	"slices"

	"github.com/CrowderSoup/taskflow-pro/model"
)

// All matches every value of a filter dimension.
const All = "all"

// PriorityFilter is "all" or a model.Priority.
type PriorityFilter string

// StatusFilter is "all" or a model.Status.
type StatusFilter string

func ParsePriorityFilter(s string) (PriorityFilter, error) {
	if s == "" || s == All {
		return All, nil
	}
	if !model.Priority(s).Valid() {
		return "", fmt.Errorf("unknown priority filter %q", s)
	}
	return PriorityFilter(s), nil
}

func ParseStatusFilter(s string) (StatusFilter, error) {
	if s == "" || s == All {
		return All, nil
	}
	if !model.Status(s).Valid() {
		return "", fmt.Errorf("unknown status filter %q", s)
	}
	return StatusFilter(s), nil
}

func (f PriorityFilter) match(t model.Task) bool {
	return f == All || model.Priority(f) == t.Priority
}

func (f StatusFilter) match(t model.Task) bool {
	return f == All || model.Status(f) == t.Status
}

var statusRank = map[model.Status]int{
	model.StatusInProgress: 4,
	model.StatusPending:    3,
	model.StatusDone:       1,
}

var priorityRank = map[model.Priority]int{
	model.PriorityHigh:   3,
	model.PriorityMedium: 2,
	model.PriorityLow:    1,
}

// Filter keeps the tasks matching both filters, in input order.
func Filter(ts []model.Task, p PriorityFilter, s StatusFilter) []model.Task {
	out := make([]model.Task, 0, len(ts))
	for _, t := range ts {
		if p.match(t) && s.match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Sort orders by status rank then priority rank, both descending. Done tasks
// always sink to the bottom. Full ties keep their input order.
func Sort(ts []model.Task) []model.Task {
	out := slices.Clone(ts)
	slices.SortStableFunc(out, func(a, b model.Task) int {
		if d := statusRank[b.Status] - statusRank[a.Status]; d != 0 {
			return d
		}
		return priorityRank[b.Priority] - priorityRank[a.Priority]
	})
	return out
}

// Derive is the full display pipeline.
func Derive(ts []model.Task, p PriorityFilter, s StatusFilter) []model.Task {
	return Sort(Filter(ts, p, s))
}

// CountPriority counts tasks matching p in the unfiltered collection.
func CountPriority(ts []model.Task, p PriorityFilter) int {
	return len(Filter(ts, p, All))
}

// CountStatus counts tasks matching s in the unfiltered collection.
func CountStatus(ts []model.Task, s StatusFilter) int {
	return len(Filter(ts, All, s))
}
