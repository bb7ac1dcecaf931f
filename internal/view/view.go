// Package view derives read-only projections from the task collection:
// filtered and sorted lists, board columns, statistics and deadlines.
// Nothing here mutates its input or caches results.
package view

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"taskboard/internal/task"
)

const UpcomingWindow = 7 * 24 * time.Hour

// Matches reports whether t satisfies every constraint set on f.
func Matches(t task.Task, f task.Filter) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Assignee != "" && !containsFold(t.Assignee, f.Assignee) {
		return false
	}
	if f.Search != "" && !containsFold(t.Title, f.Search) && !containsFold(t.Description, f.Search) {
		return false
	}
	if len(f.Tags) > 0 && !sharesTag(t.Tags, f.Tags) {
		return false
	}
	return true
}

// Filter returns the tasks matching f in collection order.
func Filter(tasks []task.Task, f task.Filter) []task.Task {
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if Matches(t, f) {
			out = append(out, t)
		}
	}
	return out
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(sub)))
}

func sharesTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}

type SortKey string

const (
	SortCreated  SortKey = "createdAt"
	SortDueDate  SortKey = "dueDate"
	SortPriority SortKey = "priority"
	// SortManual keeps collection order, the order drag reordering edits.
	SortManual   SortKey = "manual"
)

var SortKeys = []SortKey{SortCreated, SortDueDate, SortPriority, SortManual}

func ParseSortKey(s string) (SortKey, error) {
	for _, k := range SortKeys {
		if strings.EqualFold(s, string(k)) {
			return k, nil
		}
	}
	switch strings.ToLower(s) {
	case "created", "creation":
		return SortCreated, nil
	case "due", "due-date", "due_date":
		return SortDueDate, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

func (k SortKey) Label() string {
	switch k {
	case SortDueDate:
		return "Due Date"
	case SortPriority:
		return "Priority"
	case SortManual:
		return "Manual"
	default:
		return "Creation Date"
	}
}

type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(s) {
	case "asc", "ascending":
		return Asc, nil
	case "desc", "descending":
		return Desc, nil
	}
	return "", fmt.Errorf("unknown sort order %q", s)
}

func (o Order) Arrow() string {
	if o == Asc {
		return "↑"
	}
	return "↓"
}

// Sorting is the list view's current sort selection.
type Sorting struct {
	Key   SortKey
	Order Order
}

// DefaultSorting shows the newest tasks first.
var DefaultSorting = Sorting{Key: SortCreated, Order: Desc}

// Toggle flips the direction when key is already active and otherwise
// switches to key in ascending order.
func (s Sorting) Toggle(key SortKey) Sorting {
	if s.Key == key {
		if s.Order == Asc {
			return Sorting{Key: key, Order: Desc}
		}
		return Sorting{Key: key, Order: Asc}
	}
	return Sorting{Key: key, Order: Asc}
}

// Sort returns a sorted copy of tasks. Ties keep collection order. A
// missing due date compares lowest, so it leads ascending and trails
// descending.
func Sort(tasks []task.Task, s Sorting) []task.Task {
	out := slices.Clone(tasks)
	slices.SortStableFunc(out, func(a, b task.Task) int {
		c := compare(a, b, s.Key)
		if s.Order == Desc {
			return -c
		}
		return c
	})
	return out
}

func compare(a, b task.Task, key SortKey) int {
	switch key {
	case SortDueDate:
		return cmp.Compare(dueUnix(a), dueUnix(b))
	case SortPriority:
		return cmp.Compare(a.Priority.Rank(), b.Priority.Rank())
	case SortManual:
		return 0
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func dueUnix(t task.Task) int64 {
	if t.DueDate == nil {
		return math.MinInt64
	}
	return t.DueDate.UnixMilli()
}

// Visible applies the filter and then the sort.
func Visible(tasks []task.Task, f task.Filter, s Sorting) []task.Task {
	return Sort(Filter(tasks, f), s)
}
