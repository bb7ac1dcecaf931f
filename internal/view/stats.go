package view

import (
	"math"
	"slices"
	"time"

	"taskboard/internal/task"
)

type Stats struct {
	Total          int
	ToDo           int
	InProgress     int
	Done           int
	CompletionRate int // percent, rounded
}

func ComputeStats(tasks []task.Task) Stats {
	var s Stats
	s.Total = len(tasks)
	for _, t := range tasks {
		switch t.Status {
		case task.StatusToDo:
			s.ToDo++
		case task.StatusInProgress:
			s.InProgress++
		case task.StatusDone:
			s.Done++
		}
	}
	if s.Total > 0 {
		s.CompletionRate = int(math.Round(float64(s.Done) / float64(s.Total) * 100))
	}
	return s
}

type PriorityBreakdown struct {
	High   int
	Medium int
	Low    int
}

func ComputePriorities(tasks []task.Task) PriorityBreakdown {
	var p PriorityBreakdown
	for _, t := range tasks {
		switch t.Priority {
		case task.PriorityHigh:
			p.High++
		case task.PriorityMedium:
			p.Medium++
		case task.PriorityLow:
			p.Low++
		}
	}
	return p
}

func (p PriorityBreakdown) Count(pr task.Priority) int {
	switch pr {
	case task.PriorityHigh:
		return p.High
	case task.PriorityMedium:
		return p.Medium
	case task.PriorityLow:
		return p.Low
	}
	return 0
}

// Upcoming returns tasks due within [now, now+7d], soonest first.
func Upcoming(tasks []task.Task, now time.Time) []task.Task {
	end := now.Add(UpcomingWindow)
	var out []task.Task
	for _, t := range tasks {
		if t.DueDate == nil {
			continue
		}
		if t.DueDate.Before(now) || t.DueDate.After(end) {
			continue
		}
		out = append(out, t)
	}
	slices.SortStableFunc(out, func(a, b task.Task) int {
		return a.DueDate.Compare(*b.DueDate)
	})
	return out
}

// Recent returns up to n tasks ordered by last update, newest first.
func Recent(tasks []task.Task, n int) []task.Task {
	out := slices.Clone(tasks)
	slices.SortStableFunc(out, func(a, b task.Task) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Board groups tasks by status column. Each column keeps collection order
// and every column is present even when empty.
func Board(tasks []task.Task) map[task.Status][]task.Task {
	b := make(map[task.Status][]task.Task, len(task.Statuses))
	for _, s := range task.Statuses {
		b[s] = []task.Task{}
	}
	for _, t := range tasks {
		if _, ok := b[t.Status]; ok {
			b[t.Status] = append(b[t.Status], t)
		}
	}
	return b
}
