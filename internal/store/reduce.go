package store

import "taskboard/internal/task"

// State is the canonical in-memory collection plus the active filter.
type State struct {
	Tasks  []task.Task
	Filter task.Filter
}

// Action is a state transition request understood by Reduce.
type Action interface {
	isAction()
}

type SetTasks struct{ Tasks []task.Task }

// AddTask appends a fully formed task. Id and timestamps are assigned by
// the caller so Reduce stays deterministic.
type AddTask struct{ Task task.Task }

// ReplaceTask swaps in the task with the same id.
type ReplaceTask struct{ Task task.Task }

type DeleteTask struct{ ID string }

type SetFilter struct{ Filter task.Filter }

// ReorderTasks moves the task at From to To with splice semantics.
type ReorderTasks struct{ From, To int }

func (SetTasks) isAction()     {}
func (AddTask) isAction()      {}
func (ReplaceTask) isAction()  {}
func (DeleteTask) isAction()   {}
func (SetFilter) isAction()    {}
func (ReorderTasks) isAction() {}

// Reduce maps (state, action) to the next state. It never modifies the
// input state's slices; unknown actions return the state unchanged.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case SetTasks:
		s.Tasks = task.CloneAll(a.Tasks)
		if s.Tasks == nil {
			s.Tasks = []task.Task{}
		}
		return s

	case AddTask:
		next := make([]task.Task, 0, len(s.Tasks)+1)
		next = append(next, s.Tasks...)
		s.Tasks = append(next, a.Task.Clone())
		return s

	case ReplaceTask:
		next := make([]task.Task, len(s.Tasks))
		for i, t := range s.Tasks {
			if t.ID == a.Task.ID {
				next[i] = a.Task.Clone()
				continue
			}
			next[i] = t
		}
		s.Tasks = next
		return s

	case DeleteTask:
		next := make([]task.Task, 0, len(s.Tasks))
		for _, t := range s.Tasks {
			if t.ID != a.ID {
				next = append(next, t)
			}
		}
		s.Tasks = next
		return s

	case SetFilter:
		s.Filter = a.Filter
		if a.Filter.Tags != nil {
			s.Filter.Tags = append([]string(nil), a.Filter.Tags...)
		}
		return s

	case ReorderTasks:
		s.Tasks = reorder(s.Tasks, a.From, a.To)
		return s

	default:
		return s
	}
}

// reorder removes the element at from and reinserts it at to. An out of
// range from leaves the order untouched; to is clamped into [0, len-1].
func reorder(tasks []task.Task, from, to int) []task.Task {
	if from < 0 || from >= len(tasks) {
		return tasks
	}
	moved := tasks[from]
	rest := make([]task.Task, 0, len(tasks))
	rest = append(rest, tasks[:from]...)
	rest = append(rest, tasks[from+1:]...)

	if to < 0 {
		to = 0
	}
	if to > len(rest) {
		to = len(rest)
	}
	next := make([]task.Task, 0, len(tasks))
	next = append(next, rest[:to]...)
	next = append(next, moved)
	next = append(next, rest[to:]...)
	return next
}
