package task

import (
	"strings"
	"time"
)

type Status string

const (
	StatusToDo       Status = "To Do"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

// Statuses lists the board columns in display order.
var Statuses = []Status{StatusToDo, StatusInProgress, StatusDone}

func (s Status) Valid() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusDone:
		return true
	default:
		return false
	}
}

// ParseStatus accepts the display form ("In Progress") and the
// command-line friendly forms ("in-progress", "inprogress", "todo").
func ParseStatus(v string) (Status, bool) {
	key := strings.ToLower(strings.TrimSpace(v))
	key = strings.NewReplacer(" ", "", "-", "", "_", "").Replace(key)
	switch key {
	case "todo":
		return StatusToDo, true
	case "inprogress":
		return StatusInProgress, true
	case "done":
		return StatusDone, true
	default:
		return "", false
	}
}

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// Rank orders priorities Low < Medium < High. Unknown values rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	default:
		return 0
	}
}

func ParsePriority(v string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "low":
		return PriorityLow, true
	case "medium", "med":
		return PriorityMedium, true
	case "high":
		return PriorityHigh, true
	default:
		return "", false
	}
}

// Task is one unit of trackable work.
type Task struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Status      Status     `json:"status" yaml:"status"`
	Priority    Priority   `json:"priority" yaml:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty" yaml:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"createdAt" yaml:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" yaml:"updated_at"`
	Tags        []string   `json:"tags,omitempty" yaml:"tags,omitempty"`
	Assignee    string     `json:"assignee,omitempty" yaml:"assignee,omitempty"`
}

// Clone returns a deep copy so callers can never alias store-owned slices.
func (t Task) Clone() Task {
	c := t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.Tags != nil {
		c.Tags = append([]string(nil), t.Tags...)
	}
	return c
}

// CloneAll deep-copies a task sequence.
func CloneAll(tasks []Task) []Task {
	if tasks == nil {
		return nil
	}
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

// Filter is a transient query descriptor. Zero values mean no constraint.
type Filter struct {
	Status   Status
	Priority Priority
	Assignee string
	Search   string
	Tags     []string
}

func (f Filter) IsZero() bool {
	return f.Status == "" && f.Priority == "" && f.Assignee == "" && f.Search == "" && len(f.Tags) == 0
}

// Fields is a candidate or partial task record as entered by a user.
// A nil pointer means the field was not supplied. A nil Tags slice means
// tags were not supplied; an empty non-nil slice clears them.
// DueDate is raw text ("2006-01-02" or RFC3339); an empty string clears it.
type Fields struct {
	Title       *string
	Description *string
	Status      *Status
	Priority    *Priority
	DueDate     *string
	Tags        []string
	Assignee    *string
}

func (f Fields) IsEmpty() bool {
	return f.Title == nil && f.Description == nil && f.Status == nil && f.Priority == nil &&
		f.DueDate == nil && f.Tags == nil && f.Assignee == nil
}

// FieldsFrom turns an existing task into a full field set, used when a
// form is pre-filled from a task being edited.
func FieldsFrom(t Task) Fields {
	due := ""
	if t.DueDate != nil {
		due = FormatDate(*t.DueDate)
	}
	tags := append([]string{}, t.Tags...)
	return Fields{
		Title:       Ptr(t.Title),
		Description: Ptr(t.Description),
		Status:      Ptr(t.Status),
		Priority:    Ptr(t.Priority),
		DueDate:     Ptr(due),
		Tags:        tags,
		Assignee:    Ptr(t.Assignee),
	}
}

func Ptr[T any](v T) *T {
	return &v
}
