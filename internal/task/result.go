package task

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrDuplicateTitle = errors.New("duplicate title")
	ErrNotFound       = errors.New("task not found")
)

const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldStatus      = "status"
	FieldPriority    = "priority"
	FieldDueDate     = "dueDate"
	FieldTags        = "tags"
	FieldAssignee    = "assignee"
	FieldForm        = "form"
)

const DuplicateTitleMessage = "A task with this title already exists"

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) String() string {
	return e.Field + ": " + e.Message
}

// Result is returned by every mutating store operation. Failures are data,
// never panics or Go errors.
type Result struct {
	Success bool              `json:"success"`
	Errors  []ValidationError `json:"errors,omitempty"`
	Message string            `json:"message,omitempty"`
	// Task is the created or updated task on success.
	Task *Task `json:"task,omitempty"`

	kind error
}

func Succeeded(message string, t *Task) Result {
	return Result{Success: true, Message: message, Task: t}
}

func Invalid(errs []ValidationError) Result {
	return Result{Errors: errs, kind: ErrValidation}
}

func DuplicateTitle() Result {
	return Result{
		Errors: []ValidationError{{Field: FieldTitle, Message: DuplicateTitleMessage}},
		kind:   ErrDuplicateTitle,
	}
}

func NotFound(id string) Result {
	return Result{Message: fmt.Sprintf("Task with id %s not found", id), kind: ErrNotFound}
}

// Err converts a failed result into an error matching one of the package
// sentinels. It returns nil for a successful result.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	kind := r.kind
	if kind == nil {
		kind = ErrValidation
	}
	detail := r.Message
	if len(r.Errors) > 0 {
		parts := make([]string, len(r.Errors))
		for i, e := range r.Errors {
			parts[i] = e.String()
		}
		detail = strings.Join(parts, "; ")
	}
	if detail == "" {
		return kind
	}
	return fmt.Errorf("%w: %s", kind, detail)
}

// FieldError returns the first message reported for field, if any.
func (r Result) FieldError(field string) (string, bool) {
	for _, e := range r.Errors {
		if e.Field == field {
			return e.Message, true
		}
	}
	return "", false
}
