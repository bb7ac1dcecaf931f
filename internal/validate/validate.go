// Package validate checks candidate task fields and reports field-level
// errors. It knows nothing about other tasks: title uniqueness and tag
// deduplication belong to the store.
package validate

import (
	"strings"
	"time"
	"unicode/utf8"

	"taskboard/internal/task"
)

type Mode int

const (
	// Create checks every required field and rejects stale due dates.
	Create Mode = iota
	// Update checks only supplied fields and accepts any valid due date.
	Update
)

func (m Mode) String() string {
	if m == Update {
		return "update"
	}
	return "create"
}

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
	MaxAssigneeLength    = 50

	// DueDateTolerance absorbs timezone skew when comparing a due date
	// against "today".
	DueDateTolerance = 24 * time.Hour
)

// Validator validates field sets. Now defaults to time.Now.
type Validator struct {
	Now func() time.Time
}

func New() *Validator {
	return &Validator{Now: time.Now}
}

// Validate is shorthand for New().Validate.
func Validate(f task.Fields, mode Mode) []task.ValidationError {
	return New().Validate(f, mode)
}

// Validate returns errors in field order: title, description, status,
// priority, dueDate, assignee, tags. An empty result means the fields are
// valid.
func (v *Validator) Validate(f task.Fields, mode Mode) []task.ValidationError {
	var errs []task.ValidationError
	add := func(field, msg string) {
		errs = append(errs, task.ValidationError{Field: field, Message: msg})
	}

	if mode == Update && f.IsEmpty() {
		add(task.FieldForm, "At least one field must be provided for update")
		return errs
	}

	switch {
	case f.Title == nil && mode == Create:
		add(task.FieldTitle, "Title is required")
	case f.Title != nil:
		title := strings.TrimSpace(*f.Title)
		if title == "" {
			add(task.FieldTitle, "Title is required")
		} else if utf8.RuneCountInString(title) > MaxTitleLength {
			add(task.FieldTitle, "Title must be less than 100 characters")
		}
	}

	if f.Description != nil && utf8.RuneCountInString(*f.Description) > MaxDescriptionLength {
		add(task.FieldDescription, "Description must be less than 500 characters")
	}

	switch {
	case f.Status == nil && mode == Create:
		add(task.FieldStatus, "Status is required")
	case f.Status != nil && !f.Status.Valid():
		add(task.FieldStatus, "Status must be one of To Do, In Progress, Done")
	}

	switch {
	case f.Priority == nil && mode == Create:
		add(task.FieldPriority, "Priority is required")
	case f.Priority != nil && !f.Priority.Valid():
		add(task.FieldPriority, "Priority must be one of Low, Medium, High")
	}

	if f.DueDate != nil && strings.TrimSpace(*f.DueDate) != "" {
		due, err := task.ParseDate(*f.DueDate)
		switch {
		case err != nil:
			add(task.FieldDueDate, "Due date must be a valid date")
		case mode == Create && due.Before(v.now().Add(-DueDateTolerance)):
			add(task.FieldDueDate, "Due date must be today or in the future")
		}
	}

	if f.Assignee != nil && utf8.RuneCountInString(*f.Assignee) > MaxAssigneeLength {
		add(task.FieldAssignee, "Assignee name must be less than 50 characters")
	}

	if f.Tags != nil {
		if len(f.Tags) > task.MaxTags {
			add(task.FieldTags, "Maximum 10 tags allowed")
		}
		for _, tag := range f.Tags {
			if utf8.RuneCountInString(tag) > task.MaxTagLength {
				add(task.FieldTags, "Each tag must be less than 20 characters")
				break
			}
		}
	}

	return errs
}

func (v *Validator) now() time.Time {
	if v.Now == nil {
		return time.Now()
	}
	return v.Now()
}
