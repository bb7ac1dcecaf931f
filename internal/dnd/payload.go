// Package dnd tracks drag-and-drop sessions for the list and kanban views.
//
// Drag state is interaction-local: it is discarded on drop, drag end and
// cancellation and never reaches the task store except through the
// engines' callbacks.
package dnd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"taskboard/internal/task"
)

var ErrMalformedPayload = errors.New("malformed drag payload")

type Kind string

const (
	KindListItem   Kind = "list-item"
	KindKanbanCard Kind = "kanban-card"
)

// Payload is the envelope carried through the text drag-data channel.
// Index is set for list items, Status for kanban cards.
type Payload struct {
	Kind   Kind        `json:"kind"`
	ID     string      `json:"id"`
	Index  *int        `json:"index,omitempty"`
	Status task.Status `json:"status,omitempty"`
}

func (p Payload) Encode() string {
	data, err := json.Marshal(p)
	if err != nil {
		// Payload holds only strings and an int.
		panic(err)
	}
	return string(data)
}

func ListPayload(id string, index int) Payload {
	return Payload{Kind: KindListItem, ID: id, Index: &index}
}

func KanbanPayload(id string, status task.Status) Payload {
	return Payload{Kind: KindKanbanCard, ID: id, Status: status}
}

// Decode parses and validates text produced by Encode. Any deviation is
// reported as ErrMalformedPayload.
func Decode(text string) (Payload, error) {
	var p Payload
	dec := json.NewDecoder(strings.NewReader(text))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if dec.More() {
		return Payload{}, fmt.Errorf("%w: trailing data", ErrMalformedPayload)
	}
	if p.ID == "" {
		return Payload{}, fmt.Errorf("%w: missing id", ErrMalformedPayload)
	}
	switch p.Kind {
	case KindListItem:
		if p.Index == nil || *p.Index < 0 {
			return Payload{}, fmt.Errorf("%w: missing origin index", ErrMalformedPayload)
		}
	case KindKanbanCard:
		if !p.Status.Valid() {
			return Payload{}, fmt.Errorf("%w: invalid origin status %q", ErrMalformedPayload, p.Status)
		}
	default:
		return Payload{}, fmt.Errorf("%w: unknown kind %q", ErrMalformedPayload, p.Kind)
	}
	return p, nil
}

// Outcome reports how a drop ended.
type Outcome int

const (
	// Cancelled means the payload was unusable; nothing happened.
	Cancelled Outcome = iota
	// Unchanged means the item was dropped where it came from.
	Unchanged
	// Moved means the engine's callback fired.
	Moved
)

func (o Outcome) String() string {
	switch o {
	case Unchanged:
		return "unchanged"
	case Moved:
		return "moved"
	default:
		return "cancelled"
	}
}
