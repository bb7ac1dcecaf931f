package dnd

import (
	"errors"
	"log"
)

type ListItem struct {
	ID    string
	Index int
}

// ListEngine reorders items of a single list. One enter/leave counter
// covers the whole list so crossing child elements inside a drop zone does
// not clear the target.
type ListEngine struct {
	onReorder func(from, to int)
	logger    *log.Logger

	dragged   *ListItem
	target    int
	hasTarget bool
	counter   int
}

func NewListEngine(onReorder func(from, to int), logger *log.Logger) *ListEngine {
	if logger == nil {
		logger = log.Default()
	}
	return &ListEngine{onReorder: onReorder, logger: logger}
}

// DragStart begins a session and returns the text to place on the drag
// data channel.
func (e *ListEngine) DragStart(id string, index int) string {
	e.reset()
	e.dragged = &ListItem{ID: id, Index: index}
	return ListPayload(id, index).Encode()
}

func (e *ListEngine) DragEnter(index int) {
	e.counter++
	e.hover(index)
}

func (e *ListEngine) DragOver(index int) {
	e.hover(index)
}

func (e *ListEngine) DragLeave() {
	if e.counter > 0 {
		e.counter--
	}
	if e.counter == 0 {
		e.hasTarget = false
	}
}

// Drop ends the session at index. The payload, not the engine's own drag
// state, decides the origin, so a drop from another source still works.
func (e *ListEngine) Drop(payload string, index int) Outcome {
	defer e.reset()

	p, err := Decode(payload)
	if err == nil && p.Kind != KindListItem {
		err = errors.New("not a list item")
	}
	if err != nil {
		e.logger.Printf("Warning: ignoring drop: %v", err)
		return Cancelled
	}
	if *p.Index == index {
		return Unchanged
	}
	if e.onReorder != nil {
		e.onReorder(*p.Index, index)
	}
	return Moved
}

// DragEnd cancels the session, whether or not a drop happened.
func (e *ListEngine) DragEnd() {
	e.reset()
}

func (e *ListEngine) Dragging() bool {
	return e.dragged != nil
}

func (e *ListEngine) Dragged() (ListItem, bool) {
	if e.dragged == nil {
		return ListItem{}, false
	}
	return *e.dragged, true
}

func (e *ListEngine) DropTarget() (int, bool) {
	return e.target, e.hasTarget
}

func (e *ListEngine) IsDragging(index int) bool {
	return e.dragged != nil && e.dragged.Index == index
}

func (e *ListEngine) IsDropTarget(index int) bool {
	return e.hasTarget && e.target == index
}

func (e *ListEngine) hover(index int) {
	if e.dragged != nil && e.dragged.Index != index {
		e.target = index
		e.hasTarget = true
	}
}

func (e *ListEngine) reset() {
	e.dragged = nil
	e.target = 0
	e.hasTarget = false
	e.counter = 0
}
