package dnd

import (
	"errors"
	"log"

	"taskboard/internal/task"
)

type KanbanItem struct {
	ID         string
	FromStatus task.Status
}

// KanbanEngine moves cards between status columns. Each column keeps its
// own enter/leave counter: while the pointer crosses a boundary, one
// column's leave may arrive after the next column's enter and must not
// clear that column's target.
type KanbanEngine struct {
	onMove func(id string, status task.Status)
	logger *log.Logger

	dragged  *KanbanItem
	target   task.Status
	counters map[task.Status]int
}

func NewKanbanEngine(onMove func(id string, status task.Status), logger *log.Logger) *KanbanEngine {
	if logger == nil {
		logger = log.Default()
	}
	e := &KanbanEngine{onMove: onMove, logger: logger}
	e.reset()
	return e
}

func (e *KanbanEngine) DragStart(id string, from task.Status) string {
	e.reset()
	e.dragged = &KanbanItem{ID: id, FromStatus: from}
	return KanbanPayload(id, from).Encode()
}

// DragEnter ignores statuses that are not board columns.
func (e *KanbanEngine) DragEnter(status task.Status) {
	if !status.Valid() {
		return
	}
	e.counters[status]++
	e.hover(status)
}

func (e *KanbanEngine) DragOver(status task.Status) {
	if !status.Valid() {
		return
	}
	e.hover(status)
}

func (e *KanbanEngine) DragLeave(status task.Status) {
	if !status.Valid() {
		return
	}
	if e.counters[status] > 0 {
		e.counters[status]--
	}
	if e.counters[status] == 0 && e.target == status {
		e.target = ""
	}
}

func (e *KanbanEngine) Drop(payload string, status task.Status) Outcome {
	defer e.reset()

	p, err := Decode(payload)
	if err == nil && p.Kind != KindKanbanCard {
		err = errors.New("not a kanban card")
	}
	if err == nil && !status.Valid() {
		err = errors.New("drop outside a column")
	}
	if err != nil {
		e.logger.Printf("Warning: ignoring drop: %v", err)
		return Cancelled
	}
	if p.Status == status {
		return Unchanged
	}
	if e.onMove != nil {
		e.onMove(p.ID, status)
	}
	return Moved
}

func (e *KanbanEngine) DragEnd() {
	e.reset()
}

func (e *KanbanEngine) Dragging() bool {
	return e.dragged != nil
}

func (e *KanbanEngine) Dragged() (KanbanItem, bool) {
	if e.dragged == nil {
		return KanbanItem{}, false
	}
	return *e.dragged, true
}

func (e *KanbanEngine) DropTarget() (task.Status, bool) {
	return e.target, e.target != ""
}

func (e *KanbanEngine) IsDraggingTask(id string) bool {
	return e.dragged != nil && e.dragged.ID == id
}

func (e *KanbanEngine) IsDropTarget(status task.Status) bool {
	return e.target != "" && e.target == status
}

// Counter exposes a column's enter/leave depth.
func (e *KanbanEngine) Counter(status task.Status) int {
	return e.counters[status]
}

func (e *KanbanEngine) hover(status task.Status) {
	if e.dragged != nil && e.dragged.FromStatus != status {
		e.target = status
	}
}

func (e *KanbanEngine) reset() {
	e.dragged = nil
	e.target = ""
	e.counters = make(map[task.Status]int, len(task.Statuses))
	for _, s := range task.Statuses {
		e.counters[s] = 0
	}
}
