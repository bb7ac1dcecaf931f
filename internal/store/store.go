package store

import (
	"context"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"taskboard/internal/task"
	"taskboard/internal/validate"
)

// Persister mirrors the collection somewhere durable. Save is best-effort
// and reports nothing back.
type Persister interface {
	Save(ctx context.Context, tasks []task.Task)
}

// Invalidator is notified after every change to the collection.
type Invalidator interface {
	Invalidate()
}

// Source supplies the initial collection.
type Source interface {
	Get(ctx context.Context) ([]task.Task, error)
}

const ReorderSkippedMessage = "Task order unchanged"

type Options struct {
	Persister Persister
	Cache     Invalidator
	Validator *validate.Validator
	Now       func() time.Time
	NewID     func() string
	Logger    *log.Logger
}

// Store is the single authority over the task collection. Every mutation is
// applied to memory atomically before the mirror is written; a failed write
// never rolls the mutation back.
type Store struct {
	mu    sync.RWMutex
	state State

	persister Persister
	cache     Invalidator
	validator *validate.Validator
	now       func() time.Time
	newID     func() string
	logger    *log.Logger

	saveMu   sync.Mutex
	deferred atomic.Bool
	waitMu   sync.Mutex
	writes   sync.WaitGroup
}

func New(opts Options) *Store {
	s := &Store{
		state:     State{Tasks: []task.Task{}},
		persister: opts.Persister,
		cache:     opts.Cache,
		validator: opts.Validator,
		now:       opts.Now,
		newID:     opts.NewID,
		logger:    opts.Logger,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.validator == nil {
		s.validator = &validate.Validator{Now: s.now}
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	return s
}

// Load seeds the store from src, replacing whatever it held.
func (s *Store) Load(ctx context.Context, src Source) error {
	tasks, err := src.Get(ctx)
	if err != nil {
		return err
	}
	s.dispatch(SetTasks{Tasks: tasks})
	return nil
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f := s.state.Filter
	f.Tags = append([]string(nil), f.Tags...)
	return State{Tasks: task.CloneAll(s.state.Tasks), Filter: f}
}

func (s *Store) Tasks() []task.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return task.CloneAll(s.state.Tasks)
}

func (s *Store) Filter() task.Filter {
	return s.Snapshot().Filter
}

func (s *Store) Get(id string) (task.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.state.Tasks, id); i >= 0 {
		return s.state.Tasks[i].Clone(), true
	}
	return task.Task{}, false
}

func (s *Store) AddTask(ctx context.Context, f task.Fields) task.Result {
	f = normalize(f)
	if errs := s.validator.Validate(f, validate.Create); len(errs) > 0 {
		return task.Invalid(errs)
	}

	s.mu.Lock()
	if titleTaken(s.state.Tasks, *f.Title, "") {
		s.mu.Unlock()
		return task.DuplicateTitle()
	}
	now := s.now()
	t := task.Task{
		ID:        s.freshID(),
		Status:    *f.Status,
		Priority:  *f.Priority,
		CreatedAt: now,
		UpdatedAt: now,
	}
	apply(&t, f)
	s.state = Reduce(s.state, AddTask{Task: t})
	s.mu.Unlock()

	s.changed(ctx)
	return task.Succeeded("Task created successfully", &t)
}

func (s *Store) UpdateTask(ctx context.Context, id string, f task.Fields) task.Result {
	f = normalize(f)

	s.mu.Lock()
	i := indexOf(s.state.Tasks, id)
	if i < 0 {
		s.mu.Unlock()
		return task.NotFound(id)
	}
	if errs := s.validator.Validate(f, validate.Update); len(errs) > 0 {
		s.mu.Unlock()
		return task.Invalid(errs)
	}
	if f.Title != nil && titleTaken(s.state.Tasks, *f.Title, id) {
		s.mu.Unlock()
		return task.DuplicateTitle()
	}
	t := s.state.Tasks[i].Clone()
	apply(&t, f)
	t.UpdatedAt = s.now()
	if t.UpdatedAt.Before(t.CreatedAt) {
		t.UpdatedAt = t.CreatedAt
	}
	s.state = Reduce(s.state, ReplaceTask{Task: t})
	s.mu.Unlock()

	s.changed(ctx)
	return task.Succeeded("Task updated successfully", &t)
}

// MoveTask changes only the status of a task. It is what the kanban board
// calls when a card lands in another column.
func (s *Store) MoveTask(ctx context.Context, id string, status task.Status) task.Result {
	return s.UpdateTask(ctx, id, task.Fields{Status: &status})
}

func (s *Store) DeleteTask(ctx context.Context, id string) task.Result {
	s.mu.Lock()
	if indexOf(s.state.Tasks, id) < 0 {
		s.mu.Unlock()
		return task.NotFound(id)
	}
	s.state = Reduce(s.state, DeleteTask{ID: id})
	s.mu.Unlock()

	s.changed(ctx)
	return task.Succeeded("Task deleted successfully", nil)
}

// SetFilter replaces the filter. It neither persists nor invalidates.
func (s *Store) SetFilter(f task.Filter) task.Result {
	s.dispatch(SetFilter{Filter: f})
	return task.Succeeded("Filter updated", nil)
}

// ReorderTasks moves the task at from to position to. An out of range from
// is ignored; to is clamped. The mirror write is deferred and coalesced with
// other pending reorders, so only the latest order is guaranteed to land.
// Both the move and the ignored case report success.
func (s *Store) ReorderTasks(from, to int) task.Result {
	s.mu.Lock()
	if from < 0 || from >= len(s.state.Tasks) {
		s.mu.Unlock()
		return task.Succeeded(ReorderSkippedMessage, nil)
	}
	s.state = Reduce(s.state, ReorderTasks{From: from, To: to})
	s.mu.Unlock()

	s.invalidate()
	s.persistLater()
	return task.Succeeded("Task order updated", nil)
}

// Wait blocks until deferred mirror writes have finished. Reorders issued
// while it waits are held back until it returns.
func (s *Store) Wait() {
	s.waitMu.Lock()
	defer s.waitMu.Unlock()
	s.writes.Wait()
}

func (s *Store) dispatch(a Action) {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	s.mu.Unlock()
}

func (s *Store) changed(ctx context.Context) {
	s.persist(ctx)
	s.invalidate()
}

func (s *Store) invalidate() {
	if s.cache != nil {
		s.cache.Invalidate()
	}
}

// persist writes the collection as it is when the write lock is taken, so
// concurrent writers always land in state order.
func (s *Store) persist(ctx context.Context) {
	if s.persister == nil {
		return
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	s.persister.Save(ctx, s.Tasks())
}

func (s *Store) persistLater() {
	if s.persister == nil {
		return
	}
	if !s.deferred.CompareAndSwap(false, true) {
		return
	}
	s.waitMu.Lock()
	s.writes.Add(1)
	s.waitMu.Unlock()
	go func() {
		defer s.writes.Done()
		s.deferred.Store(false)
		s.persist(context.Background())
	}()
}

func (s *Store) freshID() string {
	for {
		id := s.newID()
		if id != "" && indexOf(s.state.Tasks, id) < 0 {
			return id
		}
		s.logger.Printf("Warning: regenerating colliding task id %q", id)
	}
}

func indexOf(tasks []task.Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// titleTaken reports whether any task other than exceptID already uses
// title, compared case-insensitively.
func titleTaken(tasks []task.Task, title, exceptID string) bool {
	title = strings.TrimSpace(title)
	for _, t := range tasks {
		if t.ID == exceptID {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(t.Title), title) {
			return true
		}
	}
	return false
}

func normalize(f task.Fields) task.Fields {
	if f.Title != nil {
		f.Title = task.Ptr(strings.TrimSpace(*f.Title))
	}
	if f.Assignee != nil {
		f.Assignee = task.Ptr(strings.TrimSpace(*f.Assignee))
	}
	f.Tags = task.NormalizeTags(f.Tags)
	return f
}

// apply merges validated fields into t.
func apply(t *task.Task, f task.Fields) {
	if f.Title != nil {
		t.Title = *f.Title
	}
	if f.Description != nil {
		t.Description = *f.Description
	}
	if f.Status != nil {
		t.Status = *f.Status
	}
	if f.Priority != nil {
		t.Priority = *f.Priority
	}
	if f.DueDate != nil {
		t.DueDate = nil
		if strings.TrimSpace(*f.DueDate) != "" {
			if due, err := task.ParseDate(*f.DueDate); err == nil {
				t.DueDate = &due
			}
		}
	}
	if f.Tags != nil {
		t.Tags = nil
		if len(f.Tags) > 0 {
			t.Tags = append([]string(nil), f.Tags...)
		}
	}
	if f.Assignee != nil {
		t.Assignee = *f.Assignee
	}
}
