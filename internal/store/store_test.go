package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"taskboard/internal/cache"
	"taskboard/internal/storage"
	"taskboard/internal/task"
)

var fixedNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

// --- fakes ---

type recordingPersister struct {
	mu    sync.Mutex
	saves [][]task.Task
}

func (p *recordingPersister) Save(_ context.Context, tasks []task.Task) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves = append(p.saves, tasks)
}

func (p *recordingPersister) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.saves)
}

func (p *recordingPersister) last() []task.Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.saves) == 0 {
		return nil
	}
	return p.saves[len(p.saves)-1]
}

type countingInvalidator struct {
	mu sync.Mutex
	n  int
}

func (c *countingInvalidator) Invalidate() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func (c *countingInvalidator) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

type staticSource struct {
	tasks []task.Task
	err   error
}

func (s staticSource) Get(context.Context) ([]task.Task, error) {
	return s.tasks, s.err
}

type harness struct {
	store *Store
	saved *recordingPersister
	inval *countingInvalidator
}

func newHarness(t *testing.T, tasks ...task.Task) harness {
	t.Helper()
	h := harness{saved: &recordingPersister{}, inval: &countingInvalidator{}}
	seq := 0
	h.store = New(Options{
		Persister: h.saved,
		Cache:     h.inval,
		Now:       func() time.Time { return fixedNow },
		NewID: func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		},
		Logger: log.New(io.Discard, "", 0),
	})
	if err := h.store.Load(context.Background(), staticSource{tasks: tasks}); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return h
}

func existing(id, title string, status task.Status) task.Task {
	created := fixedNow.Add(-72 * time.Hour)
	return task.Task{ID: id, Title: title, Status: status, Priority: task.PriorityMedium, CreatedAt: created, UpdatedAt: created}
}

func draft(title string) task.Fields {
	return task.Fields{
		Title:    task.Ptr(title),
		Status:   task.Ptr(task.StatusToDo),
		Priority: task.Ptr(task.PriorityHigh),
	}
}

func titles(tasks []task.Task) string {
	parts := make([]string, len(tasks))
	for i, t := range tasks {
		parts[i] = t.Title
	}
	return strings.Join(parts, ",")
}

// --- add ---

func TestAddTaskAssignsIdentityAndTimestamps(t *testing.T) {
	h := newHarness(t, existing("a", "Existing", task.StatusToDo))

	res := h.store.AddTask(context.Background(), draft("  New thing  "))
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Message != "Task created successfully" {
		t.Fatalf("unexpected message %q", res.Message)
	}
	got := res.Task
	if got.ID != "id-1" {
		t.Fatalf("expected generated id, got %q", got.ID)
	}
	if !got.CreatedAt.Equal(got.UpdatedAt) || !got.CreatedAt.Equal(fixedNow) {
		t.Fatalf("createdAt must equal updatedAt at creation: %+v", got)
	}
	if got.Title != "New thing" {
		t.Fatalf("title should be trimmed, got %q", got.Title)
	}

	tasks := h.store.Tasks()
	if len(tasks) != 2 || tasks[1].ID != "id-1" {
		t.Fatalf("task must be appended, got %+v", tasks)
	}
	if h.saved.count() != 1 || len(h.saved.last()) != 2 {
		t.Fatalf("expected one mirror write of two tasks")
	}
	if h.inval.count() != 1 {
		t.Fatalf("expected cache invalidation, got %d", h.inval.count())
	}
}

func TestAddTaskIDsAreUnique(t *testing.T) {
	h := newHarness(t)
	calls := 0
	h.store.newID = func() string {
		calls++
		if calls <= 2 {
			return "same"
		}
		return fmt.Sprintf("other-%d", calls)
	}
	first := h.store.AddTask(context.Background(), draft("one"))
	second := h.store.AddTask(context.Background(), draft("two"))
	if !first.Success || !second.Success {
		t.Fatalf("expected both adds to succeed")
	}
	if first.Task.ID == second.Task.ID {
		t.Fatalf("ids must be unique, both were %q", first.Task.ID)
	}
}

func TestAddTaskDuplicateTitle(t *testing.T) {
	h := newHarness(t, existing("a", "Write report", task.StatusToDo))

	res := h.store.AddTask(context.Background(), draft("write REPORT"))
	if res.Success {
		t.Fatalf("expected failure")
	}
	if len(res.Errors) != 1 || res.Errors[0].Field != "title" || res.Errors[0].Message != "A task with this title already exists" {
		t.Fatalf("unexpected errors %+v", res.Errors)
	}
	if n := len(h.store.Tasks()); n != 1 {
		t.Fatalf("collection must stay at 1, got %d", n)
	}
	if h.saved.count() != 0 || h.inval.count() != 0 {
		t.Fatalf("failed add must not persist or invalidate")
	}
}

func TestAddTaskEmptyTitle(t *testing.T) {
	h := newHarness(t)
	res := h.store.AddTask(context.Background(), draft(""))
	if res.Success {
		t.Fatalf("expected validation failure")
	}
	if msg, ok := res.FieldError(task.FieldTitle); !ok || msg != "Title is required" {
		t.Fatalf("unexpected errors %+v", res.Errors)
	}
	if len(h.store.Tasks()) != 0 {
		t.Fatalf("no task may be appended")
	}
}

func TestAddTaskDeduplicatesTags(t *testing.T) {
	h := newHarness(t)
	f := draft("tagged")
	f.Tags = []string{"Go", "go", " api ", "GO", ""}
	res := h.store.AddTask(context.Background(), f)
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if got := strings.Join(res.Task.Tags, ","); got != "Go,api" {
		t.Fatalf("expected Go,api got %s", got)
	}
}

func TestAddTaskPastDueDateFails(t *testing.T) {
	h := newHarness(t)
	f := draft("late")
	f.DueDate = task.Ptr(fixedNow.Add(-48 * time.Hour).Format(time.RFC3339))
	res := h.store.AddTask(context.Background(), f)
	if res.Success {
		t.Fatalf("create must reject past due dates")
	}
	if _, ok := res.FieldError(task.FieldDueDate); !ok {
		t.Fatalf("expected dueDate error, got %+v", res.Errors)
	}
}

// --- update ---

func TestUpdateTaskAcceptsPastDueDate(t *testing.T) {
	h := newHarness(t, existing("a", "Old task", task.StatusToDo))
	yesterday := fixedNow.Add(-48 * time.Hour).Format(time.RFC3339)

	res := h.store.UpdateTask(context.Background(), "a", task.Fields{DueDate: task.Ptr(yesterday)})
	if !res.Success {
		t.Fatalf("update must accept past dates, got %+v", res)
	}
	got, _ := h.store.Get("a")
	if got.DueDate == nil || got.DueDate.Format(time.RFC3339) != yesterday {
		t.Fatalf("due date not applied: %+v", got.DueDate)
	}
	if !got.UpdatedAt.Equal(fixedNow) {
		t.Fatalf("updatedAt must be bumped, got %v", got.UpdatedAt)
	}
	if got.CreatedAt.Equal(got.UpdatedAt) {
		t.Fatalf("createdAt must not change")
	}
}

func TestUpdateTaskNotFound(t *testing.T) {
	h := newHarness(t)
	res := h.store.UpdateTask(context.Background(), "nope", task.Fields{Title: task.Ptr("x")})
	if res.Success || len(res.Errors) != 0 || res.Message == "" {
		t.Fatalf("expected message-only failure, got %+v", res)
	}
	if !errors.Is(res.Err(), task.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", res.Err())
	}
}

func TestUpdateTaskTitleCollisionExcludesSelf(t *testing.T) {
	h := newHarness(t,
		existing("a", "Alpha", task.StatusToDo),
		existing("b", "Beta", task.StatusToDo),
	)

	res := h.store.UpdateTask(context.Background(), "a", task.Fields{Title: task.Ptr("ALPHA")})
	if !res.Success {
		t.Fatalf("renaming to own title must succeed, got %+v", res)
	}

	res = h.store.UpdateTask(context.Background(), "a", task.Fields{Title: task.Ptr("beta")})
	if res.Success {
		t.Fatalf("expected duplicate title failure")
	}
	if !errors.Is(res.Err(), task.ErrDuplicateTitle) {
		t.Fatalf("expected ErrDuplicateTitle, got %v", res.Err())
	}
	got, _ := h.store.Get("a")
	if got.Title != "ALPHA" {
		t.Fatalf("failed update must not mutate, got %q", got.Title)
	}
}

func TestUpdateTaskMergesOnlySuppliedFields(t *testing.T) {
	base := existing("a", "Keep me", task.StatusToDo)
	base.Description = "keep"
	base.Tags = []string{"x"}
	h := newHarness(t, base)

	res := h.store.UpdateTask(context.Background(), "a", task.Fields{Priority: task.Ptr(task.PriorityLow)})
	if !res.Success {
		t.Fatalf("unexpected failure %+v", res)
	}
	got, _ := h.store.Get("a")
	if got.Title != "Keep me" || got.Description != "keep" || len(got.Tags) != 1 || got.Priority != task.PriorityLow {
		t.Fatalf("unexpected merge result %+v", got)
	}

	res = h.store.UpdateTask(context.Background(), "a", task.Fields{Tags: []string{}, DueDate: task.Ptr("")})
	if !res.Success {
		t.Fatalf("unexpected failure %+v", res)
	}
	got, _ = h.store.Get("a")
	if got.Tags != nil || got.DueDate != nil {
		t.Fatalf("empty values must clear fields, got %+v", got)
	}
}

func TestUpdateTaskValidationFailureLeavesTask(t *testing.T) {
	h := newHarness(t, existing("a", "Stable", task.StatusToDo))
	res := h.store.UpdateTask(context.Background(), "a", task.Fields{Status: task.Ptr(task.Status("Archived"))})
	if res.Success || !errors.Is(res.Err(), task.ErrValidation) {
		t.Fatalf("expected validation failure, got %+v", res)
	}
	got, _ := h.store.Get("a")
	if got.Status != task.StatusToDo || !got.UpdatedAt.Equal(got.CreatedAt) {
		t.Fatalf("task must be untouched, got %+v", got)
	}
}

func TestMoveTaskChangesStatus(t *testing.T) {
	h := newHarness(t, existing("a", "Card", task.StatusToDo))
	if res := h.store.MoveTask(context.Background(), "a", task.StatusDone); !res.Success {
		t.Fatalf("unexpected failure %+v", res)
	}
	got, _ := h.store.Get("a")
	if got.Status != task.StatusDone {
		t.Fatalf("expected Done, got %s", got.Status)
	}
}

// --- delete ---

func TestDeleteTask(t *testing.T) {
	h := newHarness(t, existing("a", "A", task.StatusToDo), existing("b", "B", task.StatusToDo))

	if res := h.store.DeleteTask(context.Background(), "a"); !res.Success {
		t.Fatalf("unexpected failure %+v", res)
	}
	if got := titles(h.store.Tasks()); got != "B" {
		t.Fatalf("expected B, got %s", got)
	}
	res := h.store.DeleteTask(context.Background(), "a")
	if res.Success || !errors.Is(res.Err(), task.ErrNotFound) {
		t.Fatalf("second delete must be NotFound, got %+v", res)
	}
	if h.saved.count() != 1 || h.inval.count() != 1 {
		t.Fatalf("expected exactly one write and invalidation")
	}
}

// --- filter ---

func TestSetFilterIsPure(t *testing.T) {
	h := newHarness(t, existing("a", "A", task.StatusToDo))
	if res := h.store.SetFilter(task.Filter{Status: task.StatusDone, Tags: []string{"x"}}); !res.Success {
		t.Fatalf("SetFilter should succeed: %+v", res)
	}
	if got := h.store.Filter(); got.Status != task.StatusDone || len(got.Tags) != 1 {
		t.Fatalf("filter not stored: %+v", got)
	}
	if h.saved.count() != 0 || h.inval.count() != 0 {
		t.Fatalf("filter changes must not persist or invalidate")
	}
}

// --- reorder ---

func seeded(t *testing.T) harness {
	return newHarness(t,
		existing("a", "A", task.StatusToDo),
		existing("b", "B", task.StatusToDo),
		existing("c", "C", task.StatusToDo),
		existing("d", "D", task.StatusToDo),
	)
}

func TestReorderRoundTrip(t *testing.T) {
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if i == j {
				continue
			}
			h := seeded(t)
			h.store.ReorderTasks(i, j)
			h.store.ReorderTasks(j, i)
			h.store.Wait()
			if got := titles(h.store.Tasks()); got != "A,B,C,D" {
				t.Fatalf("reorder(%d,%d) round trip gave %s", i, j, got)
			}
		}
	}
}

func TestReorderSpliceSemantics(t *testing.T) {
	h := seeded(t)
	res := h.store.ReorderTasks(0, 2)
	if !res.Success || res.Message != "Task order updated" {
		t.Fatalf("unexpected result %+v", res)
	}
	if got := titles(h.store.Tasks()); got != "B,C,A,D" {
		t.Fatalf("expected B,C,A,D got %s", got)
	}
	h.store.ReorderTasks(0, 99)
	if got := titles(h.store.Tasks()); got != "C,A,D,B" {
		t.Fatalf("past-the-end target must append, got %s", got)
	}
	h.store.ReorderTasks(3, -5)
	if got := titles(h.store.Tasks()); got != "B,C,A,D" {
		t.Fatalf("negative target must clamp to front, got %s", got)
	}
	h.store.Wait()
}

func TestReorderOutOfBoundsIsNoop(t *testing.T) {
	h := seeded(t)
	for _, from := range []int{-1, 4} {
		res := h.store.ReorderTasks(from, 0)
		if !res.Success || res.Message != ReorderSkippedMessage {
			t.Fatalf("ReorderTasks(%d, 0) = %+v, want skipped success", from, res)
		}
	}
	h.store.Wait()
	if got := titles(h.store.Tasks()); got != "A,B,C,D" {
		t.Fatalf("expected unchanged order, got %s", got)
	}
	if h.saved.count() != 0 || h.inval.count() != 0 {
		t.Fatalf("no-op reorder must not persist or invalidate")
	}
}

func TestReorderPersistsFinalOrder(t *testing.T) {
	h := seeded(t)
	for i := 0; i < 10; i++ {
		h.store.ReorderTasks(0, 3)
	}
	h.store.Wait()

	if n := h.saved.count(); n < 1 || n > 10 {
		t.Fatalf("expected between 1 and 10 writes, got %d", n)
	}
	if got := titles(h.saved.last()); got != titles(h.store.Tasks()) {
		t.Fatalf("last write %s does not match state %s", got, titles(h.store.Tasks()))
	}
	if h.inval.count() != 10 {
		t.Fatalf("each reorder invalidates, got %d", h.inval.count())
	}
}

func TestWaitWhileReordering(t *testing.T) {
	h := seeded(t)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			h.store.ReorderTasks(i%4, (i+1)%4)
		}
	}()
	for i := 0; i < 50; i++ {
		h.store.Wait()
	}
	<-done
	h.store.Wait()

	if got := titles(h.saved.last()); got != titles(h.store.Tasks()) {
		t.Fatalf("last write %s does not match state %s", got, titles(h.store.Tasks()))
	}
}

// --- persistence failures ---

type brokenKV struct{ *storage.Memory }

func (brokenKV) Put(context.Context, string, string) error {
	return errors.New("disk full")
}

func TestMirrorFailureDoesNotRollBack(t *testing.T) {
	gw := storage.NewGateway(brokenKV{storage.NewMemory()}, storage.GatewayConfig{Logger: log.New(io.Discard, "", 0)})
	s := New(Options{Persister: gw, Now: func() time.Time { return fixedNow }, Logger: log.New(io.Discard, "", 0)})

	res := s.AddTask(context.Background(), draft("survives"))
	if !res.Success {
		t.Fatalf("mutation must succeed despite mirror failure, got %+v", res)
	}
	if len(s.Tasks()) != 1 {
		t.Fatalf("in-memory state must keep the task")
	}
}

// --- loading through the cache ---

func TestLoadThroughCacheAndInvalidate(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	gw := storage.NewGateway(kv, storage.GatewayConfig{Seed: storage.DefaultTasks, Logger: log.New(io.Discard, "", 0)})
	c := cache.New(gw.Load)
	s := New(Options{Persister: gw, Cache: c, Now: func() time.Time { return fixedNow }})

	if err := s.Load(ctx, c); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(s.Tasks()) != 20 {
		t.Fatalf("expected seed data, got %d", len(s.Tasks()))
	}
	if c.State() != cache.Resolved {
		t.Fatalf("expected resolved cache, got %s", c.State())
	}

	if res := s.AddTask(ctx, draft("Fresh")); !res.Success {
		t.Fatalf("unexpected failure %+v", res)
	}
	if c.State() != cache.Empty {
		t.Fatalf("mutation must invalidate cache, got %s", c.State())
	}
	fresh, err := c.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(fresh) != 21 {
		t.Fatalf("reloaded data must include the new task, got %d", len(fresh))
	}
}

func TestLoadPropagatesSourceError(t *testing.T) {
	s := New(Options{})
	boom := errors.New("rejected")
	if err := s.Load(context.Background(), staticSource{err: boom}); !errors.Is(err, boom) {
		t.Fatalf("expected source error, got %v", err)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	h := newHarness(t, existing("a", "A", task.StatusToDo))
	snap := h.store.Snapshot()
	snap.Tasks[0].Title = "mutated"
	if got, _ := h.store.Get("a"); got.Title != "A" {
		t.Fatalf("snapshot must not alias store state")
	}
}
