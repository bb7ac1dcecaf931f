package ui

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"taskboard/internal/config"
	"taskboard/internal/store"
	"taskboard/internal/task"
	"taskboard/internal/view"
)

var fixedNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

type tasksSource []task.Task

func (s tasksSource) Get(context.Context) ([]task.Task, error) {
	return task.CloneAll(s), nil
}

func newTestModel(t *testing.T, tasks ...task.Task) Model {
	t.Helper()
	seq := 0
	s := store.New(store.Options{
		Now:    func() time.Time { return fixedNow },
		NewID:  func() string { seq++; return fmt.Sprintf("id-%d", seq) },
		Logger: log.New(io.Discard, "", 0),
	})
	if err := s.Load(context.Background(), tasksSource(tasks)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	m := New(context.Background(), s, config.Default())
	m.now = func() time.Time { return fixedNow }
	return m
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(keyMsg(k))
		var ok bool
		m, ok = next.(Model)
		if !ok {
			t.Fatalf("Update returned %T", next)
		}
	}
	return m
}

func repeat(k string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = k
	}
	return out
}

func abc() []task.Task {
	mk := func(id, title string, s task.Status) task.Task {
		return task.Task{ID: id, Title: title, Status: s, Priority: task.PriorityMedium,
			CreatedAt: fixedNow.Add(-time.Hour), UpdatedAt: fixedNow.Add(-time.Hour)}
	}
	return []task.Task{
		mk("a", "A", task.StatusToDo),
		mk("b", "B", task.StatusInProgress),
		mk("c", "C", task.StatusDone),
	}
}

func titles(ts []task.Task) string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Title
	}
	return strings.Join(out, ",")
}

func TestFormCreatesTask(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, "a", "Write docs")
	m = press(t, m, repeat("enter", len(formFields))...)

	if m.mode != modeBrowse || m.form != nil {
		t.Fatalf("form should close after save, mode=%v", m.mode)
	}
	tasks := m.b.store.Tasks()
	if len(tasks) != 1 {
		t.Fatalf("expected one task, got %d", len(tasks))
	}
	got := tasks[0]
	if got.Title != "Write docs" || got.Status != task.StatusToDo || got.Priority != task.PriorityMedium {
		t.Fatalf("unexpected task %+v", got)
	}
	if got.DueDate != nil || len(got.Tags) != 0 {
		t.Fatalf("blank optional fields should stay unset: %+v", got)
	}
	if m.status != "Task created successfully" {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestFormReportsFieldErrors(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, "a")
	m = press(t, m, repeat("enter", len(formFields))...)

	if m.mode != modeForm || m.form == nil {
		t.Fatalf("form must stay open on validation failure")
	}
	if msg := m.form.errors[task.FieldTitle]; msg != "Title is required" {
		t.Fatalf("expected title error, got %q", msg)
	}
	if m.form.index != 0 {
		t.Fatalf("cursor should jump to the first invalid field, got %d", m.form.index)
	}
	if len(m.b.store.Tasks()) != 0 {
		t.Fatalf("no task may be added")
	}
}

func TestFormRejectsDuplicateTitle(t *testing.T) {
	m := newTestModel(t, task.Task{ID: "x", Title: "Write report", Status: task.StatusToDo, Priority: task.PriorityLow})
	m = press(t, m, "a", "write REPORT")
	m = press(t, m, repeat("enter", len(formFields))...)

	if m.form == nil || m.form.errors[task.FieldTitle] != task.DuplicateTitleMessage {
		t.Fatalf("expected duplicate title error, form=%+v", m.form)
	}
	if len(m.b.store.Tasks()) != 1 {
		t.Fatalf("collection must be unchanged")
	}
}

func TestFormEscCancels(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, "a", "Draft", "esc")
	if m.mode != modeBrowse || m.form != nil || len(m.b.store.Tasks()) != 0 {
		t.Fatalf("esc must discard the form")
	}
}

func TestEditFormFields(t *testing.T) {
	due := fixedNow.Add(48 * time.Hour)
	src := task.Task{ID: "x", Title: "T", Status: task.StatusInProgress, Priority: task.PriorityHigh,
		DueDate: &due, Tags: []string{"api", "docs"}, Assignee: "Jane"}

	fs := newEditForm(src)
	if fs.values[5] != "api, docs" || fs.values[4] != task.FormatDate(due) {
		t.Fatalf("unexpected prefill %v", fs.values)
	}
	fs.values[4] = ""
	fs.values[5] = ""
	f := fs.fields()
	if f.DueDate == nil || *f.DueDate != "" {
		t.Fatalf("editing must send an empty due date to clear it")
	}
	if f.Tags == nil || len(f.Tags) != 0 {
		t.Fatalf("editing must send empty tags to clear them")
	}

	fs.values[2] = "blocked"
	if got := fs.fields().Status; got == nil || *got != task.Status("blocked") {
		t.Fatalf("unknown status should pass through for validation, got %v", got)
	}

	create := newCreateForm()
	create.values[2] = ""
	if f := create.fields(); f.DueDate != nil || f.Status != nil {
		t.Fatalf("blank create fields must be unset: %+v", f)
	}
}

func TestListDragNeedsManualOrder(t *testing.T) {
	m := newTestModel(t, abc()...)
	m = press(t, m, " ")
	if m.dragging() {
		t.Fatalf("drag must not start while sorted by date")
	}
	if !strings.Contains(m.status, "manual") {
		t.Fatalf("expected hint about manual order, got %q", m.status)
	}
}

func TestListKeyboardDragReorders(t *testing.T) {
	m := newTestModel(t, abc()...)
	m = press(t, m, "0", " ")
	if !m.b.list.Dragging() {
		t.Fatalf("expected drag to start")
	}
	m = press(t, m, "j", "j")
	if !m.b.list.IsDropTarget(2) {
		t.Fatalf("row 2 should be the drop target")
	}
	m = press(t, m, " ")

	if got := titles(m.b.store.Tasks()); got != "B,C,A" {
		t.Fatalf("expected B,C,A got %s", got)
	}
	if m.dragging() {
		t.Fatalf("drop must end the session")
	}
	m.b.store.Wait()
}

func TestListDragEscCancels(t *testing.T) {
	m := newTestModel(t, abc()...)
	m = press(t, m, "0", " ", "j", "esc")
	if m.dragging() {
		t.Fatalf("esc must cancel the drag")
	}
	if got := titles(m.b.store.Tasks()); got != "A,B,C" {
		t.Fatalf("order must be unchanged, got %s", got)
	}
}

func TestListDragWithFilterMapsToCollection(t *testing.T) {
	tasks := abc()
	tasks = append(tasks, task.Task{ID: "d", Title: "D", Status: task.StatusDone, Priority: task.PriorityLow})
	m := newTestModel(t, tasks...)
	m.b.store.SetFilter(task.Filter{Status: task.StatusDone})
	m = press(t, m, "0", "j", " ", "k", " ")

	if got := titles(m.b.store.Tasks()); got != "A,B,D,C" {
		t.Fatalf("expected D to move before C, got %s", got)
	}
	m.b.store.Wait()
}

func TestKanbanKeyboardDragMovesCard(t *testing.T) {
	m := newTestModel(t, abc()...)
	m = press(t, m, "v")
	if m.screen != screenKanban {
		t.Fatalf("expected kanban screen")
	}
	m = press(t, m, " ", "l")
	if !m.b.kanban.IsDropTarget(task.StatusInProgress) {
		t.Fatalf("In Progress should be targeted")
	}
	m = press(t, m, "l")
	if m.b.kanban.IsDropTarget(task.StatusInProgress) || !m.b.kanban.IsDropTarget(task.StatusDone) {
		t.Fatalf("target should have moved to Done")
	}
	m = press(t, m, " ")

	got, ok := m.b.store.Get("a")
	if !ok || got.Status != task.StatusDone {
		t.Fatalf("expected A in Done, got %+v", got)
	}
	b, _ := m.b.store.Get("b")
	if b.Status != task.StatusInProgress {
		t.Fatalf("In Progress must be untouched")
	}
	if m.col != 2 {
		t.Fatalf("cursor should follow the card, col=%d", m.col)
	}
}

func TestKanbanDropOnOriginColumn(t *testing.T) {
	m := newTestModel(t, abc()...)
	m = press(t, m, "v", " ", "l", "h", " ")
	got, _ := m.b.store.Get("a")
	if got.Status != task.StatusToDo || !got.UpdatedAt.Equal(fixedNow.Add(-time.Hour)) {
		t.Fatalf("card must not be updated: %+v", got)
	}
	if !strings.Contains(m.status, "stayed") {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestDeleteConfirm(t *testing.T) {
	m := newTestModel(t, abc()...)
	m = press(t, m, "0", "d", "n")
	if len(m.b.store.Tasks()) != 3 || m.mode != modeBrowse {
		t.Fatalf("n must cancel the delete")
	}
	m = press(t, m, "d", "y")
	if got := titles(m.b.store.Tasks()); got != "B,C" {
		t.Fatalf("expected A deleted, got %s", got)
	}
	if m.status != "Task deleted successfully" {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestFilterMode(t *testing.T) {
	m := newTestModel(t, abc()...)
	m = press(t, m, "/", "status:done", "enter")
	if m.b.store.Filter().Status != task.StatusDone {
		t.Fatalf("filter not applied: %+v", m.b.store.Filter())
	}
	if got := titles(m.visible()); got != "C" {
		t.Fatalf("expected only C visible, got %s", got)
	}
	m = press(t, m, "x")
	if !m.b.store.Filter().IsZero() {
		t.Fatalf("clear filter failed")
	}
}

func TestSortKeys(t *testing.T) {
	m := newTestModel(t, abc()...)
	m = press(t, m, "3")
	if m.sorting != (view.Sorting{Key: view.SortPriority, Order: view.Asc}) {
		t.Fatalf("new key should sort ascending, got %+v", m.sorting)
	}
	m = press(t, m, "3")
	if m.sorting.Order != view.Desc {
		t.Fatalf("same key should flip direction")
	}
}

func TestParseFilter(t *testing.T) {
	f := parseFilter("status:in-progress priority:HIGH assignee:jane tag:api,docs login bug")
	if f.Status != task.StatusInProgress || f.Priority != task.PriorityHigh || f.Assignee != "jane" {
		t.Fatalf("unexpected filter %+v", f)
	}
	if strings.Join(f.Tags, ",") != "api,docs" || f.Search != "login bug" {
		t.Fatalf("unexpected tags/search %+v", f)
	}

	back := parseFilter(formatFilter(f))
	if back.Status != f.Status || back.Priority != f.Priority || back.Assignee != f.Assignee ||
		strings.Join(back.Tags, ",") != "api,docs" || back.Search != f.Search {
		t.Fatalf("format/parse mismatch: %+v vs %+v", back, f)
	}

	if got := parseFilter("status:blocked"); got.Status != "" {
		t.Fatalf("unknown status should be ignored, got %q", got.Status)
	}
	if !parseFilter("   ").IsZero() {
		t.Fatalf("blank line should clear the filter")
	}
}

func TestDueText(t *testing.T) {
	soon := fixedNow.Add(72 * time.Hour)
	text, overdue := dueText(task.Task{DueDate: &soon, Status: task.StatusToDo}, fixedNow)
	if overdue || !strings.HasPrefix(text, "due ") || !strings.Contains(text, "from now") {
		t.Fatalf("unexpected %q overdue=%v", text, overdue)
	}

	late := fixedNow.Add(-72 * time.Hour)
	if _, overdue := dueText(task.Task{DueDate: &late, Status: task.StatusInProgress}, fixedNow); !overdue {
		t.Fatalf("open past task should be overdue")
	}
	if _, overdue := dueText(task.Task{DueDate: &late, Status: task.StatusDone}, fixedNow); overdue {
		t.Fatalf("done task is never overdue")
	}
	if text, _ := dueText(task.Task{}, fixedNow); text != "" {
		t.Fatalf("no due date should render nothing")
	}
}

func TestClampAndWrap(t *testing.T) {
	cases := []struct{ cur, n, want int }{{-1, 3, 0}, {5, 3, 2}, {1, 3, 1}, {4, 0, 0}}
	for _, c := range cases {
		if got := clampCursor(c.cur, c.n); got != c.want {
			t.Errorf("clampCursor(%d,%d)=%d want %d", c.cur, c.n, got, c.want)
		}
	}
	if wrapIndex(-1, 7) != 6 || wrapIndex(7, 7) != 0 || wrapIndex(3, 0) != 0 {
		t.Fatalf("wrapIndex mismatch")
	}
}

func TestViewRendersEachScreen(t *testing.T) {
	m := newTestModel(t, abc()...)
	if out := m.View(); !strings.Contains(out, "A") || !strings.Contains(out, "[List]") {
		t.Fatalf("list view missing content:\n%s", out)
	}
	m = press(t, m, "v")
	if out := m.View(); !strings.Contains(out, "In Progress (1)") {
		t.Fatalf("kanban view missing columns:\n%s", out)
	}
	m = press(t, m, "s")
	if out := m.View(); !strings.Contains(out, "Completion") {
		t.Fatalf("dashboard missing stats:\n%s", out)
	}
	m = press(t, m, "a")
	if out := m.View(); !strings.Contains(out, "New task") {
		t.Fatalf("form not rendered:\n%s", out)
	}
}
