package ui

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskboard/internal/config"
	"taskboard/internal/dnd"
	"taskboard/internal/store"
	"taskboard/internal/task"
	"taskboard/internal/view"
)

type screen int

const (
	screenList screen = iota
	screenKanban
	screenDashboard
)

type mode int

const (
	modeBrowse mode = iota
	modeForm
	modeFilter
	modeConfirmDelete
)

// board is shared by every copy of the Model so that the drag engines'
// callbacks can reach the store and report back.
type board struct {
	ctx    context.Context
	store  *store.Store
	list   *dnd.ListEngine
	kanban *dnd.KanbanEngine

	// payload is the drag data of the session in progress.
	payload string
	// ids maps list view rows to task ids for the current drag.
	ids []string
	// moved is the result of the last kanban move.
	moved *task.Result
}

func newBoard(ctx context.Context, s *store.Store, logger *log.Logger) *board {
	b := &board{ctx: ctx, store: s}
	b.list = dnd.NewListEngine(b.reorder, logger)
	b.kanban = dnd.NewKanbanEngine(b.move, logger)
	return b
}

// reorder translates list view rows to collection positions.
func (b *board) reorder(from, to int) {
	if from >= len(b.ids) || to >= len(b.ids) {
		return
	}
	tasks := b.store.Tasks()
	fi, ti := -1, -1
	for i, t := range tasks {
		switch t.ID {
		case b.ids[from]:
			fi = i
		case b.ids[to]:
			ti = i
		}
	}
	if fi < 0 || ti < 0 {
		return
	}
	if res := b.store.ReorderTasks(fi, ti); !res.Success {
		log.Printf("Warning: reorder %d -> %d failed: %s", fi, ti, res.Message)
	}
}

func (b *board) move(id string, status task.Status) {
	res := b.store.MoveTask(b.ctx, id, status)
	b.moved = &res
}

type Model struct {
	b       *board
	cfg     config.Config
	screen  screen
	mode    mode
	sorting view.Sorting
	now     func() time.Time

	cursor   int // list row
	col, row int // kanban card

	input      textinput.Model
	form       *formState
	pendingDel *task.Task
	status     string
	width      int
}

func New(ctx context.Context, s *store.Store, cfg config.Config) Model {
	ti := textinput.New()
	ti.CharLimit = 0
	ti.Width = 60

	m := Model{
		b:       newBoard(ctx, s, log.Default()),
		cfg:     cfg,
		sorting: sortingFromConfig(cfg),
		now:     time.Now,
		input:   ti,
		status:  fmt.Sprintf("Press '%s' to add, '%s' to switch view, '%s' to quit.", cfg.Keys.Add, cfg.Keys.ToggleView, cfg.Keys.Quit),
	}
	switch cfg.DefaultView {
	case "kanban":
		m.screen = screenKanban
	case "dashboard":
		m.screen = screenDashboard
	}
	return m
}

func Run(ctx context.Context, s *store.Store, cfg config.Config) error {
	program := tea.NewProgram(New(ctx, s, cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

func sortingFromConfig(cfg config.Config) view.Sorting {
	s := view.DefaultSorting
	if k, err := view.ParseSortKey(cfg.SortBy); err == nil {
		s.Key = k
	}
	if o, err := view.ParseOrder(cfg.SortOrder); err == nil {
		s.Order = o
	}
	return s
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()
		switch m.mode {
		case modeForm:
			return m.updateFormMode(key, msg)
		case modeFilter:
			return m.updateFilterMode(key, msg)
		case modeConfirmDelete:
			return m.updateDeleteConfirm(key)
		}
		return m.updateBrowse(key)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(20, msg.Width-10)
	}
	return m, nil
}

func (m Model) updateBrowse(key string) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	switch key {
	case "ctrl+c", k.Quit:
		return m, tea.Quit
	case k.ToggleView:
		m.cancelDrag()
		if m.screen == screenList {
			m.screen = screenKanban
		} else {
			m.screen = screenList
		}
		return m, nil
	case k.Dashboard:
		m.cancelDrag()
		m.screen = screenDashboard
		return m, nil
	case k.Add:
		if m.dragging() {
			return m, nil
		}
		return m.startCreate()
	case k.Filter:
		if m.dragging() {
			return m, nil
		}
		m.mode = modeFilter
		m.input.SetValue(formatFilter(m.b.store.Filter()))
		m.input.Placeholder = "status:done priority:high assignee:jane tag:api text"
		m.status = "Filter: enter to apply, esc to cancel"
		return m, m.input.Focus()
	case k.ClearFilter:
		m.b.store.SetFilter(task.Filter{})
		m.status = "Filter cleared"
		m.clampCursors()
		return m, nil
	}

	switch m.screen {
	case screenList:
		return m.updateList(key)
	case screenKanban:
		return m.updateKanban(key)
	}
	return m, nil
}

func (m Model) updateList(key string) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	tasks := m.visible()
	m.cursor = clampCursor(m.cursor, len(tasks))
	switch key {
	case k.Down, "down":
		if len(tasks) == 0 {
			return m, nil
		}
		m.cursor = clampCursor(m.cursor+1, len(tasks))
		m.hoverList()
	case k.Up, "up":
		m.cursor = clampCursor(m.cursor-1, len(tasks))
		m.hoverList()
	case k.Cancel:
		if m.b.list.Dragging() {
			m.b.list.DragEnd()
			m.status = "Move cancelled"
		}
	case k.Grab:
		return m.grabList(tasks)
	case k.SortCreated:
		m.setSort(view.SortCreated)
	case k.SortDue:
		m.setSort(view.SortDueDate)
	case k.SortPriority:
		m.setSort(view.SortPriority)
	case k.SortManual:
		m.cancelDrag()
		m.sorting = view.Sorting{Key: view.SortManual, Order: view.Asc}
		m.status = "Manual order: use space to pick up and drop tasks"
	}
	if m.dragging() {
		return m, nil
	}
	switch key {
	case k.Delete:
		if len(tasks) == 0 {
			return m, nil
		}
		return m.confirmDelete(tasks[m.cursor])
	case k.Edit:
		if len(tasks) == 0 {
			m.status = "No tasks to edit"
			return m, nil
		}
		return m.startEdit(tasks[m.cursor])
	case k.Detail:
		if len(tasks) == 0 {
			m.status = "No tasks"
			return m, nil
		}
		m.status = m.detailLine(tasks[m.cursor])
	}
	return m, nil
}

func (m *Model) setSort(key view.SortKey) {
	m.cancelDrag()
	m.sorting = m.sorting.Toggle(key)
	m.status = fmt.Sprintf("Sorted by %s %s", m.sorting.Key.Label(), m.sorting.Order.Arrow())
}

// grabList picks up the selected row, or drops the row being carried.
// Rows can only be moved while the list shows collection order.
func (m Model) grabList(tasks []task.Task) (tea.Model, tea.Cmd) {
	l := m.b.list
	if l.Dragging() {
		dragged, _ := l.Dragged()
		switch l.Drop(m.b.payload, m.cursor) {
		case dnd.Moved:
			m.status = fmt.Sprintf("Moved %q", titleOf(tasks, dragged.ID))
		case dnd.Unchanged:
			m.status = "Order unchanged"
		default:
			m.status = "Move cancelled"
		}
		m.b.payload = ""
		m.b.ids = nil
		return m, nil
	}
	if len(tasks) == 0 {
		return m, nil
	}
	if m.sorting.Key != view.SortManual {
		m.status = fmt.Sprintf("Switch to manual order ('%s') to reorder tasks", m.cfg.Keys.SortManual)
		return m, nil
	}
	m.b.ids = make([]string, len(tasks))
	for i, t := range tasks {
		m.b.ids[i] = t.ID
	}
	t := tasks[m.cursor]
	m.b.payload = l.DragStart(t.ID, m.cursor)
	l.DragEnter(m.cursor)
	m.status = fmt.Sprintf("Moving %q: %s/%s to choose a slot, space to drop, %s to cancel",
		t.Title, m.cfg.Keys.Up, m.cfg.Keys.Down, m.cfg.Keys.Cancel)
	return m, nil
}

// hoverList replays the pointer leaving one row and entering the next.
func (m *Model) hoverList() {
	if !m.b.list.Dragging() {
		return
	}
	m.b.list.DragLeave()
	m.b.list.DragEnter(m.cursor)
}

func (m Model) updateKanban(key string) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	cols := m.columns()
	switch key {
	case k.Left, "left":
		m.moveColumn(-1)
	case k.Right, "right":
		m.moveColumn(1)
	case k.Down, "down":
		if !m.b.kanban.Dragging() {
			m.row = clampCursor(m.row+1, len(cols[task.Statuses[m.col]]))
		}
	case k.Up, "up":
		if !m.b.kanban.Dragging() {
			m.row = clampCursor(m.row-1, len(cols[task.Statuses[m.col]]))
		}
	case k.Cancel:
		if m.b.kanban.Dragging() {
			m.b.kanban.DragEnd()
			m.status = "Move cancelled"
		}
	case k.Grab:
		return m.grabCard(cols)
	}
	if m.dragging() {
		return m, nil
	}
	cur, ok := m.selectedCard(cols)
	switch key {
	case k.Delete:
		if ok {
			return m.confirmDelete(cur)
		}
	case k.Edit:
		if ok {
			return m.startEdit(cur)
		}
	case k.Detail:
		if ok {
			m.status = m.detailLine(cur)
		}
	}
	return m, nil
}

func (m *Model) moveColumn(delta int) {
	prev := task.Statuses[m.col]
	m.col = clampCursor(m.col+delta, len(task.Statuses))
	next := task.Statuses[m.col]
	if m.b.kanban.Dragging() {
		if prev != next {
			m.b.kanban.DragLeave(prev)
			m.b.kanban.DragEnter(next)
		}
		return
	}
	m.row = clampCursor(m.row, len(m.columns()[next]))
}

func (m Model) grabCard(cols map[task.Status][]task.Task) (tea.Model, tea.Cmd) {
	kb := m.b.kanban
	status := task.Statuses[m.col]
	if kb.Dragging() {
		dragged, _ := kb.Dragged()
		m.b.moved = nil
		out := kb.Drop(m.b.payload, status)
		m.b.payload = ""
		switch {
		case out == dnd.Moved && m.b.moved != nil && !m.b.moved.Success:
			m.status = errorStyle.Render(m.b.moved.Message)
		case out == dnd.Moved:
			m.status = fmt.Sprintf("Moved to %s", status)
			m.focusTask(dragged.ID)
		case out == dnd.Unchanged:
			m.status = "Card stayed in " + string(status)
			m.focusTask(dragged.ID)
		default:
			m.status = "Move cancelled"
		}
		return m, nil
	}
	t, ok := m.selectedCard(cols)
	if !ok {
		return m, nil
	}
	m.b.payload = kb.DragStart(t.ID, t.Status)
	kb.DragEnter(t.Status)
	m.status = fmt.Sprintf("Moving %q: %s/%s to pick a column, space to drop, %s to cancel",
		t.Title, m.cfg.Keys.Left, m.cfg.Keys.Right, m.cfg.Keys.Cancel)
	return m, nil
}

func (m Model) selectedCard(cols map[task.Status][]task.Task) (task.Task, bool) {
	col := cols[task.Statuses[m.col]]
	if len(col) == 0 {
		return task.Task{}, false
	}
	return col[clampCursor(m.row, len(col))], true
}

func (m Model) updateFilterMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.mode = modeBrowse
		m.input.Blur()
		m.input.SetValue("")
		m.status = "Filter unchanged"
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		f := parseFilter(m.input.Value())
		m.b.store.SetFilter(f)
		m.mode = modeBrowse
		m.input.Blur()
		m.input.SetValue("")
		m.clampCursors()
		if f.IsZero() {
			m.status = "Filter cleared"
		} else {
			m.status = fmt.Sprintf("Showing %d matching task(s)", len(m.visible()))
		}
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) confirmDelete(t task.Task) (tea.Model, tea.Cmd) {
	m.mode = modeConfirmDelete
	m.pendingDel = &t
	m.status = fmt.Sprintf("Delete %q? y/n", t.Title)
	return m, nil
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", "esc":
		m.status = "Delete cancelled"
	case "y", "Y":
		if m.pendingDel == nil {
			m.status = "Nothing to delete"
			break
		}
		res := m.b.store.DeleteTask(m.b.ctx, m.pendingDel.ID)
		m.status = res.Message
		m.clampCursors()
	default:
		return m, nil
	}
	m.mode = modeBrowse
	m.pendingDel = nil
	return m, nil
}

func (m Model) dragging() bool {
	return m.b.list.Dragging() || m.b.kanban.Dragging()
}

func (m *Model) cancelDrag() {
	m.b.list.DragEnd()
	m.b.kanban.DragEnd()
	m.b.payload = ""
	m.b.ids = nil
}

func (m Model) visible() []task.Task {
	snap := m.b.store.Snapshot()
	return view.Visible(snap.Tasks, snap.Filter, m.sorting)
}

func (m Model) columns() map[task.Status][]task.Task {
	snap := m.b.store.Snapshot()
	return view.Board(view.Filter(snap.Tasks, snap.Filter))
}

// focusTask moves both cursors onto the task with id.
func (m *Model) focusTask(id string) {
	for i, t := range m.visible() {
		if t.ID == id {
			m.cursor = i
			break
		}
	}
	cols := m.columns()
	for ci, s := range task.Statuses {
		for ri, t := range cols[s] {
			if t.ID == id {
				m.col, m.row = ci, ri
				return
			}
		}
	}
}

func (m *Model) clampCursors() {
	m.cursor = clampCursor(m.cursor, len(m.visible()))
	m.row = clampCursor(m.row, len(m.columns()[task.Statuses[m.col]]))
}

func (m Model) detailLine(t task.Task) string {
	info := fmt.Sprintf("%s • %s • %s", t.Title, t.Status, t.Priority)
	if t.Assignee != "" {
		info += " • @" + t.Assignee
	}
	if t.DueDate != nil {
		text, _ := dueText(t, m.now())
		info += " • " + task.FormatDate(*t.DueDate) + " (" + text + ")"
	}
	if len(t.Tags) > 0 {
		info += " • " + tagList(t.Tags)
	}
	return info
}

func titleOf(tasks []task.Task, id string) string {
	for _, t := range tasks {
		if t.ID == id {
			return t.Title
		}
	}
	return id
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Taskboard"))
	b.WriteString("  ")
	b.WriteString(m.tabs())
	if f := m.b.store.Filter(); !f.IsZero() {
		b.WriteString("  ")
		b.WriteString(faintStyle.Render("filter: " + formatFilter(f)))
	}
	b.WriteString("\n\n")

	switch {
	case m.mode == modeForm:
		b.WriteString(m.renderForm())
	case m.screen == screenKanban:
		b.WriteString(m.renderKanban())
	case m.screen == screenDashboard:
		b.WriteString(m.renderDashboard())
	default:
		b.WriteString(m.renderList())
	}

	if m.mode == modeFilter {
		b.WriteString("\n\n")
		b.WriteString(m.input.View())
	}

	b.WriteString("\n---\n")
	b.WriteString(m.status)
	b.WriteString("\n")
	b.WriteString(faintStyle.Render(renderHelp(m.cfg.Keys, m.screen)))
	return b.String()
}

func (m Model) tabs() string {
	names := []string{"List", "Kanban", "Dashboard"}
	parts := make([]string, len(names))
	for i, n := range names {
		if screen(i) == m.screen {
			parts[i] = "[" + n + "]"
		} else {
			parts[i] = faintStyle.Render(n)
		}
	}
	return strings.Join(parts, " ")
}

func renderHelp(k config.Keymap, s screen) string {
	common := fmt.Sprintf("%s add • %s filter • %s clear • %s view • %s stats • %s quit",
		k.Add, k.Filter, k.ClearFilter, k.ToggleView, k.Dashboard, k.Quit)
	switch s {
	case screenList:
		return fmt.Sprintf("%s/%s move • %s edit • %s delete • %s detail • space grab/drop • %s/%s/%s/%s sort • ",
			k.Up, k.Down, k.Edit, k.Delete, k.Detail, k.SortCreated, k.SortDue, k.SortPriority, k.SortManual) + common
	case screenKanban:
		return fmt.Sprintf("%s/%s/%s/%s move • %s edit • %s delete • space grab/drop • ",
			k.Left, k.Down, k.Up, k.Right, k.Edit, k.Delete) + common
	}
	return common
}

func (m Model) renderList() string {
	tasks := m.visible()
	if len(tasks) == 0 {
		if m.b.store.Filter().IsZero() {
			return fmt.Sprintf("No tasks yet. Press '%s' to add one.", m.cfg.Keys.Add)
		}
		return "No tasks match the filter."
	}

	var b strings.Builder
	b.WriteString(faintStyle.Render(fmt.Sprintf("sorted by %s %s", m.sorting.Key.Label(), m.sorting.Order.Arrow())))
	b.WriteString("\n")
	now := m.now()
	l := m.b.list
	for i, t := range tasks {
		cursor := " "
		if m.cursor == i {
			cursor = ">"
		}
		line := fmt.Sprintf("%s %-11s %-6s %s", cursor, statusBadge(t.Status), priorityBadge(t.Priority), truncate(t.Title, 48))
		if t.DueDate != nil {
			line += "  " + dueLabel(t, now)
		}
		if t.Assignee != "" {
			line += "  " + faintStyle.Render("@"+t.Assignee)
		}
		switch {
		case l.IsDragging(i):
			line = draggedStyle.Render(line)
		case l.IsDropTarget(i):
			line = targetStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}

func wrapIndex(idx, n int) int {
	if n <= 0 {
		return 0
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}
