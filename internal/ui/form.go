package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"taskboard/internal/task"
)

type formField struct {
	label string
	field string
}

var formFields = []formField{
	{"Title", task.FieldTitle},
	{"Description", task.FieldDescription},
	{"Status (To Do / In Progress / Done)", task.FieldStatus},
	{"Priority (Low / Medium / High)", task.FieldPriority},
	{"Due date (YYYY-MM-DD)", task.FieldDueDate},
	{"Tags (comma separated)", task.FieldTags},
	{"Assignee", task.FieldAssignee},
}

// formState backs the add and edit forms. editID is empty when creating.
type formState struct {
	editID string
	values []string
	index  int
	errors map[string]string
}

func newCreateForm() *formState {
	v := make([]string, len(formFields))
	v[2] = string(task.StatusToDo)
	v[3] = string(task.PriorityMedium)
	return &formState{values: v}
}

func newEditForm(t task.Task) *formState {
	due := ""
	if t.DueDate != nil {
		due = task.FormatDate(*t.DueDate)
	}
	return &formState{
		editID: t.ID,
		values: []string{
			t.Title,
			t.Description,
			string(t.Status),
			string(t.Priority),
			due,
			strings.Join(t.Tags, ", "),
			t.Assignee,
		},
	}
}

func (fs *formState) creating() bool {
	return fs.editID == ""
}

func (fs formState) currentLabel() string {
	return formFields[fs.index].label
}

func (fs formState) currentValue() string {
	return fs.values[fs.index]
}

func (fs *formState) setCurrentValue(v string) {
	fs.values[fs.index] = v
}

// fields converts the form into store input. When creating, blank optional
// fields are left unset; when editing, every field is sent so clearing one
// takes effect.
func (fs formState) fields() task.Fields {
	v := fs.values
	f := task.Fields{
		Title:       task.Ptr(v[0]),
		Description: task.Ptr(v[1]),
		Status:      parseStatusInput(v[2]),
		Priority:    parsePriorityInput(v[3]),
		Tags:        task.ParseTags(v[5]),
		Assignee:    task.Ptr(v[6]),
	}
	due := strings.TrimSpace(v[4])
	if due != "" || !fs.creating() {
		f.DueDate = task.Ptr(due)
	}
	return f
}

// parseStatusInput passes unrecognised text through so the validator can
// report it.
func parseStatusInput(v string) *task.Status {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	if s, ok := task.ParseStatus(v); ok {
		return &s
	}
	s := task.Status(v)
	return &s
}

func parsePriorityInput(v string) *task.Priority {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	if p, ok := task.ParsePriority(v); ok {
		return &p
	}
	p := task.Priority(v)
	return &p
}

func (fs *formState) setErrors(errs []task.ValidationError) {
	fs.errors = make(map[string]string, len(errs))
	first := -1
	for _, e := range errs {
		if _, ok := fs.errors[e.Field]; !ok {
			fs.errors[e.Field] = e.Message
		}
		for i, ff := range formFields {
			if ff.field == e.Field && (first < 0 || i < first) {
				first = i
			}
		}
	}
	if first >= 0 {
		fs.index = first
	}
}

func (m Model) startCreate() (tea.Model, tea.Cmd) {
	m.form = newCreateForm()
	return m.focusForm("New task")
}

func (m Model) startEdit(t task.Task) (tea.Model, tea.Cmd) {
	m.form = newEditForm(t)
	return m.focusForm(fmt.Sprintf("Editing %q", t.Title))
}

func (m Model) focusForm(status string) (tea.Model, tea.Cmd) {
	m.mode = modeForm
	m.input.SetValue(m.form.currentValue())
	m.input.Placeholder = m.form.currentLabel()
	m.status = status + ": tab/shift+tab to move, enter to advance, esc to cancel"
	return m, m.input.Focus()
}

func (m Model) updateFormMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.form = nil
		m.mode = modeBrowse
		m.input.Blur()
		m.input.SetValue("")
		m.status = "Edit cancelled"
		return m, nil
	case "tab", "down":
		m.moveFormField(1)
		return m, nil
	case "shift+tab", "up":
		m.moveFormField(-1)
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		m.form.setCurrentValue(m.input.Value())
		if m.form.index >= len(formFields)-1 {
			return m.saveForm()
		}
		m.moveFormField(1)
		return m, nil
	case "ctrl+s":
		m.form.setCurrentValue(m.input.Value())
		return m.saveForm()
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m *Model) moveFormField(delta int) {
	m.form.setCurrentValue(m.input.Value())
	m.form.index = wrapIndex(m.form.index+delta, len(formFields))
	m.input.SetValue(m.form.currentValue())
	m.input.Placeholder = m.form.currentLabel()
	m.status = fmt.Sprintf("Editing %s (field %d of %d)", m.form.currentLabel(), m.form.index+1, len(formFields))
}

func (m Model) saveForm() (tea.Model, tea.Cmd) {
	var res task.Result
	if m.form.creating() {
		res = m.b.store.AddTask(m.b.ctx, m.form.fields())
	} else {
		res = m.b.store.UpdateTask(m.b.ctx, m.form.editID, m.form.fields())
	}
	if !res.Success {
		if len(res.Errors) == 0 {
			m.status = errorStyle.Render(res.Message)
			return m, nil
		}
		m.form.setErrors(res.Errors)
		m.input.SetValue(m.form.currentValue())
		m.input.Placeholder = m.form.currentLabel()
		m.status = errorStyle.Render(fmt.Sprintf("%d field(s) need attention", len(m.form.errors)))
		return m, nil
	}

	m.form = nil
	m.mode = modeBrowse
	m.input.Blur()
	m.input.SetValue("")
	m.status = res.Message
	if res.Task != nil {
		m.focusTask(res.Task.ID)
	}
	return m, nil
}

func (m Model) renderForm() string {
	if m.form == nil {
		return ""
	}
	var b strings.Builder
	header := "New task"
	if !m.form.creating() {
		header = "Edit task"
	}
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")
	for i, ff := range formFields {
		prefix := " "
		if i == m.form.index {
			prefix = ">"
		}
		val := m.form.values[i]
		if i == m.form.index {
			val = m.input.Value()
		}
		b.WriteString(fmt.Sprintf("%s %-36s : %s\n", prefix, ff.label, emptyPlaceholder(val)))
		if msg, ok := m.form.errors[ff.field]; ok {
			b.WriteString("  " + errorStyle.Render(msg) + "\n")
		}
	}
	if msg, ok := m.form.errors[task.FieldForm]; ok {
		b.WriteString(errorStyle.Render(msg) + "\n")
	}
	b.WriteString("\n")
	b.WriteString("Field: " + m.form.currentLabel())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	return b.String()
}
