package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"taskboard/internal/task"
)

var statusColors = map[task.Status]lipgloss.Color{
	task.StatusToDo:       lipgloss.Color("245"),
	task.StatusInProgress: lipgloss.Color("33"),
	task.StatusDone:       lipgloss.Color("35"),
}

var priorityColors = map[task.Priority]lipgloss.Color{
	task.PriorityHigh:   lipgloss.Color("196"),
	task.PriorityMedium: lipgloss.Color("214"),
	task.PriorityLow:    lipgloss.Color("70"),
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	faintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	overdueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	draggedStyle = lipgloss.NewStyle().Faint(true).Italic(true)
	targetStyle  = lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("255"))
	columnStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	activeColumn = columnStyle.BorderForeground(lipgloss.Color("62"))
	dropColumn   = columnStyle.BorderForeground(lipgloss.Color("35")).BorderStyle(lipgloss.DoubleBorder())
)

func statusBadge(s task.Status) string {
	c, ok := statusColors[s]
	if !ok {
		return string(s)
	}
	return lipgloss.NewStyle().Foreground(c).Render(string(s))
}

func priorityBadge(p task.Priority) string {
	c, ok := priorityColors[p]
	if !ok {
		return string(p)
	}
	return lipgloss.NewStyle().Foreground(c).Bold(p == task.PriorityHigh).Render(string(p))
}

// dueText describes a due date relative to now, e.g. "due 3 days from now".
// Open tasks past their due date are reported as overdue.
func dueText(t task.Task, now time.Time) (string, bool) {
	if t.DueDate == nil {
		return "", false
	}
	rel := humanize.RelTime(*t.DueDate, now, "ago", "from now")
	if t.DueDate.Before(now) && t.Status != task.StatusDone {
		return "overdue " + rel, true
	}
	return "due " + rel, false
}

func dueLabel(t task.Task, now time.Time) string {
	text, overdue := dueText(t, now)
	if overdue {
		return overdueStyle.Render(text)
	}
	return faintStyle.Render(text)
}

func tagList(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return "#" + strings.Join(tags, " #")
}

func emptyPlaceholder(v string) string {
	if strings.TrimSpace(v) == "" {
		return "(empty)"
	}
	return v
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

func percentBar(pct, width int) string {
	if width <= 0 {
		return ""
	}
	filled := pct * width / 100
	filled = max(0, min(filled, width))
	return fmt.Sprintf("[%s%s] %d%%", strings.Repeat("#", filled), strings.Repeat(".", width-filled), pct)
}
