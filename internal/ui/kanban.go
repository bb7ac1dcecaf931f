package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"taskboard/internal/task"
)

const minColumnWidth = 24

func (m Model) columnWidth() int {
	if m.width <= 0 {
		return 30
	}
	// borders and padding take four cells per column
	return max(minColumnWidth, m.width/len(task.Statuses)-4)
}

func (m Model) renderKanban() string {
	cols := m.columns()
	kb := m.b.kanban
	width := m.columnWidth()
	now := m.now()

	rendered := make([]string, 0, len(task.Statuses))
	for ci, s := range task.Statuses {
		var b strings.Builder
		header := lipgloss.NewStyle().Foreground(statusColors[s]).Bold(true).
			Render(fmt.Sprintf("%s (%d)", s, len(cols[s])))
		b.WriteString(header)
		b.WriteString("\n")
		if len(cols[s]) == 0 {
			b.WriteString(faintStyle.Render("no tasks"))
		}
		for ri, t := range cols[s] {
			selected := ci == m.col && ri == m.row && !kb.Dragging()
			b.WriteString(renderCard(t, selected, kb.IsDraggingTask(t.ID), width, now))
			b.WriteString("\n")
		}

		style := columnStyle
		switch {
		case kb.IsDropTarget(s):
			style = dropColumn
		case ci == m.col:
			style = activeColumn
		}
		rendered = append(rendered, style.Width(width).Render(b.String()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func renderCard(t task.Task, selected, dragged bool, width int, now time.Time) string {
	cursor := " "
	if selected {
		cursor = ">"
	}
	line := fmt.Sprintf("%s %s %s", cursor, priorityBadge(t.Priority), truncate(t.Title, width-10))
	if t.DueDate != nil {
		line += "\n    " + dueLabel(t, now)
	}
	if dragged {
		return draggedStyle.Render(line + " (moving)")
	}
	return line
}
