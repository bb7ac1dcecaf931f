package ui

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"taskboard/internal/task"
	"taskboard/internal/view"
)

const recentCount = 6

func (m Model) renderDashboard() string {
	tasks := m.b.store.Tasks()
	now := m.now()
	stats := view.ComputeStats(tasks)
	prio := view.ComputePriorities(tasks)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Overview"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Total %d • %s %d • %s %d • %s %d\n",
		stats.Total,
		statusBadge(task.StatusToDo), stats.ToDo,
		statusBadge(task.StatusInProgress), stats.InProgress,
		statusBadge(task.StatusDone), stats.Done)
	fmt.Fprintf(&b, "Completion %s\n\n", percentBar(stats.CompletionRate, 20))

	b.WriteString(titleStyle.Render("By priority"))
	b.WriteString("\n")
	for _, p := range task.Priorities {
		fmt.Fprintf(&b, "  %-6s %d\n", priorityBadge(p), prio.Count(p))
	}

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("Due in the next 7 days"))
	b.WriteString("\n")
	upcoming := view.Upcoming(tasks, now)
	if len(upcoming) == 0 {
		b.WriteString(faintStyle.Render("  nothing due"))
		b.WriteString("\n")
	}
	for _, t := range upcoming {
		fmt.Fprintf(&b, "  %s  %s  %s\n", task.FormatDate(*t.DueDate), truncate(t.Title, 40), dueLabel(t, now))
	}

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("Recently updated"))
	b.WriteString("\n")
	for _, t := range view.Recent(tasks, recentCount) {
		fmt.Fprintf(&b, "  %-11s %s  %s\n", statusBadge(t.Status), truncate(t.Title, 40),
			faintStyle.Render(humanize.RelTime(t.UpdatedAt, now, "ago", "from now")))
	}
	return b.String()
}
