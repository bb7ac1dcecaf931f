package ui

import (
	"strings"

	"taskboard/internal/task"
)

// parseFilter reads a filter line such as
//
//	status:in-progress priority:high assignee:jane tag:api,docs login bug
//
// Unqualified words form the free-text search. Values that do not parse as
// a status or priority are ignored.
func parseFilter(line string) task.Filter {
	var f task.Filter
	var search []string
	for _, word := range strings.Fields(line) {
		key, val, ok := strings.Cut(word, ":")
		if !ok || val == "" {
			search = append(search, word)
			continue
		}
		switch strings.ToLower(key) {
		case "status", "s":
			if s, ok := task.ParseStatus(val); ok {
				f.Status = s
			}
		case "priority", "p":
			if p, ok := task.ParsePriority(val); ok {
				f.Priority = p
			}
		case "assignee", "a", "@":
			f.Assignee = val
		case "tag", "tags", "t", "#":
			f.Tags = append(f.Tags, task.ParseTags(val)...)
		default:
			search = append(search, word)
		}
	}
	f.Search = strings.Join(search, " ")
	return f
}

// formatFilter is the inverse of parseFilter for display and editing.
func formatFilter(f task.Filter) string {
	var parts []string
	if f.Status != "" {
		parts = append(parts, "status:"+statusToken(f.Status))
	}
	if f.Priority != "" {
		parts = append(parts, "priority:"+strings.ToLower(string(f.Priority)))
	}
	if f.Assignee != "" {
		parts = append(parts, "assignee:"+f.Assignee)
	}
	if len(f.Tags) > 0 {
		parts = append(parts, "tag:"+strings.Join(f.Tags, ","))
	}
	if f.Search != "" {
		parts = append(parts, f.Search)
	}
	return strings.Join(parts, " ")
}

func statusToken(s task.Status) string {
	return strings.ReplaceAll(strings.ToLower(string(s)), " ", "-")
}
