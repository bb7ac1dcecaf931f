package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"taskboard/internal/app"
	"taskboard/internal/task"
	"taskboard/internal/view"
)

const shortIDLen = 8

func newListCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := filterFromFlags(cmd)
			if err != nil {
				return err
			}
			s, err := sortingFromFlags(cmd)
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(a *app.App) error {
				all := a.Store.Tasks()
				writeTaskTable(cmd.OutOrStdout(), view.Visible(all, f, s), all, time.Now())
				return nil
			})
		},
	}
	fl := cmd.Flags()
	fl.String("status", "", "only tasks with this status (todo, in-progress, done)")
	fl.String("priority", "", "only tasks with this priority (low, medium, high)")
	fl.String("assignee", "", "assignee substring, case-insensitive")
	fl.String("search", "", "text to find in title or description")
	fl.StringSlice("tag", nil, "only tasks carrying any of these tags")
	fl.String("sort", string(view.SortManual), "sort key: createdAt, dueDate, priority or manual")
	fl.String("order", string(view.Asc), "sort order: asc or desc")
	return cmd
}

func newShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(a *app.App) error {
				id, err := resolveID(a.Store.Tasks(), args[0])
				if err != nil {
					return err
				}
				t, _ := a.Store.Get(id)
				writeTaskDetail(cmd.OutOrStdout(), t, time.Now())
				return nil
			})
		},
	}
}

func newAddCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := fieldsFromFlags(cmd, true)
			if err != nil {
				return err
			}
			f.Title = task.Ptr(strings.Join(args, " "))
			return opts.withApp(cmd, func(a *app.App) error {
				return printResult(cmd.OutOrStdout(), a.Store.AddTask(cmd.Context(), f))
			})
		},
	}
	addFieldFlags(cmd, true)
	return cmd
}

func newUpdateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a task",
		Long: `Change fields of a task. Only flags that are given are applied.
Pass an empty value to clear a field, e.g. --due "" or --tags "".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := fieldsFromFlags(cmd, false)
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(a *app.App) error {
				id, err := resolveID(a.Store.Tasks(), args[0])
				if err != nil {
					return err
				}
				return printResult(cmd.OutOrStdout(), a.Store.UpdateTask(cmd.Context(), id, f))
			})
		},
	}
	cmd.Flags().String("title", "", "new title")
	addFieldFlags(cmd, false)
	return cmd
}

func newMoveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <status>",
		Short: "Move a task to another board column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, ok := task.ParseStatus(args[1])
			if !ok {
				return fmt.Errorf("unknown status %q", args[1])
			}
			return opts.withApp(cmd, func(a *app.App) error {
				id, err := resolveID(a.Store.Tasks(), args[0])
				if err != nil {
					return err
				}
				return printResult(cmd.OutOrStdout(), a.Store.MoveTask(cmd.Context(), id, status))
			})
		},
	}
}

func newDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(a *app.App) error {
				id, err := resolveID(a.Store.Tasks(), args[0])
				if err != nil {
					return err
				}
				return printResult(cmd.OutOrStdout(), a.Store.DeleteTask(cmd.Context(), id))
			})
		},
	}
}

func newReorderCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <from> <to>",
		Short: "Move the task at one list position to another",
		Long:  "Positions are the 1-based numbers in the # column of `taskboard list`.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parsePosition(args[0])
			if err != nil {
				return err
			}
			to, err := parsePosition(args[1])
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(a *app.App) error {
				tasks := a.Store.Tasks()
				if from >= len(tasks) {
					return fmt.Errorf("no task at position %d", from+1)
				}
				moved := tasks[from]
				if res := a.Store.ReorderTasks(from, to); !res.Success {
					return printResult(cmd.OutOrStdout(), res)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Moved %q to position %d\n", moved.Title, min(to, len(tasks)-1)+1)
				return nil
			})
		},
	}
}

func parsePosition(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid position %q", v)
	}
	return n - 1, nil
}

func addFieldFlags(cmd *cobra.Command, create bool) {
	fl := cmd.Flags()
	status, priority := "", ""
	if create {
		status, priority = "todo", "medium"
	}
	fl.StringP("description", "d", "", "description")
	fl.StringP("status", "s", status, "status: todo, in-progress or done")
	fl.StringP("priority", "p", priority, "priority: low, medium or high")
	fl.String("due", "", "due date (YYYY-MM-DD)")
	fl.StringSlice("tags", nil, "comma separated tags")
	fl.StringP("assignee", "a", "", "assignee name")
}

// fieldsFromFlags maps flags to store input. Updates only carry the flags
// the user actually passed.
func fieldsFromFlags(cmd *cobra.Command, create bool) (task.Fields, error) {
	fl := cmd.Flags()
	var f task.Fields
	given := func(name string) bool {
		return fl.Lookup(name) != nil && (create || fl.Changed(name))
	}
	if given("title") {
		v, _ := fl.GetString("title")
		f.Title = &v
	}
	if given("description") {
		v, _ := fl.GetString("description")
		f.Description = &v
	}
	if given("status") {
		v, _ := fl.GetString("status")
		s, ok := task.ParseStatus(v)
		if !ok {
			s = task.Status(v)
		}
		f.Status = &s
	}
	if given("priority") {
		v, _ := fl.GetString("priority")
		p, ok := task.ParsePriority(v)
		if !ok {
			p = task.Priority(v)
		}
		f.Priority = &p
	}
	if fl.Changed("due") {
		v, _ := fl.GetString("due")
		f.DueDate = &v
	}
	if fl.Changed("tags") {
		v, err := fl.GetStringSlice("tags")
		if err != nil {
			return f, err
		}
		f.Tags = append([]string{}, v...)
	}
	if given("assignee") {
		v, _ := fl.GetString("assignee")
		f.Assignee = &v
	}
	return f, nil
}

func filterFromFlags(cmd *cobra.Command) (task.Filter, error) {
	fl := cmd.Flags()
	var f task.Filter
	if v, _ := fl.GetString("status"); v != "" {
		s, ok := task.ParseStatus(v)
		if !ok {
			return f, fmt.Errorf("unknown status %q", v)
		}
		f.Status = s
	}
	if v, _ := fl.GetString("priority"); v != "" {
		p, ok := task.ParsePriority(v)
		if !ok {
			return f, fmt.Errorf("unknown priority %q", v)
		}
		f.Priority = p
	}
	f.Assignee, _ = fl.GetString("assignee")
	f.Search, _ = fl.GetString("search")
	f.Tags, _ = fl.GetStringSlice("tag")
	return f, nil
}

func sortingFromFlags(cmd *cobra.Command) (view.Sorting, error) {
	sortBy, _ := cmd.Flags().GetString("sort")
	order, _ := cmd.Flags().GetString("order")
	k, err := view.ParseSortKey(sortBy)
	if err != nil {
		return view.Sorting{}, err
	}
	o, err := view.ParseOrder(order)
	if err != nil {
		return view.Sorting{}, err
	}
	return view.Sorting{Key: k, Order: o}, nil
}

// resolveID accepts a full id or a unique prefix of one.
func resolveID(tasks []task.Task, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty task id")
	}
	var matches []string
	for _, t := range tasks {
		if t.ID == ref {
			return t.ID, nil
		}
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: no task with id %s", task.ErrNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("id prefix %q is ambiguous (%d matches)", ref, len(matches))
	}
}

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

func printResult(w io.Writer, res task.Result) error {
	if res.Success {
		if res.Task != nil {
			fmt.Fprintf(w, "%s (%s)\n", res.Message, shortID(res.Task.ID))
		} else {
			fmt.Fprintln(w, res.Message)
		}
		return nil
	}
	if res.Message != "" {
		fmt.Fprintln(w, res.Message)
	}
	for _, e := range res.Errors {
		fmt.Fprintf(w, "  %s: %s\n", e.Field, e.Message)
	}
	return res.Err()
}

// writeTaskTable prints tasks with their position in the full collection,
// which is what reorder expects.
func writeTaskTable(w io.Writer, tasks, all []task.Task, now time.Time) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks found.")
		return
	}
	pos := make(map[string]int, len(all))
	for i, t := range all {
		pos[t.ID] = i + 1
	}
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		due := ""
		if t.DueDate != nil {
			due = task.FormatDate(*t.DueDate) + " (" + humanize.RelTime(*t.DueDate, now, "ago", "from now") + ")"
		}
		rows = append(rows, []string{
			strconv.Itoa(pos[t.ID]),
			shortID(t.ID),
			string(t.Status),
			string(t.Priority),
			t.Title,
			due,
			t.Assignee,
		})
	}
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "ID", "STATUS", "PRIORITY", "TITLE", "DUE", "ASSIGNEE").
		Rows(rows...)
	fmt.Fprintln(w, tbl.String())
	fmt.Fprintf(w, "%s of %s task(s)\n", humanize.Comma(int64(len(tasks))), humanize.Comma(int64(len(all))))
}

func writeTaskDetail(w io.Writer, t task.Task, now time.Time) {
	fmt.Fprintf(w, "ID          : %s\n", t.ID)
	fmt.Fprintf(w, "Title       : %s\n", t.Title)
	fmt.Fprintf(w, "Status      : %s\n", t.Status)
	fmt.Fprintf(w, "Priority    : %s\n", t.Priority)
	if t.Description != "" {
		fmt.Fprintf(w, "Description : %s\n", t.Description)
	}
	if t.DueDate != nil {
		fmt.Fprintf(w, "Due         : %s (%s)\n", task.FormatDate(*t.DueDate), humanize.RelTime(*t.DueDate, now, "ago", "from now"))
	}
	if len(t.Tags) > 0 {
		fmt.Fprintf(w, "Tags        : %s\n", strings.Join(t.Tags, ", "))
	}
	if t.Assignee != "" {
		fmt.Fprintf(w, "Assignee    : %s\n", t.Assignee)
	}
	fmt.Fprintf(w, "Created     : %s\n", humanize.RelTime(t.CreatedAt, now, "ago", "from now"))
	fmt.Fprintf(w, "Updated     : %s\n", humanize.RelTime(t.UpdatedAt, now, "ago", "from now"))
}
