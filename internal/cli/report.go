package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"taskboard/internal/app"
	"taskboard/internal/task"
	"taskboard/internal/view"
)

func newStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show counts per status and priority",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(a *app.App) error {
				writeStats(cmd.OutOrStdout(), a.Store.Tasks(), time.Now())
				return nil
			})
		},
	}
}

func writeStats(w io.Writer, tasks []task.Task, now time.Time) {
	s := view.ComputeStats(tasks)
	p := view.ComputePriorities(tasks)
	fmt.Fprintf(w, "Total       : %s\n", humanize.Comma(int64(s.Total)))
	fmt.Fprintf(w, "To Do       : %d\n", s.ToDo)
	fmt.Fprintf(w, "In Progress : %d\n", s.InProgress)
	fmt.Fprintf(w, "Done        : %d\n", s.Done)
	fmt.Fprintf(w, "Completion  : %d%%\n", s.CompletionRate)
	fmt.Fprintf(w, "Priority    : High %d, Medium %d, Low %d\n", p.High, p.Medium, p.Low)
	fmt.Fprintf(w, "Due in 7 days: %d\n", len(view.Upcoming(tasks, now)))
}

func newUpcomingCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "upcoming",
		Short: "List tasks due within the next seven days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(a *app.App) error {
				all := a.Store.Tasks()
				now := time.Now()
				writeTaskTable(cmd.OutOrStdout(), view.Upcoming(all, now), all, now)
				return nil
			})
		},
	}
}

func newExportCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all tasks as JSON or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")
			return opts.withApp(cmd, func(a *app.App) error {
				data, err := encodeTasks(a.Store.Tasks(), format)
				if err != nil {
					return err
				}
				if output == "" || output == "-" {
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}
				if err := os.WriteFile(output, data, 0o644); err != nil {
					return fmt.Errorf("failed to write export: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d task(s) to %s\n", len(a.Store.Tasks()), output)
				return nil
			})
		},
	}
	cmd.Flags().StringP("format", "f", "json", "output format: json or yaml")
	cmd.Flags().StringP("output", "o", "", "output file (default stdout)")
	return cmd
}

func encodeTasks(tasks []task.Task, format string) ([]byte, error) {
	if tasks == nil {
		tasks = []task.Task{}
	}
	switch strings.ToLower(format) {
	case "json":
		data, err := json.MarshalIndent(tasks, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case "yaml", "yml":
		return yaml.Marshal(tasks)
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}
