package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"taskboard/internal/app"
	"taskboard/internal/config"
	"taskboard/internal/ui"
)

const logFileName = "taskboard.log"

// options holds the persistent flags shared by every command.
type options struct {
	configPath string
	backend    string
	dbPath     string
}

// NewRootCmd builds the command tree. Running the root command without a
// subcommand starts the interactive board.
func NewRootCmd(version string) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "taskboard",
		Short: "Task and kanban board for the terminal",
		Long: `taskboard keeps a list of tasks with status, priority, due dates, tags and assignees.

Run without arguments for the interactive list, kanban and dashboard views,
or use the subcommands for scripting.`,
		Version:       version,
		RunE:          func(cmd *cobra.Command, _ []string) error { return runTUI(cmd, opts) },
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "config file (default $TASKBOARD_CONFIG or the user config dir)")
	pf.StringVar(&opts.backend, "backend", "", "storage backend: sqlite, postgres or memory")
	pf.StringVar(&opts.dbPath, "db", "", "sqlite database path")

	root.AddCommand(
		newListCmd(opts),
		newShowCmd(opts),
		newAddCmd(opts),
		newUpdateCmd(opts),
		newMoveCmd(opts),
		newDeleteCmd(opts),
		newReorderCmd(opts),
		newStatsCmd(opts),
		newUpcomingCmd(opts),
		newExportCmd(opts),
	)
	return root
}

// Execute runs the root command
func Execute(ctx context.Context, version string) error {
	if err := NewRootCmd(version).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func (o *options) load() (config.Config, string, error) {
	path := o.configPath
	if path == "" {
		path = config.ResolveConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, path, fmt.Errorf("failed to load config: %w", err)
	}
	if o.backend != "" {
		cfg.Backend = strings.ToLower(o.backend)
	}
	if o.dbPath != "" {
		cfg.DBPath = o.dbPath
	}
	return cfg, path, cfg.Validate()
}

func (o *options) open(cmd *cobra.Command) (*app.App, error) {
	cfg, _, err := o.load()
	if err != nil {
		return nil, err
	}
	a, err := app.Open(cmd.Context(), cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open task store: %w", err)
	}
	return a, nil
}

// withApp opens the store for the duration of fn.
func (o *options) withApp(cmd *cobra.Command, fn func(a *app.App) error) error {
	a, err := o.open(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func runTUI(cmd *cobra.Command, opts *options) error {
	cfg, path, err := opts.load()
	if err != nil {
		return err
	}
	// The terminal belongs to the UI, so logs go to a file beside the config.
	f, err := tea.LogToFile(filepath.Join(filepath.Dir(path), logFileName), "taskboard")
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	a, err := app.Open(cmd.Context(), cfg, nil)
	if err != nil {
		return fmt.Errorf("failed to open task store: %w", err)
	}
	defer a.Close()

	if err := ui.Run(cmd.Context(), a.Store, cfg); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
