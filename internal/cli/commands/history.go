package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tsbridge/internal/cli/output"
	"github.com/leapstack-labs/tsbridge/internal/state"
)

// HistoryEntry is the JSON output for one recorded emit.
type HistoryEntry struct {
	ID         string    `json:"id"`
	Project    string    `json:"project"`
	Compiler   string    `json:"compiler"`
	Status     string    `json:"status"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Sources    int       `json:"sources"`
	Emitted    int       `json:"emitted"`
	Errors     int       `json:"errors"`
	Warnings   int       `json:"warnings"`
	Error      string    `json:"error,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int
	var all bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent emit runs",
		Long:  `List the emit runs recorded in the state database, newest first.`,
		Example: `  tsbridge history
  tsbridge history --limit 5 --all`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)

			store, err := cmdCtx.OpenStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			project := cmdCtx.Cfg.ProjectRoot
			if all {
				project = ""
			}
			runs, err := store.ListRuns(project, limit)
			if err != nil {
				return err
			}
			return renderHistory(cmdCtx.Renderer, runs)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	cmd.Flags().BoolVar(&all, "all", false, "Include runs from every project")

	return cmd
}

func renderHistory(r *output.Renderer, runs []*state.Run) error {
	if r.EffectiveMode() == output.ModeJSON {
		entries := make([]HistoryEntry, 0, len(runs))
		for _, run := range runs {
			entries = append(entries, HistoryEntry{
				ID:         run.ID,
				Project:    run.ProjectRoot,
				Compiler:   compilerLabel(run),
				Status:     string(run.Status),
				StartedAt:  run.StartedAt,
				DurationMS: run.Duration().Milliseconds(),
				Sources:    run.Sources,
				Emitted:    run.Emitted,
				Errors:     run.Errors,
				Warnings:   run.Warnings,
				Error:      run.Error,
			})
		}
		return r.JSON(entries)
	}

	if len(runs) == 0 {
		r.Println("No emit runs recorded")
		return nil
	}

	rows := make([]table.Row, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, table.Row{
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			string(run.Status),
			run.Sources,
			run.Emitted,
			run.Errors,
			run.Warnings,
			run.Duration().Round(time.Millisecond).String(),
			compilerLabel(run),
		})
	}
	r.Table(table.Row{"Started", "Status", "Sources", "Emitted", "Errors", "Warnings", "Duration", "Compiler"}, rows)
	return nil
}

func compilerLabel(run *state.Run) string {
	if run.Compiler == "" {
		return "-"
	}
	return fmt.Sprintf("%s %s", run.Compiler, run.CompilerVersion)
}
