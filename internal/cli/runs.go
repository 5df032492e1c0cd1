package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parloq/tempora/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// RunSummary is one listed run.
type RunSummary struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	ProblemHash string `json:"problem_hash"`
	PlanHash    string `json:"plan_hash,omitempty"`
	ReportHash  string `json:"report_hash"`
	CreatedAt   string `json:"created_at"`
}

// RunsResult is the JSON payload for the runs command.
type RunsResult struct {
	Runs  []RunSummary `json:"runs"`
	Total int          `json:"total"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List persisted validation runs",
		Long: `List validation runs stored in a database, newest first.

Examples:
  tempora runs --db ./runs.db
  tempora runs --db ./runs.db --limit 5 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs to list")

	return cmd
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	runs, err := st.ListRuns(context.Background(), opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	result := RunsResult{Runs: make([]RunSummary, 0, len(runs)), Total: len(runs)}
	for _, run := range runs {
		result.Runs = append(result.Runs, RunSummary{
			ID:          run.ID,
			Status:      run.Status,
			ProblemHash: run.ProblemHash,
			PlanHash:    run.PlanHash,
			ReportHash:  run.ReportHash,
			CreatedAt:   run.CreatedAt,
		})
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	if result.Total == 0 {
		fmt.Fprintln(w, "No runs found.")
		return nil
	}
	fmt.Fprintf(w, "%d run(s):\n", result.Total)
	for _, run := range result.Runs {
		fmt.Fprintf(w, "  %s  %-8s %s\n", run.ID, run.Status, run.CreatedAt)
		if formatter.Verbose {
			fmt.Fprintf(w, "    problem %s\n", run.ProblemHash)
			if run.PlanHash != "" {
				fmt.Fprintf(w, "    plan    %s\n", run.PlanHash)
			}
			fmt.Fprintf(w, "    report  %s\n", run.ReportHash)
		}
	}
	return nil
}
