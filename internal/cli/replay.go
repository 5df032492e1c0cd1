package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parloq/tempora/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
}

// ReplayRunResult holds the integrity verdict for a single run.
type ReplayRunResult struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs      []ReplayRunResult `json:"runs"`
	TotalRuns int               `json:"total_runs"`
	AllOK     bool              `json:"all_ok"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Verify the integrity of persisted runs",
		Long: `Replay persisted runs and verify their integrity.

Each run's stored canonical report is re-hashed and compared against its
recorded fingerprint, and its trace is checked for a dense sequence. A
failing replay means the stored bytes were altered after the run.

Exit codes:
  0 - Every run verified
  1 - Integrity verification failed
  2 - Command error (database or run not found)

Examples:
  tempora replay --db ./runs.db
  tempora replay --db ./runs.db --run 9f1c...
  tempora replay --db ./runs.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay a specific run only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
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

	ctx := context.Background()
	var runIDs []string
	if opts.RunID != "" {
		runIDs = []string{opts.RunID}
	} else {
		// Negative limit means no limit in SQLite.
		runs, err := st.ListRuns(ctx, -1)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		for _, run := range runs {
			runIDs = append(runIDs, run.ID)
		}
	}

	result := ReplayResult{
		Runs:      make([]ReplayRunResult, 0, len(runIDs)),
		TotalRuns: len(runIDs),
		AllOK:     true,
	}
	for _, runID := range runIDs {
		rr := ReplayRunResult{RunID: runID, OK: true}
		run, err := st.Replay(ctx, runID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			return WrapExitError(ExitCommandError, "run not found", err)
		case err != nil:
			rr.OK = false
			rr.Error = err.Error()
			result.AllOK = false
		default:
			rr.Status = run.Status
		}
		result.Runs = append(result.Runs, rr)
	}

	if opts.Format == "json" {
		return outputReplayJSON(formatter, result)
	}
	return outputReplayText(formatter, result)
}

func outputReplayJSON(formatter *OutputFormatter, result ReplayResult) error {
	if result.AllOK {
		if err := formatter.Success(result); err != nil {
			return err
		}
		return nil
	}
	if err := formatter.Error("E_INTEGRITY", "integrity verification failed", result); err != nil {
		return err
	}
	return NewExitError(ExitFailure, "integrity verification failed")
}

func outputReplayText(formatter *OutputFormatter, result ReplayResult) error {
	w := formatter.Writer

	if result.TotalRuns == 0 {
		fmt.Fprintln(w, "No runs found.")
		return nil
	}

	fmt.Fprintf(w, "Replay: %d run(s)\n", result.TotalRuns)
	for _, rr := range result.Runs {
		if rr.OK {
			fmt.Fprintf(w, "  ✓ %s (%s)\n", rr.RunID, rr.Status)
		} else {
			fmt.Fprintf(w, "  ✗ %s: %s\n", rr.RunID, rr.Error)
		}
	}

	if result.AllOK {
		fmt.Fprintln(w, "✓ All runs verified")
		return nil
	}
	fmt.Fprintln(w, "✗ Integrity verification failed")
	return NewExitError(ExitFailure, "integrity verification failed")
}
