package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parloq/tempora/internal/store"
	"github.com/parloq/tempora/internal/validator"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string
	Instance string // optional - filter to one instance rendering
}

// TraceResult is the JSON payload for the trace command.
type TraceResult struct {
	RunID  string                 `json:"run_id"`
	Status string                 `json:"status"`
	Events []validator.TraceEvent `json:"events"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the event trace of a persisted run",
		Long: `Show the ordered event trace of a persisted validation run.

Each row carries the logical sequence number, the event kind, the instance,
and its exact rational time.

Examples:
  tempora trace --db ./runs.db --run 9f1c...
  tempora trace --db ./runs.db --run 9f1c... --instance switch_on
  tempora trace --db ./runs.db --run 9f1c... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTraceCmd(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to trace (required)")
	_ = cmd.MarkFlagRequired("run")
	cmd.Flags().StringVar(&opts.Instance, "instance", "", "filter to one instance")

	return cmd
}

func runTraceCmd(opts *TraceOptions, cmd *cobra.Command) error {
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
	run, err := st.GetRun(ctx, opts.RunID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return WrapExitError(ExitCommandError, "run not found", err)
		}
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	events, err := st.GetTrace(ctx, opts.RunID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read trace", err)
	}
	if opts.Instance != "" {
		filtered := events[:0]
		for _, te := range events {
			if te.Instance == opts.Instance {
				filtered = append(filtered, te)
			}
		}
		events = filtered
	}

	result := TraceResult{RunID: run.ID, Status: run.Status, Events: events}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return outputTraceText(formatter, result)
}

func outputTraceText(formatter *OutputFormatter, result TraceResult) error {
	w := formatter.Writer

	fmt.Fprintf(w, "Trace for run %s (%s)\n", result.RunID, result.Status)
	if len(result.Events) == 0 {
		fmt.Fprintln(w, "  (no events)")
		return nil
	}
	for _, te := range result.Events {
		line := fmt.Sprintf("  [%d] %s %s", te.Seq, te.Kind, te.Instance)
		if te.Time != "" {
			line += " @ " + te.Time
		}
		fmt.Fprintln(w, line)
		if formatter.Verbose && te.Detail != "" {
			fmt.Fprintf(w, "       %s\n", te.Detail)
		}
	}
	return nil
}
