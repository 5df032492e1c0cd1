package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/parloq/tempora/internal/loader"
	"github.com/parloq/tempora/internal/model"
	"github.com/parloq/tempora/internal/store"
	"github.com/parloq/tempora/internal/validator"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Database          string
	MaxLinearizations int
}

// ValidateResult is the JSON payload for the validate command.
type ValidateResult struct {
	Status string         `json:"status"`
	RunID  string         `json:"run_id,omitempty"`
	Report map[string]any `json:"report"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <problem> <plan>",
		Short: "Validate a plan against a problem",
		Long: `Validate a plan document against a problem document.

The plan is expanded into timed events, simulated with exact rational
arithmetic, and checked against conditions, invariants, timed goals, and
final-state goals. STN plan documents are checked for temporal consistency
instead of being simulated.

Exit codes:
  0 - Plan is valid
  1 - Plan is invalid
  2 - Command error (unreadable documents, malformed YAML, etc.)

Examples:
  tempora validate problem.yaml plan.yaml
  tempora validate problem.yaml plan.yaml --db ./runs.db
  tempora validate problem.yaml plan.yaml --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "persist the run to this SQLite database")
	cmd.Flags().IntVar(&opts.MaxLinearizations, "max-linearizations", validator.DefaultMaxLinearizations,
		"cap on total orders examined for partial-order plans")

	return cmd
}

func runValidate(opts *ValidateOptions, problemPath, planPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	problem, err := loader.LoadProblem(problemPath)
	if err != nil {
		_ = formatter.Error(errorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load problem", err)
	}
	pd, err := loader.LoadPlan(planPath)
	if err != nil {
		_ = formatter.Error(errorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load plan", err)
	}
	formatter.VerboseLog("loaded problem %s with %d action(s)", problem.Name, len(problem.Actions))

	vopts := []validator.Option{validator.WithMaxLinearizations(opts.MaxLinearizations)}
	if opts.Verbose {
		vopts = append(vopts, validator.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))))
	}
	v, err := validator.New(problem, vopts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build validator", err)
	}

	var report *validator.Report
	if pd.STN != nil {
		report, err = v.ValidateSTN(pd.STN)
	} else {
		report, err = v.Validate(pd.Plan)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "validation error", err)
	}

	runID := ""
	if opts.Database != "" {
		if runID, err = persistRun(opts.Database, problem, pd, report); err != nil {
			return WrapExitError(ExitCommandError, "failed to persist run", err)
		}
		formatter.VerboseLog("persisted run %s to %s", runID, opts.Database)
	}

	if opts.Format == "json" {
		result := ValidateResult{
			Status: string(report.Status),
			RunID:  runID,
			Report: report.CanonicalMap(),
		}
		if err := formatter.Success(result); err != nil {
			return err
		}
		if !report.Valid() {
			return NewExitError(ExitFailure, "plan is invalid")
		}
		return nil
	}

	return outputValidateText(formatter, report, runID)
}

// persistRun stores the report under a fresh run ID keyed by the input
// fingerprints.
func persistRun(dbPath string, problem *model.Problem, pd *loader.PlanDoc, report *validator.Report) (string, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return "", err
	}
	defer st.Close()

	problemHash, err := problem.Fingerprint()
	if err != nil {
		return "", err
	}
	planHash := ""
	if tt, ok := pd.Plan.(*model.TimeTriggeredPlan); ok {
		if planHash, err = tt.Fingerprint(); err != nil {
			return "", err
		}
	}

	runID := store.NewRunID()
	if err := st.SaveReport(context.Background(), runID, problemHash, planHash, report); err != nil {
		return "", err
	}
	return runID, nil
}

func outputValidateText(formatter *OutputFormatter, report *validator.Report, runID string) error {
	w := formatter.Writer

	if report.Valid() {
		fmt.Fprintln(w, "✓ Plan is VALID")
	} else {
		fmt.Fprintln(w, "✗ Plan is INVALID")
	}

	if ia := report.Inapplicable; ia != nil {
		fmt.Fprintf(w, "  Inapplicable: %s (%s)\n", ia.Event.String(), ia.Reason)
		if ia.Condition != "" {
			fmt.Fprintf(w, "  Condition: %s\n", ia.Condition)
		}
		if ia.WitnessFrom != "" {
			fmt.Fprintf(w, "  Witness: %s -> %s\n", ia.WitnessFrom, ia.WitnessTo)
		}
	}
	if report.ViolatedCondition != "" {
		fmt.Fprintf(w, "  Violated: %s\n", report.ViolatedCondition)
	}
	for _, g := range report.UnsatisfiedGoals {
		fmt.Fprintf(w, "  Unsatisfied goal: %s\n", g)
	}
	if report.WitnessFrom != "" {
		fmt.Fprintf(w, "  Witness: %s -> %s\n", report.WitnessFrom, report.WitnessTo)
	}
	names := make([]string, 0, len(report.MetricValues))
	for name := range report.MetricValues {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  Metric %s = %s\n", name, report.MetricValues[name])
	}
	if report.Linearizations > 0 {
		fmt.Fprintf(w, "  Linearizations examined: %d\n", report.Linearizations)
	}

	fmt.Fprintf(w, "  Trace: %d event(s)\n", len(report.Trace))
	if formatter.Verbose {
		for _, te := range report.Trace {
			line := fmt.Sprintf("  [%d] %s %s", te.Seq, te.Kind, te.Instance)
			if te.Time != "" {
				line += " @ " + te.Time
			}
			fmt.Fprintln(w, line)
		}
	}
	if runID != "" {
		fmt.Fprintf(w, "  Run: %s\n", runID)
	}

	if !report.Valid() {
		return NewExitError(ExitFailure, "plan is invalid")
	}
	return nil
}
