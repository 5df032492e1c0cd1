package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parloq/tempora/internal/loader"
	"github.com/parloq/tempora/internal/model"
	"github.com/parloq/tempora/internal/validator"
)

// CheckResult is the JSON payload for the check command.
type CheckResult struct {
	Consistent  bool   `json:"consistent"`
	Timepoints  int    `json:"timepoints"`
	WitnessFrom string `json:"witness_from,omitempty"`
	WitnessTo   string `json:"witness_to,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <plan>",
		Short: "Check temporal consistency of a plan",
		Long: `Check a plan's simple temporal network for consistency.

STN plan documents are checked directly. Time-triggered plans are first
converted: each activity's start is pinned to its scheduled time and its
start-end distance to its duration. When the network is inconsistent, the
output names a witness pair of timepoints on a negative cycle.

Exit codes:
  0 - Network is consistent
  1 - Network is inconsistent
  2 - Command error (unreadable document, unsupported plan kind)

Examples:
  tempora check stn-plan.yaml
  tempora check schedule.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runCheck(opts *RootOptions, planPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	pd, err := loader.LoadPlan(planPath)
	if err != nil {
		_ = formatter.Error(errorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load plan", err)
	}

	stn := pd.STN
	if stn == nil {
		tt, ok := pd.Plan.(*model.TimeTriggeredPlan)
		if !ok {
			return NewExitError(ExitCommandError, "check requires an stn or time-triggered plan")
		}
		stn = validator.STNFromTimeTriggered(tt)
		formatter.VerboseLog("converted %d activit(ies) to a temporal network", len(tt.Activities))
	}

	net := stn.Network()
	result := CheckResult{
		Consistent: net.Check(),
		Timepoints: len(stn.Nodes()),
	}
	if from, to, ok := net.Witness(); ok {
		result.WitnessFrom = from.String()
		result.WitnessTo = to.String()
	}

	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
		if !result.Consistent {
			return NewExitError(ExitFailure, "temporal network is inconsistent")
		}
		return nil
	}

	return outputCheckText(formatter, result)
}

func outputCheckText(formatter *OutputFormatter, result CheckResult) error {
	w := formatter.Writer

	if result.Consistent {
		fmt.Fprintf(w, "✓ Network is consistent (%d timepoint(s))\n", result.Timepoints)
		return nil
	}

	fmt.Fprintf(w, "✗ Network is INCONSISTENT (%d timepoint(s))\n", result.Timepoints)
	if result.WitnessFrom != "" {
		fmt.Fprintf(w, "  Witness: %s -> %s\n", result.WitnessFrom, result.WitnessTo)
	}
	return NewExitError(ExitFailure, "temporal network is inconsistent")
}
