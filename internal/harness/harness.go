package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/parloq/tempora/internal/loader"
	"github.com/parloq/tempora/internal/model"
	"github.com/parloq/tempora/internal/store"
	"github.com/parloq/tempora/internal/testutil"
	"github.com/parloq/tempora/internal/validator"
)

// Result is the outcome of running one scenario.
type Result struct {
	Scenario *Scenario
	Report   *validator.Report
	RunID    string

	// Failures lists every expectation or assertion that did not hold.
	// Empty means the scenario passed.
	Failures []string
}

// Passed reports whether every expectation and assertion held.
func (r *Result) Passed() bool { return len(r.Failures) == 0 }

func (r *Result) failf(format string, args ...any) {
	r.Failures = append(r.Failures, fmt.Sprintf(format, args...))
}

// Run executes a scenario: load the documents, validate the plan, persist
// the run to a fresh in-memory store, replay it for integrity, and check
// expectations. Errors are infrastructure failures; a scenario whose
// expectations fail returns a Result with Failures and a nil error.
func Run(scenario *Scenario) (*Result, error) {
	problem, err := loader.LoadProblem(scenario.problemPath())
	if err != nil {
		return nil, err
	}
	pd, err := loader.LoadPlan(scenario.planPath())
	if err != nil {
		return nil, err
	}

	// Silent by default; scenario runs must not depend on log output.
	v, err := validator.New(problem, validator.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		return nil, err
	}

	var report *validator.Report
	if pd.STN != nil {
		report, err = v.ValidateSTN(pd.STN)
	} else {
		report, err = v.Validate(pd.Plan)
	}
	if err != nil {
		return nil, err
	}

	runID, err := persistAndReplay(scenario, problem, pd, report)
	if err != nil {
		return nil, err
	}

	result := &Result{Scenario: scenario, Report: report, RunID: runID}
	checkExpect(result)
	for i := range scenario.Assertions {
		checkAssertion(result, &scenario.Assertions[i])
	}
	return result, nil
}

// persistAndReplay writes the run to a fresh in-memory store and reads it
// back through the integrity check, so every scenario also exercises the
// storage path.
func persistAndReplay(scenario *Scenario, problem *model.Problem, pd *loader.PlanDoc, report *validator.Report) (string, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return "", fmt.Errorf("scenario store: %w", err)
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

	runID := testutil.NewFixedRunGenerator(scenario.Name).Next()
	ctx := context.Background()
	if err := st.SaveReport(ctx, runID, problemHash, planHash, report); err != nil {
		return "", err
	}
	if _, err := st.Replay(ctx, runID); err != nil {
		return "", fmt.Errorf("scenario replay: %w", err)
	}
	return runID, nil
}

func checkExpect(r *Result) {
	exp := r.Scenario.Expect
	if exp.Status != "" && exp.Status != string(r.Report.Status) {
		r.failf("expected status %s, got %s", exp.Status, r.Report.Status)
	}
	if exp.Reason != "" {
		if r.Report.Inapplicable == nil {
			r.failf("expected inapplicability reason %s, but every event applied", exp.Reason)
		} else if string(r.Report.Inapplicable.Reason) != exp.Reason {
			r.failf("expected inapplicability reason %s, got %s", exp.Reason, r.Report.Inapplicable.Reason)
		}
	}
}
