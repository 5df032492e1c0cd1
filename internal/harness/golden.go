package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/parloq/tempora/internal/model"
)

// RunWithGolden executes a scenario and compares its canonical report
// against testdata/golden/{scenario.Name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
//
// The scenario's own expectations are checked first; a scenario that fails
// its expectations never reaches the golden comparison.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, f := range result.Failures {
		t.Errorf("scenario %s: %s", scenario.Name, f)
	}
	if !result.Passed() {
		return nil
	}

	snapshot := map[string]any{
		"scenario": scenario.Name,
		"report":   result.Report.CanonicalMap(),
	}
	data, err := model.MarshalCanonical(snapshot)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
	return nil
}
