package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance scenario: inputs, expected outcome, and
// optional trace assertions.
type Scenario struct {
	// Name uniquely identifies this scenario; it also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Problem and Plan are document paths, relative to the scenario file.
	Problem string `yaml:"problem"`
	Plan    string `yaml:"plan"`

	// Expect is the required outcome.
	Expect Expect `yaml:"expect"`

	// Assertions validate the trace beyond the outcome.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	dir string // scenario file location, for resolving relative paths
}

// Expect specifies the required validation outcome.
type Expect struct {
	// Status is VALID or INVALID.
	Status string `yaml:"status"`

	// Reason, when set, is the required inapplicability reason code
	// (e.g. CONDITION_FALSE, TEMPORAL_INCONSISTENT, CONFLICTING_EFFECT).
	Reason string `yaml:"reason,omitempty"`
}

// Assertion validates the trace.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Instance names an instance rendering (used by trace_contains,
	// trace_count).
	Instance string `yaml:"instance,omitempty"`

	// Kind optionally restricts trace_contains/trace_count to one event kind.
	Kind string `yaml:"kind,omitempty"`

	// Count is the expected number of matches (trace_count).
	Count int `yaml:"count,omitempty"`

	// Instances is the required relative order of first appearances
	// (trace_order).
	Instances []string `yaml:"instances,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
)

// LoadScenario reads one scenario file. Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	sc := &Scenario{}
	if err := dec.Decode(sc); err != nil {
		return nil, fmt.Errorf("load scenario %s: %w", path, err)
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("load scenario %s: name is required", path)
	}
	if sc.Problem == "" || sc.Plan == "" {
		return nil, fmt.Errorf("load scenario %s: problem and plan are required", path)
	}
	sc.dir = filepath.Dir(path)
	return sc, nil
}

// LoadScenarioDir loads every *.yaml scenario in a directory, sorted by
// name for deterministic test order.
func LoadScenarioDir(dir string) ([]*Scenario, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("scan scenarios: %w", err)
	}
	sort.Strings(matches)
	var out []*Scenario
	for _, path := range matches {
		sc, err := LoadScenario(path)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}

func (s *Scenario) problemPath() string { return filepath.Join(s.dir, s.Problem) }
func (s *Scenario) planPath() string    { return filepath.Join(s.dir, s.Plan) }
