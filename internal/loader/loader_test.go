package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parloq/tempora/internal/model"
)

const lampYAML = `
problem:
  name: lamp
  fluents:
    - name: lit
      type: bool
      default: {bool: false}
  actions:
    - name: switch_on
      conditions:
        - at: start
          expr: {not: {fluent: {name: lit}}}
      effects:
        - at: start
          fluent: {name: lit}
          kind: assign
          value: {lit: {bool: true}}
    - name: switch_off
      conditions:
        - at: start
          expr: {fluent: {name: lit}}
      effects:
        - at: start
          fluent: {name: lit}
          kind: assign
          value: {lit: {bool: false}}
  goals:
    - {not: {fluent: {name: lit}}}
`

const tankYAML = `
problem:
  name: tank
  fluents:
    - name: level
      type: rat
  init:
    level: {rat: "10"}
  actions:
    - name: drain
      durative: true
      duration: {lower: "2", upper: "4"}
      conditions:
        - at: over-all
          expr: {op: "<", left: {lit: {rat: "0"}}, right: {fluent: {name: level}}}
      continuous:
        - fluent: {name: level}
          kind: decrease
          rate: {lit: {rat: "1/2"}}
  metrics:
    - name: makespan
      kind: minimize-makespan
    - name: left
      kind: maximize
      expr: {fluent: {name: level}}
`

// TestParseProblem_Lamp parses a full problem document.
func TestParseProblem_Lamp(t *testing.T) {
	p, err := ParseProblem([]byte(lampYAML))
	require.NoError(t, err)

	assert.Equal(t, "lamp", p.Name)
	require.Len(t, p.Fluents, 1)
	assert.Equal(t, model.Bool(false), p.Fluents[0].Default)
	require.Len(t, p.Actions, 2)
	require.Len(t, p.Goals, 1)

	on, ok := p.Action("switch_on")
	require.True(t, ok)
	require.Len(t, on.Conditions, 1)
	assert.True(t, on.Conditions[0].Interval.IsPoint())
	require.Len(t, on.Effects, 1)
	assert.Equal(t, model.EffectAssign, on.Effects[0].Kind)
}

// TestParseProblem_Durative parses durations, continuous effects, init
// values, and metrics with exact rationals.
func TestParseProblem_Durative(t *testing.T) {
	p, err := ParseProblem([]byte(tankYAML))
	require.NoError(t, err)

	drain, ok := p.Action("drain")
	require.True(t, ok)
	assert.True(t, drain.Durative)
	require.NotNil(t, drain.Duration.Lower)
	assert.Equal(t, "2", drain.Duration.Lower.RatString())
	assert.Equal(t, "4", drain.Duration.Upper.RatString())
	require.Len(t, drain.Continuous, 1)
	assert.Equal(t, model.EffectDecrease, drain.Continuous[0].Kind)

	init, ok := p.Init["level"]
	require.True(t, ok)
	assert.Equal(t, "10", init.String())

	require.Len(t, p.Metrics, 2)
	assert.Equal(t, model.MetricMinimizeMakespan, p.Metrics[0].Kind)
	assert.Equal(t, model.MetricMaximizeExpr, p.Metrics[1].Kind)
}

// TestParseProblem_SchemaViolation rejects a structurally invalid document
// with the schema error code.
func TestParseProblem_SchemaViolation(t *testing.T) {
	bad := `
problem:
  name: broken
  fluents:
    - name: x
      type: float
`
	_, err := ParseProblem([]byte(bad))
	require.Error(t, err)
	le, ok := err.(*LoadError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeSchema, le.Code)
}

// TestParseProblem_MissingTopLevelKey rejects documents without a problem
// key.
func TestParseProblem_MissingTopLevelKey(t *testing.T) {
	_, err := ParseProblem([]byte(`plan: {kind: sequential, steps: []}`))
	require.Error(t, err)
	le, ok := err.(*LoadError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeStructure, le.Code)
}

// TestParseProblem_BadRational rejects malformed rational strings.
func TestParseProblem_BadRational(t *testing.T) {
	bad := `
problem:
  name: broken
  fluents:
    - name: x
      type: rat
      default: {rat: "not-a-number"}
`
	_, err := ParseProblem([]byte(bad))
	require.Error(t, err)
	le, ok := err.(*LoadError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeValue, le.Code)
}

// TestParsePlan_TimeTriggered parses scheduled activities with exact starts
// and durations.
func TestParsePlan_TimeTriggered(t *testing.T) {
	doc := `
plan:
  kind: time-triggered
  activities:
    - action: drain
      start: "0"
      duration: "3"
    - action: drain
      start: "7/2"
      duration: "2"
`
	pd, err := ParsePlan([]byte(doc))
	require.NoError(t, err)
	require.NotNil(t, pd.Plan)
	assert.Nil(t, pd.STN)

	tt, ok := pd.Plan.(*model.TimeTriggeredPlan)
	require.True(t, ok)
	require.Len(t, tt.Activities, 2)
	assert.Equal(t, "7/2", tt.Activities[1].Start.RatString())
	// Identical (action, args) pairs still get distinct instance IDs.
	assert.NotEqual(t, tt.Activities[0].Instance.ID, tt.Activities[1].Instance.ID)
}

// TestParsePlan_Sequential parses an untimed sequence.
func TestParsePlan_Sequential(t *testing.T) {
	doc := `
plan:
  kind: sequential
  steps:
    - action: switch_on
    - action: switch_off
`
	pd, err := ParsePlan([]byte(doc))
	require.NoError(t, err)
	sp, ok := pd.Plan.(*model.SequentialPlan)
	require.True(t, ok)
	require.Len(t, sp.Steps, 2)
}

// TestParsePlan_PartialOrder parses instances and their ordering edges.
func TestParsePlan_PartialOrder(t *testing.T) {
	doc := `
plan:
  kind: partial-order
  instances:
    - {id: a, action: switch_on}
    - {id: b, action: switch_off}
  order:
    a: [b]
`
	pd, err := ParsePlan([]byte(doc))
	require.NoError(t, err)
	pop, ok := pd.Plan.(*model.PartialOrderPlan)
	require.True(t, ok)
	require.Len(t, pop.Instances, 2)
	assert.Equal(t, []string{"b"}, pop.Order["a"])
}

// TestParsePlan_STN parses explicit temporal constraints.
func TestParsePlan_STN(t *testing.T) {
	doc := `
plan:
  kind: stn
  constraints:
    - from: {kind: global-start}
      to: {kind: start, container: a}
      lower: "0"
      upper: "5"
    - from: {kind: start, container: a}
      to: {kind: end, container: a}
      lower: "2"
      upper: "2"
`
	pd, err := ParsePlan([]byte(doc))
	require.NoError(t, err)
	assert.Nil(t, pd.Plan)
	require.NotNil(t, pd.STN)
	assert.True(t, pd.STN.IsConsistent())
	assert.Len(t, pd.STN.Nodes(), 2)
}

// TestParsePlan_UnknownKind rejects unknown plan kinds at the schema layer.
func TestParsePlan_UnknownKind(t *testing.T) {
	_, err := ParsePlan([]byte(`plan: {kind: gantt}`))
	require.Error(t, err)
	le, ok := err.(*LoadError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeSchema, le.Code)
}

// TestLoadProblem_StampsPath includes the file path in load errors.
func TestLoadProblem_StampsPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("problem: {name: \"\"}"), 0o644))

	_, err := LoadProblem(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.yaml")
}

// TestLoadProblem_RoundTrip writes and reloads a document.
func TestLoadProblem_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lamp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(lampYAML), 0o644))

	p, err := LoadProblem(path)
	require.NoError(t, err)
	assert.Equal(t, "lamp", p.Name)
}
