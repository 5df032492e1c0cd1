package simulator

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parloq/tempora/internal/model"
	"github.com/parloq/tempora/internal/temporal"
)

// testProblem declares a small mixed domain: an instantaneous lamp toggle, a
// durative activity guarded by an overall condition, a durative drain with a
// continuous effect, and an action backed by externally-simulated effects.
func testProblem() *model.Problem {
	return &model.Problem{
		Name: "lamp",
		Fluents: []model.Fluent{
			{Name: "lit", Type: model.TypeBool, Default: model.Bool(false)},
			{Name: "level", Type: model.TypeRat},
			{Name: "position", Type: model.TypeSym, Default: model.Sym("base")},
		},
		Actions: []*model.Action{
			{
				Name:       "switch_on",
				Conditions: []model.Condition{{Interval: model.AtStart(), Expr: model.Not{X: model.Fl("lit")}}},
				Effects: []model.Effect{{
					Timing: model.StartTiming(), Fluent: model.Fl("lit"),
					Kind: model.EffectAssign, Value: model.Lit(model.Bool(true)),
				}},
			},
			{
				Name: "switch_off",
				Effects: []model.Effect{{
					Timing: model.StartTiming(), Fluent: model.Fl("lit"),
					Kind: model.EffectAssign, Value: model.Lit(model.Bool(false)),
				}},
			},
			{
				Name:       "hold",
				Durative:   true,
				Duration:   model.DurationBound{Lower: big.NewRat(1, 1), Upper: big.NewRat(5, 1)},
				Conditions: []model.Condition{{Interval: model.OverAll(), Expr: model.Fl("lit")}},
			},
			{
				Name:     "drain",
				Durative: true,
				Duration: model.DurationBound{Lower: new(big.Rat)},
				Continuous: []model.ContinuousEffect{{
					Interval: model.OverAll(), Fluent: model.Fl("level"),
					Kind: model.EffectDecrease, Rate: model.Lit(model.NewRat(1, 2)),
				}},
			},
			{
				Name:        "teleport",
				SimulatedAt: []model.Timing{model.StartTiming()},
			},
		},
		Init: map[string]model.Value{"level": model.NewRat(7, 2)},
	}
}

func newSimulator(t *testing.T, opts ...Option) *Simulator {
	t.Helper()
	s, err := New(testProblem(), opts...)
	require.NoError(t, err)
	return s
}

func activity(id, action string) *model.ActionInstance {
	return &model.ActionInstance{ID: id, Action: action}
}

func expand(t *testing.T, s *Simulator, inst *model.ActionInstance, start, duration *big.Rat) []*Event {
	t.Helper()
	events, err := s.GetEvents(inst, start, duration)
	require.NoError(t, err)
	return events
}

// mustApply checks applicability and applies, failing the test on either an
// inapplicability or a contract error.
func mustApply(t *testing.T, s *Simulator, ev *Event, st *State) *State {
	t.Helper()
	ia, err := s.IsApplicable(ev, st)
	require.NoError(t, err)
	require.Nil(t, ia, "event %s should be applicable", ev)
	next, err := s.Apply(ev, st)
	require.NoError(t, err)
	return next
}

// TestNew_ValidatesProblem rejects structurally broken problems up front.
func TestNew_ValidatesProblem(t *testing.T) {
	p := testProblem()
	p.Fluents = append(p.Fluents, model.Fluent{Name: "lit", Type: model.TypeBool})

	_, err := New(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate fluent")
}

// TestInitialState starts at the initial valuation with no time and a
// consistent anchored network.
func TestInitialState(t *testing.T) {
	s := newSimulator(t)
	st := s.InitialState()

	v, ok := st.Lookup("lit")
	require.True(t, ok)
	assert.Equal(t, model.Bool(false), v)

	v, ok = st.Lookup("level")
	require.True(t, ok)
	assert.True(t, model.Equal(model.NewRat(7, 2), v))

	assert.Nil(t, st.Time())
	assert.True(t, st.Network().Check())
	assert.Empty(t, st.OpenConditions())
}

// TestGetEvents_Instantaneous decomposes into exactly a start-action and
// end-action pair at the same instant.
func TestGetEvents_Instantaneous(t *testing.T) {
	s := newSimulator(t)
	events := expand(t, s, activity("s1", "switch_on"), big.NewRat(2, 1), nil)

	require.Len(t, events, 2)
	assert.Equal(t, StartAction, events[0].Kind)
	assert.Equal(t, EndAction, events[1].Kind)
	assert.Equal(t, "2", events[0].Time.RatString())
	assert.Equal(t, "2", events[1].Time.RatString())

	// The start event carries both the timeline anchor and the zero-length
	// span edge.
	require.Len(t, events[0].Edges, 2)
	assert.Equal(t, "start(s1)", events[0].Timepoint.String())
	assert.Equal(t, "end(s1)", events[1].Timepoint.String())
}

// TestGetEvents_Durative yields condition open/close events between the
// action pair, timed through the declared duration.
func TestGetEvents_Durative(t *testing.T) {
	s := newSimulator(t)
	events := expand(t, s, activity("h1", "hold"), new(big.Rat), big.NewRat(2, 1))

	require.Len(t, events, 4)
	assert.Equal(t, StartAction, events[0].Kind)
	assert.Equal(t, StartCondition, events[1].Kind)
	assert.Equal(t, EndCondition, events[2].Kind)
	assert.Equal(t, EndAction, events[3].Kind)

	assert.Equal(t, "0", events[1].Time.RatString())
	assert.Equal(t, "2", events[2].Time.RatString())
	assert.Equal(t, "2", events[3].Elapsed.RatString())
	assert.Equal(t, "h1/start-condition/c0", events[1].Key())
}

// TestGetEvents_ContractErrors covers the distinct expansion preconditions.
func TestGetEvents_ContractErrors(t *testing.T) {
	s := newSimulator(t)

	_, err := s.GetEvents(activity("x1", "levitate"), nil, nil)
	assert.True(t, IsContractError(err, ErrCodeMissingAction))

	bad := &model.ActionInstance{ID: "x2", Action: "switch_on", Args: []model.Value{model.Sym("extra")}}
	_, err = s.GetEvents(bad, nil, nil)
	assert.True(t, IsContractError(err, ErrCodeArityMismatch))

	_, err = s.GetEvents(activity("x3", "drain"), nil, nil)
	assert.True(t, IsContractError(err, ErrCodeMissingDuration))

	_, err = s.GetEvents(activity("x4", "switch_on"), nil, big.NewRat(1, 1))
	assert.True(t, IsContractError(err, ErrCodeMissingDuration))

	_, err = s.GetEvents(activity("x5", "teleport"), nil, nil)
	assert.True(t, IsContractError(err, ErrCodeMissingCapability))

	// Anchoring a durative activity at an absolute start requires a declared
	// duration; only unanchored stepping may defer to the bound.
	_, err = s.GetEvents(activity("x6", "hold"), new(big.Rat), nil)
	assert.True(t, IsContractError(err, ErrCodeMissingDuration))
}

// TestApply_Instantaneous steps a lamp toggle through its event pair without
// mutating the source state.
func TestApply_Instantaneous(t *testing.T) {
	s := newSimulator(t)
	init := s.InitialState()
	events := expand(t, s, activity("s1", "switch_on"), big.NewRat(2, 1), nil)

	st := mustApply(t, s, events[0], init)
	v, _ := st.Lookup("lit")
	assert.Equal(t, model.Bool(true), v)
	assert.True(t, st.Started("s1"))
	assert.False(t, st.Ended("s1"))
	assert.Equal(t, "2", st.Time().RatString())

	// The source state is untouched.
	v, _ = init.Lookup("lit")
	assert.Equal(t, model.Bool(false), v)
	assert.False(t, init.Started("s1"))
	assert.Nil(t, init.Time())

	st = mustApply(t, s, events[1], st)
	assert.True(t, st.Ended("s1"))

	// Re-applying the same event violates the contract.
	_, err := s.Apply(events[1], st)
	assert.True(t, IsContractError(err, ErrCodeDuplicateEvent))
}

// TestIsApplicable_ConditionFalse reports a false start condition as data,
// not as an error.
func TestIsApplicable_ConditionFalse(t *testing.T) {
	s := newSimulator(t)
	st := s.InitialState()

	first := expand(t, s, activity("s1", "switch_on"), nil, nil)
	st = mustApply(t, s, first[0], st)
	st = mustApply(t, s, first[1], st)

	second := expand(t, s, activity("s2", "switch_on"), nil, nil)
	ia, err := s.IsApplicable(second[0], st)
	require.NoError(t, err)
	require.NotNil(t, ia)
	assert.Equal(t, ReasonConditionFalse, ia.Reason)
	assert.Contains(t, ia.Condition, "start condition")
}

// TestIsApplicable_Temporal: a declared duration outside the action's bound
// surfaces as a temporal inconsistency with a witness pair.
func TestIsApplicable_Temporal(t *testing.T) {
	s := newSimulator(t)
	events := expand(t, s, activity("h1", "hold"), new(big.Rat), big.NewRat(10, 1))

	ia, err := s.IsApplicable(events[0], s.InitialState())
	require.NoError(t, err)
	require.NotNil(t, ia)
	assert.Equal(t, ReasonTemporal, ia.Reason)
	assert.Equal(t, "start(h1)", ia.WitnessFrom)
	assert.Equal(t, "end(h1)", ia.WitnessTo)
}

// TestOpenInterval_Lifecycle: condition events demand a started activity, and
// the end-action cannot apply while an interval is still open.
func TestOpenInterval_Lifecycle(t *testing.T) {
	s := newSimulator(t)
	st := s.InitialState()

	lamp := expand(t, s, activity("s1", "switch_on"), nil, nil)
	st = mustApply(t, s, lamp[0], st)
	st = mustApply(t, s, lamp[1], st)

	events := expand(t, s, activity("h1", "hold"), nil, big.NewRat(2, 1))
	openEv, closeEv, endEv := events[1], events[2], events[3]

	// Condition events before the start-action are inapplicable, and applying
	// them anyway is a contract violation.
	ia, err := s.IsApplicable(openEv, st)
	require.NoError(t, err)
	require.NotNil(t, ia)
	assert.Equal(t, ReasonNotStarted, ia.Reason)
	_, err = s.Apply(openEv, st)
	assert.True(t, IsContractError(err, ErrCodeNotStarted))

	st = mustApply(t, s, events[0], st)
	st = mustApply(t, s, openEv, st)
	assert.Len(t, st.OpenConditions(), 1)

	ia, err = s.IsApplicable(endEv, st)
	require.NoError(t, err)
	require.NotNil(t, ia)
	assert.Equal(t, ReasonOpenInterval, ia.Reason)

	st = mustApply(t, s, closeEv, st)
	st = mustApply(t, s, endEv, st)
	assert.Empty(t, st.OpenConditions())
	assert.True(t, st.Ended("h1"))
}

// TestIsApplicable_OpenConditionBroken rejects an event whose effects would
// falsify a currently-open interval condition.
func TestIsApplicable_OpenConditionBroken(t *testing.T) {
	s := newSimulator(t)
	st := s.InitialState()

	lamp := expand(t, s, activity("s1", "switch_on"), nil, nil)
	st = mustApply(t, s, lamp[0], st)
	st = mustApply(t, s, lamp[1], st)

	hold := expand(t, s, activity("h1", "hold"), nil, big.NewRat(2, 1))
	st = mustApply(t, s, hold[0], st)
	st = mustApply(t, s, hold[1], st)

	off := expand(t, s, activity("s2", "switch_off"), nil, nil)
	ia, err := s.IsApplicable(off[0], st)
	require.NoError(t, err)
	require.NotNil(t, ia)
	assert.Equal(t, ReasonOpenConditionBroken, ia.Reason)
	assert.Contains(t, ia.Condition, "hold")
}

// TestIsApplicable_ConflictingEffect: two overlapping spans unconditionally
// assigning the same fluent conflict regardless of timing feasibility.
func TestIsApplicable_ConflictingEffect(t *testing.T) {
	s := newSimulator(t)
	st := s.InitialState()

	first := expand(t, s, activity("s1", "switch_off"), nil, nil)
	st = mustApply(t, s, first[0], st)

	second := expand(t, s, activity("s2", "switch_off"), nil, nil)
	ia, err := s.IsApplicable(second[0], st)
	require.NoError(t, err)
	require.NotNil(t, ia)
	assert.Equal(t, ReasonConflictingEffect, ia.Reason)
	assert.Contains(t, ia.Condition, "lit")

	// Once the first span closes, the fluent is free again.
	st = mustApply(t, s, first[1], st)
	ia, err = s.IsApplicable(second[0], st)
	require.NoError(t, err)
	assert.Nil(t, ia)
}

// TestApply_ContinuousEffect integrates rate times elapsed exactly at the
// closing instant: level 7/2 drained at 1/2 per unit over 4 units is 3/2.
func TestApply_ContinuousEffect(t *testing.T) {
	s := newSimulator(t)
	st := s.InitialState()

	events := expand(t, s, activity("d1", "drain"), new(big.Rat), big.NewRat(4, 1))
	require.Len(t, events, 2)

	st = mustApply(t, s, events[0], st)
	st = mustApply(t, s, events[1], st)

	v, ok := st.Lookup("level")
	require.True(t, ok)
	assert.True(t, model.Equal(model.NewRat(3, 2), v), "got %s", v)
}

// fakeEffects is a pure stand-in for an external effect simulator.
type fakeEffects struct{}

func (fakeEffects) Apply(action string, args []model.Value, timing model.Timing, state model.Valuation) ([]Assignment, error) {
	return []Assignment{{Key: "position", Value: model.Sym("lab")}}, nil
}

// TestApply_SimulatedEffects consults the injected capability at the declared
// timing.
func TestApply_SimulatedEffects(t *testing.T) {
	s := newSimulator(t, WithSimulatedEffects(fakeEffects{}))
	st := s.InitialState()

	events := expand(t, s, activity("t1", "teleport"), nil, nil)
	st = mustApply(t, s, events[0], st)

	v, ok := st.Lookup("position")
	require.True(t, ok)
	assert.Equal(t, model.Sym("lab"), v)
}

// TestState_OverlayLookup falls back through the parent chain and then to
// declared fluent defaults.
func TestState_OverlayLookup(t *testing.T) {
	s := newSimulator(t)
	st := s.InitialState()

	// position has a default but no Init entry and no writes yet.
	v, ok := st.Lookup("position")
	require.True(t, ok)
	assert.Equal(t, model.Sym("base"), v)

	_, ok = st.Lookup("unknown")
	assert.False(t, ok)

	events := expand(t, s, activity("s1", "switch_on"), nil, nil)
	child := mustApply(t, s, events[0], st)

	// The child sees its own write; untouched keys resolve through the parent.
	v, _ = child.Lookup("lit")
	assert.Equal(t, model.Bool(true), v)
	v, _ = child.Lookup("level")
	assert.True(t, model.Equal(model.NewRat(7, 2), v))
}

// TestState_NetworkIsIndependent: the network accessor returns a copy, so
// querying or extending it never leaks into the state or its siblings.
func TestState_NetworkIsIndependent(t *testing.T) {
	s := newSimulator(t)
	st := s.InitialState()

	branch := st.Network()
	branch.Add(temporal.StartOf("x"), temporal.EndOf("x"), big.NewRat(2, 1), big.NewRat(1, 1))
	assert.False(t, branch.Check())

	assert.True(t, st.Network().Check())
}

// TestSortEvents orders by time, then kind, then instance ID, then condition
// index, regardless of input order.
func TestSortEvents(t *testing.T) {
	s := newSimulator(t)
	a := expand(t, s, activity("a1", "switch_on"), big.NewRat(5, 1), nil)
	b := expand(t, s, activity("b1", "switch_on"), new(big.Rat), nil)

	merged := []*Event{a[1], b[1], a[0], b[0]}
	SortEvents(merged)

	assert.Equal(t, "b1", merged[0].Instance.ID)
	assert.Equal(t, StartAction, merged[0].Kind)
	assert.Equal(t, "b1", merged[1].Instance.ID)
	assert.Equal(t, "a1", merged[2].Instance.ID)
	assert.Equal(t, EndAction, merged[3].Kind)
}

// TestEvent_Strings covers the key and rendering formats traces rely on.
func TestEvent_Strings(t *testing.T) {
	s := newSimulator(t)
	events := expand(t, s, activity("s1", "switch_on"), big.NewRat(2, 1), nil)

	assert.Equal(t, "s1/start-action", events[0].Key())
	assert.Equal(t, "start-action switch_on @ 2", events[0].String())

	ce := &ContractError{Code: ErrCodeNotStarted, Message: "activity never started", Instance: "s1"}
	assert.Equal(t, "NOT_STARTED: activity never started (instance=s1)", ce.Error())
}
