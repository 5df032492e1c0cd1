package validator

import (
	"fmt"
	"log/slog"
	"math/big"

	"github.com/parloq/tempora/internal/model"
	"github.com/parloq/tempora/internal/simulator"
	"github.com/parloq/tempora/internal/temporal"
)

// DefaultMaxLinearizations bounds how many total orders of a partial-order
// plan one validation run examines. Enumerating linearizations is
// potentially exponential; callers needing more raise the cap explicitly.
const DefaultMaxLinearizations = 1024

// Validator checks plans against a problem. It is cheap to construct and
// holds no per-run state; separate runs may share one Validator from
// separate goroutines because every run allocates its own states.
type Validator struct {
	problem *model.Problem
	sim     *simulator.Simulator
	logger  *slog.Logger

	maxLinearizations int
}

// Option configures a Validator.
type Option func(*Validator) []simulator.Option

// WithLogger routes debug diagnostics to the given logger.
func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) []simulator.Option {
		v.logger = l
		return []simulator.Option{simulator.WithLogger(l)}
	}
}

// WithMaxLinearizations caps the number of linearizations examined for
// partial-order plans.
func WithMaxLinearizations(n int) Option {
	return func(v *Validator) []simulator.Option {
		v.maxLinearizations = n
		return nil
	}
}

// WithSimulatedEffects injects the capability for externally-simulated
// effects, passed through to the simulator.
func WithSimulatedEffects(se simulator.SimulatedEffects) Option {
	return func(v *Validator) []simulator.Option {
		return []simulator.Option{simulator.WithSimulatedEffects(se)}
	}
}

// New creates a Validator for a problem.
func New(problem *model.Problem, opts ...Option) (*Validator, error) {
	v := &Validator{
		problem:           problem,
		maxLinearizations: DefaultMaxLinearizations,
	}
	var simOpts []simulator.Option
	for _, opt := range opts {
		simOpts = append(simOpts, opt(v)...)
	}
	sim, err := simulator.New(problem, simOpts...)
	if err != nil {
		return nil, err
	}
	v.sim = sim
	return v, nil
}

func (v *Validator) debugf(msg string, args ...any) {
	if v.logger != nil {
		v.logger.Debug(msg, args...)
	}
}

// Validate checks any plan descriptor against the problem and returns a
// report. INVALID is an ordinary result; the error return is reserved for
// contract violations (unknown actions, malformed plans).
func (v *Validator) Validate(plan model.Plan) (*Report, error) {
	switch p := plan.(type) {
	case *model.TimeTriggeredPlan:
		return v.ValidateTimeTriggered(p)
	case *model.SequentialPlan:
		return v.ValidateSequential(p)
	case *model.PartialOrderPlan:
		return v.ValidatePartialOrder(p)
	default:
		return nil, fmt.Errorf("unsupported plan type %T", plan)
	}
}

// ValidateTimeTriggered validates a time-triggered plan: every activity's
// events applied in time order, timed goals and invariants checked between
// events, final goals checked at the end.
func (v *Validator) ValidateTimeTriggered(plan *model.TimeTriggeredPlan) (*Report, error) {
	clock := NewClock()
	st := v.sim.InitialState()

	events, err := v.expand(plan)
	if err != nil {
		return nil, err
	}
	makespan := plan.Makespan()
	report := &Report{Status: StatusValid, Trace: []TraceEvent{}}

	window := new(big.Rat) // start of the stretch the current state covers
	for _, ev := range events {
		if ev.Time != nil && ev.Time.Cmp(window) > 0 {
			viol, err := v.violatedTimedGoal(st, window, ev.Time, makespan)
			if err != nil {
				return nil, err
			}
			if viol != "" {
				report.Status = StatusInvalid
				report.ViolatedCondition = viol
				return report, nil
			}
			window = new(big.Rat).Set(ev.Time)
		}

		ia, err := v.sim.IsApplicable(ev, st)
		if err != nil {
			return nil, err
		}
		if ia != nil {
			// Stop at the FIRST inapplicable event: later events are
			// meaningless once one fails.
			report.Status = StatusInvalid
			report.Inapplicable = ia
			report.WitnessFrom = ia.WitnessFrom
			report.WitnessTo = ia.WitnessTo
			return report, nil
		}
		st, err = v.sim.Apply(ev, st)
		if err != nil {
			return nil, err
		}
		report.Trace = append(report.Trace, traceRow(clock.Next(), ev))

		if viol, err := v.violatedInvariant(st); err != nil {
			return nil, err
		} else if viol != "" {
			report.Status = StatusInvalid
			report.ViolatedCondition = viol
			return report, nil
		}
	}

	// The final state covers everything from the last event onward.
	if viol, err := v.violatedTimedGoal(st, window, nil, makespan); err != nil {
		return nil, err
	} else if viol != "" {
		report.Status = StatusInvalid
		report.ViolatedCondition = viol
		return report, nil
	}

	unsat, err := v.UnsatisfiedGoals(st)
	if err != nil {
		return nil, err
	}
	metrics, err := v.metricValues(st, makespan)
	if err != nil {
		return nil, err
	}
	report.MetricValues = metrics

	if len(unsat) > 0 {
		// Collect ALL unsatisfied goals, not just the first.
		report.Status = StatusInvalid
		report.ViolatedCondition = unsat[0]
		report.UnsatisfiedGoals = unsat
	}
	v.debugf("validation finished", "status", string(report.Status), "events", len(report.Trace))
	return report, nil
}

// ValidateSequential validates an untimed sequence by assigning increasing
// start times with unit separation between consecutive activities. Exact
// rational arithmetic makes any positive separation equivalent.
func (v *Validator) ValidateSequential(plan *model.SequentialPlan) (*Report, error) {
	tt, err := v.timeTriggeredFromSequence(plan)
	if err != nil {
		return nil, err
	}
	return v.ValidateTimeTriggered(tt)
}

// ValidatePartialOrder validates every linearization of a partial-order
// plan, up to the configured cap. The plan is VALID iff every examined
// linearization is valid; the first failing linearization's report is
// returned as-is, with Linearizations recording how many were examined.
func (v *Validator) ValidatePartialOrder(plan *model.PartialOrderPlan) (*Report, error) {
	lins, err := plan.Linearizations()
	if err != nil {
		return nil, err
	}
	var last *Report
	n := 0
	for n < v.maxLinearizations {
		sp, ok := lins.Next()
		if !ok {
			break
		}
		n++
		r, err := v.ValidateSequential(sp)
		if err != nil {
			return nil, err
		}
		r.Linearizations = n
		if !r.Valid() {
			return r, nil
		}
		last = r
	}
	if n == 0 {
		if len(plan.Instances) == 0 {
			return v.ValidateSequential(&model.SequentialPlan{})
		}
		return nil, fmt.Errorf("partial-order plan has no linearization: ordering is cyclic")
	}
	return last, nil
}

// ValidateSTN checks an explicit STN plan for temporal consistency. STN
// plans carry no fluent semantics; the report is purely temporal.
func (v *Validator) ValidateSTN(plan *temporal.STNPlan) (*Report, error) {
	n := plan.Network()
	if n.Check() {
		return &Report{Status: StatusValid, Trace: []TraceEvent{}}, nil
	}
	report := &Report{Status: StatusInvalid, Trace: []TraceEvent{}}
	if from, to, ok := n.Witness(); ok {
		report.WitnessFrom = from.String()
		report.WitnessTo = to.String()
		report.ViolatedCondition = fmt.Sprintf("temporal constraints between %s and %s form a negative cycle", from, to)
	} else {
		report.ViolatedCondition = "temporal constraints are inconsistent"
	}
	return report, nil
}

// expand turns every schedule entry into events, disambiguating repeated
// occurrences of the same instance so each occurrence runs its own event
// machine, and merges them into one deterministic order.
func (v *Validator) expand(plan *model.TimeTriggeredPlan) ([]*simulator.Event, error) {
	var events []*simulator.Event
	seen := make(map[string]int)
	for _, sa := range plan.Sorted() {
		inst := sa.Instance
		if n := seen[inst.ID]; n > 0 {
			inst = &model.ActionInstance{
				ID:     fmt.Sprintf("%s#%d", inst.ID, n),
				Action: inst.Action,
				Args:   inst.Args,
			}
		}
		seen[sa.Instance.ID]++

		evs, err := v.sim.GetEvents(inst, sa.Start, sa.Duration)
		if err != nil {
			return nil, err
		}
		events = append(events, evs...)
	}
	simulator.SortEvents(events)
	return events, nil
}

// timeTriggeredFromSequence schedules an untimed sequence: each activity
// starts one time unit after its predecessor ends. Durative activities take
// their duration bound's lower end (upper when only that is declared, one
// when unbounded).
func (v *Validator) timeTriggeredFromSequence(plan *model.SequentialPlan) (*model.TimeTriggeredPlan, error) {
	tt := &model.TimeTriggeredPlan{}
	t := new(big.Rat)
	for _, inst := range plan.Steps {
		action, ok := v.problem.Action(inst.Action)
		if !ok {
			return nil, fmt.Errorf("plan references action %q absent from problem %q", inst.Action, v.problem.Name)
		}
		var duration *big.Rat
		if action.Durative {
			switch {
			case action.Duration.Lower != nil:
				duration = new(big.Rat).Set(action.Duration.Lower)
			case action.Duration.Upper != nil:
				duration = new(big.Rat).Set(action.Duration.Upper)
			default:
				duration = big.NewRat(1, 1)
			}
		}
		sa := model.ScheduledActivity{Start: new(big.Rat).Set(t), Instance: inst, Duration: duration}
		tt.Activities = append(tt.Activities, sa)
		t = sa.End()
		t.Add(t, big.NewRat(1, 1))
	}
	return tt, nil
}

// violatedTimedGoal checks every timed goal whose interval intersects the
// stretch [from, to) the current state covers (to == nil means unbounded).
// Interval ends resolve against the plan's makespan for global-end anchors;
// openness is treated as closed, which exact rationals make harmless for
// point checks. Unevaluable goal expressions are contract errors, never
// violations.
func (v *Validator) violatedTimedGoal(st *simulator.State, from, to, makespan *big.Rat) (string, error) {
	for i := range v.problem.TimedGoals {
		tg := &v.problem.TimedGoals[i]
		lo := resolveGlobal(tg.Interval.Lower, makespan)
		hi := resolveGlobal(tg.Interval.Upper, makespan)
		if hi != nil && hi.Cmp(from) < 0 {
			continue // goal window already past
		}
		if to != nil && lo != nil && lo.Cmp(to) >= 0 {
			continue // goal window not yet reached
		}
		holds, err := model.EvalBool(tg.Expr, st, nil)
		if err != nil {
			return "", err
		}
		if !holds {
			return fmt.Sprintf("timed goal %s over %s", model.FormatExpr(tg.Expr), tg.Interval), nil
		}
	}
	return "", nil
}

// violatedInvariant returns the first trajectory invariant that fails in the
// state, or "" when all hold.
func (v *Validator) violatedInvariant(st *simulator.State) (string, error) {
	for _, inv := range v.problem.Invariants {
		holds, err := model.EvalBool(inv, st, nil)
		if err != nil {
			return "", err
		}
		if !holds {
			return fmt.Sprintf("invariant %s", model.FormatExpr(inv)), nil
		}
	}
	return "", nil
}

// resolveGlobal turns a global timing into an absolute instant. Global-end
// anchors resolve against the makespan; nil means unbounded.
func resolveGlobal(t model.Timing, makespan *big.Rat) *big.Rat {
	switch t.Anchor {
	case model.AnchorGlobalStart:
		return t.Offset()
	case model.AnchorGlobalEnd:
		if makespan == nil {
			return nil
		}
		out := new(big.Rat).Set(makespan)
		return out.Add(out, t.Offset())
	default:
		return t.Offset()
	}
}

func (v *Validator) metricValues(st *simulator.State, makespan *big.Rat) (map[string]string, error) {
	if len(v.problem.Metrics) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(v.problem.Metrics))
	for _, m := range v.problem.Metrics {
		name := m.Name
		if name == "" {
			name = fmt.Sprintf("metric-%d", m.Kind)
		}
		switch m.Kind {
		case model.MetricMinimizeMakespan:
			out[name] = makespan.RatString()
		case model.MetricMinimizeExpr, model.MetricMaximizeExpr:
			val, err := model.Eval(m.Expr, st, nil)
			if err != nil {
				return nil, err
			}
			out[name] = val.String()
		}
	}
	return out, nil
}

func traceRow(seq int64, ev *simulator.Event) TraceEvent {
	te := TraceEvent{
		Seq:      seq,
		Kind:     ev.Kind.String(),
		Instance: ev.Instance.String(),
	}
	if ev.Time != nil {
		te.Time = ev.Time.RatString()
	}
	if ev.Condition != nil {
		te.Detail = ev.Condition.Interval.String()
	}
	return te
}

// Stepping API for interactive and partial execution. These delegate to the
// simulator so callers can drive event application themselves.

// InitialState builds the combined state at time zero.
func (v *Validator) InitialState() *simulator.State {
	return v.sim.InitialState()
}

// GetEvents decomposes one activity instance into ordered point-events.
func (v *Validator) GetEvents(inst *model.ActionInstance, start, duration *big.Rat) ([]*simulator.Event, error) {
	return v.sim.GetEvents(inst, start, duration)
}

// IsApplicable decides whether an event can apply in a state.
func (v *Validator) IsApplicable(ev *simulator.Event, st *simulator.State) (*simulator.Inapplicable, error) {
	return v.sim.IsApplicable(ev, st)
}

// Apply applies one event, returning the successor state.
func (v *Validator) Apply(ev *simulator.Event, st *simulator.State) (*simulator.State, error) {
	return v.sim.Apply(ev, st)
}

// IsGoal reports whether every final-state goal holds in the state.
func (v *Validator) IsGoal(st *simulator.State) (bool, error) {
	unsat, err := v.UnsatisfiedGoals(st)
	if err != nil {
		return false, err
	}
	return len(unsat) == 0, nil
}

// UnsatisfiedGoals returns renderings of every goal that does not hold in
// the state, in declaration order.
func (v *Validator) UnsatisfiedGoals(st *simulator.State) ([]string, error) {
	var out []string
	for _, g := range v.problem.Goals {
		holds, err := model.EvalBool(g, st, nil)
		if err != nil {
			return nil, err
		}
		if !holds {
			out = append(out, model.FormatExpr(g))
		}
	}
	return out, nil
}
