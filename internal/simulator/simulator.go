package simulator

import (
	"fmt"
	"log/slog"
	"math/big"

	"github.com/parloq/tempora/internal/model"
	"github.com/parloq/tempora/internal/temporal"
)

// Assignment is one fluent write produced by an effect.
type Assignment struct {
	Key   string
	Value model.Value
}

// SimulatedEffects is the injected capability for externally-simulated
// effects: an opaque function of the pre-state, consulted at the timings an
// action declares in SimulatedAt. Implementations must be pure - equal
// inputs must yield equal assignments - or determinism is lost.
type SimulatedEffects interface {
	Apply(action string, args []model.Value, timing model.Timing, state model.Valuation) ([]Assignment, error)
}

// Simulator expands activities into events and steps combined states through
// them. It holds only read-only problem data and injected capabilities, so a
// single Simulator is safe to share across speculative branches.
type Simulator struct {
	problem *model.Problem
	effects SimulatedEffects
	logger  *slog.Logger
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithSimulatedEffects injects the capability backing externally-simulated
// effects. Required when any action declares SimulatedAt timings.
func WithSimulatedEffects(se SimulatedEffects) Option {
	return func(s *Simulator) { s.effects = se }
}

// WithLogger routes debug diagnostics to the given logger. The core computes
// silently by default.
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) { s.logger = l }
}

// New creates a Simulator for a problem. The problem is structurally
// validated once here; the engine assumes type-checked inputs beyond that.
func New(p *model.Problem, opts ...Option) (*Simulator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	s := &Simulator{problem: p}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Problem returns the simulator's read-only problem.
func (s *Simulator) Problem() *model.Problem { return s.problem }

func (s *Simulator) debugf(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

// InitialState builds the combined state at time zero from the problem's
// initial values: the valuation, an empty-but-anchored network, and no open
// intervals.
func (s *Simulator) InitialState() *State {
	n := temporal.NewNetwork()
	n.Add(temporal.GlobalStart(), temporal.GlobalEnd(), new(big.Rat), nil)
	return &State{
		problem: s.problem,
		vals:    s.problem.InitialValuation(),
		network: n,
		open:    make(map[openKey]*openCond),
		started: make(map[string]bool),
		ended:   make(map[string]bool),
		applied: make(map[string]bool),
		writers: make(map[string][]string),
	}
}

// GetEvents decomposes one activity instance into its ordered point-events.
//
// start anchors the instance at an absolute time; nil leaves it unanchored
// (interactive stepping). duration is the declared duration for durative
// activities; anchored durative instances must declare one, while unanchored
// stepping may leave it nil and defer to the action's duration bound.
//
// Instantaneous activities yield exactly {start-action, end-action} with
// end - start = 0. Durative activities additionally yield one paired
// start/end-condition event per interval condition, each linked into the
// network through the duration bound and the interval's point offsets.
func (s *Simulator) GetEvents(inst *model.ActionInstance, start, duration *big.Rat) ([]*Event, error) {
	action, ok := s.problem.Action(inst.Action)
	if !ok {
		return nil, contractf(ErrCodeMissingAction, inst.ID, "",
			"plan references action %q absent from problem %q", inst.Action, s.problem.Name)
	}
	if _, err := action.Binding(inst.Args); err != nil {
		return nil, contractf(ErrCodeArityMismatch, inst.ID, "", "%v", err)
	}
	if len(action.SimulatedAt) > 0 && s.effects == nil {
		return nil, contractf(ErrCodeMissingCapability, inst.ID, "",
			"action %q declares simulated effects but no capability was injected", action.Name)
	}
	if action.Durative && duration == nil {
		// Without a declared duration the end events carry no absolute time
		// and cannot be ordered against other anchored activities.
		if start != nil {
			return nil, contractf(ErrCodeMissingDuration, inst.ID, "",
				"durative action %q anchored at an absolute start needs a declared duration", action.Name)
		}
		if len(action.Continuous) > 0 {
			return nil, contractf(ErrCodeMissingDuration, inst.ID, "",
				"action %q has continuous effects; a declared duration is required", action.Name)
		}
	}
	if !action.Durative && duration != nil && duration.Sign() != 0 {
		return nil, contractf(ErrCodeMissingDuration, inst.ID, "",
			"instantaneous action %q cannot carry duration %s", action.Name, duration.RatString())
	}

	startTP := temporal.StartOf(inst.ID)
	endTP := temporal.EndOf(inst.ID)

	startEv := &Event{Kind: StartAction, Instance: inst, Action: action, CondIndex: -1, Timepoint: startTP}
	endEv := &Event{Kind: EndAction, Instance: inst, Action: action, CondIndex: -1, Timepoint: endTP}

	// Anchor and duration edges ride on the start-action event, so applying
	// it decides temporal feasibility up front.
	if start != nil {
		startEv.Time = new(big.Rat).Set(start)
		startEv.Edges = append(startEv.Edges, Edge{
			From:  temporal.GlobalStart(),
			To:    startTP,
			Bound: temporal.Exactly(start),
		})
	}
	switch {
	case !action.Durative:
		startEv.Edges = append(startEv.Edges, Edge{From: startTP, To: endTP, Bound: temporal.Exactly(new(big.Rat))})
		if start != nil {
			endEv.Time = new(big.Rat).Set(start)
		}
	default:
		startEv.Edges = append(startEv.Edges, Edge{
			From:  startTP,
			To:    endTP,
			Bound: temporal.NewBound(action.Duration.Lower, action.Duration.Upper),
		})
		if duration != nil {
			startEv.Edges = append(startEv.Edges, Edge{From: startTP, To: endTP, Bound: temporal.Exactly(duration)})
			if !action.Duration.Contains(duration) {
				// Open duration bounds cannot be expressed as closed STN
				// edges; force the violation to surface as a temporal
				// inconsistency at start-action application.
				startEv.Edges = append(startEv.Edges, Edge{
					From:  startTP,
					To:    endTP,
					Bound: temporal.NewBound(big.NewRat(1, 1), new(big.Rat)),
				})
			}
			endEv.Elapsed = new(big.Rat).Set(duration)
			if start != nil {
				endEv.Time = new(big.Rat).Add(start, duration)
			}
		}
	}

	events := []*Event{startEv, endEv}

	for i := range action.Conditions {
		cond := &action.Conditions[i]
		if _, ok := pointConditionAnchor(cond); ok {
			// Point conditions at the action's own instants are evaluated
			// inside the start/end-action events; they need no events of
			// their own.
			continue
		}
		cc := condContainer(inst.ID, i)
		openTP := temporal.StartOf(cc)
		closeTP := temporal.EndOf(cc)

		openEv := &Event{
			Kind: StartCondition, Instance: inst, Action: action,
			Condition: cond, CondIndex: i, Timepoint: openTP,
			Edges: []Edge{
				{From: s.anchorTP(cond.Interval.Lower, startTP, endTP), To: openTP, Bound: temporal.Exactly(cond.Interval.Lower.Offset())},
				{From: openTP, To: closeTP, Bound: temporal.NewBound(new(big.Rat), nil)},
			},
		}
		closeEv := &Event{
			Kind: EndCondition, Instance: inst, Action: action,
			Condition: cond, CondIndex: i, Timepoint: closeTP,
			Edges: []Edge{
				{From: s.anchorTP(cond.Interval.Upper, startTP, endTP), To: closeTP, Bound: temporal.Exactly(cond.Interval.Upper.Offset())},
			},
		}
		if start != nil {
			openEv.Time = s.absTime(cond.Interval.Lower, start, duration)
			closeEv.Time = s.absTime(cond.Interval.Upper, start, duration)
		}
		events = append(events, openEv, closeEv)
	}

	SortEvents(events)
	s.debugf("expanded activity", "instance", inst.String(), "events", len(events))
	return events, nil
}

// pointConditionAnchor reports whether the condition is a point condition
// sitting exactly on the action's start or end instant.
func pointConditionAnchor(c *model.Condition) (model.Anchor, bool) {
	if !c.Interval.IsPoint() {
		return 0, false
	}
	t := c.Interval.Lower
	if t.Offset().Sign() != 0 {
		return 0, false
	}
	if t.Anchor == model.AnchorStart || t.Anchor == model.AnchorEnd {
		return t.Anchor, true
	}
	return 0, false
}

func (s *Simulator) anchorTP(t model.Timing, startTP, endTP temporal.Timepoint) temporal.Timepoint {
	switch t.Anchor {
	case model.AnchorStart:
		return startTP
	case model.AnchorEnd:
		return endTP
	case model.AnchorGlobalStart:
		return temporal.GlobalStart()
	default:
		return temporal.GlobalEnd()
	}
}

// absTime resolves a timing to an absolute instant given the instance's
// declared start and duration. Returns nil when the anchor's instant is
// unknown (end-anchored timing without a duration).
func (s *Simulator) absTime(t model.Timing, start, duration *big.Rat) *big.Rat {
	switch t.Anchor {
	case model.AnchorStart:
		return new(big.Rat).Add(start, t.Offset())
	case model.AnchorEnd:
		if duration == nil {
			return nil
		}
		end := new(big.Rat).Add(start, duration)
		return end.Add(end, t.Offset())
	case model.AnchorGlobalStart:
		return t.Offset()
	default:
		return nil
	}
}

// IsApplicable decides whether an event can apply in a state.
//
// A nil *Inapplicable means yes. A non-nil one is an ordinary domain result
// carrying the reason (false condition, conflicting effect, temporal
// inconsistency with a witness pair). The error return is reserved for
// contract violations such as unevaluable expressions.
func (s *Simulator) IsApplicable(ev *Event, st *State) (*Inapplicable, error) {
	binding, err := ev.Action.Binding(ev.Instance.Args)
	if err != nil {
		return nil, contractf(ErrCodeArityMismatch, ev.Instance.ID, ev.Key(), "%v", err)
	}

	switch ev.Kind {
	case StartAction:
		if st.Started(ev.Instance.ID) {
			return nil, contractf(ErrCodeAlreadyStarted, ev.Instance.ID, ev.Key(), "instance already started")
		}
		if ia, err := s.checkPointConditions(ev, st, binding, model.AnchorStart); ia != nil || err != nil {
			return ia, err
		}
		if ia, err := s.checkWriterConflicts(ev, st, binding); ia != nil || err != nil {
			return ia, err
		}

	case StartCondition:
		if !st.Started(ev.Instance.ID) {
			return &Inapplicable{Event: ev, Reason: ReasonNotStarted}, nil
		}
		if st.Ended(ev.Instance.ID) {
			return &Inapplicable{Event: ev, Reason: ReasonAlreadyEnded}, nil
		}
		ok, err := model.EvalBool(ev.Condition.Expr, st, binding)
		if err != nil {
			return nil, contractf(ErrCodeEvaluation, ev.Instance.ID, ev.Key(), "%v", err)
		}
		if !ok {
			return &Inapplicable{Event: ev, Reason: ReasonConditionFalse, Condition: describeCondition(ev)}, nil
		}

	case EndCondition:
		if !st.Started(ev.Instance.ID) {
			return &Inapplicable{Event: ev, Reason: ReasonNotStarted}, nil
		}
		key := openKey{instance: ev.Instance.ID, cond: ev.CondIndex}
		oc, open := st.open[key]
		if !open || oc.count == 0 {
			return &Inapplicable{Event: ev, Reason: ReasonOpenInterval, Condition: describeCondition(ev)}, nil
		}
		if !ev.Condition.Interval.UpperOpen {
			ok, err := model.EvalBool(ev.Condition.Expr, st, binding)
			if err != nil {
				return nil, contractf(ErrCodeEvaluation, ev.Instance.ID, ev.Key(), "%v", err)
			}
			if !ok {
				return &Inapplicable{Event: ev, Reason: ReasonConditionFalse, Condition: describeCondition(ev)}, nil
			}
		}

	case EndAction:
		if !st.Started(ev.Instance.ID) {
			return &Inapplicable{Event: ev, Reason: ReasonNotStarted}, nil
		}
		if st.Ended(ev.Instance.ID) {
			return nil, contractf(ErrCodeAlreadyEnded, ev.Instance.ID, ev.Key(), "instance already ended")
		}
		for k, oc := range st.open {
			if k.instance == ev.Instance.ID && oc.count > 0 {
				return &Inapplicable{Event: ev, Reason: ReasonOpenInterval, Condition: oc.desc}, nil
			}
		}
		if ia, err := s.checkPointConditions(ev, st, binding, model.AnchorEnd); ia != nil || err != nil {
			return ia, err
		}
		if ia, err := s.checkWriterConflicts(ev, st, binding); ia != nil || err != nil {
			return ia, err
		}
	}

	// Temporal feasibility: inserting the event's edges must keep the
	// network consistent. Probed on a copy; the state is untouched.
	if len(ev.Edges) > 0 {
		probe := st.network.Copy()
		for _, e := range ev.Edges {
			probe.AddBound(e.From, e.To, e.Bound)
		}
		if !probe.Check() {
			ia := &Inapplicable{Event: ev, Reason: ReasonTemporal}
			if from, to, ok := probe.Witness(); ok {
				ia.WitnessFrom = from.String()
				ia.WitnessTo = to.String()
			}
			return ia, nil
		}
	}

	// The event's own effects must not falsify any open interval condition.
	if ev.Kind == StartAction || ev.Kind == EndAction {
		assigns, err := s.eventAssignments(ev, st, binding)
		if err != nil {
			return nil, err
		}
		if len(assigns) > 0 && len(st.open) > 0 {
			spec := st.child()
			for _, a := range assigns {
				spec.set(a.Key, a.Value)
			}
			broken, err := spec.brokenOpenCondition()
			if err != nil {
				return nil, err
			}
			if broken != "" {
				return &Inapplicable{Event: ev, Reason: ReasonOpenConditionBroken, Condition: broken}, nil
			}
		}
	}

	return nil, nil
}

// checkPointConditions evaluates the action's point conditions sitting on
// the given instant.
func (s *Simulator) checkPointConditions(ev *Event, st *State, binding model.Binding, at model.Anchor) (*Inapplicable, error) {
	for i := range ev.Action.Conditions {
		cond := &ev.Action.Conditions[i]
		anchor, ok := pointConditionAnchor(cond)
		if !ok || anchor != at {
			continue
		}
		holds, err := model.EvalBool(cond.Expr, st, binding)
		if err != nil {
			return nil, contractf(ErrCodeEvaluation, ev.Instance.ID, ev.Key(), "%v", err)
		}
		if !holds {
			return &Inapplicable{
				Event:     ev,
				Reason:    ReasonConditionFalse,
				Condition: fmt.Sprintf("%s condition %s of %s", anchor, cond.Interval, ev.Instance),
			}, nil
		}
	}
	return nil, nil
}

// checkWriterConflicts rejects an event whose instance would unconditionally
// assign a fluent already owned by another open activity span. Two
// overlapping spans that both unconditionally assign the same fluent are a
// conflicting-effect violation regardless of temporal feasibility.
func (s *Simulator) checkWriterConflicts(ev *Event, st *State, binding model.Binding) (*Inapplicable, error) {
	if ev.Kind != StartAction {
		return nil, nil
	}
	keys, err := s.unconditionalAssignKeys(ev, st, binding)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		for _, owner := range st.writers[key] {
			if owner != ev.Instance.ID {
				return &Inapplicable{
					Event:     ev,
					Reason:    ReasonConflictingEffect,
					Condition: fmt.Sprintf("fluent %s is unconditionally assigned by open instance %s", key, owner),
				}, nil
			}
		}
	}
	return nil, nil
}

// unconditionalAssignKeys grounds the fluents this instance unconditionally
// assigns anywhere in its span.
func (s *Simulator) unconditionalAssignKeys(ev *Event, st *State, binding model.Binding) ([]string, error) {
	var keys []string
	for i := range ev.Action.Effects {
		eff := &ev.Action.Effects[i]
		if eff.Kind != model.EffectAssign || eff.Condition != nil {
			continue
		}
		key, err := model.GroundKey(eff.Fluent, st, binding)
		if err != nil {
			return nil, contractf(ErrCodeEvaluation, ev.Instance.ID, ev.Key(), "%v", err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// eventAssignments computes the fluent writes the event performs, evaluated
// against the pre-state: point effects at the event's instant, continuous
// effects closing at it, and externally-simulated effects at its timing.
func (s *Simulator) eventAssignments(ev *Event, st *State, binding model.Binding) ([]Assignment, error) {
	var anchor model.Anchor
	switch ev.Kind {
	case StartAction:
		anchor = model.AnchorStart
	case EndAction:
		anchor = model.AnchorEnd
	default:
		return nil, nil
	}

	var out []Assignment
	for i := range ev.Action.Effects {
		eff := &ev.Action.Effects[i]
		if eff.Timing.Anchor != anchor {
			continue
		}
		a, apply, err := s.evalEffect(eff, ev, st, binding)
		if err != nil {
			return nil, err
		}
		if apply {
			out = append(out, a)
		}
	}

	// Continuous effects integrate over the whole span and land at the
	// closing instant.
	if ev.Kind == EndAction && len(ev.Action.Continuous) > 0 {
		if ev.Elapsed == nil {
			return nil, contractf(ErrCodeMissingDuration, ev.Instance.ID, ev.Key(),
				"continuous effects need the instance's declared duration")
		}
		for i := range ev.Action.Continuous {
			ce := &ev.Action.Continuous[i]
			a, err := s.evalContinuous(ce, ev, st, binding)
			if err != nil {
				return nil, err
			}
			out = append(out, a)
		}
	}

	for _, at := range ev.Action.SimulatedAt {
		if at.Anchor != anchor {
			continue
		}
		assigns, err := s.effects.Apply(ev.Action.Name, ev.Instance.Args, at, st)
		if err != nil {
			return nil, contractf(ErrCodeEvaluation, ev.Instance.ID, ev.Key(), "simulated effect: %v", err)
		}
		out = append(out, assigns...)
	}
	return out, nil
}

func (s *Simulator) evalEffect(eff *model.Effect, ev *Event, st *State, binding model.Binding) (Assignment, bool, error) {
	if eff.Condition != nil {
		holds, err := model.EvalBool(eff.Condition, st, binding)
		if err != nil {
			return Assignment{}, false, contractf(ErrCodeEvaluation, ev.Instance.ID, ev.Key(), "%v", err)
		}
		if !holds {
			return Assignment{}, false, nil
		}
	}
	key, err := model.GroundKey(eff.Fluent, st, binding)
	if err != nil {
		return Assignment{}, false, contractf(ErrCodeEvaluation, ev.Instance.ID, ev.Key(), "%v", err)
	}
	val, err := model.Eval(eff.Value, st, binding)
	if err != nil {
		return Assignment{}, false, contractf(ErrCodeEvaluation, ev.Instance.ID, ev.Key(), "%v", err)
	}
	switch eff.Kind {
	case model.EffectAssign:
		return Assignment{Key: key, Value: val}, true, nil
	case model.EffectIncrease, model.EffectDecrease:
		cur, ok := st.Lookup(key)
		if !ok {
			return Assignment{}, false, contractf(ErrCodeEvaluation, ev.Instance.ID, ev.Key(),
				"fluent %q has no value to %s", key, eff.Kind)
		}
		next, err := shiftNumeric(cur, val, eff.Kind == model.EffectDecrease)
		if err != nil {
			return Assignment{}, false, contractf(ErrCodeEvaluation, ev.Instance.ID, ev.Key(), "%v", err)
		}
		return Assignment{Key: key, Value: next}, true, nil
	default:
		return Assignment{}, false, contractf(ErrCodeEvaluation, ev.Instance.ID, ev.Key(),
			"unsupported effect kind %s", eff.Kind)
	}
}

func (s *Simulator) evalContinuous(ce *model.ContinuousEffect, ev *Event, st *State, binding model.Binding) (Assignment, error) {
	key, err := model.GroundKey(ce.Fluent, st, binding)
	if err != nil {
		return Assignment{}, contractf(ErrCodeEvaluation, ev.Instance.ID, ev.Key(), "%v", err)
	}
	rateVal, err := model.Eval(ce.Rate, st, binding)
	if err != nil {
		return Assignment{}, contractf(ErrCodeEvaluation, ev.Instance.ID, ev.Key(), "%v", err)
	}
	delta, err := model.Eval(model.Binary{
		Op:    model.OpTimes,
		Left:  model.Lit(rateVal),
		Right: model.Lit(model.RatFromBig(ev.Elapsed)),
	}, st, binding)
	if err != nil {
		return Assignment{}, contractf(ErrCodeEvaluation, ev.Instance.ID, ev.Key(), "%v", err)
	}
	cur, ok := st.Lookup(key)
	if !ok {
		return Assignment{}, contractf(ErrCodeEvaluation, ev.Instance.ID, ev.Key(),
			"fluent %q has no value for continuous effect", key)
	}
	next, err := shiftNumeric(cur, delta, ce.Kind == model.EffectDecrease)
	if err != nil {
		return Assignment{}, contractf(ErrCodeEvaluation, ev.Instance.ID, ev.Key(), "%v", err)
	}
	return Assignment{Key: key, Value: next}, nil
}

// shiftNumeric adds or subtracts delta from cur, preserving Int typing where
// both operands are integral.
func shiftNumeric(cur, delta model.Value, negate bool) (model.Value, error) {
	op := model.OpPlus
	if negate {
		op = model.OpMinus
	}
	return model.Eval(model.Binary{Op: op, Left: model.Lit(cur), Right: model.Lit(delta)}, nopValuation{}, nil)
}

type nopValuation struct{}

func (nopValuation) Lookup(string) (model.Value, bool) { return nil, false }

// Apply applies one event to a state and returns the successor state. The
// input state is never mutated.
//
// Apply enforces the event-machine contract (start before condition events,
// no duplicate application, end exactly once) and fails loudly on
// violations; it does NOT re-check domain applicability - call IsApplicable
// first when stepping through uncertain plans.
func (s *Simulator) Apply(ev *Event, st *State) (*State, error) {
	if st.applied[ev.Key()] {
		return nil, contractf(ErrCodeDuplicateEvent, ev.Instance.ID, ev.Key(), "event applied twice")
	}
	switch ev.Kind {
	case StartAction:
		if st.Started(ev.Instance.ID) {
			return nil, contractf(ErrCodeAlreadyStarted, ev.Instance.ID, ev.Key(), "instance already started")
		}
	case StartCondition, EndCondition:
		if !st.Started(ev.Instance.ID) {
			return nil, contractf(ErrCodeNotStarted, ev.Instance.ID, ev.Key(), "activity never started")
		}
		if st.Ended(ev.Instance.ID) {
			return nil, contractf(ErrCodeAlreadyEnded, ev.Instance.ID, ev.Key(), "activity already ended")
		}
	case EndAction:
		if !st.Started(ev.Instance.ID) {
			return nil, contractf(ErrCodeNotStarted, ev.Instance.ID, ev.Key(), "activity never started")
		}
		if st.Ended(ev.Instance.ID) {
			return nil, contractf(ErrCodeAlreadyEnded, ev.Instance.ID, ev.Key(), "instance already ended")
		}
	}

	binding, err := ev.Action.Binding(ev.Instance.Args)
	if err != nil {
		return nil, contractf(ErrCodeArityMismatch, ev.Instance.ID, ev.Key(), "%v", err)
	}

	assigns, err := s.eventAssignments(ev, st, binding)
	if err != nil {
		return nil, err
	}

	next := st.child()
	next.applied[ev.Key()] = true
	if ev.Time != nil {
		next.time = new(big.Rat).Set(ev.Time)
	}

	if len(ev.Edges) > 0 {
		nw := st.network.Copy()
		for _, e := range ev.Edges {
			nw.AddBound(e.From, e.To, e.Bound)
		}
		next.network = nw
	}

	for _, a := range assigns {
		next.set(a.Key, a.Value)
	}

	switch ev.Kind {
	case StartAction:
		next.started[ev.Instance.ID] = true
		keys, err := s.unconditionalAssignKeys(ev, st, binding)
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			next.writers[key] = append(next.writers[key], ev.Instance.ID)
		}

	case StartCondition:
		key := openKey{instance: ev.Instance.ID, cond: ev.CondIndex}
		if oc, ok := next.open[key]; ok {
			oc.count++
		} else {
			next.open[key] = &openCond{
				key:     key,
				expr:    ev.Condition.Expr,
				binding: binding,
				desc:    describeCondition(ev),
				count:   1,
			}
		}

	case EndCondition:
		key := openKey{instance: ev.Instance.ID, cond: ev.CondIndex}
		oc, ok := next.open[key]
		if !ok || oc.count == 0 {
			return nil, contractf(ErrCodeNotStarted, ev.Instance.ID, ev.Key(), "interval was never opened")
		}
		oc.count--
		if oc.count == 0 {
			delete(next.open, key)
		}

	case EndAction:
		next.ended[ev.Instance.ID] = true
		for key, owners := range next.writers {
			kept := owners[:0]
			for _, id := range owners {
				if id != ev.Instance.ID {
					kept = append(kept, id)
				}
			}
			if len(kept) == 0 {
				delete(next.writers, key)
			} else {
				next.writers[key] = kept
			}
		}
	}

	s.debugf("applied event", "event", ev.String(), "writes", len(assigns))
	return next, nil
}

func describeCondition(ev *Event) string {
	return fmt.Sprintf("condition %d %s of %s", ev.CondIndex, ev.Condition.Interval, ev.Instance)
}
