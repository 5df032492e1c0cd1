package model

import "fmt"

// MetricKind enumerates plan quality metrics.
type MetricKind int

const (
	// MetricMinimizeExpr minimizes a final-state expression.
	MetricMinimizeExpr MetricKind = iota + 1
	// MetricMaximizeExpr maximizes a final-state expression.
	MetricMaximizeExpr
	// MetricMinimizeMakespan minimizes the plan's end time.
	MetricMinimizeMakespan
)

// Metric declares a plan quality measure. The validator reports the metric's
// value for the validated plan; optimization is out of scope.
type Metric struct {
	Name string
	Kind MetricKind
	Expr Expr // nil for MetricMinimizeMakespan
}

// TimedGoal requires an expression to hold over an interval of the global
// timeline (anchors AnchorGlobalStart/AnchorGlobalEnd).
type TimedGoal struct {
	Interval Interval
	Expr     Expr
}

// Problem is the read-only planning problem descriptor.
type Problem struct {
	Name    string
	Fluents []Fluent
	Actions []*Action

	// Init maps ground fluent keys (see GroundKey) to initial values.
	// Keys absent from Init fall back to the fluent's declared Default.
	Init map[string]Value

	// Goals must hold in the final state.
	Goals []Expr

	// TimedGoals must hold over intervals of the global timeline.
	TimedGoals []TimedGoal

	// Invariants must hold in every intermediate and final state.
	Invariants []Expr

	Metrics []Metric
}

// Action looks up an action schema by name.
func (p *Problem) Action(name string) (*Action, bool) {
	for _, a := range p.Actions {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// Fluent looks up a fluent schema by name.
func (p *Problem) Fluent(name string) (Fluent, bool) {
	for _, f := range p.Fluents {
		if f.Name == name {
			return f, true
		}
	}
	return Fluent{}, false
}

// InitialValuation materializes the initial fluent assignment: explicit Init
// entries plus declared defaults for zero-parameter fluents.
//
// Defaults for parameterized fluents cannot be enumerated without the object
// universe, so the simulator consults the fluent's Default lazily on lookup
// misses instead.
func (p *Problem) InitialValuation() map[string]Value {
	out := make(map[string]Value, len(p.Init)+len(p.Fluents))
	for _, f := range p.Fluents {
		if len(f.Params) == 0 && f.Default != nil {
			out[f.Name] = f.Default
		}
	}
	for k, v := range p.Init {
		out[k] = v
	}
	return out
}

// DefaultFor returns the declared default for the fluent named by a ground
// key ("name" or "name(args)"). Used on valuation lookup misses.
func (p *Problem) DefaultFor(key string) (Value, bool) {
	name := key
	for i := 0; i < len(key); i++ {
		if key[i] == '(' {
			name = key[:i]
			break
		}
	}
	f, ok := p.Fluent(name)
	if !ok || f.Default == nil {
		return nil, false
	}
	return f.Default, true
}

// Validate performs structural sanity checks: duplicate names, effects on
// undeclared fluents, durative timings on instantaneous actions. The engine
// assumes inputs are type-checked; this catches wiring mistakes early with a
// distinct error per violation.
func (p *Problem) Validate() error {
	seenFluent := make(map[string]bool, len(p.Fluents))
	for _, f := range p.Fluents {
		if seenFluent[f.Name] {
			return fmt.Errorf("duplicate fluent %q", f.Name)
		}
		seenFluent[f.Name] = true
	}
	seenAction := make(map[string]bool, len(p.Actions))
	for _, a := range p.Actions {
		if seenAction[a.Name] {
			return fmt.Errorf("duplicate action %q", a.Name)
		}
		seenAction[a.Name] = true

		for _, eff := range a.Effects {
			if !seenFluent[eff.Fluent.Name] {
				return fmt.Errorf("action %q: effect on undeclared fluent %q", a.Name, eff.Fluent.Name)
			}
		}
		for _, ce := range a.Continuous {
			if !seenFluent[ce.Fluent.Name] {
				return fmt.Errorf("action %q: continuous effect on undeclared fluent %q", a.Name, ce.Fluent.Name)
			}
			if ce.Kind == EffectAssign {
				return fmt.Errorf("action %q: continuous effects must increase or decrease", a.Name)
			}
		}
		if !a.Durative {
			for _, c := range a.Conditions {
				if c.Interval.Lower.Anchor == AnchorEnd || c.Interval.Upper.Anchor == AnchorEnd {
					return fmt.Errorf("instantaneous action %q: condition anchored to end", a.Name)
				}
			}
			if len(a.Continuous) > 0 {
				return fmt.Errorf("instantaneous action %q: continuous effects require a duration", a.Name)
			}
		}
	}
	return nil
}
