package model

import (
	"fmt"
	"math/big"
)

// Anchor identifies the reference instant a Timing offsets from.
type Anchor int

const (
	// AnchorStart offsets from the owning activity's start.
	AnchorStart Anchor = iota + 1
	// AnchorEnd offsets from the owning activity's end.
	AnchorEnd
	// AnchorGlobalStart offsets from the plan's global start. Used by timed
	// goals, which are anchored to the timeline rather than to an activity.
	AnchorGlobalStart
	// AnchorGlobalEnd offsets from the plan's global end.
	AnchorGlobalEnd
)

// String implements fmt.Stringer.
func (a Anchor) String() string {
	switch a {
	case AnchorStart:
		return "start"
	case AnchorEnd:
		return "end"
	case AnchorGlobalStart:
		return "global-start"
	case AnchorGlobalEnd:
		return "global-end"
	default:
		return fmt.Sprintf("Anchor(%d)", int(a))
	}
}

// Timing is an exact-rational offset from an anchor instant.
// A nil Delay means zero offset.
type Timing struct {
	Anchor Anchor
	Delay  *big.Rat
}

// StartTiming is the instant an activity starts.
func StartTiming() Timing { return Timing{Anchor: AnchorStart} }

// EndTiming is the instant an activity ends.
func EndTiming() Timing { return Timing{Anchor: AnchorEnd} }

// GlobalTiming is an absolute instant on the plan timeline.
func GlobalTiming(at *big.Rat) Timing {
	return Timing{Anchor: AnchorGlobalStart, Delay: at}
}

// Offset returns the timing's delay, treating nil as zero.
// The returned value is an independent copy.
func (t Timing) Offset() *big.Rat {
	if t.Delay == nil {
		return new(big.Rat)
	}
	return new(big.Rat).Set(t.Delay)
}

// String implements fmt.Stringer.
func (t Timing) String() string {
	if t.Delay == nil || t.Delay.Sign() == 0 {
		return t.Anchor.String()
	}
	if t.Delay.Sign() > 0 {
		return fmt.Sprintf("%s + %s", t.Anchor, t.Delay.RatString())
	}
	return fmt.Sprintf("%s - %s", t.Anchor, new(big.Rat).Neg(t.Delay).RatString())
}

// Interval is a span between two timings of the same activity (or of the
// global timeline). Point intervals have Lower == Upper.
type Interval struct {
	Lower     Timing
	Upper     Timing
	LowerOpen bool
	UpperOpen bool
}

// AtStart is the point interval [start, start].
func AtStart() Interval {
	return Interval{Lower: StartTiming(), Upper: StartTiming()}
}

// AtEnd is the point interval [end, end].
func AtEnd() Interval {
	return Interval{Lower: EndTiming(), Upper: EndTiming()}
}

// OverAll is the closed span [start, end].
func OverAll() Interval {
	return Interval{Lower: StartTiming(), Upper: EndTiming()}
}

// IsPoint reports whether the interval collapses to a single instant.
func (iv Interval) IsPoint() bool {
	return iv.Lower.Anchor == iv.Upper.Anchor &&
		iv.Lower.Offset().Cmp(iv.Upper.Offset()) == 0
}

// String implements fmt.Stringer.
func (iv Interval) String() string {
	lb, ub := "[", "]"
	if iv.LowerOpen {
		lb = "("
	}
	if iv.UpperOpen {
		ub = ")"
	}
	if iv.IsPoint() {
		return fmt.Sprintf("[%s]", iv.Lower)
	}
	return fmt.Sprintf("%s%s, %s%s", lb, iv.Lower, iv.Upper, ub)
}

// Condition is a boolean expression that must hold over an interval of its
// owning activity. Point conditions hold at a single instant; span conditions
// open at the interval's lower timing and close at its upper timing.
type Condition struct {
	Interval Interval
	Expr     Expr
}

// EffectKind enumerates the ways an effect changes a fluent.
type EffectKind int

const (
	// EffectAssign overwrites the fluent's value.
	EffectAssign EffectKind = iota + 1
	// EffectIncrease adds to a numeric fluent.
	EffectIncrease
	// EffectDecrease subtracts from a numeric fluent.
	EffectDecrease
)

// String implements fmt.Stringer.
func (k EffectKind) String() string {
	switch k {
	case EffectAssign:
		return "assign"
	case EffectIncrease:
		return "increase"
	case EffectDecrease:
		return "decrease"
	default:
		return fmt.Sprintf("EffectKind(%d)", int(k))
	}
}

// Effect changes one fluent at a single timing of its owning activity.
// Condition, if non-nil, gates the effect (conditional effect): it is
// evaluated against the pre-state and the effect is skipped when false.
type Effect struct {
	Timing    Timing
	Fluent    FluentRef
	Kind      EffectKind
	Value     Expr
	Condition Expr
}

// ContinuousEffect changes a numeric fluent at a fixed rate over an interval.
// It is evaluated once, at the interval's closing event, using the exact
// elapsed duration between the interval's fixed timepoints.
type ContinuousEffect struct {
	Interval Interval
	Fluent   FluentRef
	Kind     EffectKind // EffectIncrease or EffectDecrease
	Rate     Expr       // change per time unit, evaluated at close
}

// DurationBound constrains an activity's duration to an exact-rational
// interval. Nil bounds are unconstrained on that side.
type DurationBound struct {
	Lower     *big.Rat
	Upper     *big.Rat
	LowerOpen bool
	UpperOpen bool
}

// FixedDuration is the degenerate bound [d, d].
func FixedDuration(d *big.Rat) DurationBound {
	return DurationBound{Lower: new(big.Rat).Set(d), Upper: new(big.Rat).Set(d)}
}

// Contains reports whether d satisfies the bound.
func (b DurationBound) Contains(d *big.Rat) bool {
	if b.Lower != nil {
		cmp := d.Cmp(b.Lower)
		if cmp < 0 || (cmp == 0 && b.LowerOpen) {
			return false
		}
	}
	if b.Upper != nil {
		cmp := d.Cmp(b.Upper)
		if cmp > 0 || (cmp == 0 && b.UpperOpen) {
			return false
		}
	}
	return true
}

// Parameter is a typed formal parameter of an action or fluent.
type Parameter struct {
	Name string
	Type string
}

// ValueType enumerates fluent value types.
type ValueType int

const (
	TypeBool ValueType = iota + 1
	TypeInt
	TypeRat
	TypeSym
)

// Fluent declares a state variable schema. Default, if non-nil, is the value
// assumed for ground applications absent from the initial assignment.
type Fluent struct {
	Name    string
	Type    ValueType
	Params  []Parameter
	Default Value
}

// Action is a ground or lifted activity schema.
//
// Instantaneous actions (Durative == false) have all conditions at point
// intervals anchored to start and all effects at start timing; their start
// and end coincide (end - start = 0).
//
// Durative actions anchor conditions and effects to offsets of their start
// and end timepoints and carry a duration bound.
type Action struct {
	Name       string
	Params     []Parameter
	Durative   bool
	Duration   DurationBound
	Conditions []Condition
	Effects    []Effect
	Continuous []ContinuousEffect

	// SimulatedAt marks timings at which an externally-simulated effect
	// fires. The effect itself is an injected capability supplied to the
	// simulator, not part of the declarative model.
	SimulatedAt []Timing
}

// Binding pairs the action's formal parameters with ground arguments.
// Returns an error when arity differs - a contract violation.
func (a *Action) Binding(args []Value) (Binding, error) {
	if len(args) != len(a.Params) {
		return nil, fmt.Errorf("action %q expects %d args, got %d", a.Name, len(a.Params), len(args))
	}
	b := make(Binding, len(args))
	for i, p := range a.Params {
		b[p.Name] = args[i]
	}
	return b, nil
}
