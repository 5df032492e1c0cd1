package loader

import (
	"math/big"

	"github.com/parloq/tempora/internal/model"
	"github.com/parloq/tempora/internal/temporal"
)

func parseRatStr(s string) (*big.Rat, error) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, loadErrf(ErrCodeValue, "invalid rational %q", s)
	}
	return r, nil
}

func buildValue(w *valueWire) (model.Value, error) {
	set := 0
	if w.Bool != nil {
		set++
	}
	if w.Int != nil {
		set++
	}
	if w.Rat != nil {
		set++
	}
	if w.Sym != nil {
		set++
	}
	if set != 1 {
		return nil, loadErrf(ErrCodeValue, "value must set exactly one of bool/int/rat/sym, got %d", set)
	}
	switch {
	case w.Bool != nil:
		return model.Bool(*w.Bool), nil
	case w.Int != nil:
		return model.Int(*w.Int), nil
	case w.Rat != nil:
		v, err := model.ParseRat(*w.Rat)
		if err != nil {
			return nil, loadErrf(ErrCodeValue, "%v", err)
		}
		return v, nil
	default:
		return model.Sym(*w.Sym), nil
	}
}

func buildExpr(w *exprWire) (model.Expr, error) {
	switch {
	case w.Lit != nil:
		v, err := buildValue(w.Lit)
		if err != nil {
			return nil, err
		}
		return model.Lit(v), nil
	case w.Fluent != nil:
		args := make([]model.Expr, len(w.Fluent.Args))
		for i := range w.Fluent.Args {
			a, err := buildExpr(&w.Fluent.Args[i])
			if err != nil {
				return nil, err
			}
			args[i] = a
		}
		return model.FluentRef{Name: w.Fluent.Name, Args: args}, nil
	case w.Param != nil:
		return model.ParamRef{Name: *w.Param}, nil
	case w.Not != nil:
		x, err := buildExpr(w.Not)
		if err != nil {
			return nil, err
		}
		return model.Not{X: x}, nil
	case w.Op != nil:
		op, err := buildOp(*w.Op)
		if err != nil {
			return nil, err
		}
		if w.Left == nil || w.Right == nil {
			return nil, loadErrf(ErrCodeValue, "operator %q needs left and right operands", *w.Op)
		}
		l, err := buildExpr(w.Left)
		if err != nil {
			return nil, err
		}
		r, err := buildExpr(w.Right)
		if err != nil {
			return nil, err
		}
		return model.Binary{Op: op, Left: l, Right: r}, nil
	default:
		return nil, loadErrf(ErrCodeValue, "expression must set one of lit/fluent/param/not/op")
	}
}

func buildOp(s string) (model.BinOp, error) {
	switch s {
	case "and":
		return model.OpAnd, nil
	case "or":
		return model.OpOr, nil
	case "implies":
		return model.OpImplies, nil
	case "==":
		return model.OpEq, nil
	case "<=":
		return model.OpLE, nil
	case "<":
		return model.OpLT, nil
	case "+":
		return model.OpPlus, nil
	case "-":
		return model.OpMinus, nil
	case "*":
		return model.OpTimes, nil
	case "/":
		return model.OpDiv, nil
	default:
		return 0, loadErrf(ErrCodeValue, "unknown operator %q", s)
	}
}

func buildTiming(w *timingWire) (model.Timing, error) {
	var anchor model.Anchor
	switch w.Anchor {
	case "start":
		anchor = model.AnchorStart
	case "end":
		anchor = model.AnchorEnd
	case "global-start":
		anchor = model.AnchorGlobalStart
	case "global-end":
		anchor = model.AnchorGlobalEnd
	default:
		return model.Timing{}, loadErrf(ErrCodeValue, "unknown anchor %q", w.Anchor)
	}
	t := model.Timing{Anchor: anchor}
	if w.Delay != nil {
		d, err := parseRatStr(*w.Delay)
		if err != nil {
			return model.Timing{}, err
		}
		t.Delay = d
	}
	return t, nil
}

func buildInterval(w *intervalWire) (model.Interval, error) {
	lower, err := buildTiming(&w.Lower)
	if err != nil {
		return model.Interval{}, err
	}
	upper, err := buildTiming(&w.Upper)
	if err != nil {
		return model.Interval{}, err
	}
	return model.Interval{Lower: lower, Upper: upper, LowerOpen: w.LowerOpen, UpperOpen: w.UpperOpen}, nil
}

func buildCondition(w *conditionWire) (model.Condition, error) {
	expr, err := buildExpr(&w.Expr)
	if err != nil {
		return model.Condition{}, err
	}
	var iv model.Interval
	switch {
	case w.At != nil:
		switch *w.At {
		case "start":
			iv = model.AtStart()
		case "end":
			iv = model.AtEnd()
		case "over-all":
			iv = model.OverAll()
		default:
			return model.Condition{}, loadErrf(ErrCodeValue, "unknown condition shorthand %q", *w.At)
		}
	case w.Interval != nil:
		iv, err = buildInterval(w.Interval)
		if err != nil {
			return model.Condition{}, err
		}
	default:
		return model.Condition{}, loadErrf(ErrCodeValue, "condition needs either at: or interval:")
	}
	return model.Condition{Interval: iv, Expr: expr}, nil
}

func buildEffectKind(s string) (model.EffectKind, error) {
	switch s {
	case "assign":
		return model.EffectAssign, nil
	case "increase":
		return model.EffectIncrease, nil
	case "decrease":
		return model.EffectDecrease, nil
	default:
		return 0, loadErrf(ErrCodeValue, "unknown effect kind %q", s)
	}
}

func buildEffect(w *effectWire) (model.Effect, error) {
	var timing model.Timing
	switch w.At {
	case "start":
		timing = model.StartTiming()
	case "end":
		timing = model.EndTiming()
	default:
		return model.Effect{}, loadErrf(ErrCodeValue, "effect timing must be start or end, got %q", w.At)
	}
	kind, err := buildEffectKind(w.Kind)
	if err != nil {
		return model.Effect{}, err
	}
	value, err := buildExpr(&w.Value)
	if err != nil {
		return model.Effect{}, err
	}
	ref, err := buildFluentRef(&w.Fluent)
	if err != nil {
		return model.Effect{}, err
	}
	eff := model.Effect{Timing: timing, Fluent: ref, Kind: kind, Value: value}
	if w.When != nil {
		cond, err := buildExpr(w.When)
		if err != nil {
			return model.Effect{}, err
		}
		eff.Condition = cond
	}
	return eff, nil
}

func buildFluentRef(w *fluentRefWire) (model.FluentRef, error) {
	args := make([]model.Expr, len(w.Args))
	for i := range w.Args {
		a, err := buildExpr(&w.Args[i])
		if err != nil {
			return model.FluentRef{}, err
		}
		args[i] = a
	}
	return model.FluentRef{Name: w.Name, Args: args}, nil
}

func buildContinuous(w *continuousWire) (model.ContinuousEffect, error) {
	kind, err := buildEffectKind(w.Kind)
	if err != nil {
		return model.ContinuousEffect{}, err
	}
	rate, err := buildExpr(&w.Rate)
	if err != nil {
		return model.ContinuousEffect{}, err
	}
	ref, err := buildFluentRef(&w.Fluent)
	if err != nil {
		return model.ContinuousEffect{}, err
	}
	iv := model.OverAll()
	if w.Interval != nil {
		iv, err = buildInterval(w.Interval)
		if err != nil {
			return model.ContinuousEffect{}, err
		}
	}
	return model.ContinuousEffect{Interval: iv, Fluent: ref, Kind: kind, Rate: rate}, nil
}

func buildDuration(w *durationWire) (model.DurationBound, error) {
	var b model.DurationBound
	if w == nil {
		return b, nil
	}
	if w.Lower != nil {
		lo, err := parseRatStr(*w.Lower)
		if err != nil {
			return b, err
		}
		b.Lower = lo
	}
	if w.Upper != nil {
		hi, err := parseRatStr(*w.Upper)
		if err != nil {
			return b, err
		}
		b.Upper = hi
	}
	b.LowerOpen = w.LowerOpen
	b.UpperOpen = w.UpperOpen
	return b, nil
}

func buildParams(ws []paramWire) []model.Parameter {
	out := make([]model.Parameter, len(ws))
	for i, w := range ws {
		out[i] = model.Parameter{Name: w.Name, Type: w.Type}
	}
	return out
}

func buildValueType(s string) (model.ValueType, error) {
	switch s {
	case "bool":
		return model.TypeBool, nil
	case "int":
		return model.TypeInt, nil
	case "rat":
		return model.TypeRat, nil
	case "sym":
		return model.TypeSym, nil
	default:
		return 0, loadErrf(ErrCodeValue, "unknown fluent type %q", s)
	}
}

func buildAction(w *actionWire) (*model.Action, error) {
	duration, err := buildDuration(w.Duration)
	if err != nil {
		return nil, err
	}
	a := &model.Action{
		Name:     w.Name,
		Params:   buildParams(w.Params),
		Durative: w.Durative,
		Duration: duration,
	}
	for i := range w.Conditions {
		c, err := buildCondition(&w.Conditions[i])
		if err != nil {
			return nil, err
		}
		a.Conditions = append(a.Conditions, c)
	}
	for i := range w.Effects {
		e, err := buildEffect(&w.Effects[i])
		if err != nil {
			return nil, err
		}
		a.Effects = append(a.Effects, e)
	}
	for i := range w.Continuous {
		ce, err := buildContinuous(&w.Continuous[i])
		if err != nil {
			return nil, err
		}
		a.Continuous = append(a.Continuous, ce)
	}
	return a, nil
}

func buildProblem(w *problemWire) (*model.Problem, error) {
	p := &model.Problem{Name: w.Name}
	for _, fw := range w.Fluents {
		vt, err := buildValueType(fw.Type)
		if err != nil {
			return nil, err
		}
		f := model.Fluent{Name: fw.Name, Type: vt, Params: buildParams(fw.Params)}
		if fw.Default != nil {
			d, err := buildValue(fw.Default)
			if err != nil {
				return nil, err
			}
			f.Default = d
		}
		p.Fluents = append(p.Fluents, f)
	}
	for i := range w.Actions {
		a, err := buildAction(&w.Actions[i])
		if err != nil {
			return nil, err
		}
		p.Actions = append(p.Actions, a)
	}
	if len(w.Init) > 0 {
		p.Init = make(map[string]model.Value, len(w.Init))
		for key, vw := range w.Init {
			v, err := buildValue(&vw)
			if err != nil {
				return nil, err
			}
			p.Init[key] = v
		}
	}
	for i := range w.Goals {
		g, err := buildExpr(&w.Goals[i])
		if err != nil {
			return nil, err
		}
		p.Goals = append(p.Goals, g)
	}
	for i := range w.TimedGoals {
		iv, err := buildInterval(&w.TimedGoals[i].Interval)
		if err != nil {
			return nil, err
		}
		g, err := buildExpr(&w.TimedGoals[i].Expr)
		if err != nil {
			return nil, err
		}
		p.TimedGoals = append(p.TimedGoals, model.TimedGoal{Interval: iv, Expr: g})
	}
	for i := range w.Invariants {
		inv, err := buildExpr(&w.Invariants[i])
		if err != nil {
			return nil, err
		}
		p.Invariants = append(p.Invariants, inv)
	}
	for _, mw := range w.Metrics {
		m := model.Metric{Name: mw.Name}
		switch mw.Kind {
		case "minimize":
			m.Kind = model.MetricMinimizeExpr
		case "maximize":
			m.Kind = model.MetricMaximizeExpr
		case "minimize-makespan":
			m.Kind = model.MetricMinimizeMakespan
		default:
			return nil, loadErrf(ErrCodeValue, "unknown metric kind %q", mw.Kind)
		}
		if mw.Expr != nil {
			e, err := buildExpr(mw.Expr)
			if err != nil {
				return nil, err
			}
			m.Expr = e
		} else if m.Kind != model.MetricMinimizeMakespan {
			return nil, loadErrf(ErrCodeValue, "metric kind %q requires an expression", mw.Kind)
		}
		p.Metrics = append(p.Metrics, m)
	}
	return p, nil
}

// buildInstance converts one wire instance. occurrence disambiguates
// identical (action, args) pairs when no explicit ID is given.
func buildInstance(w *instanceWire, occurrence int) (*model.ActionInstance, error) {
	args := make([]model.Value, len(w.Args))
	for i := range w.Args {
		v, err := buildValue(&w.Args[i])
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	if w.ID != "" {
		return &model.ActionInstance{ID: w.ID, Action: w.Action, Args: args}, nil
	}
	return model.NewActionInstance(w.Action, occurrence, args...), nil
}

func buildTimepoint(w *timepointWire) (temporal.Timepoint, error) {
	switch w.Kind {
	case "start":
		return temporal.StartOf(w.Container), nil
	case "end":
		return temporal.EndOf(w.Container), nil
	case "global-start":
		return temporal.GlobalStart(), nil
	case "global-end":
		return temporal.GlobalEnd(), nil
	default:
		return temporal.Timepoint{}, loadErrf(ErrCodeValue, "unknown timepoint kind %q", w.Kind)
	}
}

func buildPlan(w *planWire) (*PlanDoc, error) {
	switch w.Kind {
	case "time-triggered":
		tt := &model.TimeTriggeredPlan{}
		for i := range w.Activities {
			aw := &w.Activities[i]
			inst, err := buildInstance(&aw.instanceWire, i)
			if err != nil {
				return nil, err
			}
			start, err := parseRatStr(aw.Start)
			if err != nil {
				return nil, err
			}
			sa := model.ScheduledActivity{Start: start, Instance: inst}
			if aw.Duration != nil {
				d, err := parseRatStr(*aw.Duration)
				if err != nil {
					return nil, err
				}
				sa.Duration = d
			}
			tt.Activities = append(tt.Activities, sa)
		}
		return &PlanDoc{Plan: tt}, nil

	case "sequential":
		sp := &model.SequentialPlan{}
		for i := range w.Steps {
			inst, err := buildInstance(&w.Steps[i], i)
			if err != nil {
				return nil, err
			}
			sp.Steps = append(sp.Steps, inst)
		}
		return &PlanDoc{Plan: sp}, nil

	case "partial-order":
		pop := &model.PartialOrderPlan{Order: w.Order}
		for i := range w.Instances {
			inst, err := buildInstance(&w.Instances[i], i)
			if err != nil {
				return nil, err
			}
			pop.Instances = append(pop.Instances, inst)
		}
		return &PlanDoc{Plan: pop}, nil

	case "stn":
		stn := temporal.NewSTNPlan()
		for i := range w.Constraints {
			cw := &w.Constraints[i]
			from, err := buildTimepoint(&cw.From)
			if err != nil {
				return nil, err
			}
			to, err := buildTimepoint(&cw.To)
			if err != nil {
				return nil, err
			}
			var lo, hi *big.Rat
			if cw.Lower != nil {
				if lo, err = parseRatStr(*cw.Lower); err != nil {
					return nil, err
				}
			}
			if cw.Upper != nil {
				if hi, err = parseRatStr(*cw.Upper); err != nil {
					return nil, err
				}
			}
			stn.AddConstraint(from, to, temporal.NewBound(lo, hi))
		}
		return &PlanDoc{STN: stn}, nil

	default:
		return nil, loadErrf(ErrCodeStructure, "unknown plan kind %q", w.Kind)
	}
}
