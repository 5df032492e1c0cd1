package model

import (
	"fmt"
	"math/big"
	"strings"
)

// Expr is a sealed interface over ground expression nodes.
// Only Literal, FluentRef, ParamRef, Not, and Binary implement it.
type Expr interface {
	expr() // Sealed
}

// Literal wraps a constant value.
type Literal struct {
	Value Value
}

func (Literal) expr() {}

// FluentRef references a fluent application, e.g. battery_level(rover1).
// Args are evaluated at lookup time; after grounding they are literals.
type FluentRef struct {
	Name string
	Args []Expr
}

func (FluentRef) expr() {}

// ParamRef references an action parameter by name, resolved against the
// instance binding at evaluation time.
type ParamRef struct {
	Name string
}

func (ParamRef) expr() {}

// Not negates a boolean expression.
type Not struct {
	X Expr
}

func (Not) expr() {}

// BinOp enumerates binary expression operators.
type BinOp int

const (
	OpAnd BinOp = iota + 1
	OpOr
	OpImplies
	OpEq
	OpLE
	OpLT
	OpPlus
	OpMinus
	OpTimes
	OpDiv
)

// String returns the operator's surface syntax.
func (op BinOp) String() string {
	switch op {
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpImplies:
		return "implies"
	case OpEq:
		return "=="
	case OpLE:
		return "<="
	case OpLT:
		return "<"
	case OpPlus:
		return "+"
	case OpMinus:
		return "-"
	case OpTimes:
		return "*"
	case OpDiv:
		return "/"
	default:
		return fmt.Sprintf("BinOp(%d)", int(op))
	}
}

// Binary applies a binary operator to two subexpressions.
type Binary struct {
	Op    BinOp
	Left  Expr
	Right Expr
}

func (Binary) expr() {}

// Convenience constructors. These keep problem definitions readable in tests
// and loaders.

func Lit(v Value) Literal { return Literal{Value: v} }
func TrueExpr() Literal   { return Literal{Value: Bool(true)} }
func Fl(name string, args ...Expr) FluentRef {
	return FluentRef{Name: name, Args: args}
}
func And(l, r Expr) Binary   { return Binary{Op: OpAnd, Left: l, Right: r} }
func Or(l, r Expr) Binary    { return Binary{Op: OpOr, Left: l, Right: r} }
func Eq(l, r Expr) Binary    { return Binary{Op: OpEq, Left: l, Right: r} }
func LE(l, r Expr) Binary    { return Binary{Op: OpLE, Left: l, Right: r} }
func LT(l, r Expr) Binary    { return Binary{Op: OpLT, Left: l, Right: r} }
func Plus(l, r Expr) Binary  { return Binary{Op: OpPlus, Left: l, Right: r} }
func Minus(l, r Expr) Binary { return Binary{Op: OpMinus, Left: l, Right: r} }
func Times(l, r Expr) Binary { return Binary{Op: OpTimes, Left: l, Right: r} }

// Valuation resolves ground fluent keys to values. Implemented by the
// simulator's combined state and by the problem's initial assignment.
type Valuation interface {
	Lookup(key string) (Value, bool)
}

// Binding maps parameter names to the instance's ground arguments.
type Binding map[string]Value

// Eval evaluates a ground expression against a valuation and binding.
//
// Errors indicate contract violations (unknown fluent, unbound parameter,
// type mismatch), never domain-level falsity: a condition that evaluates to
// Bool(false) is an ordinary result.
func Eval(e Expr, val Valuation, b Binding) (Value, error) {
	switch node := e.(type) {
	case Literal:
		return node.Value, nil
	case ParamRef:
		v, ok := b[node.Name]
		if !ok {
			return nil, fmt.Errorf("unbound parameter %q", node.Name)
		}
		return v, nil
	case FluentRef:
		key, err := GroundKey(node, val, b)
		if err != nil {
			return nil, err
		}
		v, ok := val.Lookup(key)
		if !ok {
			return nil, fmt.Errorf("fluent %q has no value", key)
		}
		return v, nil
	case Not:
		x, err := evalBool(node.X, val, b)
		if err != nil {
			return nil, err
		}
		return Bool(!x), nil
	case Binary:
		return evalBinary(node, val, b)
	default:
		return nil, fmt.Errorf("unsupported expression node %T", e)
	}
}

// EvalBool evaluates an expression and requires a boolean result.
func EvalBool(e Expr, val Valuation, b Binding) (bool, error) {
	return evalBool(e, val, b)
}

func evalBool(e Expr, val Valuation, b Binding) (bool, error) {
	v, err := Eval(e, val, b)
	if err != nil {
		return false, err
	}
	bv, ok := v.(Bool)
	if !ok {
		return false, fmt.Errorf("expected boolean, got %s", v)
	}
	return bool(bv), nil
}

func evalBinary(node Binary, val Valuation, b Binding) (Value, error) {
	switch node.Op {
	case OpAnd, OpOr, OpImplies:
		l, err := evalBool(node.Left, val, b)
		if err != nil {
			return nil, err
		}
		// Short-circuit where the left operand decides the result.
		switch node.Op {
		case OpAnd:
			if !l {
				return Bool(false), nil
			}
		case OpOr:
			if l {
				return Bool(true), nil
			}
		case OpImplies:
			if !l {
				return Bool(true), nil
			}
		}
		r, err := evalBool(node.Right, val, b)
		if err != nil {
			return nil, err
		}
		return Bool(r), nil

	case OpEq:
		l, err := Eval(node.Left, val, b)
		if err != nil {
			return nil, err
		}
		r, err := Eval(node.Right, val, b)
		if err != nil {
			return nil, err
		}
		return Bool(Equal(l, r)), nil

	case OpLE, OpLT:
		l, err := Eval(node.Left, val, b)
		if err != nil {
			return nil, err
		}
		r, err := Eval(node.Right, val, b)
		if err != nil {
			return nil, err
		}
		cmp, err := Compare(l, r)
		if err != nil {
			return nil, err
		}
		if node.Op == OpLE {
			return Bool(cmp <= 0), nil
		}
		return Bool(cmp < 0), nil

	case OpPlus, OpMinus, OpTimes, OpDiv:
		return evalArith(node, val, b)

	default:
		return nil, fmt.Errorf("unsupported operator %s", node.Op)
	}
}

func evalArith(node Binary, val Valuation, b Binding) (Value, error) {
	l, err := Eval(node.Left, val, b)
	if err != nil {
		return nil, err
	}
	r, err := Eval(node.Right, val, b)
	if err != nil {
		return nil, err
	}
	lr, lOK := numeric(l)
	rr, rOK := numeric(r)
	if !lOK || !rOK {
		return nil, fmt.Errorf("arithmetic on non-numeric values %s %s %s", l, node.Op, r)
	}

	out := new(big.Rat)
	switch node.Op {
	case OpPlus:
		out.Add(lr, rr)
	case OpMinus:
		out.Sub(lr, rr)
	case OpTimes:
		out.Mul(lr, rr)
	case OpDiv:
		if rr.Sign() == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		out.Quo(lr, rr)
	}

	// Preserve Int typing when both operands were Int and the result is
	// integral; division always yields a Rat.
	_, lInt := l.(Int)
	_, rInt := r.(Int)
	if lInt && rInt && node.Op != OpDiv && out.IsInt() {
		return Int(out.Num().Int64()), nil
	}
	return RatFromBig(out), nil
}

// GroundKey renders a fluent reference as its ground lookup key, e.g.
// "at(rover1, waypoint2)". Args are evaluated first, so keys are stable
// regardless of how the reference was constructed.
func GroundKey(f FluentRef, val Valuation, b Binding) (string, error) {
	if len(f.Args) == 0 {
		return f.Name, nil
	}
	parts := make([]string, len(f.Args))
	for i, arg := range f.Args {
		v, err := Eval(arg, val, b)
		if err != nil {
			return "", fmt.Errorf("fluent %q arg %d: %w", f.Name, i, err)
		}
		parts[i] = v.String()
	}
	return f.Name + "(" + strings.Join(parts, ", ") + ")", nil
}
