package temporal

import (
	"fmt"
	"math/big"
)

// Bound is an exact-rational interval constraint on the difference between
// two timepoints. A nil side is unbounded. Bounds are treated as immutable:
// operations return fresh rationals and never mutate their operands.
type Bound struct {
	Lower *big.Rat
	Upper *big.Rat
}

// NewBound copies its arguments into a Bound. Either side may be nil.
func NewBound(lower, upper *big.Rat) Bound {
	var b Bound
	if lower != nil {
		b.Lower = new(big.Rat).Set(lower)
	}
	if upper != nil {
		b.Upper = new(big.Rat).Set(upper)
	}
	return b
}

// Exactly is the degenerate bound [d, d].
func Exactly(d *big.Rat) Bound {
	return NewBound(d, d)
}

// Intersect combines two bounds on the same ordered pair, keeping the
// tightest lower and upper. This is the only merge the network performs:
// tightest-wins, never last-write-wins.
func (b Bound) Intersect(other Bound) Bound {
	out := Bound{Lower: b.Lower, Upper: b.Upper}
	if other.Lower != nil && (out.Lower == nil || other.Lower.Cmp(out.Lower) > 0) {
		out.Lower = other.Lower
	}
	if other.Upper != nil && (out.Upper == nil || other.Upper.Cmp(out.Upper) < 0) {
		out.Upper = other.Upper
	}
	return out
}

// Invert returns the bound on the reversed pair: if to - from ∈ [l, u] then
// from - to ∈ [-u, -l].
func (b Bound) Invert() Bound {
	var out Bound
	if b.Upper != nil {
		out.Lower = new(big.Rat).Neg(b.Upper)
	}
	if b.Lower != nil {
		out.Upper = new(big.Rat).Neg(b.Lower)
	}
	return out
}

// Compose chains a bound A→X with a bound X→B into the implied bound A→B:
// lower = lowerAX + lowerXB, upper = upperAX + upperXB, with nil absorbing.
func (b Bound) Compose(other Bound) Bound {
	var out Bound
	if b.Lower != nil && other.Lower != nil {
		out.Lower = new(big.Rat).Add(b.Lower, other.Lower)
	}
	if b.Upper != nil && other.Upper != nil {
		out.Upper = new(big.Rat).Add(b.Upper, other.Upper)
	}
	return out
}

// Empty reports whether the bound admits no value (lower > upper).
func (b Bound) Empty() bool {
	return b.Lower != nil && b.Upper != nil && b.Lower.Cmp(b.Upper) > 0
}

// Unbounded reports whether both sides are absent.
func (b Bound) Unbounded() bool {
	return b.Lower == nil && b.Upper == nil
}

// Equal reports exact equality of both sides.
func (b Bound) Equal(other Bound) bool {
	return ratEqual(b.Lower, other.Lower) && ratEqual(b.Upper, other.Upper)
}

func newZero() *big.Rat { return new(big.Rat) }

func ratEqual(a, b *big.Rat) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Cmp(b) == 0
}

// String implements fmt.Stringer.
func (b Bound) String() string {
	lo, hi := "-inf", "+inf"
	if b.Lower != nil {
		lo = b.Lower.RatString()
	}
	if b.Upper != nil {
		hi = b.Upper.RatString()
	}
	return fmt.Sprintf("[%s, %s]", lo, hi)
}
