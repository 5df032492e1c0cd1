package model

import (
	"fmt"
	"math/big"
)

// Value is a sealed interface over the types a fluent may hold.
// Only Bool, Int, and Rat implement it. NO floats - floats break the
// bit-for-bit determinism the engine guarantees.
type Value interface {
	value() // Sealed - only these types implement it

	// String returns the canonical text form of the value.
	// Equal values always render identically.
	String() string
}

// Bool represents a boolean fluent value.
type Bool bool

func (Bool) value() {}

// String implements Value.
func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

// Sym represents a domain object constant, e.g. Sym("rover1").
// Objects carry no structure beyond their name; equality is by name.
type Sym string

func (Sym) value() {}

// String implements Value.
func (s Sym) String() string {
	return string(s)
}

// Int represents an integer fluent value. Always int64, never float64.
type Int int64

func (Int) value() {}

// String implements Value.
func (i Int) String() string {
	return fmt.Sprintf("%d", int64(i))
}

// Rat represents an exact rational fluent value.
//
// Rat is immutable: the wrapped big.Rat is copied on construction and on
// access, so values can be shared freely between states.
type Rat struct {
	r *big.Rat
}

func (Rat) value() {}

// NewRat creates a Rat from numerator and denominator. Panics if den is 0,
// mirroring big.NewRat.
func NewRat(num, den int64) Rat {
	return Rat{r: big.NewRat(num, den)}
}

// RatFromBig creates a Rat from an existing big.Rat, taking a defensive copy.
func RatFromBig(r *big.Rat) Rat {
	return Rat{r: new(big.Rat).Set(r)}
}

// ParseRat parses a rational from its canonical text form ("3", "-1/2").
func ParseRat(s string) (Rat, error) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return Rat{}, fmt.Errorf("invalid rational %q", s)
	}
	return Rat{r: r}, nil
}

// Big returns an independent copy of the underlying big.Rat.
func (r Rat) Big() *big.Rat {
	if r.r == nil {
		return new(big.Rat)
	}
	return new(big.Rat).Set(r.r)
}

// String implements Value. Integral rationals render without a denominator
// ("3", not "3/1"), matching big.Rat.RatString.
func (r Rat) String() string {
	if r.r == nil {
		return "0"
	}
	return r.r.RatString()
}

// Equal reports whether two values are equal.
//
// Numeric values compare by magnitude across Int and Rat (Int(2) equals
// NewRat(2, 1)). Bool never equals a numeric value.
func Equal(a, b Value) bool {
	ab, aIsBool := a.(Bool)
	bb, bIsBool := b.(Bool)
	if aIsBool || bIsBool {
		return aIsBool && bIsBool && ab == bb
	}
	as, aIsSym := a.(Sym)
	bs, bIsSym := b.(Sym)
	if aIsSym || bIsSym {
		return aIsSym && bIsSym && as == bs
	}
	ar, aOK := numeric(a)
	br, bOK := numeric(b)
	if !aOK || !bOK {
		return false
	}
	return ar.Cmp(br) == 0
}

// Compare orders two numeric values (-1, 0, +1). Returns an error for Bool
// operands - booleans have no order.
func Compare(a, b Value) (int, error) {
	ar, aOK := numeric(a)
	br, bOK := numeric(b)
	if !aOK || !bOK {
		return 0, fmt.Errorf("cannot order non-numeric values %s and %s", a, b)
	}
	return ar.Cmp(br), nil
}

// numeric converts a numeric Value to a big.Rat. Returns false for Bool.
func numeric(v Value) (*big.Rat, bool) {
	switch val := v.(type) {
	case Int:
		return new(big.Rat).SetInt64(int64(val)), true
	case Rat:
		return val.Big(), true
	default:
		return nil, false
	}
}
