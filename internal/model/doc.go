// Package model defines the declarative planning model consumed by the
// temporal engine: values, expressions, fluents, actions, problems, and plans.
//
// The engine treats everything in this package as read-only input. Inputs are
// assumed to be type-checked and ground (quantifier removal, grounding, and
// parsing are upstream concerns).
//
// # No Floats
//
// All timing and numeric fluent arithmetic uses exact rationals (math/big.Rat)
// or int64. Floats are forbidden everywhere in the model: timing comparisons
// and epsilon separations must be exact, and two validation runs over the same
// (problem, plan) must agree bit-for-bit.
//
// # Identity
//
// Action instances, problems, and plans have content-addressed identities
// computed from RFC 8785 canonical JSON (NFC-normalized strings, UTF-16 key
// ordering, no floats, no nulls) hashed with SHA-256 under a domain prefix.
// See canonical.go and hash.go.
package model
