// Package temporal implements the simple temporal network (STN) layer: an
// incrementally-built directed constraint graph over rational-valued
// timepoints, plus the STN plan view used to manipulate whole plans.
//
// ARCHITECTURE:
//
// A constraint Add(from, to, lower, upper) means to - from ∈ [lower, upper].
// Each bound splits into two weighted edges (from→to weight upper, to→from
// weight -lower); the network is consistent iff the weighted graph has no
// negative cycle, decided by Bellman-Ford relaxation.
//
// INVARIANTS:
//   - All bounds are exact rationals (math/big.Rat). NEVER floats: timing
//     comparisons and epsilon separations must be exact.
//   - Duplicate bounds on the same ordered pair are tightest-wins: Add
//     intersects with any prior bound, so information is never lost.
//   - Check() returning false is an ordinary domain result, never a panic.
//   - Iteration order over nodes and edges is insertion order, so two runs
//     over the same inputs agree bit-for-bit.
//
// The package is deliberately free of model dependencies: timepoints name
// their containers by opaque string IDs, so the network can serve any layer
// that produces instances.
package temporal
