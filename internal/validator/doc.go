// Package validator drives the event simulator across whole plans, feeding
// timing relations into the temporal network and reporting the first
// violation.
//
// ARCHITECTURE:
//
// Single-threaded evaluation loop, in the spirit of a single-writer engine:
//
//  1. Build the initial combined state from the problem.
//  2. Expand each scheduled activity into events anchored at its declared
//     start and duration.
//  3. Merge-sort all events by time, tie-broken by the fixed per-instance
//     kind order, then by instance ID - so two runs over the same inputs
//     agree bit-for-bit.
//  4. Apply events in order through IsApplicable/Apply, checking trajectory
//     invariants and timed-goal windows between events.
//  5. Check final goals and compute declared metric values.
//
// Domain infeasibility - a false condition, a conflicting effect, a negative
// cycle in the network - produces an INVALID report with an explanation and
// is never an error. The validator collects ALL unsatisfied goals but stops
// at the FIRST inapplicable event: later events are meaningless once one
// fails.
//
// Every applied event is stamped with a monotonic logical sequence number,
// never a wall-clock timestamp, so traces are reproducible and can be
// compared against golden files or replayed from the trace store.
package validator
