// Package simulator decomposes activities into ordered point-events and
// steps a combined (fluent + temporal) state through them.
//
// ARCHITECTURE:
//
// Per-instance state machine:
//
//	unstarted → started → (per interval condition: open → closed)* → ended
//
// Each activity instance expands into at most four event kinds:
// StartAction, StartCondition, EndCondition, EndAction, totally ordered by
// kind within the instance and partially ordered in time by the temporal
// network. Interval conditions become synthetic containers whose start/end
// timepoints are the open/close instants, linked to the owning instance
// through its duration bound and the interval's point offsets.
//
// Evaluation is functional: Apply never mutates its input state. A returned
// state shares no mutable structure with its source, so speculative branches
// compose without locking. Fluent valuations use parent-linked overlays with
// structural sharing rather than deep copies.
//
// Two failure classes are kept strictly apart:
//   - Contract errors (unknown action, event applied out of machine order)
//     are structured *ContractError values and fail loudly.
//   - Domain infeasibility (false condition, conflicting effect, temporal
//     inconsistency) is ordinary data: IsApplicable returns a reasoned
//     *Inapplicable, never an error.
package simulator
