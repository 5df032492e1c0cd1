package simulator

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/parloq/tempora/internal/model"
	"github.com/parloq/tempora/internal/temporal"
)

// EventKind enumerates the atomic point-events an activity decomposes into.
// The declaration order is the fixed per-instance ordering:
//
//	StartAction ≤ StartCondition ≤ EndCondition ≤ EndAction
type EventKind int

const (
	StartAction EventKind = iota + 1
	StartCondition
	EndCondition
	EndAction
)

// String implements fmt.Stringer.
func (k EventKind) String() string {
	switch k {
	case StartAction:
		return "start-action"
	case StartCondition:
		return "start-condition"
	case EndCondition:
		return "end-condition"
	case EndAction:
		return "end-action"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Order returns the kind's position in the fixed per-instance ordering.
func (k EventKind) Order() int { return int(k) }

// Edge is a timing constraint inserted into the network when its event
// applies: To - From ∈ Bound.
type Edge struct {
	From  temporal.Timepoint
	To    temporal.Timepoint
	Bound temporal.Bound
}

// Event is one atomic point-event of an activity instance. Events are
// created once, when the instance's schedule entry is expanded, and are
// immutable afterwards.
type Event struct {
	Kind     EventKind
	Instance *model.ActionInstance
	Action   *model.Action

	// Condition and CondIndex identify the interval condition a
	// StartCondition/EndCondition event opens or closes. CondIndex is -1
	// for action events.
	Condition *model.Condition
	CondIndex int

	// Timepoint is the network node this event occurs at. Interval
	// conditions use synthetic containers ("<instance>/c<i>") whose start
	// and end are the open and close instants.
	Timepoint temporal.Timepoint

	// Edges are the timing constraints this event contributes.
	Edges []Edge

	// Time is the event's absolute scheduled time, set when the instance
	// was anchored to a declared start; nil for unanchored stepping.
	Time *big.Rat

	// Elapsed is the instance's declared duration; set on EndAction events
	// of durative activities so continuous effects can integrate over it.
	Elapsed *big.Rat
}

// Key uniquely identifies the event within a run, for duplicate detection
// and trace rows.
func (e *Event) Key() string {
	if e.CondIndex >= 0 {
		return fmt.Sprintf("%s/%s/c%d", e.Instance.ID, e.Kind, e.CondIndex)
	}
	return fmt.Sprintf("%s/%s", e.Instance.ID, e.Kind)
}

// String implements fmt.Stringer.
func (e *Event) String() string {
	s := fmt.Sprintf("%s %s", e.Kind, e.Instance)
	if e.Condition != nil {
		s += fmt.Sprintf(" %s", e.Condition.Interval)
	}
	if e.Time != nil {
		s += fmt.Sprintf(" @ %s", e.Time.RatString())
	}
	return s
}

// condContainer names the synthetic container for interval condition i of an
// instance.
func condContainer(instanceID string, i int) string {
	return fmt.Sprintf("%s/c%d", instanceID, i)
}

// SortEvents orders a merged event slice deterministically: by absolute
// time, then by the fixed per-instance kind order, then by instance ID, then
// by condition index. Events without absolute times keep their relative
// positions only through kind and ID, which callers use for untimed
// stepping.
func SortEvents(events []*Event) {
	sortSlice(events, func(a, b *Event) bool {
		if a.Time != nil && b.Time != nil {
			if cmp := a.Time.Cmp(b.Time); cmp != 0 {
				return cmp < 0
			}
		}
		if a.Kind != b.Kind {
			return a.Kind.Order() < b.Kind.Order()
		}
		if a.Instance.ID != b.Instance.ID {
			return a.Instance.ID < b.Instance.ID
		}
		return a.CondIndex < b.CondIndex
	})
}

func sortSlice[T any](s []T, less func(a, b T) bool) {
	sort.SliceStable(s, func(i, j int) bool { return less(s[i], s[j]) })
}
