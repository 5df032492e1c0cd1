package model

import (
	"fmt"
	"math/big"
	"sort"
)

// ActionInstance is one occurrence of an action with ground arguments.
//
// ID disambiguates repeated occurrences of the same (action, args) pair
// within a plan; loaders and tests assign it, or NewActionInstance derives a
// content-addressed one.
type ActionInstance struct {
	ID     string
	Action string
	Args   []Value
}

// NewActionInstance creates an instance with a content-addressed ID.
// Two calls with equal (action, args, occurrence) yield the same ID.
func NewActionInstance(action string, occurrence int, args ...Value) *ActionInstance {
	inst := &ActionInstance{Action: action, Args: args}
	inst.ID = InstanceID(action, args, occurrence)
	return inst
}

// String implements fmt.Stringer.
func (ai *ActionInstance) String() string {
	if len(ai.Args) == 0 {
		return ai.Action
	}
	s := ai.Action + "("
	for i, a := range ai.Args {
		if i > 0 {
			s += ", "
		}
		s += a.String()
	}
	return s + ")"
}

// Plan is the sealed interface over plan descriptors the validator accepts.
// Only SequentialPlan, TimeTriggeredPlan, and PartialOrderPlan implement it;
// explicit STN plans live in the temporal package and are checked for
// consistency only.
type Plan interface {
	plan() // Sealed
}

// SequentialPlan is an untimed, totally-ordered action sequence.
type SequentialPlan struct {
	Steps []*ActionInstance
}

func (*SequentialPlan) plan() {}

// ScheduledActivity places one instance on the timeline. Duration is nil for
// instantaneous actions.
type ScheduledActivity struct {
	Start    *big.Rat
	Instance *ActionInstance
	Duration *big.Rat
}

// End returns the activity's end time (start for instantaneous activities).
func (sa ScheduledActivity) End() *big.Rat {
	end := new(big.Rat).Set(sa.Start)
	if sa.Duration != nil {
		end.Add(end, sa.Duration)
	}
	return end
}

// TimeTriggeredPlan is a set of (start, instance, duration) triples.
type TimeTriggeredPlan struct {
	Activities []ScheduledActivity
}

func (*TimeTriggeredPlan) plan() {}

// Makespan returns the latest end time across all activities, or zero for an
// empty plan.
func (p *TimeTriggeredPlan) Makespan() *big.Rat {
	makespan := new(big.Rat)
	for _, sa := range p.Activities {
		if end := sa.End(); end.Cmp(makespan) > 0 {
			makespan = end
		}
	}
	return makespan
}

// Sorted returns the activities ordered by start time, ties broken by
// instance ID. The receiver is not modified.
func (p *TimeTriggeredPlan) Sorted() []ScheduledActivity {
	out := make([]ScheduledActivity, len(p.Activities))
	copy(out, p.Activities)
	sort.SliceStable(out, func(i, j int) bool {
		if cmp := out[i].Start.Cmp(out[j].Start); cmp != 0 {
			return cmp < 0
		}
		return out[i].Instance.ID < out[j].Instance.ID
	})
	return out
}

// PartialOrderPlan is a DAG of instances: Order maps an instance ID to the
// IDs that must come after it. Instances absent from Order are unconstrained.
type PartialOrderPlan struct {
	Instances []*ActionInstance
	Order     map[string][]string
}

func (*PartialOrderPlan) plan() {}

// Linearizations returns a restartable lazy enumerator over every total
// ordering consistent with the partial order. Each linearization is an
// independently-checkable SequentialPlan.
//
// The enumeration can be exponential in the number of instances; bounding it
// is the caller's responsibility.
func (p *PartialOrderPlan) Linearizations() (*Linearizations, error) {
	byID := make(map[string]int, len(p.Instances))
	nodes := make([]*ActionInstance, len(p.Instances))
	copy(nodes, p.Instances)
	// Sort by ID so candidate order, and therefore enumeration order, is
	// deterministic regardless of input order.
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	for i, inst := range nodes {
		if _, dup := byID[inst.ID]; dup {
			return nil, fmt.Errorf("duplicate instance id %q in partial-order plan", inst.ID)
		}
		byID[inst.ID] = i
	}

	n := len(nodes)
	succ := make([][]int, n)
	indeg := make([]int, n)
	for from, tos := range p.Order {
		fi, ok := byID[from]
		if !ok {
			return nil, fmt.Errorf("ordering references unknown instance %q", from)
		}
		for _, to := range tos {
			ti, ok := byID[to]
			if !ok {
				return nil, fmt.Errorf("ordering references unknown instance %q", to)
			}
			succ[fi] = append(succ[fi], ti)
			indeg[ti]++
		}
	}

	l := &Linearizations{nodes: nodes, succ: succ, baseIndeg: indeg}
	l.Reset()
	return l, nil
}

// Linearizations lazily enumerates the total orders of a partial-order plan
// by deterministic backtracking. Not safe for concurrent use.
type Linearizations struct {
	nodes     []*ActionInstance
	succ      [][]int
	baseIndeg []int

	used    []bool
	indeg   []int
	order   []int
	choice  []int
	emitted bool
	done    bool
}

// Reset restarts the enumeration from the first linearization.
func (l *Linearizations) Reset() {
	n := len(l.nodes)
	l.used = make([]bool, n)
	l.indeg = make([]int, n)
	copy(l.indeg, l.baseIndeg)
	l.order = l.order[:0]
	l.choice = make([]int, n)
	l.emitted = false
	l.done = false
}

// Next returns the next linearization, or (nil, false) once exhausted.
// A plan whose ordering is cyclic yields no linearizations.
func (l *Linearizations) Next() (*SequentialPlan, bool) {
	if l.done {
		return nil, false
	}
	n := len(l.nodes)
	depth := len(l.order)

	if l.emitted {
		// Backtrack past the previously emitted order.
		l.emitted = false
		depth = l.backtrack(depth)
		if depth < 0 {
			l.done = true
			return nil, false
		}
	}

	for {
		if depth == n {
			l.emitted = true
			return l.plan(), true
		}
		cands := l.candidates()
		if l.choice[depth] < len(cands) {
			l.place(cands[l.choice[depth]])
			depth++
			if depth < n {
				l.choice[depth] = 0
			}
			continue
		}
		depth = l.backtrack(depth)
		if depth < 0 {
			l.done = true
			return nil, false
		}
	}
}

// backtrack undoes the placement at depth-1 and advances its choice.
// Returns the new depth, or -1 when the search space is exhausted.
func (l *Linearizations) backtrack(depth int) int {
	for depth > 0 {
		depth--
		l.unplace()
		l.choice[depth]++
		cands := l.candidates()
		if l.choice[depth] < len(cands) {
			return depth
		}
	}
	return -1
}

// candidates returns indices of unused nodes with no unplaced predecessors,
// in ascending (ID-sorted) order.
func (l *Linearizations) candidates() []int {
	var out []int
	for i := range l.nodes {
		if !l.used[i] && l.indeg[i] == 0 {
			out = append(out, i)
		}
	}
	return out
}

func (l *Linearizations) place(i int) {
	l.used[i] = true
	l.order = append(l.order, i)
	for _, s := range l.succ[i] {
		l.indeg[s]--
	}
}

func (l *Linearizations) unplace() {
	i := l.order[len(l.order)-1]
	l.order = l.order[:len(l.order)-1]
	l.used[i] = false
	for _, s := range l.succ[i] {
		l.indeg[s]++
	}
}

func (l *Linearizations) plan() *SequentialPlan {
	steps := make([]*ActionInstance, len(l.order))
	for i, idx := range l.order {
		steps[i] = l.nodes[idx]
	}
	return &SequentialPlan{Steps: steps}
}
