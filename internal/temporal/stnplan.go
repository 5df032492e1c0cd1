package temporal

import (
	"sort"
)

// Constraint is one outgoing triple of an STN plan node: the difference
// To - owner lies in [Lower, Upper].
type Constraint struct {
	Bound Bound
	To    Timepoint
}

// STNPlan is a plan view of a temporal network: nodes are timepoints of
// action instances plus the two implicit global nodes, and constraints are
// labeled interval bounds between them.
//
// Constraints are stored internally in a single canonical direction (the
// smaller timepoint first, per Timepoint.Less) with tightest-wins merging,
// which keeps the representation duplicate-free by construction. The
// Constraints accessor emits the symmetric closure.
type STNPlan struct {
	bounds map[pair]Bound
	pairs  []pair // canonical pairs in first-insertion order
	nodes  map[Timepoint]bool
	order  []Timepoint // insertion order of non-global nodes
}

// NewSTNPlan creates an empty plan containing only the global nodes.
func NewSTNPlan() *STNPlan {
	return &STNPlan{
		bounds: make(map[pair]Bound),
		nodes:  make(map[Timepoint]bool),
	}
}

// AddConstraint records to - from ∈ b, normalizing direction and merging
// tightest-wins with any existing bound on the pair. Self-loops other than
// the trivial zero bound make the plan inconsistent and are kept so that
// IsConsistent reports them; trivial self-loops are dropped.
func (p *STNPlan) AddConstraint(from, to Timepoint, b Bound) {
	if from == to {
		// A self bound constrains 0 ∈ [l, u]. Only a violated one carries
		// information; encode it as an empty bound between the node and
		// global-start so consistency checking sees it.
		if (b.Lower != nil && b.Lower.Sign() > 0) || (b.Upper != nil && b.Upper.Sign() < 0) {
			p.addCanonical(GlobalStart(), from, Bound{Lower: b.Lower, Upper: b.Upper}.Intersect(b.Invert()))
		}
		p.touch(from)
		return
	}
	if to.Less(from) {
		from, to = to, from
		b = b.Invert()
	}
	p.addCanonical(from, to, b)
}

func (p *STNPlan) addCanonical(from, to Timepoint, b Bound) {
	p.touch(from)
	p.touch(to)
	key := pair{from: from, to: to}
	if prev, ok := p.bounds[key]; ok {
		b = prev.Intersect(b)
	} else {
		p.pairs = append(p.pairs, key)
	}
	p.bounds[key] = b
}

func (p *STNPlan) touch(tp Timepoint) {
	if tp.IsGlobal() || p.nodes[tp] {
		return
	}
	p.nodes[tp] = true
	p.order = append(p.order, tp)
}

// Nodes returns the plan's non-global timepoints in first-insertion order.
func (p *STNPlan) Nodes() []Timepoint {
	out := make([]Timepoint, len(p.order))
	copy(out, p.order)
	return out
}

// Copy returns an independent deep copy.
func (p *STNPlan) Copy() *STNPlan {
	cp := &STNPlan{
		bounds: make(map[pair]Bound, len(p.bounds)),
		pairs:  make([]pair, len(p.pairs)),
		nodes:  make(map[Timepoint]bool, len(p.nodes)),
		order:  make([]Timepoint, len(p.order)),
	}
	for k, v := range p.bounds {
		cp.bounds[k] = v
	}
	copy(cp.pairs, p.pairs)
	for k, v := range p.nodes {
		cp.nodes[k] = v
	}
	copy(cp.order, p.order)
	return cp
}

// Network materializes the plan into a temporal network, anchoring every
// node to the global start and end with non-negative lower bounds so that
// all nodes lie inside the plan's span.
func (p *STNPlan) Network() *Network {
	n := NewNetwork()
	zero := Bound{Lower: newZero()}
	n.AddBound(GlobalStart(), GlobalEnd(), zero)
	for _, tp := range p.order {
		n.AddBound(GlobalStart(), tp, zero)
		n.AddBound(tp, GlobalEnd(), zero)
	}
	for _, key := range p.pairs {
		n.AddBound(key.from, key.to, p.bounds[key])
	}
	return n
}

// IsConsistent reports whether some assignment of times to nodes satisfies
// every constraint together with the global anchoring. Inconsistency is an
// ordinary result, never a panic.
func (p *STNPlan) IsConsistent() bool {
	return p.Network().Check()
}

// Constraints returns the normalized constraint map: every node maps to its
// outgoing triples, each unordered pair appears exactly once per direction,
// self-loops are dropped, and the map is symmetric-closed (the inverse of
// every bound is present). Two calls on the same plan return equal maps.
func (p *STNPlan) Constraints() map[Timepoint][]Constraint {
	out := make(map[Timepoint][]Constraint)
	for _, key := range p.pairs {
		b := p.bounds[key]
		out[key.from] = append(out[key.from], Constraint{Bound: b, To: key.to})
		out[key.to] = append(out[key.to], Constraint{Bound: b.Invert(), To: key.from})
	}
	for tp := range out {
		cs := out[tp]
		sort.Slice(cs, func(i, j int) bool { return cs[i].To.Less(cs[j].To) })
	}
	return out
}

// ReplaceActionInstances rewrites the plan's containers through f, which maps
// a container ID to its replacement; returning ok == false drops the
// instance. Dropping eliminates both of the instance's timepoints: every
// constraint path A → dropped → B is composed into a direct, tightened
// A → B bound first, so no transitively-implied information is lost.
//
// The receiver is unchanged; the rewritten plan is returned.
func (p *STNPlan) ReplaceActionInstances(f func(container string) (string, bool)) *STNPlan {
	cp := p.Copy()

	var dropped []Timepoint
	rename := make(map[string]string)
	for _, tp := range cp.order {
		replacement, ok := f(tp.Container)
		if !ok {
			dropped = append(dropped, tp)
		} else if replacement != tp.Container {
			rename[tp.Container] = replacement
		}
	}

	for _, tp := range dropped {
		cp.eliminate(tp)
	}
	if len(rename) > 0 {
		cp = cp.renameContainers(rename)
	}
	return cp
}

// eliminate removes one timepoint, composing every pair of constraints
// through it into a tightened direct bound between its neighbors. This is
// single-node elimination in the shortest-path graph, restricted to the
// removed node's neighborhood.
func (p *STNPlan) eliminate(x Timepoint) {
	type arm struct {
		other Timepoint
		out   Bound // bound on other - x
	}
	var arms []arm
	for _, key := range p.pairs {
		b := p.bounds[key]
		switch {
		case key.from == x:
			arms = append(arms, arm{other: key.to, out: b})
		case key.to == x:
			arms = append(arms, arm{other: key.from, out: b.Invert()})
		}
	}
	sort.Slice(arms, func(i, j int) bool { return arms[i].other.Less(arms[j].other) })

	// Compose every A -> x -> B path: (x - A) then (B - x).
	for i, a := range arms {
		for j, b := range arms {
			if i == j || a.other == b.other {
				continue
			}
			composed := a.out.Invert().Compose(b.out)
			if composed.Unbounded() {
				continue
			}
			p.AddConstraint(a.other, b.other, composed)
		}
	}

	// Drop every constraint touching x.
	kept := p.pairs[:0]
	for _, key := range p.pairs {
		if key.from == x || key.to == x {
			delete(p.bounds, key)
			continue
		}
		kept = append(kept, key)
	}
	p.pairs = kept
	delete(p.nodes, x)
	keptOrder := p.order[:0]
	for _, tp := range p.order {
		if tp != x {
			keptOrder = append(keptOrder, tp)
		}
	}
	p.order = keptOrder
}

// renameContainers rebuilds the plan with container IDs substituted. Bounds
// landing on the same canonical pair merge tightest-wins.
func (p *STNPlan) renameContainers(rename map[string]string) *STNPlan {
	mapTP := func(tp Timepoint) Timepoint {
		if tp.IsGlobal() {
			return tp
		}
		if to, ok := rename[tp.Container]; ok {
			return Timepoint{Kind: tp.Kind, Container: to}
		}
		return tp
	}
	out := NewSTNPlan()
	for _, tp := range p.order {
		out.touch(mapTP(tp))
	}
	for _, key := range p.pairs {
		out.AddConstraint(mapTP(key.from), mapTP(key.to), p.bounds[key])
	}
	return out
}
