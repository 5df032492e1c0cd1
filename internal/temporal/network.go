package temporal

import (
	"fmt"
	"math/big"
)

// pair is an ordered timepoint pair, the key a bound is stored under.
type pair struct {
	from Timepoint
	to   Timepoint
}

// Network is an incrementally-built simple temporal network.
//
// Add records constraints, Check decides joint satisfiability, and Copy
// produces an independent network for speculative branching. The zero value
// is not usable; call NewNetwork.
//
// Not safe for concurrent mutation. Branching callers must Copy first; a
// copied network shares no mutable state with its source.
type Network struct {
	bounds map[pair]Bound
	pairs  []pair // first-insertion order, for deterministic edge iteration

	nodes    map[Timepoint]int // timepoint -> index into nodeList
	nodeList []Timepoint

	dirty   bool
	lastOK  bool
	witness *pair
}

// NewNetwork creates an empty, consistent network.
func NewNetwork() *Network {
	return &Network{
		bounds: make(map[pair]Bound),
		nodes:  make(map[Timepoint]int),
		lastOK: true,
	}
}

// Add records to - from ∈ [lower, upper]. Either bound side may be nil
// (unbounded). A prior bound on the same ordered pair is intersected, so the
// tightest bound always wins; Add never loosens the network.
func (n *Network) Add(from, to Timepoint, lower, upper *big.Rat) {
	n.touch(from)
	n.touch(to)

	p := pair{from: from, to: to}
	nb := NewBound(lower, upper)
	if prev, ok := n.bounds[p]; ok {
		nb = prev.Intersect(nb)
	} else {
		n.pairs = append(n.pairs, p)
	}
	n.bounds[p] = nb
	n.dirty = true
}

// AddBound is Add with a Bound value.
func (n *Network) AddBound(from, to Timepoint, b Bound) {
	n.Add(from, to, b.Lower, b.Upper)
}

func (n *Network) touch(tp Timepoint) {
	if _, ok := n.nodes[tp]; !ok {
		n.nodes[tp] = len(n.nodeList)
		n.nodeList = append(n.nodeList, tp)
	}
}

// BoundOn returns the tightest recorded bound for the ordered pair, deriving
// the inverse of a bound stored in the opposite direction when necessary.
func (n *Network) BoundOn(from, to Timepoint) (Bound, bool) {
	direct, dOK := n.bounds[pair{from: from, to: to}]
	inverse, iOK := n.bounds[pair{from: to, to: from}]
	switch {
	case dOK && iOK:
		return direct.Intersect(inverse.Invert()), true
	case dOK:
		return direct, true
	case iOK:
		return inverse.Invert(), true
	default:
		return Bound{}, false
	}
}

// Timepoints returns the network's nodes in first-insertion order.
func (n *Network) Timepoints() []Timepoint {
	out := make([]Timepoint, len(n.nodeList))
	copy(out, n.nodeList)
	return out
}

// Copy returns an independent deep copy. Bounds share their (immutable)
// rationals but no map or slice structure, so mutations to either network
// never affect the other.
func (n *Network) Copy() *Network {
	cp := &Network{
		bounds:   make(map[pair]Bound, len(n.bounds)),
		pairs:    make([]pair, len(n.pairs)),
		nodes:    make(map[Timepoint]int, len(n.nodes)),
		nodeList: make([]Timepoint, len(n.nodeList)),
		dirty:    n.dirty,
		lastOK:   n.lastOK,
	}
	for k, v := range n.bounds {
		cp.bounds[k] = v
	}
	copy(cp.pairs, n.pairs)
	for k, v := range n.nodes {
		cp.nodes[k] = v
	}
	copy(cp.nodeList, n.nodeList)
	if n.witness != nil {
		w := *n.witness
		cp.witness = &w
	}
	return cp
}

// edge is one weighted half of a bound.
type edge struct {
	from, to int
	weight   *big.Rat
	origin   pair
}

// Check reports whether every recorded constraint is jointly satisfiable.
// False is an ordinary domain result, not an error, and never panics.
//
// The decision is Bellman-Ford negative-cycle detection over the split
// weighted edges. Results are cached until the next Add.
func (n *Network) Check() bool {
	if !n.dirty {
		return n.lastOK
	}
	n.dirty = false
	n.witness = nil
	n.lastOK = n.runBellmanFord()
	return n.lastOK
}

// Witness returns a constraint pair on a negative cycle found by the most
// recent failing Check. For small networks with a single negative cycle,
// relaxing this pair to unbounded restores consistency.
func (n *Network) Witness() (from, to Timepoint, ok bool) {
	if n.witness == nil {
		return Timepoint{}, Timepoint{}, false
	}
	return n.witness.from, n.witness.to, true
}

func (n *Network) runBellmanFord() bool {
	nv := len(n.nodeList)
	if nv == 0 {
		return true
	}

	edges := make([]edge, 0, 2*len(n.pairs))
	for _, p := range n.pairs {
		b := n.bounds[p]
		fi, ti := n.nodes[p.from], n.nodes[p.to]
		if b.Upper != nil {
			edges = append(edges, edge{from: fi, to: ti, weight: b.Upper, origin: p})
		}
		if b.Lower != nil {
			edges = append(edges, edge{from: ti, to: fi, weight: new(big.Rat).Neg(b.Lower), origin: p})
		}
	}

	// Virtual source: every node starts at distance 0, equivalent to a
	// zero-weight edge from a fresh source to every node.
	dist := make([]*big.Rat, nv)
	for i := range dist {
		dist[i] = new(big.Rat)
	}
	pred := make([]int, nv) // index into edges, -1 when unset
	for i := range pred {
		pred[i] = -1
	}

	relaxed := true
	for i := 0; i < nv && relaxed; i++ {
		relaxed = false
		for ei, e := range edges {
			cand := new(big.Rat).Add(dist[e.from], e.weight)
			if cand.Cmp(dist[e.to]) < 0 {
				dist[e.to] = cand
				pred[e.to] = ei
				relaxed = true
			}
		}
	}
	if !relaxed {
		return true
	}

	// A relaxation on the nv-th pass means a negative cycle. Find a node on
	// the cycle by walking predecessors nv times, then pick a deterministic
	// witness edge from the cycle itself.
	for _, e := range edges {
		cand := new(big.Rat).Add(dist[e.from], e.weight)
		if cand.Cmp(dist[e.to]) < 0 {
			n.witness = n.cycleWitness(edges, pred, e.to)
			return false
		}
	}
	return true
}

// cycleWitness walks predecessor edges from a node known to be reachable
// from a negative cycle, isolates the cycle, and returns the origin pair of
// its smallest edge (by timepoint order) for a deterministic report.
func (n *Network) cycleWitness(edges []edge, pred []int, start int) *pair {
	node := start
	for i := 0; i < len(n.nodeList); i++ {
		ei := pred[node]
		if ei < 0 {
			break
		}
		node = edges[ei].from
	}

	var best *pair
	cur := node
	for {
		ei := pred[cur]
		if ei < 0 {
			break
		}
		origin := edges[ei].origin
		if best == nil || lessPair(origin, *best) {
			o := origin
			best = &o
		}
		cur = edges[ei].from
		if cur == node {
			break
		}
	}
	if best == nil {
		// Self-loop or degenerate bound: fall back to any edge into start.
		if ei := pred[start]; ei >= 0 {
			o := edges[ei].origin
			best = &o
		}
	}
	return best
}

func lessPair(a, b pair) bool {
	if a.from != b.from {
		return a.from.Less(b.from)
	}
	return a.to.Less(b.to)
}

// String renders the network's constraints in insertion order, for logs and
// test diagnostics.
func (n *Network) String() string {
	s := fmt.Sprintf("Network(%d nodes, %d constraints)", len(n.nodeList), len(n.pairs))
	for _, p := range n.pairs {
		s += fmt.Sprintf("\n  %s - %s ∈ %s", p.to, p.from, n.bounds[p])
	}
	return s
}
