package temporal

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func r(n int64) *big.Rat { return big.NewRat(n, 1) }

func rat(num, den int64) *big.Rat { return big.NewRat(num, den) }

// TestBound_IntersectTightestWins keeps the tightest side from each operand.
func TestBound_IntersectTightestWins(t *testing.T) {
	a := NewBound(r(0), r(10))
	b := NewBound(r(5), r(7))

	got := a.Intersect(b)
	assert.True(t, got.Equal(NewBound(r(5), r(7))))

	// The order of operands does not matter.
	assert.True(t, b.Intersect(a).Equal(got))

	// Nil sides are absorbed by the present side.
	open := NewBound(nil, r(3))
	assert.True(t, a.Intersect(open).Equal(NewBound(r(0), r(3))))
}

// TestBound_Invert flips the bound onto the reversed pair.
func TestBound_Invert(t *testing.T) {
	b := NewBound(r(2), r(5))
	inv := b.Invert()
	assert.True(t, inv.Equal(NewBound(r(-5), r(-2))))

	// Half-open bounds invert onto the opposite side.
	lo := NewBound(r(3), nil)
	assert.True(t, lo.Invert().Equal(NewBound(nil, r(-3))))
}

// TestBound_Compose chains bounds through a shared midpoint.
func TestBound_Compose(t *testing.T) {
	ax := NewBound(r(1), r(2))
	xb := NewBound(r(3), r(4))
	assert.True(t, ax.Compose(xb).Equal(NewBound(r(4), r(6))))

	// A nil side absorbs: no information, no bound.
	open := NewBound(nil, r(4))
	got := ax.Compose(open)
	assert.Nil(t, got.Lower)
	assert.True(t, got.Upper.Cmp(r(6)) == 0)
}

// TestBound_Empty detects lower > upper.
func TestBound_Empty(t *testing.T) {
	assert.True(t, NewBound(r(2), r(1)).Empty())
	assert.False(t, NewBound(r(1), r(1)).Empty())
	assert.False(t, NewBound(nil, r(1)).Empty())
}

// TestBound_ExactRationals exercises non-integer rationals end to end.
func TestBound_ExactRationals(t *testing.T) {
	third := rat(1, 3)
	sixth := rat(1, 6)
	sum := NewBound(third, third).Compose(NewBound(sixth, sixth))
	assert.True(t, sum.Equal(NewBound(rat(1, 2), rat(1, 2))))
}

// TestNetwork_ConsistentChain accepts a satisfiable chain of constraints.
func TestNetwork_ConsistentChain(t *testing.T) {
	n := NewNetwork()
	n.Add(GlobalStart(), StartOf("a"), r(0), r(5))
	n.Add(StartOf("a"), EndOf("a"), r(2), r(2))
	n.Add(EndOf("a"), StartOf("b"), r(0), nil)

	assert.True(t, n.Check())
	_, _, ok := n.Witness()
	assert.False(t, ok)
}

// TestNetwork_EmptyBoundIsInconsistent: a single lower > upper constraint
// makes the network unsatisfiable, and Check reports it without panicking.
func TestNetwork_EmptyBoundIsInconsistent(t *testing.T) {
	n := NewNetwork()
	n.Add(GlobalStart(), StartOf("a"), r(2), r(1))

	assert.False(t, n.Check())
	from, to, ok := n.Witness()
	require.True(t, ok)
	assert.Equal(t, GlobalStart(), from)
	assert.Equal(t, StartOf("a"), to)
}

// TestNetwork_TightestWinsAcrossAdds: repeated bounds on one ordered pair
// intersect; Add never loosens the network.
func TestNetwork_TightestWinsAcrossAdds(t *testing.T) {
	n := NewNetwork()
	n.Add(GlobalStart(), StartOf("a"), r(0), r(10))
	n.Add(GlobalStart(), StartOf("a"), r(5), r(7))

	b, ok := n.BoundOn(GlobalStart(), StartOf("a"))
	require.True(t, ok)
	assert.True(t, b.Equal(NewBound(r(5), r(7))))
	assert.True(t, n.Check())

	// Tightening past the upper side empties the bound.
	n.Add(GlobalStart(), StartOf("a"), r(8), nil)
	assert.False(t, n.Check())
}

// TestNetwork_BoundOnDerivesInverse reads a bound stored in the opposite
// direction.
func TestNetwork_BoundOnDerivesInverse(t *testing.T) {
	n := NewNetwork()
	n.Add(StartOf("a"), EndOf("a"), r(2), r(3))

	b, ok := n.BoundOn(EndOf("a"), StartOf("a"))
	require.True(t, ok)
	assert.True(t, b.Equal(NewBound(r(-3), r(-2))))

	_, ok = n.BoundOn(StartOf("a"), StartOf("b"))
	assert.False(t, ok)
}

// TestNetwork_NegativeCycle detects an inconsistency spread over several
// individually-satisfiable constraints.
func TestNetwork_NegativeCycle(t *testing.T) {
	n := NewNetwork()
	n.Add(GlobalStart(), StartOf("a"), r(5), r(5))
	n.Add(GlobalStart(), StartOf("b"), r(1), r(1))
	n.Add(StartOf("a"), StartOf("b"), r(0), nil) // b >= a, but b=1 < a=5

	assert.False(t, n.Check())
	_, _, ok := n.Witness()
	assert.True(t, ok)
}

// TestNetwork_WitnessRestoresConsistency: for a single negative cycle,
// rebuilding the network without the witness pair is consistent again.
func TestNetwork_WitnessRestoresConsistency(t *testing.T) {
	type c struct {
		from, to Timepoint
		b        Bound
	}
	cs := []c{
		{GlobalStart(), StartOf("a"), NewBound(r(5), r(5))},
		{GlobalStart(), StartOf("b"), NewBound(r(1), r(1))},
		{StartOf("a"), StartOf("b"), NewBound(r(0), nil)},
	}

	n := NewNetwork()
	for _, x := range cs {
		n.AddBound(x.from, x.to, x.b)
	}
	require.False(t, n.Check())
	wf, wt, ok := n.Witness()
	require.True(t, ok)

	relaxed := NewNetwork()
	for _, x := range cs {
		if x.from == wf && x.to == wt {
			continue
		}
		relaxed.AddBound(x.from, x.to, x.b)
	}
	assert.True(t, relaxed.Check())
}

// TestNetwork_CopyIsIndependent: mutating a copy never affects the source.
func TestNetwork_CopyIsIndependent(t *testing.T) {
	n := NewNetwork()
	n.Add(GlobalStart(), StartOf("a"), r(0), r(5))
	require.True(t, n.Check())

	cp := n.Copy()
	cp.Add(GlobalStart(), StartOf("a"), r(7), nil)
	assert.False(t, cp.Check())
	assert.True(t, n.Check())

	b, ok := n.BoundOn(GlobalStart(), StartOf("a"))
	require.True(t, ok)
	assert.True(t, b.Equal(NewBound(r(0), r(5))))
}

// TestNetwork_CheckCachesUntilAdd: repeated Checks are stable, and the next
// Add invalidates the cache.
func TestNetwork_CheckCachesUntilAdd(t *testing.T) {
	n := NewNetwork()
	n.Add(GlobalStart(), StartOf("a"), r(0), r(5))
	assert.True(t, n.Check())
	assert.True(t, n.Check())

	n.Add(GlobalStart(), StartOf("a"), r(6), nil)
	assert.False(t, n.Check())
}

// TestSTNPlan_ConsistencyMatchesNetwork: IsConsistent agrees with a direct
// network check in both directions.
func TestSTNPlan_ConsistencyMatchesNetwork(t *testing.T) {
	ok := NewSTNPlan()
	ok.AddConstraint(GlobalStart(), StartOf("a"), NewBound(r(0), r(5)))
	ok.AddConstraint(StartOf("a"), EndOf("a"), Exactly(r(2)))
	assert.True(t, ok.IsConsistent())
	assert.True(t, ok.Network().Check())

	bad := NewSTNPlan()
	bad.AddConstraint(GlobalStart(), StartOf("a"), NewBound(r(2), r(1)))
	assert.False(t, bad.IsConsistent())
	assert.False(t, bad.Network().Check())
}

// TestSTNPlan_ConstraintsNormalized: each unordered pair appears once per
// direction, the map is symmetric-closed, and repeated calls return equal
// maps.
func TestSTNPlan_ConstraintsNormalized(t *testing.T) {
	p := NewSTNPlan()
	p.AddConstraint(StartOf("a"), EndOf("a"), NewBound(r(2), r(3)))
	// Same pair from the other direction merges instead of duplicating.
	p.AddConstraint(EndOf("a"), StartOf("a"), NewBound(r(-3), r(-2)))

	first := p.Constraints()
	second := p.Constraints()
	assert.Equal(t, first, second)

	out := first[StartOf("a")]
	require.Len(t, out, 1)
	assert.Equal(t, EndOf("a"), out[0].To)
	assert.True(t, out[0].Bound.Equal(NewBound(r(2), r(3))))

	back := first[EndOf("a")]
	require.Len(t, back, 1)
	assert.Equal(t, StartOf("a"), back[0].To)
	assert.True(t, back[0].Bound.Equal(NewBound(r(-3), r(-2))))
}

// TestSTNPlan_TrivialSelfLoopDropped: a satisfiable self bound adds the node
// but no constraint.
func TestSTNPlan_TrivialSelfLoopDropped(t *testing.T) {
	p := NewSTNPlan()
	p.AddConstraint(StartOf("a"), StartOf("a"), Exactly(r(0)))

	assert.Equal(t, []Timepoint{StartOf("a")}, p.Nodes())
	assert.Empty(t, p.Constraints())
	assert.True(t, p.IsConsistent())
}

// TestSTNPlan_ViolatedSelfLoop: a self bound excluding zero makes the plan
// inconsistent.
func TestSTNPlan_ViolatedSelfLoop(t *testing.T) {
	p := NewSTNPlan()
	p.AddConstraint(StartOf("a"), StartOf("a"), NewBound(r(1), r(2)))
	assert.False(t, p.IsConsistent())
}

// TestSTNPlan_EliminationPreservesImpliedBounds: dropping an instance
// composes every path through it into a direct bound, so the surviving nodes
// keep exactly the implied constraint.
func TestSTNPlan_EliminationPreservesImpliedBounds(t *testing.T) {
	p := NewSTNPlan()
	p.AddConstraint(StartOf("a"), StartOf("x"), NewBound(r(1), r(2)))
	p.AddConstraint(StartOf("x"), StartOf("b"), NewBound(r(3), r(4)))

	out := p.ReplaceActionInstances(func(container string) (string, bool) {
		if container == "x" {
			return "", false
		}
		return container, true
	})

	assert.Equal(t, []Timepoint{StartOf("a"), StartOf("b")}, out.Nodes())
	cs := out.Constraints()[StartOf("a")]
	require.Len(t, cs, 1)
	assert.Equal(t, StartOf("b"), cs[0].To)
	assert.True(t, cs[0].Bound.Equal(NewBound(r(4), r(6))))

	// The source plan is untouched.
	assert.Len(t, p.Nodes(), 3)
	assert.True(t, p.IsConsistent())
	assert.True(t, out.IsConsistent())
}

// TestSTNPlan_ReplaceRenamesContainers rewrites constraints onto the new
// container IDs, merging tightest-wins on collision.
func TestSTNPlan_ReplaceRenamesContainers(t *testing.T) {
	p := NewSTNPlan()
	p.AddConstraint(GlobalStart(), StartOf("a"), NewBound(r(0), r(5)))
	p.AddConstraint(StartOf("a"), EndOf("a"), Exactly(r(2)))

	out := p.ReplaceActionInstances(func(container string) (string, bool) {
		return "z", true
	})

	assert.Equal(t, []Timepoint{StartOf("z"), EndOf("z")}, out.Nodes())
	cs := out.Constraints()[StartOf("z")]
	require.Len(t, cs, 2)
	assert.True(t, out.IsConsistent())
}

// TestSTNPlan_CopyIsIndependent: mutating a copy never affects the source.
func TestSTNPlan_CopyIsIndependent(t *testing.T) {
	p := NewSTNPlan()
	p.AddConstraint(GlobalStart(), StartOf("a"), NewBound(r(0), r(5)))

	cp := p.Copy()
	cp.AddConstraint(GlobalStart(), StartOf("a"), NewBound(r(7), nil))
	assert.False(t, cp.IsConsistent())
	assert.True(t, p.IsConsistent())
}

// TestTimepoint_Order: global start sorts first, global end last, containers
// by (container, kind) between them.
func TestTimepoint_Order(t *testing.T) {
	assert.True(t, GlobalStart().Less(StartOf("a")))
	assert.True(t, StartOf("a").Less(EndOf("a")))
	assert.True(t, EndOf("a").Less(StartOf("b")))
	assert.True(t, StartOf("b").Less(GlobalEnd()))
	assert.False(t, StartOf("a").Less(StartOf("a")))
}

// TestTimepoint_String renders stable diagnostics.
func TestTimepoint_String(t *testing.T) {
	assert.Equal(t, "global-start", GlobalStart().String())
	assert.Equal(t, "start(a)", StartOf("a").String())
	assert.Equal(t, "end(a)", EndOf("a").String())
	assert.Equal(t, "[2, 3]", NewBound(r(2), r(3)).String())
	assert.Equal(t, "[-inf, 3]", NewBound(nil, r(3)).String())
}
