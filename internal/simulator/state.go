package simulator

import (
	"math/big"
	"sort"

	"github.com/parloq/tempora/internal/model"
	"github.com/parloq/tempora/internal/temporal"
)

// flattenDepth bounds the overlay chain length before a lookup-heavy state
// is collapsed into a single map.
const flattenDepth = 64

// openKey identifies one interval condition of one instance.
type openKey struct {
	instance string
	cond     int
}

// openCond is the bookkeeping for a currently-open interval condition: the
// expression that must keep holding until the interval closes.
type openCond struct {
	key     openKey
	expr    model.Expr
	binding model.Binding
	desc    string
	count   int // multiset count; the same interval can be open from overlapping occurrences
}

// State is the combined simulation state: a fluent valuation, a temporal
// network snapshot, and the multiset of currently-open interval conditions.
//
// States are produced functionally. Apply returns a child state sharing
// valuation structure with its parent through a parent link; the returned
// state shares no MUTABLE structure with its source, so branches compose
// without locking. Never mutate a State after handing it out.
type State struct {
	problem *model.Problem

	parent *State
	vals   map[string]model.Value // overlay; nil values never stored
	depth  int

	network *temporal.Network
	open    map[openKey]*openCond
	started map[string]bool
	ended   map[string]bool
	applied map[string]bool
	writers map[string][]string // unconditional-assign fluent -> open instance IDs

	time *big.Rat // time of the last applied event; nil before the first
}

// Lookup implements model.Valuation: overlay chain first, then the problem's
// declared fluent defaults.
func (s *State) Lookup(key string) (model.Value, bool) {
	for st := s; st != nil; st = st.parent {
		if v, ok := st.vals[key]; ok {
			return v, true
		}
	}
	return s.problem.DefaultFor(key)
}

// Network returns an independent copy of the state's temporal network.
// Check memoizes inside a network, so the shared snapshot is never handed
// out; callers may query or extend the copy freely.
func (s *State) Network() *temporal.Network {
	return s.network.Copy()
}

// Time returns the time of the last applied event, or nil before any event.
// The returned value is an independent copy.
func (s *State) Time() *big.Rat {
	if s.time == nil {
		return nil
	}
	return new(big.Rat).Set(s.time)
}

// Started reports whether the instance's start-action event has applied.
func (s *State) Started(instanceID string) bool { return s.started[instanceID] }

// Ended reports whether the instance's end-action event has applied.
func (s *State) Ended(instanceID string) bool { return s.ended[instanceID] }

// OpenConditions renders the currently-open interval conditions, sorted, for
// diagnostics and traces.
func (s *State) OpenConditions() []string {
	out := make([]string, 0, len(s.open))
	for _, oc := range s.open {
		out = append(out, oc.desc)
	}
	sort.Strings(out)
	return out
}

// brokenOpenCondition evaluates every open interval condition and returns
// the description of the first (in deterministic order) that no longer
// holds. The empty string means all hold.
func (s *State) brokenOpenCondition() (string, error) {
	keys := make([]openKey, 0, len(s.open))
	for k := range s.open {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].instance != keys[j].instance {
			return keys[i].instance < keys[j].instance
		}
		return keys[i].cond < keys[j].cond
	})
	for _, k := range keys {
		oc := s.open[k]
		ok, err := model.EvalBool(oc.expr, s, oc.binding)
		if err != nil {
			return "", contractf(ErrCodeEvaluation, k.instance, "", "open condition: %v", err)
		}
		if !ok {
			return oc.desc, nil
		}
	}
	return "", nil
}

// child clones the bookkeeping maps into a fresh state layered over s.
// The valuation overlay starts empty; the network is NOT copied here -
// Apply decides whether the event contributes edges.
func (s *State) child() *State {
	c := &State{
		problem: s.problem,
		parent:  s,
		vals:    make(map[string]model.Value),
		depth:   s.depth + 1,
		network: s.network,
		open:    make(map[openKey]*openCond, len(s.open)),
		started: make(map[string]bool, len(s.started)),
		ended:   make(map[string]bool, len(s.ended)),
		applied: make(map[string]bool, len(s.applied)+1),
		writers: make(map[string][]string, len(s.writers)),
		time:    s.time,
	}
	for k, v := range s.open {
		oc := *v
		c.open[k] = &oc
	}
	for k, v := range s.started {
		c.started[k] = v
	}
	for k, v := range s.ended {
		c.ended[k] = v
	}
	for k, v := range s.applied {
		c.applied[k] = v
	}
	for k, v := range s.writers {
		ids := make([]string, len(v))
		copy(ids, v)
		c.writers[k] = ids
	}
	if c.depth >= flattenDepth {
		c.flatten()
	}
	return c
}

// flatten collapses the overlay chain into a single map, bounding lookup
// cost on long event sequences.
func (s *State) flatten() {
	merged := make(map[string]model.Value)
	var chain []*State
	for st := s; st != nil; st = st.parent {
		chain = append(chain, st)
	}
	// Oldest first so newer overlays win.
	for i := len(chain) - 1; i >= 0; i-- {
		for k, v := range chain[i].vals {
			merged[k] = v
		}
	}
	s.vals = merged
	s.parent = nil
	s.depth = 0
}

// set records a fluent value in this state's overlay. Only Apply calls it,
// before the state is handed out.
func (s *State) set(key string, v model.Value) {
	s.vals[key] = v
}
