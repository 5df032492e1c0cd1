package harness

import "github.com/parloq/tempora/internal/validator"

func checkAssertion(r *Result, a *Assertion) {
	switch a.Type {
	case AssertTraceContains:
		if countMatches(r.Report.Trace, a.Instance, a.Kind) == 0 {
			r.failf("trace_contains: no trace event for instance %q kind %q", a.Instance, a.Kind)
		}
	case AssertTraceCount:
		if got := countMatches(r.Report.Trace, a.Instance, a.Kind); got != a.Count {
			r.failf("trace_count: instance %q kind %q appears %d times, want %d", a.Instance, a.Kind, got, a.Count)
		}
	case AssertTraceOrder:
		checkOrder(r, a.Instances)
	default:
		r.failf("unknown assertion type %q", a.Type)
	}
}

func countMatches(trace []validator.TraceEvent, instance, kind string) int {
	n := 0
	for _, te := range trace {
		if te.Instance != instance {
			continue
		}
		if kind != "" && te.Kind != kind {
			continue
		}
		n++
	}
	return n
}

// checkOrder verifies the first appearances of the named instances occur in
// the given order.
func checkOrder(r *Result, instances []string) {
	next := 0
	for _, te := range r.Report.Trace {
		if next < len(instances) && te.Instance == instances[next] {
			next++
		}
	}
	if next != len(instances) {
		r.failf("trace_order: instance %q missing or out of order", instances[next])
	}
}
