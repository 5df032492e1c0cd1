package validator

import (
	"fmt"
	"math/big"

	"github.com/parloq/tempora/internal/model"
	"github.com/parloq/tempora/internal/temporal"
)

// STNFromTimeTriggered converts a time-triggered plan to an explicit STN
// plan: each activity becomes a container whose start is pinned to its
// scheduled time and whose start-end distance is pinned to its duration.
// Repeated occurrences of one instance get distinct containers.
//
// The schedule satisfies its own constraints by construction, so the
// resulting plan is always consistent.
func STNFromTimeTriggered(plan *model.TimeTriggeredPlan) *temporal.STNPlan {
	out := temporal.NewSTNPlan()
	seen := make(map[string]int)
	for _, sa := range plan.Sorted() {
		container := sa.Instance.ID
		if n := seen[container]; n > 0 {
			container = fmt.Sprintf("%s#%d", container, n)
		}
		seen[sa.Instance.ID]++

		start := temporal.StartOf(container)
		end := temporal.EndOf(container)
		out.AddConstraint(temporal.GlobalStart(), start, temporal.Exactly(sa.Start))

		d := sa.Duration
		if d == nil {
			d = new(big.Rat)
		}
		out.AddConstraint(start, end, temporal.Exactly(d))
	}
	return out
}
