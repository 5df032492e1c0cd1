package validator

import (
	"github.com/parloq/tempora/internal/model"
	"github.com/parloq/tempora/internal/simulator"
)

// Status is the overall outcome of a validation run.
type Status string

const (
	// StatusValid: every event applied, every goal and invariant holds.
	StatusValid Status = "VALID"
	// StatusInvalid: an event was inapplicable, a condition was violated,
	// or a goal is unsatisfied. An ordinary result, not an error.
	StatusInvalid Status = "INVALID"
)

// TraceEvent is one applied event in the run's trace. All fields are
// canonical strings so traces marshal deterministically.
type TraceEvent struct {
	Seq      int64  `json:"seq"`
	Time     string `json:"time,omitempty"` // exact rational, e.g. "7/2"
	Kind     string `json:"kind"`
	Instance string `json:"instance"`
	Detail   string `json:"detail,omitempty"`
}

// Report is the outcome of validating one plan against one problem.
type Report struct {
	Status Status `json:"status"`

	// Inapplicable is the FIRST event that could not apply, with its
	// reason. Later events are not examined.
	Inapplicable *simulator.Inapplicable `json:"inapplicable_event,omitempty"`

	// ViolatedCondition names the first violated invariant or timed goal.
	ViolatedCondition string `json:"violated_condition,omitempty"`

	// UnsatisfiedGoals collects ALL final-state goals that do not hold.
	UnsatisfiedGoals []string `json:"unsatisfied_goals,omitempty"`

	// WitnessFrom/WitnessTo name a constraint pair on a negative cycle when
	// the violation is temporal.
	WitnessFrom string `json:"witness_from,omitempty"`
	WitnessTo   string `json:"witness_to,omitempty"`

	// MetricValues holds declared metric results as canonical rationals,
	// keyed by metric name.
	MetricValues map[string]string `json:"metric_values,omitempty"`

	// Trace lists every applied event in order.
	Trace []TraceEvent `json:"trace"`

	// Linearizations is the number of total orders examined, for
	// partial-order plans.
	Linearizations int `json:"linearizations,omitempty"`
}

// Valid reports whether the run succeeded.
func (r *Report) Valid() bool { return r.Status == StatusValid }

// CanonicalMap converts the report to a map for canonical JSON marshaling
// (golden files, content-addressed storage).
func (r *Report) CanonicalMap() map[string]any {
	out := map[string]any{"status": string(r.Status)}
	if r.Inapplicable != nil {
		ia := map[string]any{
			"event":  r.Inapplicable.Event.String(),
			"reason": string(r.Inapplicable.Reason),
		}
		if r.Inapplicable.Condition != "" {
			ia["condition"] = r.Inapplicable.Condition
		}
		if r.Inapplicable.WitnessFrom != "" {
			ia["witness_from"] = r.Inapplicable.WitnessFrom
			ia["witness_to"] = r.Inapplicable.WitnessTo
		}
		out["inapplicable_event"] = ia
	}
	if r.ViolatedCondition != "" {
		out["violated_condition"] = r.ViolatedCondition
	}
	if len(r.UnsatisfiedGoals) > 0 {
		goals := make([]any, len(r.UnsatisfiedGoals))
		for i, g := range r.UnsatisfiedGoals {
			goals[i] = g
		}
		out["unsatisfied_goals"] = goals
	}
	if r.WitnessFrom != "" {
		out["witness_from"] = r.WitnessFrom
		out["witness_to"] = r.WitnessTo
	}
	if len(r.MetricValues) > 0 {
		metrics := make(map[string]any, len(r.MetricValues))
		for k, v := range r.MetricValues {
			metrics[k] = v
		}
		out["metric_values"] = metrics
	}
	trace := make([]any, len(r.Trace))
	for i, te := range r.Trace {
		row := map[string]any{
			"seq":      te.Seq,
			"kind":     te.Kind,
			"instance": te.Instance,
		}
		if te.Time != "" {
			row["time"] = te.Time
		}
		if te.Detail != "" {
			row["detail"] = te.Detail
		}
		trace[i] = row
	}
	out["trace"] = trace
	if r.Linearizations > 0 {
		out["linearizations"] = r.Linearizations
	}
	return out
}

// Fingerprint computes the report's content-addressed identity from its
// canonical JSON.
func (r *Report) Fingerprint() (string, error) {
	data, err := model.MarshalCanonical(r.CanonicalMap())
	if err != nil {
		return "", err
	}
	return model.HashWithDomain(model.DomainReport, data), nil
}
