package simulator

import (
	"errors"
	"fmt"
)

// ContractError reports misuse of the engine: a plan referencing an action
// absent from the problem, an event applied to a state that never started
// its activity, malformed arguments. Contract errors fail loudly with a
// distinct code per violated precondition; there is no best-effort recovery.
//
// Domain-level infeasibility is NEVER a ContractError - see Inapplicable.
type ContractError struct {
	// Code identifies the violated precondition.
	Code ContractErrorCode

	// Message is a human-readable description.
	Message string

	// Instance identifies the affected action instance, when known.
	Instance string

	// Event describes the offending event, when known.
	Event string
}

// ContractErrorCode categorizes contract errors.
type ContractErrorCode string

const (
	// ErrCodeMissingAction indicates the plan references an action the
	// problem does not declare.
	ErrCodeMissingAction ContractErrorCode = "MISSING_ACTION"

	// ErrCodeArityMismatch indicates an instance's argument count does not
	// match its action's parameters.
	ErrCodeArityMismatch ContractErrorCode = "ARITY_MISMATCH"

	// ErrCodeNotStarted indicates an event was applied to a state whose
	// activity never started.
	ErrCodeNotStarted ContractErrorCode = "NOT_STARTED"

	// ErrCodeAlreadyStarted indicates a start event for an instance that
	// already started.
	ErrCodeAlreadyStarted ContractErrorCode = "ALREADY_STARTED"

	// ErrCodeAlreadyEnded indicates an event for an instance that already
	// ended.
	ErrCodeAlreadyEnded ContractErrorCode = "ALREADY_ENDED"

	// ErrCodeDuplicateEvent indicates the same event was applied twice.
	ErrCodeDuplicateEvent ContractErrorCode = "DUPLICATE_EVENT"

	// ErrCodeMissingDuration indicates a durative activity was scheduled
	// without a duration it needs (e.g. it carries continuous effects).
	ErrCodeMissingDuration ContractErrorCode = "MISSING_DURATION"

	// ErrCodeMissingCapability indicates the action declares externally
	// simulated effects but no SimulatedEffects capability was injected.
	ErrCodeMissingCapability ContractErrorCode = "MISSING_CAPABILITY"

	// ErrCodeEvaluation indicates an expression could not be evaluated
	// (unknown fluent, type mismatch) - the input was not type-checked.
	ErrCodeEvaluation ContractErrorCode = "EVALUATION"
)

// Error implements the error interface.
func (e *ContractError) Error() string {
	switch {
	case e.Instance != "" && e.Event != "":
		return fmt.Sprintf("%s: %s (instance=%s, event=%s)", e.Code, e.Message, e.Instance, e.Event)
	case e.Instance != "":
		return fmt.Sprintf("%s: %s (instance=%s)", e.Code, e.Message, e.Instance)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// IsContractError reports whether err is a ContractError with the given
// code. Uses errors.As to handle wrapped errors.
func IsContractError(err error, code ContractErrorCode) bool {
	var ce *ContractError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

func contractf(code ContractErrorCode, instance, event, format string, args ...any) *ContractError {
	return &ContractError{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Instance: instance,
		Event:    event,
	}
}

// ReasonCode categorizes domain-level inapplicability. These are ordinary
// results: probing infeasible plans is routine.
type ReasonCode string

const (
	// ReasonConditionFalse: a point or interval condition evaluated false.
	ReasonConditionFalse ReasonCode = "CONDITION_FALSE"

	// ReasonTemporal: inserting the event's timing edges made the network
	// inconsistent.
	ReasonTemporal ReasonCode = "TEMPORAL_INCONSISTENT"

	// ReasonConflictingEffect: two overlapping activity spans
	// unconditionally assign the same fluent.
	ReasonConflictingEffect ReasonCode = "CONFLICTING_EFFECT"

	// ReasonNotStarted: a condition event arrived before its activity
	// started.
	ReasonNotStarted ReasonCode = "NOT_STARTED"

	// ReasonAlreadyEnded: a condition event arrived after its activity
	// ended.
	ReasonAlreadyEnded ReasonCode = "ALREADY_ENDED"

	// ReasonOpenInterval: an end-action event arrived while the instance
	// still has open interval conditions, or an end-condition event has no
	// matching open interval.
	ReasonOpenInterval ReasonCode = "OPEN_INTERVAL"

	// ReasonOpenConditionBroken: applying the event's effects would falsify
	// a currently-open interval condition.
	ReasonOpenConditionBroken ReasonCode = "OPEN_CONDITION_BROKEN"
)

// Inapplicable explains why an event cannot apply in a state. It is data,
// not an error: the validator embeds it in an INVALID report.
type Inapplicable struct {
	Event     *Event     `json:"event"`
	Reason    ReasonCode `json:"reason"`
	Condition string     `json:"condition,omitempty"` // rendered violated condition or fluent

	// WitnessFrom/WitnessTo name a constraint pair on a negative cycle when
	// Reason is ReasonTemporal.
	WitnessFrom string `json:"witness_from,omitempty"`
	WitnessTo   string `json:"witness_to,omitempty"`
}

// String implements fmt.Stringer.
func (ia *Inapplicable) String() string {
	s := fmt.Sprintf("%s: event %s", ia.Reason, ia.Event)
	if ia.Condition != "" {
		s += fmt.Sprintf(" (condition: %s)", ia.Condition)
	}
	if ia.WitnessFrom != "" {
		s += fmt.Sprintf(" (witness: %s vs %s)", ia.WitnessFrom, ia.WitnessTo)
	}
	return s
}
