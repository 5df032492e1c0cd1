package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity. The version suffix enables
// future algorithm migration without ambiguity.
const (
	DomainInstance = "tempora/instance/v1"
	DomainProblem  = "tempora/problem/v1"
	DomainPlan     = "tempora/plan/v1"
	DomainReport   = "tempora/report/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null separator prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// HashWithDomain exposes domain-separated hashing for collaborating packages
// (the trace store hashes reports, the harness hashes scenarios).
func HashWithDomain(domain string, data []byte) string {
	return hashWithDomain(domain, data)
}

// InstanceID computes the content-addressed ID of an action instance.
// Occurrence disambiguates repeated (action, args) pairs within one plan.
func InstanceID(action string, args []Value, occurrence int) string {
	argList := make([]any, len(args))
	for i, a := range args {
		argList[i] = a.String()
	}
	obj := map[string]any{
		"action":     action,
		"args":       argList,
		"occurrence": occurrence,
	}
	data, err := MarshalCanonical(obj)
	if err != nil {
		// Value.String() output is always canonical-JSON-safe; a failure
		// here is a programming error, not an input error.
		panic(fmt.Sprintf("canonical marshal of instance: %v", err))
	}
	return hashWithDomain(DomainInstance, data)
}

// Fingerprint computes a problem's content-addressed identity from its
// structural skeleton. Used for trace provenance, not for model equality.
func (p *Problem) Fingerprint() (string, error) {
	fluents := make([]any, len(p.Fluents))
	for i, f := range p.Fluents {
		fluents[i] = f.Name
	}
	actions := make([]any, len(p.Actions))
	for i, a := range p.Actions {
		actions[i] = a.Name
	}
	init := make(map[string]any, len(p.Init))
	for k, v := range p.Init {
		init[k] = v.String()
	}
	data, err := MarshalCanonical(map[string]any{
		"name":    p.Name,
		"fluents": fluents,
		"actions": actions,
		"init":    init,
	})
	if err != nil {
		return "", err
	}
	return hashWithDomain(DomainProblem, data), nil
}

// Fingerprint computes a time-triggered plan's content-addressed identity.
func (p *TimeTriggeredPlan) Fingerprint() (string, error) {
	acts := make([]any, 0, len(p.Activities))
	for _, sa := range p.Sorted() {
		entry := map[string]any{
			"start":    sa.Start.RatString(),
			"instance": sa.Instance.ID,
			"action":   sa.Instance.Action,
		}
		if sa.Duration != nil {
			entry["duration"] = sa.Duration.RatString()
		}
		acts = append(acts, entry)
	}
	data, err := MarshalCanonical(map[string]any{"activities": acts})
	if err != nil {
		return "", err
	}
	return hashWithDomain(DomainPlan, data), nil
}
