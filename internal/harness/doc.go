// Package harness runs conformance scenarios end to end: a scenario names a
// problem document and a plan document, the harness validates the plan,
// persists the run to a fresh in-memory store, replays it for integrity,
// and checks the scenario's expectations against the report.
//
// Golden comparison goes through canonical JSON (RFC 8785), so a golden file
// mismatch is always a semantic difference, never key-order noise. To
// regenerate golden files, run:
//
//	go test ./internal/harness -update
package harness
