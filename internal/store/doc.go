// Package store persists validation runs in SQLite.
//
// Runs are append-only: a run's canonical report and trace are written once
// in a single transaction, keyed by a caller-supplied UUID, and never
// updated. Reports are stored as canonical JSON (RFC 8785) alongside their
// content-addressed fingerprint, so Replay can verify byte-level integrity
// without re-running the validator.
//
// The database uses WAL mode with a single writer connection; readers are
// never blocked by a write in progress.
package store
