package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/parloq/tempora/internal/validator"
)

// ErrNotFound is returned when a run ID does not exist.
var ErrNotFound = errors.New("run not found")

// GetRun reads one persisted run by ID.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	run := &Run{}
	var report string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, problem_hash, plan_hash, status, report, report_hash, created_at
		FROM runs WHERE id = ?
	`, runID).Scan(&run.ID, &run.ProblemHash, &run.PlanHash, &run.Status, &report, &run.ReportHash, &run.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	run.ReportJSON = []byte(report)
	return run, nil
}

// GetTrace reads a run's trace ordered by logical sequence number.
func (s *Store) GetTrace(ctx context.Context, runID string) ([]validator.TraceEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, time, kind, instance, detail
		FROM trace_events WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("get trace: %w", err)
	}
	defer rows.Close()

	var out []validator.TraceEvent
	for rows.Next() {
		var te validator.TraceEvent
		if err := rows.Scan(&te.Seq, &te.Time, &te.Kind, &te.Instance, &te.Detail); err != nil {
			return nil, fmt.Errorf("get trace: scan: %w", err)
		}
		out = append(out, te)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get trace: %w", err)
	}
	return out, nil
}

// ListRuns returns the most recent runs, newest first, up to limit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, problem_hash, plan_hash, status, report_hash, created_at
		FROM runs ORDER BY rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.ProblemHash, &run.PlanHash, &run.Status, &run.ReportHash, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("list runs: scan: %w", err)
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return out, nil
}
