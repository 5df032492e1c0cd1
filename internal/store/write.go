package store

import (
	"context"
	"fmt"

	"github.com/parloq/tempora/internal/validator"
)

// SaveReport persists a validation run and its full trace atomically.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - writing the same run
// twice is silently ignored; trace rows share the run's fate because they
// ride in the same transaction.
func (s *Store) SaveReport(ctx context.Context, runID, problemHash, planHash string, rep *validator.Report) error {
	run, err := runFromReport(runID, problemHash, planHash, rep)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save report: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, problem_hash, plan_hash, status, report, report_hash)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.ProblemHash,
		run.PlanHash,
		run.Status,
		string(run.ReportJSON),
		run.ReportHash,
	)
	if err != nil {
		return fmt.Errorf("save report: insert run: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save report: rows affected: %w", err)
	}
	if inserted > 0 {
		for _, te := range rep.Trace {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO trace_events
				(run_id, seq, time, kind, instance, detail)
				VALUES (?, ?, ?, ?, ?, ?)
			`, run.ID, te.Seq, te.Time, te.Kind, te.Instance, te.Detail); err != nil {
				return fmt.Errorf("save report: insert trace event %d: %w", te.Seq, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save report: commit: %w", err)
	}
	return nil
}
