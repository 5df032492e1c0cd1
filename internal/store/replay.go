package store

import (
	"context"
	"fmt"

	"github.com/parloq/tempora/internal/model"
)

// Replay reads a run back and verifies its integrity: the stored canonical
// report must hash to the stored fingerprint, and the trace table must carry
// a dense, strictly increasing sequence. A passing replay means the stored
// bytes are exactly what the validator produced.
func (s *Store) Replay(ctx context.Context, runID string) (*Run, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	if got := model.HashWithDomain(model.DomainReport, run.ReportJSON); got != run.ReportHash {
		return nil, fmt.Errorf("replay %s: report hash mismatch: stored %s, computed %s", runID, run.ReportHash, got)
	}

	trace, err := s.GetTrace(ctx, runID)
	if err != nil {
		return nil, err
	}
	for i, te := range trace {
		if te.Seq != int64(i+1) {
			return nil, fmt.Errorf("replay %s: trace seq gap: row %d carries seq %d", runID, i, te.Seq)
		}
	}
	return run, nil
}
