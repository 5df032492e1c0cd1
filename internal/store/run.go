package store

import "github.com/parloq/tempora/internal/validator"

// Run is one persisted validation run: identity hashes of the inputs, the
// outcome, and the canonical report.
type Run struct {
	ID          string
	ProblemHash string
	PlanHash    string
	Status      string
	ReportJSON  []byte // canonical JSON (RFC 8785)
	ReportHash  string
	CreatedAt   string
}

// runFromReport builds the persisted form of a report: canonical JSON plus
// its content-addressed fingerprint.
func runFromReport(id, problemHash, planHash string, rep *validator.Report) (*Run, error) {
	data, err := marshalReport(rep)
	if err != nil {
		return nil, err
	}
	hash, err := rep.Fingerprint()
	if err != nil {
		return nil, err
	}
	return &Run{
		ID:          id,
		ProblemHash: problemHash,
		PlanHash:    planHash,
		Status:      string(rep.Status),
		ReportJSON:  data,
		ReportHash:  hash,
	}, nil
}
