package store

import (
	"fmt"

	"github.com/parloq/tempora/internal/model"
	"github.com/parloq/tempora/internal/validator"
)

// marshalReport serializes a report to canonical JSON per RFC 8785, so that
// byte-identical storage follows from semantic equality and the stored bytes
// hash to the report's fingerprint.
func marshalReport(rep *validator.Report) ([]byte, error) {
	data, err := model.MarshalCanonical(rep.CanonicalMap())
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return data, nil
}
