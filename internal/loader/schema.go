package loader

import (
	_ "embed"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource string

var (
	schemaOnce sync.Once
	schemaVal  cue.Value
	schemaErr  error
)

// schema compiles the embedded schema once. Compilation failure is a
// programming error in schema.cue, surfaced on first use.
func schema() (cue.Value, error) {
	schemaOnce.Do(func() {
		ctx := cuecontext.New()
		schemaVal = ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
		schemaErr = schemaVal.Err()
	})
	return schemaVal, schemaErr
}

// validateSchema unifies a decoded YAML document with the named schema
// definition and reports the full CUE error detail on mismatch.
func validateSchema(def string, doc any) error {
	sch, err := schema()
	if err != nil {
		return loadErrf(ErrCodeSchema, "compiling schema: %v", err)
	}
	target := sch.LookupPath(cue.ParsePath(def))
	if !target.Exists() {
		return loadErrf(ErrCodeSchema, "schema definition %s not found", def)
	}
	data := sch.Context().Encode(doc)
	if err := data.Err(); err != nil {
		return loadErrf(ErrCodeSchema, "encoding document: %v", err)
	}
	unified := target.Unify(data)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return loadErrf(ErrCodeSchema, "%s", cueerrors.Details(err, nil))
	}
	return nil
}
