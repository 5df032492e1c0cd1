package loader

import (
	"bytes"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/parloq/tempora/internal/model"
	"github.com/parloq/tempora/internal/temporal"
)

// PlanDoc is a loaded plan document. Exactly one field is set: executable
// plan kinds populate Plan; explicit STN plans populate STN.
type PlanDoc struct {
	Plan model.Plan
	STN  *temporal.STNPlan
}

// LoadProblem reads and parses a problem document from a YAML file.
func LoadProblem(path string) (*model.Problem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeRead, Path: path, Message: err.Error()}
	}
	p, err := ParseProblem(data)
	if err != nil {
		return nil, withPath(err, path)
	}
	return p, nil
}

// ParseProblem parses a problem document: YAML under a top-level "problem"
// key, validated against the embedded schema, then structurally checked.
func ParseProblem(data []byte) (*model.Problem, error) {
	doc, err := topLevel(data, "problem")
	if err != nil {
		return nil, err
	}
	if err := validateSchema("#Problem", doc); err != nil {
		return nil, err
	}

	var wire struct {
		Problem problemWire `yaml:"problem"`
	}
	if err := strictDecode(data, &wire); err != nil {
		return nil, err
	}
	p, err := buildProblem(&wire.Problem)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, loadErrf(ErrCodeStructure, "%v", err)
	}
	return p, nil
}

// LoadPlan reads and parses a plan document from a YAML file.
func LoadPlan(path string) (*PlanDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeRead, Path: path, Message: err.Error()}
	}
	pd, err := ParsePlan(data)
	if err != nil {
		return nil, withPath(err, path)
	}
	return pd, nil
}

// ParsePlan parses a plan document: YAML under a top-level "plan" key,
// validated against the embedded schema.
func ParsePlan(data []byte) (*PlanDoc, error) {
	doc, err := topLevel(data, "plan")
	if err != nil {
		return nil, err
	}
	if err := validateSchema("#Plan", doc); err != nil {
		return nil, err
	}

	var wire struct {
		Plan planWire `yaml:"plan"`
	}
	if err := strictDecode(data, &wire); err != nil {
		return nil, err
	}
	return buildPlan(&wire.Plan)
}

// topLevel parses the raw document and extracts the required top-level key
// for schema validation.
func topLevel(data []byte, key string) (any, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, loadErrf(ErrCodeParse, "%v", err)
	}
	doc, ok := raw[key]
	if !ok {
		return nil, loadErrf(ErrCodeStructure, "document has no top-level %q key", key)
	}
	return doc, nil
}

// strictDecode decodes into wire structs rejecting unknown fields, so typos
// that happen to pass schema disjunctions still fail loudly.
func strictDecode(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return loadErrf(ErrCodeParse, "%v", err)
	}
	return nil
}
