// Package loader parses problem and plan documents from YAML.
//
// Documents are validated in two layers: the embedded CUE schema
// (schema.cue) catches structural mistakes with full error detail, then a
// strict YAML decode into wire structs rejects unknown fields the schema's
// disjunctions might tolerate. All numbers travel as canonical rational
// strings; a document cannot smuggle a float into the engine.
//
// Loading failures are *LoadError values with stable E-codes, so callers can
// branch on the failure class without string matching.
package loader
