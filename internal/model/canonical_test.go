package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marshal(t *testing.T, v any) string {
	t.Helper()
	data, err := MarshalCanonical(v)
	require.NoError(t, err)
	return string(data)
}

// TestMarshalCanonical_SortsKeys emits object keys in UTF-16 code unit
// order, compact, with no trailing newline.
func TestMarshalCanonical_SortsKeys(t *testing.T) {
	got := marshal(t, map[string]any{
		"zebra": Int(1),
		"alpha": Int(2),
		"mid":   Int(3),
	})
	assert.Equal(t, `{"alpha":2,"mid":3,"zebra":1}`, got)
}

// TestMarshalCanonical_NoHTMLEscaping leaves < > & literal.
func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	got := marshal(t, map[string]any{"expr": "a < b && b > c"})
	assert.Equal(t, `{"expr":"a < b && b > c"}`, got)
}

// TestMarshalCanonical_NFCNormalization: composed and decomposed forms of
// the same text marshal identically.
func TestMarshalCanonical_NFCNormalization(t *testing.T) {
	composed := marshal(t, "café")
	decomposed := marshal(t, "café")
	assert.Equal(t, composed, decomposed)
}

// TestMarshalCanonical_RejectsFloatsAndNull: floats and null break
// bit-for-bit determinism and are forbidden outright.
func TestMarshalCanonical_RejectsFloatsAndNull(t *testing.T) {
	_, err := MarshalCanonical(map[string]any{"x": 1.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "floats are forbidden")

	_, err = MarshalCanonical(nil)
	require.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"x": nil})
	require.Error(t, err)
}

// TestMarshalCanonical_Rationals render as canonical strings, never as
// numbers.
func TestMarshalCanonical_Rationals(t *testing.T) {
	assert.Equal(t, `"7/2"`, marshal(t, NewRat(7, 2)))
	assert.Equal(t, `"3"`, marshal(t, NewRat(3, 1)))
	assert.Equal(t, `"-1/2"`, marshal(t, NewRat(-1, 2)))
}

// TestMarshalCanonical_Nested covers arrays and model values inside objects.
func TestMarshalCanonical_Nested(t *testing.T) {
	got := marshal(t, map[string]any{
		"args":   []any{Sym("rover1"), Int(2), Bool(true)},
		"action": "move",
	})
	assert.Equal(t, `{"action":"move","args":["rover1",2,true]}`, got)
}

// TestInstanceID is stable for equal inputs and distinguishes occurrences.
func TestInstanceID(t *testing.T) {
	a := InstanceID("move", []Value{Sym("rover1")}, 0)
	b := InstanceID("move", []Value{Sym("rover1")}, 0)
	assert.Equal(t, a, b)

	assert.NotEqual(t, a, InstanceID("move", []Value{Sym("rover1")}, 1))
	assert.NotEqual(t, a, InstanceID("move", []Value{Sym("rover2")}, 0))
	assert.NotEqual(t, a, InstanceID("turn", []Value{Sym("rover1")}, 0))
}

// TestNewActionInstance derives content-addressed IDs deterministically.
func TestNewActionInstance(t *testing.T) {
	x := NewActionInstance("move", 0, Sym("rover1"))
	y := NewActionInstance("move", 0, Sym("rover1"))
	assert.Equal(t, x.ID, y.ID)
	assert.Equal(t, "move(rover1)", x.String())

	z := NewActionInstance("move", 1, Sym("rover1"))
	assert.NotEqual(t, x.ID, z.ID)
}

// TestHashWithDomain_Separation: the same payload hashes differently under
// different domains.
func TestHashWithDomain_Separation(t *testing.T) {
	data := []byte(`{"status":"VALID"}`)
	assert.NotEqual(t,
		HashWithDomain(DomainReport, data),
		HashWithDomain(DomainPlan, data))
	assert.Equal(t,
		HashWithDomain(DomainReport, data),
		HashWithDomain(DomainReport, data))
}

// TestProblem_Fingerprint is stable across calls and sensitive to the
// problem's skeleton.
func TestProblem_Fingerprint(t *testing.T) {
	p := &Problem{
		Name:    "lamp",
		Fluents: []Fluent{{Name: "lit", Type: TypeBool, Default: Bool(false)}},
		Actions: []*Action{{Name: "switch_on"}},
	}

	a, err := p.Fingerprint()
	require.NoError(t, err)
	b, err := p.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, a, b)

	p.Name = "beacon"
	c, err := p.Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
