package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormula(t *testing.T) {
	counts, err := ParseFormula("C6H12O6")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"C": 6, "H": 12, "O": 6}, counts)

	counts, err = ParseFormula("HOH")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"H": 2, "O": 1}, counts)

	_, err = ParseFormula("C6(H2O)6")
	assert.Error(t, err)
}

func TestCanonicalFormula(t *testing.T) {
	assert.Equal(t, "C6H12O6", CanonicalFormula("O6C6H12"))
	assert.Equal(t, "C10H12N5O13P3", CanonicalFormula("H12C10N5O13P3"))
	assert.Equal(t, "ClNa", CanonicalFormula("NaCl"))
	assert.Equal(t, "H2O", CanonicalFormula("HOH"))
	assert.Equal(t, "C6(H2O)6", CanonicalFormula("C6 (H2O)6"))
	assert.Equal(t, "", CanonicalFormula(""))
}

func TestNormalizeCompartment(t *testing.T) {
	assert.Equal(t, "c", NormalizeCompartment("Cytosol"))
	assert.Equal(t, "e", NormalizeCompartment("e0"))
	assert.Equal(t, "p", NormalizeCompartment(" periplasm "))
	assert.Equal(t, "x", NormalizeCompartment("X"))
}

func TestNormalizeAlias(t *testing.T) {
	assert.Equal(t, NormalizeAlias("D-Glucose"), NormalizeAlias("d glucose"))
	assert.Equal(t, "glcd", NormalizeAlias("glc__D"))
}

func TestParseID(t *testing.T) {
	tests := []struct {
		id   string
		want LocalID
	}{
		{"adp[c]", LocalID{Base: "adp", Compartment: "c", Notation: NotationBracket}},
		{"cpd01024_e0", LocalID{Base: "cpd01024", Compartment: "e", Index: "0", Notation: NotationUnderscore}},
		{"glc__D_p", LocalID{Base: "glc__D", Compartment: "p", Notation: NotationUnderscore}},
		{"glc__D", LocalID{Base: "glc__D", Compartment: "c", Notation: NotationNone}},
		{"h2o", LocalID{Base: "h2o", Compartment: "c", Notation: NotationNone}},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseID(tt.id))
		})
	}

	assert.Equal(t, "cpd01024_c0", ParseID("cpd01024_e0").WithCompartment("c"))
	assert.Equal(t, "adp[e]", ParseID("adp[c]").WithCompartment("e"))
	assert.Equal(t, "h2o", ParseID("h2o").WithCompartment("e"))
}

func TestParseJSON(t *testing.T) {
	type advice struct {
		Recommended string `json:"recommended"`
	}
	got, err := ParseJSON[advice]("Sure:\n```json\n{\"recommended\": \"cpd1\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "cpd1", got.Recommended)

	_, err = ParseJSON[advice]("no object here")
	assert.Error(t, err)
	_, err = ParseJSON[advice]("{not json}")
	assert.Error(t, err)
}
