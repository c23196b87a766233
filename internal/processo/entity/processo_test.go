package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessoSetAndGet(t *testing.T) {
	p := &Processo{}
	p.Set("pessoaQueRegrupa.nomeCompleto", "Ana Silva")
	p.Set("pessoaQueRegrupa.morada.codigoPostal", "1000-001")

	assert.Equal(t, "Ana Silva", p.GetString("pessoaQueRegrupa.nomeCompleto"))
	assert.Equal(t, "1000-001", p.GetString("pessoaQueRegrupa.morada.codigoPostal"))
	assert.Equal(t, "", p.GetString("pessoaQueRegrupa.morada"), "maps are not scalars")
	assert.Equal(t, "", p.GetString("pessoaReagrupada.nomeCompleto"))

	_, ok := p.Get("pessoaQueRegrupa.nomeCompleto.extra")
	assert.False(t, ok)
}

func TestSetPathReplacesScalarIntermediate(t *testing.T) {
	data := map[string]any{"a": "x"}
	SetPath(data, "a.b", "y")

	v, ok := Lookup(data, "a.b")
	require.True(t, ok)
	assert.Equal(t, "y", v)
}

func TestScalarString(t *testing.T) {
	assert.Equal(t, "3", ScalarString(float64(3)))
	assert.Equal(t, "3.5", ScalarString(3.5))
	assert.Equal(t, "7", ScalarString(7))
	assert.Equal(t, "true", ScalarString(true))
	assert.Equal(t, "", ScalarString(nil))
	assert.Equal(t, "", ScalarString([]any{"a"}))
}

func TestCloneIsDeep(t *testing.T) {
	p := &Processo{
		ProcessID:      "CPLP-abc-00000001",
		Campos:         map[string]any{"requerente": map[string]any{"nomeCompleto": "Ana"}},
		SelectedFields: map[string]bool{"urgente": true},
	}
	cp := p.Clone()
	cp.Set("requerente.nomeCompleto", "Bia")
	cp.SelectedFields["urgente"] = false

	assert.Equal(t, "Ana", p.GetString("requerente.nomeCompleto"))
	assert.True(t, p.SelectedFields["urgente"])
}
