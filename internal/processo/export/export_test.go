package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/apoio-migrante/gestor-processos/internal/processo/entity"
	"github.com/apoio-migrante/gestor-processos/internal/processo/registry"
)

func TestProcessosWorkbook(t *testing.T) {
	reg := registry.MustNew()
	created := time.Date(2024, 4, 10, 14, 30, 0, 0, time.UTC)
	records := []*entity.Processo{
		{
			ProcessID:      "ReagrupamentoConjuge-l9x2k3-0a1b2c3d",
			TipoProcesso:   "ReagrupamentoConjuge",
			Campos:         map[string]any{"pessoaReagrupada": map[string]any{"nomeCompleto": "Marta"}},
			SelectedFields: map[string]bool{"certidaoCasamento": true},
			Status:         entity.StatusEmAndamento,
			Timestamps:     entity.Timestamps{Criacao: created, UltimaAtualizacao: created},
		},
		{ProcessID: "CPLP-l9x2k4-0a1b2c3e", Status: entity.StatusEnviado},
		{ProcessID: "CPLP-l9x2k5-0a1b2c3f"},
	}

	f, err := Processos(records, reg)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	back, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer back.Close()

	rows, err := back.GetRows(SheetProcessos)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, headers, rows[0])
	assert.Equal(t, "ReagrupamentoConjuge-l9x2k3-0a1b2c3d", rows[1][0])
	assert.Equal(t, "Marta - Reagrupamento Familiar", rows[1][3])
	assert.Equal(t, "1/3", rows[1][6])
	assert.Equal(t, "2024-04-10 14:30", rows[1][7])
	assert.Equal(t, "CPLP", rows[2][1], "type taken from the id")

	summary, err := back.GetRows(SheetResumo)
	require.NoError(t, err)
	require.Len(t, summary, 3)
	assert.Equal(t, []string{"Autorização de Residência CPLP", "2"}, summary[1])
	assert.Equal(t, []string{"Reagrupamento Familiar - Cônjuge", "1"}, summary[2])
}

func TestEmptyExport(t *testing.T) {
	f, err := Processos(nil, registry.MustNew())
	require.NoError(t, err)
	rows, err := f.GetRows(SheetProcessos)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "processos_20240410_1430.xlsx", Filename(time.Date(2024, 4, 10, 14, 30, 0, 0, time.UTC)))
}
