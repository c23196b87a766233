// Package export writes the process list as an XLSX workbook.
package export

import (
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/apoio-migrante/gestor-processos/internal/processo/entity"
	"github.com/apoio-migrante/gestor-processos/internal/processo/processid"
	"github.com/apoio-migrante/gestor-processos/internal/processo/registry"
	"github.com/apoio-migrante/gestor-processos/internal/processo/templating"
)

const (
	SheetProcessos = "Processos"
	SheetResumo    = "Resumo"
	ContentType    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	dateLayout     = "2006-01-02 15:04"
)

var headers = []string{"Processo", "Tipo", "Título", "Cliente", "Resumo", "Status", "Documentos", "Criação", "Última atualização"}

var colWidths = []float64{34, 22, 36, 36, 48, 14, 12, 18, 18}

// Processos builds the workbook: one row per record plus a per-type count sheet.
func Processos(records []*entity.Processo, reg *registry.Registry) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetProcessos); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	if err := writeRow(f, SheetProcessos, 1, toAny(headers), headerStyle); err != nil {
		return nil, err
	}

	perType := map[string]int{}
	for i, rec := range records {
		typeID := rec.TipoProcesso
		if typeID == "" {
			typeID = processid.ParseType(rec.ProcessID)
		}
		schema := reg.Lookup(typeID)
		perType[schema.ID]++

		display := templating.Display(reg, rec)
		row := []any{
			rec.ProcessID,
			typeID,
			schema.Titulo,
			display.Cartao,
			display.Resumo,
			rec.Status,
			fmt.Sprintf("%d/%d", checked(rec, schema), len(schema.Checkboxes)),
			formatTime(rec.Timestamps.Criacao),
			formatTime(rec.Timestamps.UltimaAtualizacao),
		}
		if err := writeRow(f, SheetProcessos, i+2, row, 0); err != nil {
			return nil, err
		}
	}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetProcessos, col, col, w); err != nil {
			return nil, err
		}
	}
	if len(records) > 0 {
		if err := f.AutoFilter(SheetProcessos, fmt.Sprintf("A1:I%d", len(records)+1), nil); err != nil {
			return nil, fmt.Errorf("autofilter: %w", err)
		}
	}

	if _, err := f.NewSheet(SheetResumo); err != nil {
		return nil, err
	}
	if err := writeRow(f, SheetResumo, 1, []any{"Tipo", "Processos"}, headerStyle); err != nil {
		return nil, err
	}
	types := make([]string, 0, len(perType))
	for id := range perType {
		types = append(types, id)
	}
	sort.Strings(types)
	for i, id := range types {
		if err := writeRow(f, SheetResumo, i+2, []any{reg.Lookup(id).Titulo, perType[id]}, 0); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Filename of an export made at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("processos_%s.xlsx", t.Format("20060102_1504"))
}

func writeRow(f *excelize.File, sheet string, row int, values []any, style int) error {
	start, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, start, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	if style != 0 {
		end, _ := excelize.CoordinatesToCellName(len(values), row)
		if err := f.SetCellStyle(sheet, start, end, style); err != nil {
			return err
		}
	}
	return nil
}

func checked(rec *entity.Processo, schema *registry.Schema) int {
	n := 0
	for _, cb := range schema.Checkboxes {
		if rec.SelectedFields[cb.ID] {
			n++
		}
	}
	return n
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
