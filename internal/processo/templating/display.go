package templating

import (
	"github.com/apoio-migrante/gestor-processos/internal/processo/entity"
	"github.com/apoio-migrante/gestor-processos/internal/processo/processid"
	"github.com/apoio-migrante/gestor-processos/internal/processo/registry"
)

// Display renders the card, summary and detail strings of p's type. Type
// defaults are filled into a copy of the record first.
func Display(reg *registry.Registry, p *entity.Processo) registry.Templates {
	typeID := p.TipoProcesso
	if typeID == "" {
		typeID = processid.ParseType(p.ProcessID)
	}
	schema := reg.Lookup(typeID)

	rec := p.Clone()
	rec.Campos, _ = reg.ApplyDefaults(schema.ID, rec.Campos)
	data := rec.Data()

	return registry.Templates{
		Cartao:   Render(schema.Templates.Cartao, data),
		Resumo:   Render(schema.Templates.Resumo, data),
		Detalhes: Render(schema.Templates.Detalhes, data),
	}
}
