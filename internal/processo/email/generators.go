package email

import (
	"strings"
	"unicode"

	"github.com/apoio-migrante/gestor-processos/internal/processo/entity"
	"github.com/apoio-migrante/gestor-processos/internal/processo/processid"
	"github.com/apoio-migrante/gestor-processos/internal/processo/registry"
)

const (
	documentTitle = "Pedido de Agendamento SEF/CC"
	subjectPrefix = "Pedido de agendamento SEF/CC"
)

// Generator renders one process type into an email. Implementations never
// fail: missing values become empty cells.
type Generator interface {
	Subject(p *entity.Processo) string
	Body(p *entity.Processo) string
	Document(p *entity.Processo) Document
}

type buildFunc func(v values) Document
type subjectFunc func(v values) string

// Generators resolves the generator for a process type.
type Generators struct {
	reg      *registry.Registry
	builders map[string]builder
}

type builder struct {
	subject subjectFunc
	build   buildFunc
}

// NewGenerators wires the generators named by the registry's emailTemplate keys.
func NewGenerators(reg *registry.Registry) *Generators {
	return &Generators{
		reg: reg,
		builders: map[string]builder{
			"residencia":          {subject: residenciaSubject, build: residenciaDocument},
			"reagrupamento":       {subject: reagrupamentoSubject, build: reagrupamentoDocument},
			registry.DefaultType: {subject: defaultSubject, build: defaultDocument},
		},
	}
}

// For returns the generator of typeID, falling back to the default one.
func (g *Generators) For(typeID string) Generator {
	schema := g.reg.Lookup(typeID)
	b, ok := g.builders[schema.EmailTemplate]
	if !ok {
		b = g.builders[registry.DefaultType]
	}
	return &generator{reg: g.reg, schema: schema, b: b}
}

// ForProcesso picks the generator from the record's type, or from its id
// when the type is not set.
func (g *Generators) ForProcesso(p *entity.Processo) Generator {
	return g.For(typeOf(p))
}

type generator struct {
	reg    *registry.Registry
	schema *registry.Schema
	b      builder
}

func (g *generator) values(p *entity.Processo) values {
	if p == nil {
		p = &entity.Processo{}
	}
	return values{reg: g.reg, schema: g.schema, p: p, typeID: typeOf(p)}
}

func (g *generator) Subject(p *entity.Processo) string {
	return g.b.subject(g.values(p))
}

func (g *generator) Document(p *entity.Processo) Document {
	return g.b.build(g.values(p))
}

func (g *generator) Body(p *entity.Processo) string {
	return g.Document(p).HTML()
}

// values reads record paths with the registry defaults applied.
type values struct {
	reg    *registry.Registry
	schema *registry.Schema
	p      *entity.Processo
	typeID string
}

func (v values) get(path string) string {
	return v.reg.DisplayValue(v.typeID, v.p.Campos, path)
}

func (v values) flag(path string) bool {
	raw, ok := v.p.Get(path)
	if !ok {
		return false
	}
	switch t := raw.(type) {
	case bool:
		return t
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s == "true" || s == "sim" || s == "1"
	}
	return false
}

func (v values) declared(path string) bool {
	_, ok := v.schema.Field(path)
	return ok
}

// documentNumber prefers the passport number over any other document number.
func (v values) documentNumber(prefix string) string {
	return firstNonEmpty(v.get(prefix+".numeroPassaporte"), v.get(prefix+".numeroDocumento"))
}

func (v values) checkedDocuments() string {
	var labels []string
	for _, cb := range v.schema.Checkboxes {
		if v.p.SelectedFields[cb.ID] {
			labels = append(labels, cb.Label)
		}
	}
	return strings.Join(labels, ", ")
}

func (v values) subtitle() string {
	if v.p.ProcessID == "" {
		return v.schema.Titulo
	}
	return v.schema.Titulo + " - processo " + v.p.ProcessID
}

func withName(subject, name string) string {
	if name == "" {
		return subject
	}
	return subject + " - " + Upper(name)
}

func typeOf(p *entity.Processo) string {
	if p == nil {
		return ""
	}
	if p.TipoProcesso != "" {
		return p.TipoProcesso
	}
	return processid.ParseType(p.ProcessID)
}

// HumanLabel splits a CamelCase type name into words: "RenovacaoTR" becomes
// "Renovacao TR".
func HumanLabel(typeName string) string {
	var b strings.Builder
	var prev rune
	for i, r := range typeName {
		if i > 0 && unicode.IsUpper(r) && unicode.IsLower(prev) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}
