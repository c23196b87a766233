// Package registry holds the static table of process types: form field
// groups, document checkboxes, display templates and default values.
package registry

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultType entry returned for any unknown process type.
const DefaultType = "default"

// Field input kinds.
const (
	FieldText     = "text"
	FieldDate     = "date"
	FieldEmail    = "email"
	FieldTel      = "tel"
	FieldTextarea = "textarea"
	FieldSelect   = "select"
	FieldCheckbox = "checkbox"
)

// defaultable trailing segments; only these may carry a type default.
var defaultable = map[string]bool{
	"parentesco":    true,
	"tipoDocumento": true,
}

//go:embed tipos.yaml
var tiposYAML []byte

// Checkbox document checklist item
type Checkbox struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
}

// Field one form input; ID may be dotted to address nested campos.
type Field struct {
	ID     string   `yaml:"id" json:"id"`
	Label  string   `yaml:"label" json:"label"`
	Tipo   string   `yaml:"tipo" json:"tipo"`
	Opcoes []string `yaml:"opcoes,omitempty" json:"opcoes,omitempty"`
}

// FieldGroup titled block of fields in the form panel
type FieldGroup struct {
	Titulo string  `yaml:"titulo,omitempty" json:"titulo,omitempty"`
	Campos []Field `yaml:"campos" json:"campos"`
}

// Templates short display strings rendered with the templating package
type Templates struct {
	Cartao   string `yaml:"cartao" json:"cartao"`
	Resumo   string `yaml:"resumo" json:"resumo"`
	Detalhes string `yaml:"detalhes" json:"detalhes"`
}

// Schema process type definition. Immutable once the registry is built.
type Schema struct {
	ID            string            `yaml:"id" json:"id"`
	Titulo        string            `yaml:"titulo" json:"titulo"`
	EmailTemplate string            `yaml:"emailTemplate" json:"emailTemplate"`
	Checkboxes    []Checkbox        `yaml:"checkboxes" json:"checkboxes"`
	PainelCampos  []FieldGroup      `yaml:"painelCampos" json:"painelCampos"`
	Defaults      map[string]string `yaml:"defaults,omitempty" json:"defaults,omitempty"`
	Templates     Templates         `yaml:"templates" json:"templates"`

	fields    map[string]Field
	validator *validator
}

// Field returns the declared field for a dotted id.
func (s *Schema) Field(id string) (Field, bool) {
	f, ok := s.fields[id]
	return f, ok
}

// Fields all declared fields in panel order, each path once.
func (s *Schema) Fields() []Field {
	var out []Field
	seen := map[string]bool{}
	for _, g := range s.PainelCampos {
		for _, f := range g.Campos {
			if seen[f.ID] {
				continue
			}
			seen[f.ID] = true
			out = append(out, f)
		}
	}
	return out
}

// HasCheckbox reports whether id is one of the type's checkboxes.
func (s *Schema) HasCheckbox(id string) bool {
	for _, cb := range s.Checkboxes {
		if cb.ID == id {
			return true
		}
	}
	return false
}

// Registry read-only lookup table of process types
type Registry struct {
	schemas map[string]*Schema
}

type document struct {
	Tipos []*Schema `yaml:"tipos"`
}

// New builds the registry from the embedded process type table.
func New() (*Registry, error) {
	return Load(tiposYAML)
}

// MustNew like New but panics; the embedded table is covered by tests.
func MustNew() *Registry {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

// Load parses and checks a YAML process type table.
func Load(data []byte) (*Registry, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse process types: %w", err)
	}

	r := &Registry{schemas: make(map[string]*Schema, len(doc.Tipos))}
	for _, s := range doc.Tipos {
		if err := prepare(s); err != nil {
			return nil, err
		}
		if _, dup := r.schemas[s.ID]; dup {
			return nil, fmt.Errorf("process type %q declared twice", s.ID)
		}
		r.schemas[s.ID] = s
	}
	if _, ok := r.schemas[DefaultType]; !ok {
		return nil, fmt.Errorf("process type table has no %q entry", DefaultType)
	}
	return r, nil
}

func prepare(s *Schema) error {
	if s.ID == "" {
		return fmt.Errorf("process type without id")
	}
	if strings.Contains(s.ID, "-") {
		return fmt.Errorf("process type %q: id must not contain '-'", s.ID)
	}
	if s.EmailTemplate == "" {
		s.EmailTemplate = s.ID
	}

	seen := map[string]bool{}
	for _, cb := range s.Checkboxes {
		if seen[cb.ID] {
			return fmt.Errorf("process type %q: duplicate checkbox %q", s.ID, cb.ID)
		}
		seen[cb.ID] = true
	}

	s.fields = map[string]Field{}
	for gi := range s.PainelCampos {
		g := &s.PainelCampos[gi]
		for fi := range g.Campos {
			f := &g.Campos[fi]
			if f.ID == "" {
				return fmt.Errorf("process type %q: field without id in group %q", s.ID, g.Titulo)
			}
			if f.Tipo == "" {
				f.Tipo = FieldText
			}
			if prev, dup := s.fields[f.ID]; dup {
				// the same path may appear in two groups only if it is the same field
				if prev.Tipo != f.Tipo {
					return fmt.Errorf("process type %q: field %q redeclared with another kind", s.ID, f.ID)
				}
				continue
			}
			s.fields[f.ID] = *f
		}
	}

	for path, value := range s.Defaults {
		if !defaultable[lastSegment(path)] {
			return fmt.Errorf("process type %q: default for %q not allowed", s.ID, path)
		}
		f, ok := s.fields[path]
		if !ok {
			return fmt.Errorf("process type %q: default for undeclared field %q", s.ID, path)
		}
		if f.Tipo == FieldSelect && !contains(f.Opcoes, value) {
			return fmt.Errorf("process type %q: default %q for %q is not an option", s.ID, value, path)
		}
	}

	v, err := newValidator(s)
	if err != nil {
		return err
	}
	s.validator = v
	return nil
}

// Lookup returns the schema for typeID, or the default schema.
func (r *Registry) Lookup(typeID string) *Schema {
	if s, ok := r.schemas[typeID]; ok {
		return s
	}
	return r.schemas[DefaultType]
}

// Has reports whether typeID is declared (the default entry included).
func (r *Registry) Has(typeID string) bool {
	_, ok := r.schemas[typeID]
	return ok
}

// List returns every schema sorted by id, default first.
func (r *Registry) List() []*Schema {
	out := make([]*Schema, 0, len(r.schemas))
	for _, s := range r.schemas {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ID == DefaultType || out[j].ID == DefaultType {
			return out[i].ID == DefaultType
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func lastSegment(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return path
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
