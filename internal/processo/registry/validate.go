package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidCampos wraps every schema violation reported by Validate.
var ErrInvalidCampos = errors.New("campos do not match process type")

type validator struct {
	schema *jsonschema.Schema
}

// Validate checks campos against the schema of typeID. Declared types reject
// unknown keys; the default type accepts any object.
func (r *Registry) Validate(typeID string, campos map[string]any) error {
	if campos == nil {
		return nil
	}
	s := r.Lookup(typeID)
	if s.validator == nil {
		return nil
	}

	// normalise Go values (bool maps, ints) into the JSON model the validator expects
	raw, err := json.Marshal(campos)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCampos, err)
	}
	var doc any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCampos, err)
	}
	if err := s.validator.schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidCampos, s.ID, err)
	}
	return nil
}

// JSONSchema returns the generated JSON Schema document for a type.
func (s *Schema) JSONSchema() map[string]any {
	if s.ID == DefaultType {
		return map[string]any{"type": "object"}
	}
	root := objectSchema()
	for _, f := range s.Fields() {
		node := root
		segs := strings.Split(f.ID, ".")
		for _, seg := range segs[:len(segs)-1] {
			props := node["properties"].(map[string]any)
			child, ok := props[seg].(map[string]any)
			if !ok || child["type"] != "object" {
				child = objectSchema()
				props[seg] = child
			}
			node = child
		}
		node["properties"].(map[string]any)[segs[len(segs)-1]] = leafSchema(f)
	}
	return root
}

func newValidator(s *Schema) (*validator, error) {
	doc, err := json.Marshal(s.JSONSchema())
	if err != nil {
		return nil, fmt.Errorf("process type %q: encode schema: %w", s.ID, err)
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	url := fmt.Sprintf("https://gestor.local/tipos/%s.schema.json", s.ID)
	if err := c.AddResource(url, bytes.NewReader(doc)); err != nil {
		return nil, fmt.Errorf("process type %q: load schema: %w", s.ID, err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("process type %q: compile schema: %w", s.ID, err)
	}
	return &validator{schema: compiled}, nil
}

func objectSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           map[string]any{},
		"additionalProperties": false,
	}
}

func leafSchema(f Field) map[string]any {
	switch f.Tipo {
	case FieldCheckbox:
		return map[string]any{"type": []any{"boolean", "null"}}
	case FieldSelect:
		enum := []any{"", nil}
		for _, o := range f.Opcoes {
			enum = append(enum, o)
		}
		return map[string]any{"enum": enum}
	default:
		return map[string]any{"type": []any{"string", "null"}}
	}
}
