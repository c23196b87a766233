package registry

import (
	"github.com/apoio-migrante/gestor-processos/internal/processo/entity"
)

// DefaultFor returns the type literal used when the field at path is empty.
// Only paths ending in parentesco or tipoDocumento carry defaults.
func (r *Registry) DefaultFor(typeID, path string) (string, bool) {
	if !defaultable[lastSegment(path)] {
		return "", false
	}
	v, ok := r.Lookup(typeID).Defaults[path]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// DisplayValue is the value shown for path: the stored scalar, or the type
// default when the stored value is empty.
func (r *Registry) DisplayValue(typeID string, campos map[string]any, path string) string {
	var stored string
	if v, ok := entity.Lookup(campos, path); ok {
		stored = entity.ScalarString(v)
	}
	if stored != "" {
		return stored
	}
	if d, ok := r.DefaultFor(typeID, path); ok {
		return d
	}
	return ""
}

// ApplyDefaults writes the type defaults into every empty defaultable field
// of campos and returns the paths it filled. campos may be nil.
func (r *Registry) ApplyDefaults(typeID string, campos map[string]any) (map[string]any, []string) {
	if campos == nil {
		campos = map[string]any{}
	}
	var filled []string
	for _, f := range r.Lookup(typeID).Fields() {
		d, ok := r.DefaultFor(typeID, f.ID)
		if !ok {
			continue
		}
		if v, ok := entity.Lookup(campos, f.ID); ok && entity.ScalarString(v) != "" {
			continue
		}
		entity.SetPath(campos, f.ID, d)
		filled = append(filled, f.ID)
	}
	return campos, filled
}
