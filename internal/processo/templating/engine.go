// Package templating substitutes {{dotted.path}} placeholders in the short
// card, summary and detail strings of a process type.
//
// A placeholder whose path does not resolve to a scalar is left in the output
// unchanged. Callers that must never show a blank relationship or document
// type apply the registry defaults to the data before rendering.
package templating

import (
	"regexp"

	"github.com/apoio-migrante/gestor-processos/internal/processo/entity"
)

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*)\s*\}\}`)

// Render replaces every resolvable placeholder in tmpl with its value in data.
// Paths are looked up under data["campos"] first, then under data itself.
func Render(tmpl string, data map[string]any) string {
	campos, _ := data["campos"].(map[string]any)
	return placeholder.ReplaceAllStringFunc(tmpl, func(token string) string {
		path := placeholder.FindStringSubmatch(token)[1]
		if v, ok := resolve(campos, path); ok {
			return v
		}
		if v, ok := resolve(data, path); ok {
			return v
		}
		return token
	})
}

// Placeholders lists the paths referenced by tmpl in order of appearance.
func Placeholders(tmpl string) []string {
	matches := placeholder.FindAllStringSubmatch(tmpl, -1)
	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		paths = append(paths, m[1])
	}
	return paths
}

func resolve(data map[string]any, path string) (string, bool) {
	v, ok := entity.Lookup(data, path)
	if !ok {
		return "", false
	}
	switch v.(type) {
	case map[string]any, []any:
		return "", false
	}
	return entity.ScalarString(v), true
}
