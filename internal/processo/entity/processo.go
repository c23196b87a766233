package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status values for a process record.
const (
	StatusEmAndamento = "em_andamento"
	StatusEnviado     = "enviado"
	StatusConcluido   = "concluido"
)

// Timestamps creation / last update pair stored with every record
type Timestamps struct {
	Criacao           time.Time `json:"criacao"`
	UltimaAtualizacao time.Time `json:"ultimaAtualizacao"`
}

// Processo one client case: a process type plus the form data collected for it.
type Processo struct {
	ProcessID      string          `json:"processId"`
	TipoProcesso   string          `json:"tipoProcesso"`
	Campos         map[string]any  `json:"campos"`
	SelectedFields map[string]bool `json:"selectedFields"`
	OutrosDetalhes string          `json:"outrosDetalhes"`
	Status         string          `json:"status"`
	DataCriacao    time.Time       `json:"dataCriacao"`
	Timestamps     Timestamps      `json:"timestamps"`
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (p *Processo) Clone() *Processo {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Campos = CloneMap(p.Campos)
	if p.SelectedFields != nil {
		cp.SelectedFields = make(map[string]bool, len(p.SelectedFields))
		for k, v := range p.SelectedFields {
			cp.SelectedFields[k] = v
		}
	}
	return &cp
}

// Data returns the record as the map the template engine resolves against.
func (p *Processo) Data() map[string]any {
	return map[string]any{
		"processId":      p.ProcessID,
		"tipoProcesso":   p.TipoProcesso,
		"campos":         p.Campos,
		"outrosDetalhes": p.OutrosDetalhes,
		"status":         p.Status,
	}
}

// Get resolves a dotted path inside campos. Missing segments and nil
// terminals yield ok=false.
func (p *Processo) Get(path string) (any, bool) {
	return Lookup(p.Campos, path)
}

// GetString like Get but always returns a string; unresolved paths give "".
func (p *Processo) GetString(path string) string {
	v, ok := p.Get(path)
	if !ok {
		return ""
	}
	return ScalarString(v)
}

// Set writes value at a dotted path inside campos, creating intermediate maps.
func (p *Processo) Set(path string, value any) {
	if p.Campos == nil {
		p.Campos = map[string]any{}
	}
	SetPath(p.Campos, path, value)
}

// Lookup descends one key per dotted segment.
func Lookup(data map[string]any, path string) (any, bool) {
	if data == nil || path == "" {
		return nil, false
	}
	var cur any = data
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// SetPath writes value at path, replacing any non-map intermediate.
func SetPath(data map[string]any, path string, value any) {
	segs := strings.Split(path, ".")
	cur := data
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[seg] = next
		}
		cur = next
	}
	cur[segs[len(segs)-1]] = value
}

// ScalarString formats scalar JSON values; anything else is "".
func ScalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32, int, int32, int64, uint, uint32, uint64:
		return fmt.Sprint(t)
	default:
		return ""
	}
}

// CloneMap deep-copies nested map[string]any values.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			out[k] = CloneMap(nested)
			continue
		}
		out[k] = v
	}
	return out
}
