// Package form keeps the server-side editing session of one process record:
// the viewing/editing state, field writes, checkbox toggles and save.
package form

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/apoio-migrante/gestor-processos/internal/processo/entity"
	"github.com/apoio-migrante/gestor-processos/internal/processo/processid"
	"github.com/apoio-migrante/gestor-processos/internal/processo/registry"
)

var (
	// ErrNotEditing field writes outside the editing state
	ErrNotEditing = errors.New("form is not in editing mode")
	// ErrUnknownCheckbox checkbox id not declared by the process type
	ErrUnknownCheckbox = errors.New("unknown checkbox")
)

// State of a form session.
type State int

const (
	Viewing State = iota
	Editing
)

func (s State) String() string {
	if s == Editing {
		return "editing"
	}
	return "viewing"
}

// Persister stores the record after each change and returns the stored copy.
type Persister func(ctx context.Context, p *entity.Processo) (*entity.Processo, error)

// Regenerator is told that the document of processID is stale. It must not block.
type Regenerator func(processID string)

// Controller one record under edit. Safe for concurrent use.
type Controller struct {
	mu         sync.Mutex
	reg        *registry.Registry
	schema     *registry.Schema
	rec        *entity.Processo
	state      State
	load       Loader
	persist    Persister
	regenerate Regenerator
}

// NewController starts a session in the viewing state. persist and
// regenerate may be nil.
func NewController(reg *registry.Registry, rec *entity.Processo, persist Persister, regenerate Regenerator) *Controller {
	rec = normalize(rec)
	typeID := rec.TipoProcesso
	if typeID == "" {
		typeID = processid.ParseType(rec.ProcessID)
	}
	return &Controller{
		reg:        reg,
		schema:     reg.Lookup(typeID),
		rec:        rec,
		persist:    persist,
		regenerate: regenerate,
	}
}

func normalize(rec *entity.Processo) *entity.Processo {
	rec = rec.Clone()
	if rec == nil {
		rec = &entity.Processo{}
	}
	if rec.Campos == nil {
		rec.Campos = map[string]any{}
	}
	if rec.SelectedFields == nil {
		rec.SelectedFields = map[string]bool{}
	}
	return rec
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Schema() *registry.Schema {
	return c.schema
}

// Record returns a copy of the current record.
func (c *Controller) Record() *entity.Processo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rec.Clone()
}

// Value is what the form shows for path: the stored value or the type default.
func (c *Controller) Value(path string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reg.DisplayValue(c.schema.ID, c.rec.Campos, path)
}

// Values every declared field keyed by path.
func (c *Controller) Values() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string)
	for _, f := range c.schema.Fields() {
		out[f.ID] = c.reg.DisplayValue(c.schema.ID, c.rec.Campos, f.ID)
	}
	return out
}

// Edit switches to the editing state. Calling it while editing is a no-op.
func (c *Controller) Edit() {
	c.mu.Lock()
	c.state = Editing
	c.mu.Unlock()
}

// Reload replaces the record with the stored one and keeps the state.
// Without a loader it does nothing.
func (c *Controller) Reload(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.load == nil {
		return nil
	}
	fresh, err := c.load(ctx, c.rec.ProcessID)
	if err != nil {
		return err
	}
	c.rec = normalize(fresh)
	return nil
}

// SetField writes value at path. Only allowed while editing.
func (c *Controller) SetField(ctx context.Context, path string, value any) error {
	if path == "" {
		return fmt.Errorf("empty field path")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Editing {
		return ErrNotEditing
	}
	return c.commit(ctx, func(p *entity.Processo) {
		p.Set(path, value)
	})
}

// SetOutrosDetalhes replaces the free-text notes. Only allowed while editing.
func (c *Controller) SetOutrosDetalhes(ctx context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Editing {
		return ErrNotEditing
	}
	return c.commit(ctx, func(p *entity.Processo) {
		p.OutrosDetalhes = text
	})
}

// ToggleCheckbox flips a document checkbox and returns its new value.
// Checkboxes are not part of the edit panel, so any state is accepted.
func (c *Controller) ToggleCheckbox(ctx context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.schema.HasCheckbox(id) {
		return false, fmt.Errorf("%w: %s", ErrUnknownCheckbox, id)
	}
	err := c.commit(ctx, func(p *entity.Processo) {
		p.SelectedFields[id] = !p.SelectedFields[id]
	})
	if err != nil {
		return false, err
	}
	return c.rec.SelectedFields[id], nil
}

// Save fills empty defaultable fields, persists and returns to viewing.
func (c *Controller) Save(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.commit(ctx, func(p *entity.Processo) {
		p.Campos, _ = c.reg.ApplyDefaults(c.schema.ID, p.Campos)
	})
	if err != nil {
		return err
	}
	c.state = Viewing
	return nil
}

// commit applies change to the latest stored record, persists it and swaps
// it in. Writes made elsewhere since the session opened are kept. On error
// the session keeps the previous record. Caller holds mu.
func (c *Controller) commit(ctx context.Context, change func(p *entity.Processo)) error {
	base := c.rec
	if c.load != nil {
		fresh, err := c.load(ctx, c.rec.ProcessID)
		if err != nil {
			return fmt.Errorf("reload processo: %w", err)
		}
		base = fresh
	}
	next := normalize(base)
	change(next)

	if c.persist != nil {
		stored, err := c.persist(ctx, next)
		if err != nil {
			return err
		}
		if stored != nil {
			next = normalize(stored)
		}
	}
	c.rec = next
	if c.regenerate != nil {
		c.regenerate(next.ProcessID)
	}
	return nil
}
