package form

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/apoio-migrante/gestor-processos/internal/processo/entity"
	"github.com/apoio-migrante/gestor-processos/internal/processo/registry"
	"github.com/apoio-migrante/gestor-processos/internal/shared/cache"
)

// DefaultSessionTTL idle time after which an open session is dropped.
const DefaultSessionTTL = 30 * time.Minute

// Loader fetches the stored record a session starts from and rebases on.
type Loader func(ctx context.Context, processID string) (*entity.Processo, error)

// Sessions open form controllers keyed by process id. A session not used for
// the idle TTL is evicted; the next Get reloads it from the store.
type Sessions struct {
	mu         sync.Mutex
	reg        *registry.Registry
	load       Loader
	persist    Persister
	regenerate Regenerator
	ttl        time.Duration
	open       *cache.Memory[*Controller]
}

// NewSessions builds the session table. ttl <= 0 takes DefaultSessionTTL.
func NewSessions(reg *registry.Registry, load Loader, persist Persister, regenerate Regenerator, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{
		reg:        reg,
		load:       load,
		persist:    persist,
		regenerate: regenerate,
		ttl:        ttl,
		open:       cache.NewMemory[*Controller]("form-sessions", ttl, ttl/2, zap.NewNop()),
	}
}

// Get returns the open session for processID, loading the record on first use.
func (s *Sessions) Get(ctx context.Context, processID string) (*Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.open.Get(ctx, processID); ok {
		s.open.Set(ctx, processID, c, s.ttl)
		return c, nil
	}
	rec, err := s.load(ctx, processID)
	if err != nil {
		return nil, err
	}
	c := NewController(s.reg, rec, s.persist, s.regenerate)
	c.load = s.load
	s.open.Set(ctx, processID, c, s.ttl)
	return c, nil
}

// Refresh reloads an open session after the record was written outside it.
// Nothing happens when no session is open.
func (s *Sessions) Refresh(ctx context.Context, processID string) error {
	s.mu.Lock()
	c, ok := s.open.Get(ctx, processID)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return c.Reload(ctx)
}

// Close forgets the session; the next Get reloads from the store.
func (s *Sessions) Close(processID string) {
	s.mu.Lock()
	_ = s.open.Delete(context.Background(), processID)
	s.mu.Unlock()
}

// Len open sessions, expired ones included until the next sweep.
func (s *Sessions) Len() int {
	return s.open.Len()
}
