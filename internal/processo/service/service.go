package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/apoio-migrante/gestor-processos/internal/processo/form"
	"github.com/apoio-migrante/gestor-processos/internal/processo/registry"
	"github.com/apoio-migrante/gestor-processos/internal/processo/repository"
	"github.com/apoio-migrante/gestor-processos/internal/processo/sse"
	"github.com/apoio-migrante/gestor-processos/internal/shared/cache"
	"github.com/apoio-migrante/gestor-processos/internal/shared/mail"
)

// Services wired service layer
type Services struct {
	Processo *ProcessoService
	Search   *SearchService
	Forms    *form.Sessions
	Events   *sse.Hub
}

// Deps everything the services are built from. Notion may be nil when no
// token is configured.
type Deps struct {
	Store       repository.Store
	Registry    *registry.Registry
	Notion      NotionClient
	SearchCache cache.Cache[[]SearchResult]
	Search      SearchConfig
	Sender      mail.Sender
	MailFrom    string
	Hub         *sse.Hub
	// FormTTL idle time before a form session is dropped; zero takes the default.
	FormTTL time.Duration
	Logger  *zap.Logger
	Tracer  trace.Tracer
}

// NewServices builds the services; missing hub and search cache get in-memory defaults.
func NewServices(d Deps) *Services {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Hub == nil {
		d.Hub = sse.NewHub(d.Logger)
	}
	if d.SearchCache == nil {
		d.SearchCache = cache.NewMemory[[]SearchResult]("notion-search", DefaultSearchTTL, cache.DefaultCleanupInterval, d.Logger)
	}

	processo := NewProcessoService(d.Store, d.Registry, d.Sender, d.Hub, d.MailFrom, d.Logger.Named("processo"))
	forms := form.NewSessions(d.Registry, processo.Get, processo.Persist, d.Hub.PublishRegenerate, d.FormTTL)
	formLogger := d.Logger.Named("form")
	processo.OnWrite(func(ctx context.Context, id string) {
		if err := forms.Refresh(ctx, id); err != nil {
			formLogger.Warn("form session refresh failed, closing it", zap.String("processId", id), zap.Error(err))
			forms.Close(id)
		}
	})
	return &Services{
		Processo: processo,
		Search:   NewSearchService(d.Notion, d.SearchCache, d.Search, d.Logger.Named("search"), d.Tracer),
		Forms:    forms,
		Events:   d.Hub,
	}
}
