package service

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/apoio-migrante/gestor-processos/internal/shared/cache"
	"github.com/apoio-migrante/gestor-processos/internal/shared/notion"
)

const (
	DefaultSearchTTL     = 5 * time.Minute
	DefaultBranchTimeout = 10 * time.Second
)

var (
	ErrEmptyQuery     = errors.New("query is required")
	ErrNoDatabases    = errors.New("databaseIds is required")
	ErrNotionNotReady = errors.New("notion is not configured")
)

// NotionClient the part of the Notion API the search layer needs.
type NotionClient interface {
	QueryDatabase(ctx context.Context, dbID, query string) ([]notion.Page, error)
	GetPage(ctx context.Context, pageID string) (*notion.Page, error)
	TitleProperty() string
}

// SearchResult one matching client record.
type SearchResult struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	DatabaseID string         `json:"databaseId"`
	URL        string         `json:"url"`
	Properties map[string]any `json:"properties"`
}

// PageResult flattened Notion page.
type PageResult struct {
	ID         string         `json:"id"`
	URL        string         `json:"url"`
	Properties map[string]any `json:"properties"`
}

// SearchConfig tuning of the fan-out; zero values take the defaults.
type SearchConfig struct {
	CacheTTL      time.Duration
	BranchTimeout time.Duration
}

// SearchService queries several Notion databases in parallel and caches the
// merged hits.
type SearchService struct {
	notion        NotionClient
	cache         cache.Cache[[]SearchResult]
	ttl           time.Duration
	branchTimeout time.Duration
	logger        *zap.Logger
	tracer        trace.Tracer
}

func NewSearchService(client NotionClient, c cache.Cache[[]SearchResult], cfg SearchConfig, logger *zap.Logger, tracer trace.Tracer) *SearchService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultSearchTTL
	}
	if cfg.BranchTimeout <= 0 {
		cfg.BranchTimeout = DefaultBranchTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("noop")
	}
	return &SearchService{
		notion:        client,
		cache:         c,
		ttl:           cfg.CacheTTL,
		branchTimeout: cfg.BranchTimeout,
		logger:        logger,
		tracer:        tracer,
	}
}

// CacheKey query plus the sorted database ids, so the order of databaseIds
// in the request does not split the cache.
func CacheKey(query string, dbIDs []string) string {
	ids := append([]string(nil), dbIDs...)
	sort.Strings(ids)
	return query + "|" + strings.Join(ids, ",")
}

// Search returns the hits of every database in request order. A database that
// fails or exceeds the branch timeout contributes nothing; such partial
// results are returned but not cached.
func (s *SearchService) Search(ctx context.Context, query string, dbIDs []string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if len(dbIDs) == 0 {
		return nil, ErrNoDatabases
	}
	if s.notion == nil {
		return nil, ErrNotionNotReady
	}

	ctx, span := s.tracer.Start(ctx, "notion.search", trace.WithAttributes(
		attribute.String("search.query", query),
		attribute.Int("search.databases", len(dbIDs)),
	))
	defer span.End()

	key := CacheKey(query, dbIDs)
	if hits, ok := s.cache.Get(ctx, key); ok {
		span.SetAttributes(attribute.Bool("search.cache_hit", true))
		return cloneResults(hits), nil
	}

	branches := make([][]SearchResult, len(dbIDs))
	failed := make([]bool, len(dbIDs))
	var g errgroup.Group
	for i, dbID := range dbIDs {
		i, dbID := i, dbID
		g.Go(func() error {
			hits, err := s.queryBranch(ctx, dbID, query)
			if err != nil {
				failed[i] = true
				s.logger.Warn("notion query failed",
					zap.String("database", dbID),
					zap.String("query", query),
					zap.Error(err))
				return nil
			}
			branches[i] = hits
			return nil
		})
	}
	_ = g.Wait()

	results := make([]SearchResult, 0)
	complete := true
	for i, hits := range branches {
		results = append(results, hits...)
		if failed[i] {
			complete = false
		}
	}
	span.SetAttributes(attribute.Int("search.results", len(results)), attribute.Bool("search.partial", !complete))
	if complete {
		s.cache.Set(ctx, key, cloneResults(results), s.ttl)
	}
	return results, nil
}

// cloneResults copies hits and their property maps so a caller never shares
// them with the cache.
func cloneResults(hits []SearchResult) []SearchResult {
	out := make([]SearchResult, len(hits))
	for i, h := range hits {
		h.Properties = maps.Clone(h.Properties)
		for k, v := range h.Properties {
			if names, ok := v.([]string); ok {
				h.Properties[k] = slices.Clone(names)
			}
		}
		out[i] = h
	}
	return out
}

// queryBranch queries one database under its own timeout. A client that
// ignores cancellation is abandoned when the timeout fires.
func (s *SearchService) queryBranch(ctx context.Context, dbID, query string) ([]SearchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.branchTimeout)
	defer cancel()
	ctx, span := s.tracer.Start(ctx, "notion.query_database", trace.WithAttributes(attribute.String("notion.database", dbID)))
	defer span.End()

	type reply struct {
		pages []notion.Page
		err   error
	}
	ch := make(chan reply, 1)
	go func() {
		pages, err := s.notion.QueryDatabase(ctx, dbID, query)
		ch <- reply{pages, err}
	}()

	var r reply
	select {
	case r = <-ch:
	case <-ctx.Done():
		r.err = ctx.Err()
	}
	if r.err != nil {
		span.RecordError(r.err)
		span.SetStatus(codes.Error, r.err.Error())
		return nil, r.err
	}

	title := s.notion.TitleProperty()
	hits := make([]SearchResult, 0, len(r.pages))
	for _, p := range r.pages {
		hits = append(hits, SearchResult{
			ID:         p.ID,
			Name:       p.Title(title),
			DatabaseID: dbID,
			URL:        p.URL,
			Properties: notion.FlattenProperties(p.Properties),
		})
	}
	return hits, nil
}

// GetPage reads one page and flattens its properties.
func (s *SearchService) GetPage(ctx context.Context, pageID string) (*PageResult, error) {
	if s.notion == nil {
		return nil, ErrNotionNotReady
	}
	ctx, span := s.tracer.Start(ctx, "notion.get_page", trace.WithAttributes(attribute.String("notion.page", pageID)))
	defer span.End()

	page, err := s.notion.GetPage(ctx, pageID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("notion page read failed", zap.String("page", pageID), zap.Error(err))
		return nil, err
	}
	return &PageResult{
		ID:         page.ID,
		URL:        page.URL,
		Properties: notion.FlattenProperties(page.Properties),
	}, nil
}
