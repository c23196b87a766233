package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/apoio-migrante/gestor-processos/internal/config"
	"github.com/apoio-migrante/gestor-processos/internal/middleware"
	"github.com/apoio-migrante/gestor-processos/internal/processo/handler"
	"github.com/apoio-migrante/gestor-processos/internal/processo/service"
	"github.com/apoio-migrante/gestor-processos/internal/processo/sse"
	"github.com/apoio-migrante/gestor-processos/internal/shared/mail"
	"github.com/apoio-migrante/gestor-processos/internal/shared/notion"
	"github.com/apoio-migrante/gestor-processos/internal/shared/tracing"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadFrom(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting gestor-processos",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	tp, err := tracing.NewProvider(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("failed to init tracing: %w", err)
	}
	defer tp.Shutdown(context.Background())
	if tp.Enabled() {
		zapLogger.Info("Tracing enabled", zap.String("exporter", cfg.Tracing.Exporter))
	}

	reg, err := initRegistry(cfg.Server)
	if err != nil {
		return err
	}

	checks := map[string]handler.ReadyCheck{}
	store, closeStore, err := initStore(cfg, checks, zapLogger)
	if err != nil {
		return err
	}
	defer closeStore()

	searchCache, closeCache := initSearchCache(cfg, checks, zapLogger)
	defer closeCache()

	uploads, err := initStorage(ctx, cfg, zapLogger)
	if err != nil {
		return fmt.Errorf("failed to init storage: %w", err)
	}

	// a typed nil *notion.Client would defeat the service's nil check
	var notionClient service.NotionClient
	if cfg.Notion.Token != "" {
		notionClient = notion.NewClient(cfg.Notion)
	} else {
		zapLogger.Warn("NOTION_TOKEN not set, search endpoints disabled")
	}

	sender := mail.New(cfg.SMTP)
	if _, disabled := sender.(mail.Disabled); disabled {
		zapLogger.Warn("SMTP host not set, email sending disabled")
	}

	hub := sse.NewHub(zapLogger.Named("sse"))
	services := service.NewServices(service.Deps{
		Store:       store,
		Registry:    reg,
		Notion:      notionClient,
		SearchCache: searchCache,
		Search: service.SearchConfig{
			CacheTTL:      cfg.Cache.TTL,
			BranchTimeout: cfg.Search.BranchTimeout,
		},
		Sender:   sender,
		MailFrom: cfg.SMTP.From,
		Hub:      hub,
		FormTTL:  cfg.Server.FormSessionTTL,
		Logger:   zapLogger,
		Tracer:   otel.Tracer("gestor-processos"),
	})

	handlers := handler.NewHandlers(services, handler.Options{
		Storage:       uploads,
		MaxUploadSize: cfg.Storage.MaxSize,
		Version:       Version,
		Checks:        checks,
		Logger:        zapLogger,
	})

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS(""))
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/events"})))
	router.Use(middleware.BodyLimit(cfg.Storage.MaxSize + 1<<20))

	handler.RegisterRoutes(router, handlers)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: 0, // SSE connections stay open
	}

	serveErr := make(chan error, 1)
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		return fmt.Errorf("failed to start server: %w", err)
	}

	zapLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
	return nil
}
