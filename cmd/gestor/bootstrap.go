package main

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/apoio-migrante/gestor-processos/internal/config"
	"github.com/apoio-migrante/gestor-processos/internal/processo/handler"
	"github.com/apoio-migrante/gestor-processos/internal/processo/registry"
	"github.com/apoio-migrante/gestor-processos/internal/processo/repository"
	"github.com/apoio-migrante/gestor-processos/internal/processo/service"
	"github.com/apoio-migrante/gestor-processos/internal/shared/cache"
	"github.com/apoio-migrante/gestor-processos/internal/shared/storage"
)

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func initRegistry(cfg config.ServerConfig) (*registry.Registry, error) {
	if cfg.TiposFile == "" {
		return registry.New()
	}
	data, err := os.ReadFile(cfg.TiposFile)
	if err != nil {
		return nil, fmt.Errorf("read process types: %w", err)
	}
	return registry.Load(data)
}

// initStore opens the record store selected by store.driver and registers a
// readiness check for it.
func initStore(cfg *config.Config, checks map[string]handler.ReadyCheck, log *zap.Logger) (repository.Store, func(), error) {
	if cfg.Store.Driver != "postgres" {
		log.Info("using JSON file store", zap.String("path", cfg.Store.Path))
		return repository.NewJSONFileStore(cfg.Store.Path), func() {}, nil
	}

	db, err := initDatabase(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	store := repository.NewGormStore(db)
	if err := store.AutoMigrate(); err != nil {
		return nil, nil, fmt.Errorf("migrate processos: %w", err)
	}
	sqlDB, _ := db.DB()
	checks["postgres"] = func(ctx context.Context) error { return sqlDB.PingContext(ctx) }
	log.Info("using postgres store", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.DBName))
	return store, func() { sqlDB.Close() }, nil
}

func initSearchCache(cfg *config.Config, checks map[string]handler.ReadyCheck, log *zap.Logger) (cache.Cache[[]service.SearchResult], func()) {
	if cfg.Cache.Driver != "redis" {
		return cache.NewMemory[[]service.SearchResult]("notion-search", cfg.Cache.TTL, cache.DefaultCleanupInterval, log), func() {}
	}
	rdb := initRedis(cfg.Redis)
	checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	log.Info("using redis search cache", zap.String("addr", rdb.Options().Addr))
	return cache.NewRedis[[]service.SearchResult](rdb, cfg.Cache.Prefix, log), func() { rdb.Close() }
}

func initStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.Storage, error) {
	if cfg.Storage.Driver != "minio" {
		return storage.NewLocal(cfg.Storage.Dir), nil
	}
	m, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		return nil, err
	}
	if err := m.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	log.Info("using minio storage", zap.String("endpoint", cfg.MinIO.Endpoint), zap.String("bucket", cfg.MinIO.Bucket))
	return m, nil
}
