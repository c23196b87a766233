package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/apoio-migrante/gestor-processos/internal/shared/mail"
	"github.com/apoio-migrante/gestor-processos/internal/shared/notion"
	"github.com/apoio-migrante/gestor-processos/internal/shared/storage"
	"github.com/apoio-migrante/gestor-processos/internal/shared/tracing"
)

type Config struct {
	Server   ServerConfig        `mapstructure:"server"`
	Log      LogConfig           `mapstructure:"log"`
	Store    StoreConfig         `mapstructure:"store"`
	Database DatabaseConfig      `mapstructure:"database"`
	Cache    CacheConfig         `mapstructure:"cache"`
	Redis    RedisConfig         `mapstructure:"redis"`
	Notion   notion.Config       `mapstructure:"notion"`
	Search   SearchConfig        `mapstructure:"search"`
	SMTP     mail.Config         `mapstructure:"smtp"`
	Storage  StorageConfig       `mapstructure:"storage"`
	MinIO    storage.MinIOConfig `mapstructure:"minio"`
	Tracing  tracing.Config      `mapstructure:"tracing"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// TiposFile optional YAML overriding the built-in process types.
	TiposFile string `mapstructure:"tipos_file"`
	// FormSessionTTL idle time before an open form session is dropped.
	FormSessionTTL time.Duration `mapstructure:"form_session_ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// StoreConfig selects where process records live: "json" or "postgres".
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=Europe/Lisbon",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// CacheConfig backend of the search cache: "memory" or "redis".
type CacheConfig struct {
	Driver string        `mapstructure:"driver"`
	TTL    time.Duration `mapstructure:"ttl"`
	Prefix string        `mapstructure:"prefix"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type SearchConfig struct {
	BranchTimeout time.Duration `mapstructure:"branch_timeout"`
}

// StorageConfig backend of uploaded documents: "local" or "minio".
type StorageConfig struct {
	Driver  string `mapstructure:"driver"`
	Dir     string `mapstructure:"dir"`
	MaxSize int64  `mapstructure:"max_size"`
}

// Load reads .env, configs/config.yaml and the environment, in increasing
// priority.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom is Load with an explicit config file; an empty path searches
// ./configs and the working directory.
func LoadFrom(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvVariables(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unknown driver names.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "json", "postgres":
	default:
		return fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver)
	}
	switch c.Cache.Driver {
	case "memory", "redis":
	default:
		return fmt.Errorf("cache.driver: unknown driver %q", c.Cache.Driver)
	}
	switch c.Storage.Driver {
	case "local", "minio":
	default:
		return fmt.Errorf("storage.driver: unknown driver %q", c.Storage.Driver)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.form_session_ttl", 30*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("store.driver", "json")
	v.SetDefault("store.path", "data/processos.json")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "gestor")
	v.SetDefault("database.dbname", "gestor")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.prefix", "gestor:notion-search:")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("notion.version", notion.DefaultVersion)
	v.SetDefault("notion.title_property", notion.DefaultTitleProperty)
	v.SetDefault("notion.timeout", 30*time.Second)
	v.SetDefault("search.branch_timeout", 10*time.Second)

	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.tls", "mandatory")
	v.SetDefault("smtp.timeout", 30*time.Second)

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.dir", "uploads")
	v.SetDefault("storage.max_size", 20<<20)

	v.SetDefault("minio.bucket", "documentos")
	v.SetDefault("minio.region", "us-east-1")

	v.SetDefault("tracing.exporter", "none")
	v.SetDefault("tracing.sample_rate", 1.0)
	v.SetDefault("tracing.service_name", "gestor-processos")
}

func bindEnvVariables(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.mode", "GIN_MODE")

	// Database
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Notion
	v.BindEnv("notion.token", "NOTION_TOKEN", "NOTION_API_KEY")

	// SMTP
	v.BindEnv("smtp.host", "SMTP_HOST")
	v.BindEnv("smtp.port", "SMTP_PORT")
	v.BindEnv("smtp.username", "SMTP_USER")
	v.BindEnv("smtp.password", "SMTP_PASS")
	v.BindEnv("smtp.from", "SMTP_FROM")

	// MinIO
	v.BindEnv("minio.endpoint", "MINIO_ENDPOINT")
	v.BindEnv("minio.access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("minio.secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("minio.bucket", "MINIO_BUCKET")
}
