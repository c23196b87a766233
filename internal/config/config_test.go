package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "json", cfg.Store.Driver)
	assert.Equal(t, "data/processos.json", cfg.Store.Path)
	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 10*time.Second, cfg.Search.BranchTimeout)
	assert.Equal(t, "2022-06-28", cfg.Notion.Version)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.False(t, cfg.Tracing.Enabled)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
store:
  driver: postgres
cache:
  driver: redis
  ttl: 1m
smtp:
  host: smtp.example.org
`)
	t.Setenv("NOTION_TOKEN", "secret_abc")
	t.Setenv("SMTP_PASS", "pw")
	t.Setenv("DB_HOST", "db.internal")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "secret_abc", cfg.Notion.Token)
	assert.Equal(t, "smtp.example.org", cfg.SMTP.Host)
	assert.Equal(t, "pw", cfg.SMTP.Password)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	path := writeConfig(t, "store:\n  driver: mongo\n")
	_, err := LoadFrom(path)
	assert.ErrorContains(t, err, "store.driver")
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: 5432, User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	assert.Contains(t, d.DSN(), "host=h port=5432 user=u password=p dbname=n sslmode=disable")
}

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
