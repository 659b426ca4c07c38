package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.Equal(t, "gpt-3.5-turbo", cfg.LLM.Model)
	assert.Equal(t, 0.0, cfg.LLM.Temperature)
	assert.Equal(t, 150, cfg.LLM.MaxTokens)
	assert.Equal(t, 5, cfg.Expander.MaxReturn)
	assert.Equal(t, 50, cfg.Expander.CandidateLimit)
	assert.Equal(t, time.Hour, cfg.Expander.CacheTTL)
	assert.Equal(t, 10, cfg.Ranking.TopN)
	assert.Equal(t, 2.0, cfg.Ranking.MatchWeight)

	require.NoError(t, cfg.Validate())
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8090, cfg.Server.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	require.Error(t, err)
}

func TestLoadYAMLFile(t *testing.T) {
	content := `
server:
  port: 9999
database:
  driver: postgres
  postgres:
    dsn: postgres://localhost/ranking
ranking:
  top_n: 3
  match_weight: 5.0
expander:
  max_return: 7
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/ranking", cfg.DatabaseDSN())
	assert.Equal(t, 3, cfg.Ranking.TopN)
	assert.Equal(t, 5.0, cfg.Ranking.MatchWeight)
	assert.Equal(t, 7, cfg.Expander.MaxReturn)

	// Untouched sections keep their defaults.
	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.Equal(t, "gpt-3.5-turbo", cfg.LLM.Model)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GPT_MODEL", " gpt-4o-mini ")
	t.Setenv("GPT_KEYWORD_MAX_RETURN", "3")
	t.Setenv("GPT_KEYWORD_CACHE_TTL_SEC", "120")
	t.Setenv("DATABASE_URL", "sqlite:/tmp/test.db")
	t.Setenv("REDIS_URL", "redis://cache.internal:6380")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 3, cfg.Expander.MaxReturn)
	assert.Equal(t, 2*time.Minute, cfg.Expander.CacheTTL)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/test.db", cfg.Database.SQLite.Path)
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, "cache.internal:6380", cfg.Cache.Redis.Addr)
	assert.Equal(t, "warn", cfg.Observability.LogLevel)
}

func TestEnvOverridesPostgresURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://user:pass@db:5432/ranking")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://user:pass@db:5432/ranking", cfg.Database.Postgres.DSN)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad db driver", func(c *Config) { c.Database.Driver = "oracle" }},
		{"bad cache driver", func(c *Config) { c.Cache.Driver = "memcached" }},
		{"zero max return", func(c *Config) { c.Expander.MaxReturn = 0 }},
		{"zero top n", func(c *Config) { c.Ranking.TopN = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
