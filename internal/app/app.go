// Package app wires the ranking engine's components from configuration.
// Both the API server and the CLI build their dependency graph through it.
package app

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tastemap/ranking-engine/internal/cache"
	"github.com/tastemap/ranking-engine/internal/config"
	"github.com/tastemap/ranking-engine/internal/expand"
	"github.com/tastemap/ranking-engine/internal/index"
	"github.com/tastemap/ranking-engine/internal/llm"
	"github.com/tastemap/ranking-engine/internal/observability"
	"github.com/tastemap/ranking-engine/internal/ranking"
	"github.com/tastemap/ranking-engine/internal/storage"
)

// App holds the wired component graph.
type App struct {
	Config      *config.Config
	Logger      *observability.Logger
	DB          *sql.DB
	Restaurants *storage.RestaurantRepository
	Cache       cache.Client
	Completer   llm.Completer
	Index       *index.Index
	Expander    *expand.Expander
	Engine      *ranking.Engine
}

// New builds the full component graph: database, repositories, cache, LLM
// client, index, expander, and ranking engine. The index starts empty; call
// RebuildIndex before serving queries.
func New(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*App, error) {
	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}

	if err := storage.Migrate(ctx, db, cfg.Database.Driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	repo := storage.NewRestaurantRepository(db, cfg.Database.Driver)

	cacheClient, err := newCache(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	completer := newCompleter(cfg, logger)

	idx := index.New(logger, repo)

	expander := expand.New(logger, cacheClient, completer, idx, expand.Config{
		MaxReturn:      cfg.Expander.MaxReturn,
		CandidateLimit: cfg.Expander.CandidateLimit,
		CacheTTL:       cfg.Expander.CacheTTL,
		CacheNamespace: cfg.Expander.CacheNamespace,
	})

	engine := ranking.NewEngine(logger, idx, expander, repo, ranking.Config{
		Weights: ranking.Weights{
			Match:     cfg.Ranking.MatchWeight,
			Total:     cfg.Ranking.TotalWeight,
			Review:    cfg.Ranking.ReviewWeight,
			Sentiment: cfg.Ranking.SentimentWeight,
		},
		TopN: cfg.Ranking.TopN,
	})

	return &App{
		Config:      cfg,
		Logger:      logger,
		DB:          db,
		Restaurants: repo,
		Cache:       cacheClient,
		Completer:   completer,
		Index:       idx,
		Expander:    expander,
		Engine:      engine,
	}, nil
}

// RebuildIndex rebuilds the keyword index from the store.
func (a *App) RebuildIndex(ctx context.Context) error {
	if err := a.Index.Rebuild(ctx); err != nil {
		return err
	}
	a.Logger.Info().Int("keywords", a.Index.Len()).Msg("Keyword index rebuilt")
	return nil
}

// Close releases the app's resources.
func (a *App) Close() error {
	var firstErr error
	if err := a.Cache.Close(); err != nil {
		firstErr = err
	}
	if err := a.DB.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func openDatabase(cfg *config.Config) (*sql.DB, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		db, err := sql.Open("sqlite3", cfg.Database.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}
		maxConns := cfg.Database.SQLite.MaxOpenConns
		if maxConns <= 0 {
			maxConns = 1
		}
		db.SetMaxOpenConns(maxConns)
		return db, nil

	case "postgres":
		db, err := sql.Open("postgres", cfg.Database.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres database: %w", err)
		}
		db.SetMaxOpenConns(cfg.Database.Postgres.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.Postgres.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Database.Postgres.ConnMaxLifetime)
		return db, nil

	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
}

func newCache(cfg *config.Config) (cache.Client, error) {
	if cfg.Cache.Driver == "redis" {
		client, err := cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			PoolSize: cfg.Cache.Redis.PoolSize,
			Prefix:   cfg.Cache.Redis.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("connect redis cache: %w", err)
		}
		return client, nil
	}
	return cache.NewMemoryClient(cfg.Cache.MaxEntries), nil
}

// newCompleter returns a live LLM client when a key is configured and the
// disabled stand-in otherwise, so expansion degrades to local search.
func newCompleter(cfg *config.Config, logger *observability.Logger) llm.Completer {
	if cfg.LLM.APIKey == "" {
		logger.Warn().Msg("No LLM API key configured, keyword expansion uses local fallback only")
		return llm.DisabledClient{}
	}

	client, err := llm.NewClient(llm.Config{
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("LLM client init failed, keyword expansion uses local fallback only")
		return llm.DisabledClient{}
	}
	return client
}
