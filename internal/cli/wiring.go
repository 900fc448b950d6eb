package cli

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"akhlak-learning-service/internal/app"
	"akhlak-learning-service/internal/catalog"
	"akhlak-learning-service/internal/config"
	"akhlak-learning-service/internal/infra/memory"
	pginfra "akhlak-learning-service/internal/infra/postgres"
	redisinfra "akhlak-learning-service/internal/infra/redis"
	"akhlak-learning-service/internal/infra/sqlite"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.uber.org/zap"
)

// catalogSource is a cached catalog repository that can be forced to reload
// from its loader.
type catalogSource interface {
	app.CatalogRepository
	Refresh(ctx context.Context) (*catalog.Catalog, error)
}

// backends holds the stores selected by config and the hooks to release them.
type backends struct {
	catalogs catalogSource
	sessions app.SessionRepository
	scores   app.ScoreStore
	closers  []func()
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openBackends(ctx context.Context, cfg config.Config, log *zap.Logger) (*backends, error) {
	b := &backends{}
	ok := false
	defer func() {
		if !ok {
			b.Close()
		}
	}()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { _ = redisClient.Close() })
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		var err error
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
	}

	var loader memory.CatalogLoader
	switch {
	case cfg.Catalog.Path != "":
		loader = memory.NewFileCatalogLoader(cfg.Catalog.Path)
	case pool != nil:
		loader = pginfra.NewCatalogLoader(pool)
	default:
		loader = memory.NewStaticCatalogLoader(catalog.Sample())
	}

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 0)
	if redisClient != nil {
		b.catalogs = redisinfra.NewCatalogRepository(redisClient, loader, catalogTTL)
	} else {
		b.catalogs = memory.NewCatalogRepository(loader, catalogTTL)
	}

	if redisClient != nil {
		b.sessions = redisinfra.NewSessionStore(redisClient, config.TTLDuration(cfg.Redis.TTL, 30*time.Minute))
	} else {
		b.sessions = memory.NewSessionStore()
	}

	switch cfg.Backend() {
	case config.BackendRedis:
		b.scores = redisinfra.NewScoreStore(redisClient)
	case config.BackendPostgres:
		db := openBun(cfg.Postgres.URL)
		b.closers = append(b.closers, func() { _ = db.Close() })
		b.scores = pginfra.NewScoreStore(db)
	case config.BackendSQLite:
		path := cfg.SQLite.Path
		if path == "" {
			path = "akhlak-scores.db"
		}
		store, err := sqlite.Open(ctx, path)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = store.Close() })
		b.scores = store
	default:
		b.scores = memory.NewScoreStore()
	}

	log.Info("backends ready",
		zap.String("leaderboard", cfg.Backend()),
		zap.Bool("redis", redisClient != nil),
		zap.Bool("postgres", pool != nil),
		zap.String("catalog_path", cfg.Catalog.Path),
	)
	ok = true
	return b, nil
}

func openBun(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}
