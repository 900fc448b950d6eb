package postgres

import (
	"context"
	"errors"
	"fmt"

	"akhlak-learning-service/internal/catalog"
	"akhlak-learning-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// CatalogLoader loads the newest catalog JSONB document from Postgres.
type CatalogLoader struct {
	pool *pgxpool.Pool
}

func NewCatalogLoader(pool *pgxpool.Pool) *CatalogLoader {
	return &CatalogLoader{pool: pool}
}

func (l *CatalogLoader) LoadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx,
		`SELECT data FROM catalogs ORDER BY published_at DESC, version DESC LIMIT 1`).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: no catalog published", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return catalog.Parse(raw)
}

// PublishCatalog stores a validated catalog as a new version. Re-publishing a
// version replaces its document.
func PublishCatalog(ctx context.Context, pool *pgxpool.Pool, c *catalog.Catalog) error {
	data, err := catalog.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	_, err = pool.Exec(ctx,
		`INSERT INTO catalogs (version, data, published_at) VALUES ($1, $2::jsonb, now())
		 ON CONFLICT (version) DO UPDATE SET data = EXCLUDED.data, published_at = now()`,
		c.Version(), string(data))
	if err != nil {
		return fmt.Errorf("publish catalog: %w", err)
	}
	return nil
}
