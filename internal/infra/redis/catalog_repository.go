package redis

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"akhlak-learning-service/internal/catalog"
	"akhlak-learning-service/internal/infra/memory"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const catalogKey = "catalog:document"

// CatalogRepository caches the catalog document in Redis so every instance
// serves the same version, and falls back to a loader on cache miss.
// The cached value is the JSON document; it is re-validated on read.
type CatalogRepository struct {
	client *redis.Client
	loader memory.CatalogLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewCatalogRepository(client *redis.Client, loader memory.CatalogLoader, ttl time.Duration) *CatalogRepository {
	return &CatalogRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CatalogRepository) GetCatalog(ctx context.Context) (*catalog.Catalog, error) {
	if c, ok := r.cached(ctx); ok {
		return c, nil
	}

	result, err, _ := r.sf.Do(catalogKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if c, ok := r.cached(ctx); ok {
			return c, nil
		}

		c, err := r.loader.LoadCatalog(ctx)
		if err != nil {
			return nil, err
		}

		payload, err := catalog.Marshal(c)
		if err == nil {
			// best-effort; a failed write only costs a reload next time
			_ = r.client.Set(ctx, catalogKey, payload, r.ttlWithJitter()).Err()
		}
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*catalog.Catalog), nil
}

// Refresh loads the catalog from the loader regardless of what Redis holds and
// overwrites the cached document. On error the cached document is left as it was.
func (r *CatalogRepository) Refresh(ctx context.Context) (*catalog.Catalog, error) {
	c, err := r.loader.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := catalog.Marshal(c)
	if err != nil {
		return nil, err
	}
	if err := r.client.Set(ctx, catalogKey, payload, r.ttlWithJitter()).Err(); err != nil {
		return nil, fmt.Errorf("cache catalog: %w", err)
	}
	return c, nil
}

// Invalidate drops the cached document so the next read reloads it.
func (r *CatalogRepository) Invalidate(ctx context.Context) error {
	return r.client.Del(ctx, catalogKey).Err()
}

func (r *CatalogRepository) cached(ctx context.Context) (*catalog.Catalog, bool) {
	raw, err := r.client.Get(ctx, catalogKey).Bytes()
	if err != nil || len(raw) == 0 {
		return nil, false
	}
	c, err := catalog.Parse(raw)
	if err != nil {
		return nil, false
	}
	return c, true
}

func (r *CatalogRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
