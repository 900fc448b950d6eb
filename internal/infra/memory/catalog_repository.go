package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"akhlak-learning-service/internal/catalog"
	"golang.org/x/sync/singleflight"
)

// CatalogLoader fetches the content catalog from a backing store (file, Postgres).
type CatalogLoader interface {
	LoadCatalog(ctx context.Context) (*catalog.Catalog, error)
}

// CatalogRepository caches the catalog. A zero TTL keeps the first load forever.
type CatalogRepository struct {
	loader CatalogLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	cached    *catalog.Catalog
	expiresAt time.Time
}

func NewCatalogRepository(loader CatalogLoader, ttl time.Duration) *CatalogRepository {
	return &CatalogRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CatalogRepository) GetCatalog(ctx context.Context) (*catalog.Catalog, error) {
	if c, ok := r.fresh(r.clock()); ok {
		return c, nil
	}

	result, err, _ := r.sf.Do("catalog", func() (interface{}, error) {
		now := r.clock()
		if c, ok := r.fresh(now); ok {
			return c, nil
		}

		c, err := r.loader.LoadCatalog(ctx)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cached = c
		r.expiresAt = now.Add(r.ttlWithJitter())
		r.mu.Unlock()
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*catalog.Catalog), nil
}

// Refresh loads the catalog from the loader regardless of the cache and
// replaces the cached copy. On error the cache is left as it was.
func (r *CatalogRepository) Refresh(ctx context.Context) (*catalog.Catalog, error) {
	c, err := r.loader.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.cached = c
	r.expiresAt = r.clock().Add(r.ttlWithJitter())
	r.mu.Unlock()
	return c, nil
}

func (r *CatalogRepository) fresh(now time.Time) (*catalog.Catalog, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cached == nil {
		return nil, false
	}
	if r.ttl <= 0 || r.expiresAt.After(now) {
		return r.cached, true
	}
	return nil, false
}

// StaticCatalogLoader serves a fixed catalog (useful for tests/demos).
type StaticCatalogLoader struct {
	catalog *catalog.Catalog
}

func NewStaticCatalogLoader(c *catalog.Catalog) *StaticCatalogLoader {
	return &StaticCatalogLoader{catalog: c}
}

func (l *StaticCatalogLoader) LoadCatalog(context.Context) (*catalog.Catalog, error) {
	return l.catalog, nil
}

// FileCatalogLoader parses and validates a catalog JSON file on each load.
type FileCatalogLoader struct {
	path string
}

func NewFileCatalogLoader(path string) *FileCatalogLoader {
	return &FileCatalogLoader{path: path}
}

func (l *FileCatalogLoader) LoadCatalog(context.Context) (*catalog.Catalog, error) {
	return catalog.LoadFile(l.path)
}

func (r *CatalogRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
