package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"akhlak-learning-service/internal/catalog"
)

func TestCatalogRepositoryCaches(t *testing.T) {
	loader := &countingLoader{CatalogLoader: NewStaticCatalogLoader(catalog.Sample())}
	repo := NewCatalogRepository(loader, time.Minute)

	if _, err := repo.GetCatalog(context.Background()); err != nil {
		t.Fatalf("get catalog: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected loader once, got %d", loader.count())
	}

	if _, err := repo.GetCatalog(context.Background()); err != nil {
		t.Fatalf("get catalog 2: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.count())
	}
}

func TestCatalogRepositoryReloadsAfterTTL(t *testing.T) {
	loader := &countingLoader{CatalogLoader: NewStaticCatalogLoader(catalog.Sample())}
	repo := NewCatalogRepository(loader, time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	_, _ = repo.GetCatalog(context.Background())
	now = now.Add(2 * time.Minute)
	_, _ = repo.GetCatalog(context.Background())
	if loader.count() != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.count())
	}
}

func TestCatalogRepositoryZeroTTLLoadsOnce(t *testing.T) {
	loader := &countingLoader{CatalogLoader: NewStaticCatalogLoader(catalog.Sample())}
	repo := NewCatalogRepository(loader, 0)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.GetCatalog(context.Background()); err != nil {
				t.Errorf("get catalog: %v", err)
			}
		}()
	}
	wg.Wait()
	_, _ = repo.GetCatalog(context.Background())
	if loader.count() != 1 {
		t.Fatalf("expected a single load, got %d", loader.count())
	}
}

type countingLoader struct {
	CatalogLoader
	mu    sync.Mutex
	calls int
}

func (l *countingLoader) LoadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.CatalogLoader.LoadCatalog(ctx)
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func TestCatalogRepositoryRefreshBypassesCache(t *testing.T) {
	loader := &countingLoader{CatalogLoader: NewStaticCatalogLoader(catalog.Sample())}
	repo := NewCatalogRepository(loader, 0)

	_, _ = repo.GetCatalog(context.Background())
	if _, err := repo.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if loader.count() != 2 {
		t.Fatalf("expected refresh to hit loader, calls %d", loader.count())
	}
	_, _ = repo.GetCatalog(context.Background())
	if loader.count() != 2 {
		t.Fatalf("expected refreshed copy cached, calls %d", loader.count())
	}
}
