package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"retailpos/sales/internal/client"
)

// mapCache is an in-process ProductCache for decorator tests.
type mapCache struct {
	mu      sync.Mutex
	entries map[string]*client.ProductSnapshot
	deletes []string
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]*client.ProductSnapshot)}
}

func (c *mapCache) Get(_ context.Context, key string) (*client.ProductSnapshot, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot, ok := c.entries[key]
	return snapshot, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value *client.ProductSnapshot, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	c.deletes = append(c.deletes, key)
	return nil
}

// countingSource wraps the local directory and counts catalog hits.
type countingSource struct {
	*client.LocalDirectory
	getCalls   int
	stockCalls int
}

func (s *countingSource) GetProduct(ctx context.Context, productID int64) (*client.ProductSnapshot, error) {
	s.getCalls++
	return s.LocalDirectory.GetProduct(ctx, productID)
}

func (s *countingSource) CheckStock(ctx context.Context, productID int64, qty int) (bool, error) {
	s.stockCalls++
	return s.LocalDirectory.CheckStock(ctx, productID, qty)
}

func TestGetProductServedFromCacheOnSecondHit(t *testing.T) {
	source := &countingSource{LocalDirectory: client.NewLocalDirectory()}
	lookup := NewCachingProductLookup(source, newMapCache(), time.Minute)
	ctx := context.Background()

	first, err := lookup.GetProduct(ctx, 1)
	if err != nil {
		t.Fatalf("first lookup failed: %v", err)
	}
	second, err := lookup.GetProduct(ctx, 1)
	if err != nil {
		t.Fatalf("second lookup failed: %v", err)
	}
	if source.getCalls != 1 {
		t.Fatalf("expected one catalog hit, got %d", source.getCalls)
	}
	if first.PriceCents != second.PriceCents || second.PriceCents != 5000 {
		t.Fatalf("cached snapshot diverged: %+v vs %+v", first, second)
	}
}

func TestCheckStockAlwaysHitsSource(t *testing.T) {
	source := &countingSource{LocalDirectory: client.NewLocalDirectory()}
	lookup := NewCachingProductLookup(source, newMapCache(), time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := lookup.CheckStock(ctx, 1, 2); err != nil {
			t.Fatalf("check stock failed: %v", err)
		}
	}
	if source.stockCalls != 3 {
		t.Fatalf("expected 3 stock calls, got %d", source.stockCalls)
	}
}

func TestAddStockInvalidatesCachedSnapshot(t *testing.T) {
	source := &countingSource{LocalDirectory: client.NewLocalDirectory()}
	mc := newMapCache()
	lookup := NewCachingProductLookup(source, mc, time.Minute)
	ctx := context.Background()

	if _, err := lookup.GetProduct(ctx, 1); err != nil {
		t.Fatalf("prime cache failed: %v", err)
	}
	if _, err := lookup.AddStock(ctx, 1, 5); err != nil {
		t.Fatalf("add stock failed: %v", err)
	}
	if len(mc.deletes) != 1 || mc.deletes[0] != productKey(1) {
		t.Fatalf("expected cached snapshot invalidated, deletes: %v", mc.deletes)
	}

	refreshed, err := lookup.GetProduct(ctx, 1)
	if err != nil {
		t.Fatalf("refresh lookup failed: %v", err)
	}
	if refreshed.StockQty != 125 {
		t.Fatalf("expected restocked snapshot qty 125, got %d", refreshed.StockQty)
	}
}

func TestNoopCacheNeverHits(t *testing.T) {
	source := &countingSource{LocalDirectory: client.NewLocalDirectory()}
	lookup := NewCachingProductLookup(source, NoopProductCache{}, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := lookup.GetProduct(ctx, 2); err != nil {
			t.Fatalf("lookup failed: %v", err)
		}
	}
	if source.getCalls != 2 {
		t.Fatalf("expected every lookup to reach the catalog, got %d calls", source.getCalls)
	}
}
