package cache

import (
	"context"
	"fmt"
	"time"

	"retailpos/sales/internal/client"
)

// CachingProductLookup decorates a ProductLookup with snapshot caching. Only
// GetProduct is cached; stock checks and restocks always go to the source,
// and a restock invalidates the cached snapshot since its stock figure is
// now stale.
type CachingProductLookup struct {
	source client.ProductLookup
	cache  ProductCache
	ttl    time.Duration
}

func NewCachingProductLookup(source client.ProductLookup, c ProductCache, ttl time.Duration) *CachingProductLookup {
	return &CachingProductLookup{source: source, cache: c, ttl: ttl}
}

func productKey(productID int64) string {
	return fmt.Sprintf("product:snapshot:%d", productID)
}

func (l *CachingProductLookup) GetProduct(ctx context.Context, productID int64) (*client.ProductSnapshot, error) {
	key := productKey(productID)
	if snapshot, ok, err := l.cache.Get(ctx, key); err == nil && ok {
		return snapshot, nil
	}

	snapshot, err := l.source.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	// Cache failures are not the caller's problem.
	_ = l.cache.Set(ctx, key, snapshot, l.ttl)
	return snapshot, nil
}

func (l *CachingProductLookup) CheckStock(ctx context.Context, productID int64, qty int) (bool, error) {
	return l.source.CheckStock(ctx, productID, qty)
}

func (l *CachingProductLookup) AddStock(ctx context.Context, productID int64, qty int) (int, error) {
	stockQty, err := l.source.AddStock(ctx, productID, qty)
	if err != nil {
		return 0, err
	}
	_ = l.cache.Delete(ctx, productKey(productID))
	return stockQty, nil
}
