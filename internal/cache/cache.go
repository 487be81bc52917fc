package cache

import (
	"context"
	"time"

	"retailpos/sales/internal/client"
)

// ProductCache holds short-lived product snapshots so repeated line-item
// admissions against the same product do not hammer the catalog service.
type ProductCache interface {
	Get(ctx context.Context, key string) (*client.ProductSnapshot, bool, error)
	Set(ctx context.Context, key string, value *client.ProductSnapshot, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type NoopProductCache struct{}

func (NoopProductCache) Get(_ context.Context, _ string) (*client.ProductSnapshot, bool, error) {
	return nil, false, nil
}

func (NoopProductCache) Set(_ context.Context, _ string, _ *client.ProductSnapshot, _ time.Duration) error {
	return nil
}

func (NoopProductCache) Delete(_ context.Context, _ string) error {
	return nil
}
