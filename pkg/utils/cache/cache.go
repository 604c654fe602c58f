package cache

import (
	"context"
	"errors"
)

var ErrCacheMiss = errors.New("cache miss")

type Cache[K comparable, V any] interface {
	Get(ctx context.Context, key K) (*V, error)
	Invalidate(ctx context.Context, key K)
	InvalidateAll(ctx context.Context)
}
