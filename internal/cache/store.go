package cache

import (
	"context"
	"time"
)

// Store is a get-or-compute cache with per-entry TTL.
type Store interface {
	GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func(context.Context) ([]byte, error)) ([]byte, bool, error)
	Close() error
}

// Instrumented reports every hit of the wrapped store to onHit.
type Instrumented struct {
	Store
	onHit func()
}

// WithHitCounter wraps s so that onHit runs on each cache hit.
func WithHitCounter(s Store, onHit func()) *Instrumented {
	return &Instrumented{Store: s, onHit: onHit}
}

// GetOrCompute delegates to the wrapped store.
func (i *Instrumented) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func(context.Context) ([]byte, error)) ([]byte, bool, error) {
	v, hit, err := i.Store.GetOrCompute(ctx, key, ttl, compute)
	if hit && i.onHit != nil {
		i.onHit()
	}
	return v, hit, err
}
