package availability

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchLimit bounds in-flight resolutions when the caller does not.
const DefaultBatchLimit = 10

// Resolver resolves a single availability request.
type Resolver interface {
	ResolveAvailability(ctx context.Context, req Request, cfg CustomRateConfig) (BookabilityResult, error)
}

// ResolveAll resolves reqs with at most limit resolutions in flight.
// Results keep the input order. The first error cancels the remaining requests.
func ResolveAll(ctx context.Context, r Resolver, reqs []Request, cfg CustomRateConfig, limit int) ([]BookabilityResult, error) {
	if limit <= 0 {
		limit = DefaultBatchLimit
	}

	results := make([]BookabilityResult, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, req := range reqs {
		g.Go(func() error {
			res, err := r.ResolveAvailability(ctx, req, cfg)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
