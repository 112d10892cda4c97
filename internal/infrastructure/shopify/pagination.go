package shopify

import (
	"context"
	"iter"
	"time"
)

type page[T any] struct {
	items     []T
	hasNext   bool
	endCursor string
}

// paginate walks cursor pages lazily, pausing between pages to stay under the shop's rate limit.
// The sequence ends after the first error.
func paginate[T any](ctx context.Context, delay time.Duration, fetch func(ctx context.Context, after *string) (page[T], error)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		var after *string
		for {
			p, err := fetch(ctx, after)
			if err != nil {
				yield(zero, err)
				return
			}
			for _, item := range p.items {
				if !yield(item, nil) {
					return
				}
			}
			if !p.hasNext || p.endCursor == "" {
				return
			}
			cursor := p.endCursor
			after = &cursor

			if err := wait(ctx, delay); err != nil {
				yield(zero, err)
				return
			}
		}
	}
}

func wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
