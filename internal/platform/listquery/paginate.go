package listquery

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// CountFunc returns the number of rows matching the predicate.
type CountFunc func(ctx context.Context) (int, error)

// FetchFunc returns at most limit rows after skipping offset rows.
type FetchFunc[T any] func(ctx context.Context, limit, offset int) ([]T, error)

// Paginate validates q and runs count and fetch concurrently. Both calls
// run to completion; the first error is returned unchanged. count and
// fetch must be safe to call from separate goroutines.
func Paginate[T any](ctx context.Context, q Query, count CountFunc, fetch FetchFunc[T]) (*Page[T], error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var (
		g     errgroup.Group
		total int
		items []T
	)
	g.Go(func() error {
		n, err := count(ctx)
		if err != nil {
			return err
		}
		total = n
		return nil
	})
	g.Go(func() error {
		rows, err := fetch(ctx, q.PerPage, q.Offset())
		if err != nil {
			return err
		}
		items = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(items) > q.PerPage {
		items = items[:q.PerPage]
	}
	if items == nil {
		items = []T{}
	}
	return &Page[T]{Items: items, Total: total}, nil
}
