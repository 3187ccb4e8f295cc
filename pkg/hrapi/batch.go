package hrapi

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Result holds the outcome of one item of a batch.
type Result[R any] struct {
	Value R
	Err   error
}

// Batch runs fn over items in fixed-size groups: every item of a group is
// dispatched at once and the whole group is awaited before the next one
// starts. A failing item only marks its own Result. Items not started
// because ctx was cancelled get ctx.Err().
func Batch[T, R any](ctx context.Context, items []T, size int, fn func(context.Context, T) (R, error)) []Result[R] {
	if size <= 0 {
		size = 1
	}
	results := make([]Result[R], len(items))
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		if err := ctx.Err(); err != nil {
			for i := start; i < len(items); i++ {
				results[i].Err = err
			}
			return results
		}
		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				v, err := fn(ctx, items[i])
				results[i] = Result[R]{Value: v, Err: err}
				return nil
			})
		}
		_ = g.Wait()
	}
	return results
}
