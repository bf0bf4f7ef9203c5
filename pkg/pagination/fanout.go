package pagination

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/pokedex-loader/pkg/logging"
	"golang.org/x/sync/errgroup"
)

// DefaultPageSize is the number of entries per listing page.
const DefaultPageSize = 24

// Offset returns the listing offset of a zero-based page index.
func Offset(pageIndex, pageSize int) int {
	if pageIndex < 0 || pageSize <= 0 {
		return 0
	}
	return pageIndex * pageSize
}

// ItemError reports which input of a fan-out failed.
type ItemError struct {
	Index int
	Err   error
}

// Error implements the error interface.
func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ItemError) Unwrap() error {
	return e.Err
}

// FanOut applies fn to every item concurrently, with at most maxConcurrency
// calls in flight (unbounded when maxConcurrency <= 0). Results keep the
// order of items. The first failure cancels the context passed to the
// remaining calls and is returned wrapped in *ItemError; no results are
// returned in that case.
func FanOut[T, R any](ctx context.Context, items []T, maxConcurrency int, fn func(context.Context, T) (R, error)) ([]R, error) {
	if len(items) == 0 {
		return []R{}, nil
	}

	logger := logging.NewLogger("pagination")
	start := time.Now()
	results := make([]R, len(items))

	g, gctx := errgroup.WithContext(ctx)
	if maxConcurrency > 0 {
		g.SetLimit(maxConcurrency)
	}

	for i, item := range items {
		g.Go(func() error {
			// Skip work that was queued before a sibling failed.
			if err := gctx.Err(); err != nil {
				return &ItemError{Index: i, Err: err}
			}

			r, err := fn(gctx, item)
			if err != nil {
				return &ItemError{Index: i, Err: err}
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Debug().
			Err(err).
			Int("items", len(items)).
			Dur("duration", time.Since(start)).
			Msg("Fan-out failed")
		return nil, err
	}

	logger.Debug().
		Int("items", len(items)).
		Int("max_concurrency", maxConcurrency).
		Dur("duration", time.Since(start)).
		Msg("Fan-out complete")

	return results, nil
}
