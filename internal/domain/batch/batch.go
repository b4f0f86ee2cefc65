// Package batch fans a set of writes out concurrently and folds the
// per-item outcomes into a single result.
package batch

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/okian/rivalry/pkg/metrics"
)

// ErrPartialBatch is wrapped by Result.Err when at least one item failed.
var ErrPartialBatch = errors.New("partial batch failure")

// Failure is one failed item.
type Failure struct {
	Index int
	Err   error
}

// Result summarises a batch.
type Result struct {
	Total    int
	Failures []Failure
}

// Err returns nil when every item succeeded, otherwise one error naming the
// failed and total counts and joining the item errors.
func (r Result) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failures)+1)
	errs = append(errs, fmt.Errorf("%w: %d of %d failed", ErrPartialBatch, len(r.Failures), r.Total))
	for _, f := range r.Failures {
		errs = append(errs, fmt.Errorf("item %d: %w", f.Index, f.Err))
	}
	return errors.Join(errs...)
}

type config struct {
	limit int
}

// Option configures Run.
type Option func(*config)

// WithLimit caps the number of items in flight. Zero or less means no cap.
func WithLimit(n int) Option {
	return func(c *config) { c.limit = n }
}

// Run calls fn for every item concurrently and waits for all of them. An item
// failure does not cancel the others and nothing is retried; a half-applied
// batch is reported, and the caller re-derives its write set before trying again.
func Run[T any](ctx context.Context, items []T, fn func(ctx context.Context, item T) error, opts ...Option) Result {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}

	errs := make([]error, len(items))
	var g errgroup.Group
	if cfg.limit > 0 {
		g.SetLimit(cfg.limit)
	}
	for i, item := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			errs[i] = fn(ctx, item)
			return nil
		})
	}
	_ = g.Wait()

	res := Result{Total: len(items)}
	for i, err := range errs {
		if err != nil {
			res.Failures = append(res.Failures, Failure{Index: i, Err: err})
		}
	}
	metrics.RecordBatch(res.Total, len(res.Failures))
	return res
}
