package dataset

import (
	"context"
	"fmt"
)

// Each calls fn for every sample in index order and stops at the first error
func Each[T any](ctx context.Context, ds Dataset[T], fn func(i int, sample T) error) error {
	for i := 0; i < ds.Len(); i++ {
		sample, err := ds.At(ctx, i)
		if err != nil {
			return fmt.Errorf("sample %d: %w", i, err)
		}
		if err := fn(i, sample); err != nil {
			return err
		}
	}
	return nil
}

// Result is one prefetched sample
type Result[T any] struct {
	Index  int
	Sample T
	Err    error
}

// Prefetch loads samples on up to workers goroutines and delivers them in
// index order. The channel is closed after the last sample or once ctx is
// done; callers that stop reading early must cancel ctx.
func Prefetch[T any](ctx context.Context, ds Dataset[T], workers int) <-chan Result[T] {
	if workers < 1 {
		workers = 1
	}
	out := make(chan Result[T])

	// Each queued slot receives exactly one result, so the queue length
	// bounds the loads in flight while preserving order.
	queue := make(chan chan Result[T], workers)

	go func() {
		defer close(queue)
		for i := 0; i < ds.Len(); i++ {
			slot := make(chan Result[T], 1)
			select {
			case queue <- slot:
			case <-ctx.Done():
				return
			}
			go func(i int) {
				sample, err := ds.At(ctx, i)
				slot <- Result[T]{Index: i, Sample: sample, Err: err}
			}(i)
		}
	}()

	go func() {
		defer close(out)
		for slot := range queue {
			var res Result[T]
			select {
			case res = <-slot:
			case <-ctx.Done():
				return
			}
			select {
			case out <- res:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
