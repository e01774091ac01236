package dataflow

import "golang.org/x/sync/errgroup"

// Parallel runs fn once per item concurrently, one goroutine per item,
// exactly as the teacher's filters.go Parallel combinator does (it
// bounds concurrency with a worker count; here the correction loop's
// per-input fan-out is small and bounded by the number of declared
// inputs, so each input simply gets its own goroutine). This is the
// "data-parallel across worker threads" scheduling model of spec §5:
// within one goroutine, combinators run sequentially without locks;
// across goroutines, golang.org/x/sync/errgroup provides the same
// fan-out/fan-in join the teacher builds on top of for its Parallel filter.
func Parallel[T any](items []T, fn func(T) error) error {
	var g errgroup.Group
	for _, item := range items {
		item := item
		g.Go(func() error { return fn(item) })
	}
	return g.Wait()
}

// ParallelMap is Parallel's value-returning counterpart, used by the
// correction loop to compute each input's new `must` contribution
// concurrently and collect the results once all goroutines complete.
func ParallelMap[T, R any](items []T, fn func(T) (R, error)) ([]R, error) {
	results := make([]R, len(items))
	var g errgroup.Group
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			r, err := fn(item)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
