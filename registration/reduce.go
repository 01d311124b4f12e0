package registration

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// reduceChunkSize is the number of correspondences accumulated by a single
// task. Chunks only depend on the input length, so the summation order and
// the result do not depend on the number of CPUs.
const reduceChunkSize = 2048

// mapReduce splits [0, n) into chunks, runs fn on each chunk in parallel
// and merges the partial results in chunk order.
func mapReduce[T any](n int, fn func(begin, end int) T, merge func(a, b T) T) T {
	var zero T
	if n <= 0 {
		return zero
	}
	nChunks := (n + reduceChunkSize - 1) / reduceChunkSize
	if nChunks == 1 {
		return fn(0, n)
	}

	parts := make([]T, nChunks)
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < nChunks; i++ {
		g.Go(func() error {
			begin := i * reduceChunkSize
			end := begin + reduceChunkSize
			if end > n {
				end = n
			}
			parts[i] = fn(begin, end)
			return nil
		})
	}
	_ = g.Wait()

	out := parts[0]
	for _, p := range parts[1:] {
		out = merge(out, p)
	}
	return out
}
