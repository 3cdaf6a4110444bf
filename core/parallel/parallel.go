// Package parallel fans row ranges out to worker goroutines.
//
// Every range is disjoint, so callers that write only to their own rows get
// results identical to a sequential loop.
package parallel

import (
	"runtime"
	"sync"
)

// DefaultThreshold is the row count below which ParallelizeWithThreshold stays sequential.
const DefaultThreshold = 1000

// Parallelize divides items into contiguous chunks and runs fn on each chunk
// in its own goroutine. workers <= 0 means runtime.NumCPU().
func Parallelize(items, workers int, fn func(start, end int)) {
	if items <= 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > items {
		workers = items
	}

	// ceiling division
	chunkSize := (items + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < items; start += chunkSize {
		end := start + chunkSize
		if end > items {
			end = items
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn(0, items) inline when items <= threshold,
// and Parallelize otherwise.
func ParallelizeWithThreshold(items, threshold, workers int, fn func(start, end int)) {
	if items <= threshold || workers == 1 {
		if items > 0 {
			fn(0, items)
		}
		return
	}
	Parallelize(items, workers, fn)
}
