// Package parallel provides a small data-parallel helper used by
// sampling-based uncertainty propagation, where the work is embarrassingly
// parallel across sample draws.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize divides items across CPU cores and runs fn for each contiguous
// range [start, end). fn must not share mutable state across ranges.
func Parallelize(items int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}

	// Ceiling division so every item is covered.
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}
