// Package parallel provides a chunked parallel-for used by the CPU kernels.
package parallel

import (
	"runtime"
	"sync"
)

// For splits [0, n) into contiguous chunks and runs fn(lo, hi) on each
// chunk from its own goroutine, blocking until all chunks finish. When n
// is below minChunk the loop runs inline on the calling goroutine, so
// small kernels pay no scheduling cost.
func For(n, minChunk int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	workers := runtime.GOMAXPROCS(0)
	if minChunk < 1 {
		minChunk = 1
	}
	if workers == 1 || n <= minChunk {
		fn(0, n)
		return
	}
	if max := (n + minChunk - 1) / minChunk; workers > max {
		workers = max
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			fn(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}
