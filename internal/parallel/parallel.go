// Package parallel provides worker-pool loop helpers used to schedule
// kernel blocks across CPU cores.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:    n > 1,
		NumWorkers: n,
		// Blocks are coarse work units, so a small chunk already amortizes
		// goroutine overhead.
		MinChunkSize: 2,
	}
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is too small.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || n < cfg.MinChunkSize {
		// Sequential fallback.
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// ForGrid executes f(x, y, z) over a 3D iteration space, linearized with x
// fastest. This matches the block launch order of a 3D kernel grid.
func ForGrid(nx, ny, nz int, f func(x, y, z int), cfg Config) {
	n := nx * ny * nz
	For(n, func(k int) {
		x := k % nx
		y := (k / nx) % ny
		z := k / (nx * ny)
		f(x, y, z)
	}, cfg)
}
