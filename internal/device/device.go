// Package device simulates a SIMT execution substrate on the CPU: a launch
// spawns a grid of blocks, each block a fixed group of threads running the
// same kernel body. Threads within a block share a staging buffer and can
// synchronize at a block-wide barrier; blocks are independent and are
// scheduled over a worker pool.
package device

import (
	"fmt"
	"sync"

	"github.com/lattice-ml/lattice/internal/parallel"
)

// Dim3 represents 3D dimensions for a grid or a block.
type Dim3 struct {
	X, Y, Z int
}

// Volume returns the total number of positions in the dimension.
func (d Dim3) Volume() int {
	return d.X * d.Y * d.Z
}

// Config describes one kernel launch.
type Config struct {
	Grid      Dim3            // Number of blocks along each axis.
	Block     Dim3            // Number of threads per block along each axis.
	SharedMem int             // Block-scoped shared buffer length, in float32 elements.
	Workers   parallel.Config // Worker pool used to schedule blocks.
}

// Thread is the per-thread execution context handed to a kernel body.
// All threads of a launch run the same body, diverging only through
// bounds-guard branches.
type Thread struct {
	BlockIdx  Dim3
	ThreadIdx Dim3
	BlockDim  Dim3
	GridDim   Dim3

	shared  []float32
	barrier *barrier
}

// Shared returns the block-scoped shared staging buffer. All threads of one
// block observe the same buffer; a slot written by another thread must not
// be read without an intervening Sync.
func (t *Thread) Shared() []float32 {
	return t.shared
}

// Sync blocks until every thread in the block has reached the barrier.
// Every thread of the block must call Sync the same number of times;
// a kernel body must not return early between matched barriers.
func (t *Thread) Sync() {
	t.barrier.await()
}

// Launch runs body for every thread of every block in the grid and returns
// once all blocks have finished. The call is synchronous: there is no
// overlap between a launch and its caller, and no ordering between blocks
// or between threads of a block except at barriers.
func Launch(cfg Config, body func(t *Thread)) {
	blockVolume := cfg.Block.Volume()
	if blockVolume <= 0 || cfg.Grid.Volume() <= 0 {
		panic(fmt.Sprintf("device: invalid launch dimensions grid=%+v block=%+v", cfg.Grid, cfg.Block))
	}

	parallel.ForGrid(cfg.Grid.X, cfg.Grid.Y, cfg.Grid.Z, func(bx, by, bz int) {
		runBlock(cfg, Dim3{bx, by, bz}, blockVolume, body)
	}, cfg.Workers)
}

// runBlock executes one block: it allocates the block's shared buffer and
// barrier, spawns one goroutine per logical thread, and waits for all of
// them. The shared buffer is reclaimed with the block.
func runBlock(cfg Config, blockIdx Dim3, blockVolume int, body func(t *Thread)) {
	var shared []float32
	if cfg.SharedMem > 0 {
		shared = make([]float32, cfg.SharedMem)
	}
	bar := newBarrier(blockVolume)

	var wg sync.WaitGroup
	wg.Add(blockVolume)
	for tz := 0; tz < cfg.Block.Z; tz++ {
		for ty := 0; ty < cfg.Block.Y; ty++ {
			for tx := 0; tx < cfg.Block.X; tx++ {
				t := &Thread{
					BlockIdx:  blockIdx,
					ThreadIdx: Dim3{tx, ty, tz},
					BlockDim:  cfg.Block,
					GridDim:   cfg.Grid,
					shared:    shared,
					barrier:   bar,
				}
				go func() {
					defer wg.Done()
					body(t)
				}()
			}
		}
	}
	wg.Wait()
}
