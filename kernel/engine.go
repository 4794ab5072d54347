package kernel

import (
	"fmt"

	"github.com/lattice-ml/lattice/internal/parallel"
	"github.com/lattice-ml/lattice/tensor"
)

// UnaryFn is a per-element scalar function applied by a map kernel.
type UnaryFn func(x float32) float32

// BinaryFn combines two scalars; zip kernels apply it per element pair and
// reduce kernels fold it over an axis (it is assumed associative there).
type BinaryFn func(a, b float32) float32

// Config carries the tuning constants of the engine. They are explicit
// call-time configuration rather than hidden globals so they can be tuned
// per target and per test without touching kernel logic.
type Config struct {
	// ThreadsPerBlock is the 1D launch granularity of map and zip kernels.
	// Thread counts are rounded up to a multiple of it; surplus threads
	// bounds-guard and do no work.
	ThreadsPerBlock int

	// ReduceBlockDim is the per-block reduction capacity: one block
	// collapses up to this many consecutive elements along the reduction
	// axis. Must be a power of two (the tree combine halves it each step).
	ReduceBlockDim int

	// MatmulTile is the square tile edge of the batched matmul kernel.
	// Each block stages two MatmulTile x MatmulTile tiles in shared memory.
	MatmulTile int

	// Workers schedules kernel blocks across CPU cores.
	Workers parallel.Config
}

// DefaultConfig mirrors the launch constants the engine was tuned with:
// 32 threads per elementwise block, 1024-wide reduction blocks, 32x32
// matmul tiles.
func DefaultConfig() Config {
	return Config{
		ThreadsPerBlock: 32,
		ReduceBlockDim:  1024,
		MatmulTile:      32,
		Workers:         parallel.DefaultConfig(),
	}
}

// Engine compiles scalar functions into launchable data-parallel kernels.
type Engine struct {
	cfg Config
}

// New creates an engine with the given tuning configuration.
func New(cfg Config) (*Engine, error) {
	if cfg.ThreadsPerBlock <= 0 {
		return nil, fmt.Errorf("kernel: ThreadsPerBlock must be positive, got %d", cfg.ThreadsPerBlock)
	}
	if cfg.ReduceBlockDim <= 0 || cfg.ReduceBlockDim&(cfg.ReduceBlockDim-1) != 0 {
		return nil, fmt.Errorf("kernel: ReduceBlockDim must be a positive power of two, got %d", cfg.ReduceBlockDim)
	}
	if cfg.MatmulTile <= 0 {
		return nil, fmt.Errorf("kernel: MatmulTile must be positive, got %d", cfg.MatmulTile)
	}
	return &Engine{cfg: cfg}, nil
}

// NewDefault creates an engine with DefaultConfig.
func NewDefault() *Engine {
	e, err := New(DefaultConfig())
	if err != nil {
		panic(err) // DefaultConfig is always valid
	}
	return e
}

// Config returns the engine's tuning configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// validateOperand checks the host-side launch preconditions common to all
// kernels: bounded rank and positive dimensions.
func validateOperand(v *tensor.View) error {
	return v.Shape().Validate()
}

// validateOutput additionally rejects output views with broadcast
// (stride-0) dimensions: every thread must own a disjoint output slot.
func validateOutput(v *tensor.View) error {
	if err := v.Shape().Validate(); err != nil {
		return err
	}
	for d, s := range v.Strides() {
		if s == 0 && v.Shape()[d] > 1 {
			return fmt.Errorf("kernel: output view has broadcast stride 0 on dimension %d of shape %v", d, v.Shape())
		}
	}
	return nil
}
