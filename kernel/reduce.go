package kernel

import (
	"fmt"

	"github.com/lattice-ml/lattice/internal/device"
	"github.com/lattice-ml/lattice/tensor"
)

// ReduceKernel folds a view along one axis. The result shape keeps every
// other dimension and resizes the reduced axis to
// ceil(axis / ReduceBlockDim): one launch collapses at most ReduceBlockDim
// consecutive elements per output position, so an axis longer than that
// yields a PARTIAL reduction and the caller re-invokes the kernel on the
// result (see ReduceFull). The chunking bounds shared-memory usage per
// block and is part of the contract.
type ReduceKernel func(a *tensor.View, dim int) (*tensor.View, error)

// CompileReduce specializes the tree-reduction kernel for fn with the given
// identity value. fn is assumed associative; the combine order is a binary
// tree fixed by thread index, so results are deterministic and reproducible
// (though they may round differently from a sequential left-to-right fold).
func (e *Engine) CompileReduce(fn BinaryFn, identity float32) ReduceKernel {
	cfg := e.cfg
	blockDim := cfg.ReduceBlockDim
	return func(a *tensor.View, dim int) (*tensor.View, error) {
		if err := validateOperand(a); err != nil {
			return nil, err
		}
		rank := len(a.Shape())
		if dim < 0 {
			dim += rank
		}
		if dim < 0 || dim >= rank {
			return nil, fmt.Errorf("kernel: reduce dimension %d out of range for rank %d", dim, rank)
		}

		aShape, aStrides, aData := a.Shape(), a.Strides(), a.Data()
		axis := aShape[dim]

		outShape := aShape.Clone()
		outShape[dim] = (axis + blockDim - 1) / blockDim
		out := tensor.Zeros(outShape)
		outStrides, outData := out.Strides(), out.Data()

		// One block per output position; each block collapses one chunk of
		// up to blockDim elements along the reduction axis into one scalar.
		device.Launch(device.Config{
			Grid:      device.Dim3{X: out.Size(), Y: 1, Z: 1},
			Block:     device.Dim3{X: blockDim, Y: 1, Z: 1},
			SharedMem: blockDim,
			Workers:   cfg.Workers,
		}, func(t *device.Thread) {
			cache := t.Shared()
			outPos := t.BlockIdx.X
			pos := t.ThreadIdx.X

			var outIdx, aIdx [tensor.MaxDims]int
			tensor.ToIndex(outPos, outShape, outIdx[:rank])
			copy(aIdx[:rank], outIdx[:rank])
			aIdx[dim] = outIdx[dim]*blockDim + pos

			// Out-of-bound lanes stage the identity so the tree combine can
			// run over the full block without divergence at the barriers.
			cache[pos] = identity
			if aIdx[dim] < axis {
				cache[pos] = aData[tensor.IndexToPosition(aIdx[:rank], aStrides)]
			}
			t.Sync()

			for step := 1; step < blockDim; step *= 2 {
				if pos%(2*step) == 0 {
					cache[pos] = fn(cache[pos], cache[pos+step])
				}
				t.Sync()
			}

			if pos == 0 {
				outData[tensor.IndexToPosition(outIdx[:rank], outStrides)] = cache[0]
			}
		})

		return out, nil
	}
}

// ReduceFull re-invokes kernel until the reduced axis collapses to length 1.
// It packages the standard caller-side loop over partial reductions; each
// intermediate launch still runs the chunked kernel contract.
func ReduceFull(kernel ReduceKernel, a *tensor.View, dim int) (*tensor.View, error) {
	if dim < 0 {
		dim += len(a.Shape())
	}
	out, err := kernel(a, dim)
	if err != nil {
		return nil, err
	}
	for out.Shape()[dim] > 1 {
		out, err = kernel(out, dim)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
