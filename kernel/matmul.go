package kernel

import (
	"fmt"

	"github.com/lattice-ml/lattice/internal/device"
	"github.com/lattice-ml/lattice/tensor"
)

// MatMulKernel multiplies two batched matrices shaped (batch, M, K) and
// (batch, K, N) into (batch, M, N). Size-1 batches broadcast across the
// other operand's batch count. 2D operands get an implicit batch of 1; when
// both operands are 2D the result drops the batch dimension again.
type MatMulKernel func(a, b *tensor.View) (*tensor.View, error)

// CompileMatMul builds the tiled batched matmul kernel. Each block owns one
// (row-tile, col-tile) pair of one output batch; threads cooperatively
// stage square tiles of both operands in shared memory, zero-padding past
// the true M/N/K bounds, and accumulate partial dot products between
// barriers.
func (e *Engine) CompileMatMul() MatMulKernel {
	return func(a, b *tensor.View) (*tensor.View, error) {
		if err := validateOperand(a); err != nil {
			return nil, err
		}
		if err := validateOperand(b); err != nil {
			return nil, err
		}

		a3, b3, both2D, err := normalizeMatmulRank(a, b)
		if err != nil {
			return nil, err
		}

		aShape, bShape := a3.Shape(), b3.Shape()
		if aShape[2] != bShape[1] {
			return nil, &MatmulDimensionError{A: a.Shape().Clone(), B: b.Shape().Clone()}
		}

		// Batch dimensions broadcast: equal, or one of them 1.
		batchShape, err := tensor.BroadcastShapes(aShape[:1], bShape[:1])
		if err != nil {
			return nil, &tensor.ShapeMismatchError{A: a.Shape().Clone(), B: b.Shape().Clone()}
		}

		batch := batchShape[0]
		m, n := aShape[1], bShape[2]
		out := tensor.Zeros(tensor.Shape{batch, m, n})

		e.launchMatmul(out, a3, b3)

		if both2D {
			return out.Reshape(tensor.Shape{m, n})
		}
		return out, nil
	}
}

// normalizeMatmulRank lifts 2D operands to a single implicit batch and
// rejects ranks other than 2 or 3. It reports whether both operands were
// originally 2D.
func normalizeMatmulRank(a, b *tensor.View) (a3, b3 *tensor.View, both2D bool, err error) {
	lift := func(v *tensor.View) (*tensor.View, error) {
		shape := v.Shape()
		switch len(shape) {
		case 3:
			return v, nil
		case 2:
			if !v.IsContiguous() {
				return nil, fmt.Errorf("kernel: 2D matmul operand with strides %v must be contiguous", v.Strides())
			}
			return v.Reshape(tensor.Shape{1, shape[0], shape[1]})
		default:
			return nil, fmt.Errorf("kernel: matmul operand must be 2D or 3D, got rank %d", len(shape))
		}
	}

	a3, err = lift(a)
	if err != nil {
		return nil, nil, false, err
	}
	b3, err = lift(b)
	if err != nil {
		return nil, nil, false, err
	}
	both2D = len(a.Shape()) == 2 && len(b.Shape()) == 2
	return a3, b3, both2D, nil
}

// launchMatmul runs the tiled kernel over pre-validated 3D views.
func (e *Engine) launchMatmul(out, a, b *tensor.View) {
	tile := e.cfg.MatmulTile

	outShape, outStrides, outData := out.Shape(), out.Strides(), out.Data()
	aShape, aStrides, aData := a.Shape(), a.Strides(), a.Data()
	bShape, bStrides, bData := b.Shape(), b.Strides(), b.Data()

	// A size-1 batch aliases one matrix across every output batch.
	aBatchStride := 0
	if aShape[0] > 1 {
		aBatchStride = aStrides[0]
	}
	bBatchStride := 0
	if bShape[0] > 1 {
		bBatchStride = bStrides[0]
	}

	m, k, n := outShape[1], aShape[2], outShape[2]

	device.Launch(device.Config{
		Grid: device.Dim3{
			X: (m + tile - 1) / tile,
			Y: (n + tile - 1) / tile,
			Z: outShape[0],
		},
		Block:     device.Dim3{X: tile, Y: tile, Z: 1},
		SharedMem: 2 * tile * tile,
		Workers:   e.cfg.Workers,
	}, func(t *device.Thread) {
		shared := t.Shared()
		aTile := shared[:tile*tile]
		bTile := shared[tile*tile:]

		batch := t.BlockIdx.Z
		i := t.BlockIdx.X*t.BlockDim.X + t.ThreadIdx.X // output row
		j := t.BlockIdx.Y*t.BlockDim.Y + t.ThreadIdx.Y // output column
		pi := t.ThreadIdx.X
		pj := t.ThreadIdx.Y

		var accum float32
		for kk := 0; kk < k; kk += tile {
			// Cooperative tile load; positions past the true bounds stage
			// 0.0 so tail tiles cannot corrupt the accumulation.
			if i < m && kk+pj < k {
				aTile[pi*tile+pj] = aData[aBatchStride*batch+aStrides[1]*i+aStrides[2]*(kk+pj)]
			} else {
				aTile[pi*tile+pj] = 0
			}
			if j < n && kk+pi < k {
				bTile[pi*tile+pj] = bData[bBatchStride*batch+bStrides[1]*(kk+pi)+bStrides[2]*j]
			} else {
				bTile[pi*tile+pj] = 0
			}
			t.Sync()

			for kt := 0; kt < tile; kt++ {
				if kk+kt < k {
					accum += aTile[pi*tile+kt] * bTile[kt*tile+pj]
				}
			}
			// The tile buffers are rewritten next chunk; hold every thread
			// here until all have finished reading them.
			t.Sync()
		}

		if batch < outShape[0] && i < m && j < n {
			outData[outStrides[0]*batch+outStrides[1]*i+outStrides[2]*j] = accum
		}
	})
}
