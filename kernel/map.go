package kernel

import (
	"github.com/lattice-ml/lattice/internal/device"
	"github.com/lattice-ml/lattice/tensor"
)

// MapKernel applies a unary scalar function elementwise. When out is nil a
// zero view of a's shape is allocated; otherwise a's shape must broadcast
// to out's shape. The filled output view is returned.
type MapKernel func(a, out *tensor.View) (*tensor.View, error)

// CompileMap specializes the elementwise map kernel for fn. The returned
// kernel launches one logical thread per output position:
//
//	out[coord] = fn(a[broadcast_index(coord)])
//
// Threads never communicate; each performs a single write to its own
// output slot.
func (e *Engine) CompileMap(fn UnaryFn) MapKernel {
	cfg := e.cfg
	return func(a, out *tensor.View) (*tensor.View, error) {
		if err := validateOperand(a); err != nil {
			return nil, err
		}
		if out == nil {
			out = tensor.Zeros(a.Shape())
		} else {
			if err := validateOutput(out); err != nil {
				return nil, err
			}
			result, err := tensor.BroadcastShapes(a.Shape(), out.Shape())
			if err != nil {
				return nil, err
			}
			if !result.Equal(out.Shape()) {
				return nil, &tensor.ShapeMismatchError{A: a.Shape().Clone(), B: out.Shape().Clone()}
			}
		}

		outShape, outStrides, outData := out.Shape(), out.Strides(), out.Data()
		aShape, aStrides, aData := a.Shape(), a.Strides(), a.Data()
		outRank, aRank := len(outShape), len(aShape)
		size := out.Size()

		device.Launch(device.Config{
			Grid:    device.Dim3{X: (size + cfg.ThreadsPerBlock - 1) / cfg.ThreadsPerBlock, Y: 1, Z: 1},
			Block:   device.Dim3{X: cfg.ThreadsPerBlock, Y: 1, Z: 1},
			Workers: cfg.Workers,
		}, func(t *device.Thread) {
			i := t.BlockIdx.X*t.BlockDim.X + t.ThreadIdx.X
			if i >= size {
				return // rounded-up launch granularity, not an error
			}
			var outIdx, aIdx [tensor.MaxDims]int
			tensor.ToIndex(i, outShape, outIdx[:outRank])
			tensor.BroadcastIndex(outIdx[:outRank], outShape, aShape, aIdx[:aRank])
			outData[tensor.IndexToPosition(outIdx[:outRank], outStrides)] =
				fn(aData[tensor.IndexToPosition(aIdx[:aRank], aStrides)])
		})

		return out, nil
	}
}
