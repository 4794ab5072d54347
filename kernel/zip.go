package kernel

import (
	"github.com/lattice-ml/lattice/internal/device"
	"github.com/lattice-ml/lattice/tensor"
)

// ZipKernel combines two views elementwise. The output takes the broadcast
// shape of the operands; when out is nil it is allocated, otherwise its
// shape must equal the broadcast shape exactly.
type ZipKernel func(a, b, out *tensor.View) (*tensor.View, error)

// CompileZip specializes the elementwise zip kernel for fn. One logical
// thread per output position:
//
//	out[coord] = fn(a[broadcast_index(coord)], b[broadcast_index(coord)])
func (e *Engine) CompileZip(fn BinaryFn) ZipKernel {
	cfg := e.cfg
	return func(a, b, out *tensor.View) (*tensor.View, error) {
		if err := validateOperand(a); err != nil {
			return nil, err
		}
		if err := validateOperand(b); err != nil {
			return nil, err
		}
		outShape, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = tensor.Zeros(outShape)
		} else {
			if err := validateOutput(out); err != nil {
				return nil, err
			}
			if !out.Shape().Equal(outShape) {
				return nil, &tensor.ShapeMismatchError{A: outShape, B: out.Shape().Clone()}
			}
		}

		outStrides, outData := out.Strides(), out.Data()
		aShape, aStrides, aData := a.Shape(), a.Strides(), a.Data()
		bShape, bStrides, bData := b.Shape(), b.Strides(), b.Data()
		outRank, aRank, bRank := len(outShape), len(aShape), len(bShape)
		size := out.Size()

		device.Launch(device.Config{
			Grid:    device.Dim3{X: (size + cfg.ThreadsPerBlock - 1) / cfg.ThreadsPerBlock, Y: 1, Z: 1},
			Block:   device.Dim3{X: cfg.ThreadsPerBlock, Y: 1, Z: 1},
			Workers: cfg.Workers,
		}, func(t *device.Thread) {
			i := t.BlockIdx.X*t.BlockDim.X + t.ThreadIdx.X
			if i >= size {
				return
			}
			var outIdx, aIdx, bIdx [tensor.MaxDims]int
			tensor.ToIndex(i, outShape, outIdx[:outRank])
			tensor.BroadcastIndex(outIdx[:outRank], outShape, aShape, aIdx[:aRank])
			tensor.BroadcastIndex(outIdx[:outRank], outShape, bShape, bIdx[:bRank])
			av := aData[tensor.IndexToPosition(aIdx[:aRank], aStrides)]
			bv := bData[tensor.IndexToPosition(bIdx[:bRank], bStrides)]
			outData[tensor.IndexToPosition(outIdx[:outRank], outStrides)] = fn(av, bv)
		})

		return out, nil
	}
}
