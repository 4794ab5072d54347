//go:build windows

package webgpu

import (
	"fmt"
	"math"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/lattice-ml/lattice/kernel"
	"github.com/lattice-ml/lattice/tensor"
)

// metaU32 packs ints into the u32 meta buffer layout the shaders expect.
func metaU32(values ...[]int) []uint32 {
	n := 0
	for _, v := range values {
		n += len(v)
	}
	out := make([]uint32, 0, n)
	for _, v := range values {
		for _, x := range v {
			//nolint:gosec // G115: shapes, strides and sizes are non-negative
			out = append(out, uint32(x))
		}
	}
	return out
}

// CompileMap returns a GPU map kernel for a registered op. The op's WGSL
// expression is compiled into the shader once and cached under the op name.
func (b *Backend) CompileMap(op kernel.UnaryOp) kernel.MapKernel {
	name := "map_" + op.Name
	code := b.mapShader(op.Expr)
	return func(a, out *tensor.View) (*tensor.View, error) {
		if err := a.Shape().Validate(); err != nil {
			return nil, err
		}
		if out == nil {
			out = tensor.Zeros(a.Shape())
		} else {
			result, err := tensor.BroadcastShapes(a.Shape(), out.Shape())
			if err != nil {
				return nil, err
			}
			if !result.Equal(out.Shape()) {
				return nil, &tensor.ShapeMismatchError{A: a.Shape().Clone(), B: out.Shape().Clone()}
			}
		}

		meta := metaU32(
			[]int{out.Size(), len(out.Shape()), len(a.Shape())},
			out.Shape(), out.Strides(),
			a.Shape(), a.Strides(),
		)

		inBuf := b.createBuffer(float32Bytes(a.Data()), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
		defer inBuf.Release()
		outBuf := b.createStorageBuffer(uint64(len(out.Data()) * 4))
		defer outBuf.Release()
		metaBuf := b.createBuffer(uint32Bytes(meta), wgpu.BufferUsageStorage)
		defer metaBuf.Release()

		groups := (out.Size() + b.cfg.WorkgroupSize - 1) / b.cfg.WorkgroupSize
		err := b.dispatch(name, code, []wgpu.BindGroupEntry{
			wgpu.BufferBindingEntry(0, inBuf, 0, uint64(len(a.Data())*4)),
			wgpu.BufferBindingEntry(1, outBuf, 0, uint64(len(out.Data())*4)),
			wgpu.BufferBindingEntry(2, metaBuf, 0, uint64(len(meta)*4)),
		}, groups, 1, 1)
		if err != nil {
			return nil, err
		}

		return b.readInto(out, outBuf)
	}
}

// CompileZip returns a GPU zip kernel for a registered op.
func (b *Backend) CompileZip(op kernel.BinaryOp) kernel.ZipKernel {
	name := "zip_" + op.Name
	code := b.zipShader(op.Expr)
	return func(x, y, out *tensor.View) (*tensor.View, error) {
		if err := x.Shape().Validate(); err != nil {
			return nil, err
		}
		if err := y.Shape().Validate(); err != nil {
			return nil, err
		}
		outShape, err := tensor.BroadcastShapes(x.Shape(), y.Shape())
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = tensor.Zeros(outShape)
		} else if !out.Shape().Equal(outShape) {
			return nil, &tensor.ShapeMismatchError{A: outShape, B: out.Shape().Clone()}
		}

		meta := metaU32(
			[]int{out.Size(), len(out.Shape()), len(x.Shape()), len(y.Shape())},
			out.Shape(), out.Strides(),
			x.Shape(), x.Strides(),
			y.Shape(), y.Strides(),
		)

		aBuf := b.createBuffer(float32Bytes(x.Data()), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
		defer aBuf.Release()
		bBuf := b.createBuffer(float32Bytes(y.Data()), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
		defer bBuf.Release()
		outBuf := b.createStorageBuffer(uint64(len(out.Data()) * 4))
		defer outBuf.Release()
		metaBuf := b.createBuffer(uint32Bytes(meta), wgpu.BufferUsageStorage)
		defer metaBuf.Release()

		groups := (out.Size() + b.cfg.WorkgroupSize - 1) / b.cfg.WorkgroupSize
		err = b.dispatch(name, code, []wgpu.BindGroupEntry{
			wgpu.BufferBindingEntry(0, aBuf, 0, uint64(len(x.Data())*4)),
			wgpu.BufferBindingEntry(1, bBuf, 0, uint64(len(y.Data())*4)),
			wgpu.BufferBindingEntry(2, outBuf, 0, uint64(len(out.Data())*4)),
			wgpu.BufferBindingEntry(3, metaBuf, 0, uint64(len(meta)*4)),
		}, groups, 1, 1)
		if err != nil {
			return nil, err
		}

		return b.readInto(out, outBuf)
	}
}

// CompileReduce returns a GPU reduce kernel for a registered op, folding
// with the op's identity as the start value. The chunked partial-result
// contract matches the CPU engine: the reduced axis shrinks to
// ceil(axis / ReduceBlockDim) per launch.
func (b *Backend) CompileReduce(op kernel.BinaryOp) kernel.ReduceKernel {
	name := "reduce_" + op.Name
	code := b.reduceShader(op.Expr)
	blockDim := b.cfg.ReduceBlockDim
	return func(a *tensor.View, dim int) (*tensor.View, error) {
		if err := a.Shape().Validate(); err != nil {
			return nil, err
		}
		rank := len(a.Shape())
		if dim < 0 {
			dim += rank
		}
		if dim < 0 || dim >= rank {
			return nil, fmt.Errorf("webgpu: reduce dimension %d out of range for rank %d", dim, rank)
		}

		axis := a.Shape()[dim]
		outShape := a.Shape().Clone()
		outShape[dim] = (axis + blockDim - 1) / blockDim
		out := tensor.Zeros(outShape)

		meta := metaU32(
			[]int{out.Size(), rank, dim, axis, int(math.Float32bits(op.Identity))},
			outShape, out.Strides(),
			a.Strides(),
		)

		inBuf := b.createBuffer(float32Bytes(a.Data()), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
		defer inBuf.Release()
		outBuf := b.createStorageBuffer(uint64(len(out.Data()) * 4))
		defer outBuf.Release()
		metaBuf := b.createBuffer(uint32Bytes(meta), wgpu.BufferUsageStorage)
		defer metaBuf.Release()

		err := b.dispatch(name, code, []wgpu.BindGroupEntry{
			wgpu.BufferBindingEntry(0, inBuf, 0, uint64(len(a.Data())*4)),
			wgpu.BufferBindingEntry(1, outBuf, 0, uint64(len(out.Data())*4)),
			wgpu.BufferBindingEntry(2, metaBuf, 0, uint64(len(meta)*4)),
		}, out.Size(), 1, 1)
		if err != nil {
			return nil, err
		}

		return b.readInto(out, outBuf)
	}
}

// CompileMatMul returns the GPU tiled batched matmul kernel.
func (b *Backend) CompileMatMul() kernel.MatMulKernel {
	name := "matmul"
	code := b.matmulShader()
	tile := b.cfg.MatmulTile
	return func(x, y *tensor.View) (*tensor.View, error) {
		if err := x.Shape().Validate(); err != nil {
			return nil, err
		}
		if err := y.Shape().Validate(); err != nil {
			return nil, err
		}

		x3, y3, both2D, err := liftTo3D(x, y)
		if err != nil {
			return nil, err
		}

		xShape, yShape := x3.Shape(), y3.Shape()
		if xShape[2] != yShape[1] {
			return nil, &kernel.MatmulDimensionError{A: x.Shape().Clone(), B: y.Shape().Clone()}
		}
		batchShape, err := tensor.BroadcastShapes(xShape[:1], yShape[:1])
		if err != nil {
			return nil, &tensor.ShapeMismatchError{A: x.Shape().Clone(), B: y.Shape().Clone()}
		}

		batch := batchShape[0]
		m, k, n := xShape[1], xShape[2], yShape[2]
		out := tensor.Zeros(tensor.Shape{batch, m, n})

		xBatchStride := 0
		if xShape[0] > 1 {
			xBatchStride = x3.Strides()[0]
		}
		yBatchStride := 0
		if yShape[0] > 1 {
			yBatchStride = y3.Strides()[0]
		}

		meta := metaU32([]int{
			batch, m, k, n,
			xBatchStride, x3.Strides()[1], x3.Strides()[2],
			yBatchStride, y3.Strides()[1], y3.Strides()[2],
			out.Strides()[0], out.Strides()[1], out.Strides()[2],
		})

		aBuf := b.createBuffer(float32Bytes(x3.Data()), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
		defer aBuf.Release()
		bBuf := b.createBuffer(float32Bytes(y3.Data()), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
		defer bBuf.Release()
		outBuf := b.createStorageBuffer(uint64(len(out.Data()) * 4))
		defer outBuf.Release()
		metaBuf := b.createBuffer(uint32Bytes(meta), wgpu.BufferUsageStorage)
		defer metaBuf.Release()

		err = b.dispatch(name, code, []wgpu.BindGroupEntry{
			wgpu.BufferBindingEntry(0, aBuf, 0, uint64(len(x3.Data())*4)),
			wgpu.BufferBindingEntry(1, bBuf, 0, uint64(len(y3.Data())*4)),
			wgpu.BufferBindingEntry(2, outBuf, 0, uint64(len(out.Data())*4)),
			wgpu.BufferBindingEntry(3, metaBuf, 0, uint64(len(meta)*4)),
		}, (m+tile-1)/tile, (n+tile-1)/tile, batch)
		if err != nil {
			return nil, err
		}

		result, err := b.readInto(out, outBuf)
		if err != nil {
			return nil, err
		}
		if both2D {
			return result.Reshape(tensor.Shape{m, n})
		}
		return result, nil
	}
}

// liftTo3D gives 2D operands an implicit batch of 1.
func liftTo3D(a, b *tensor.View) (a3, b3 *tensor.View, both2D bool, err error) {
	lift := func(v *tensor.View) (*tensor.View, error) {
		shape := v.Shape()
		switch len(shape) {
		case 3:
			return v, nil
		case 2:
			if !v.IsContiguous() {
				return nil, fmt.Errorf("webgpu: 2D matmul operand with strides %v must be contiguous", v.Strides())
			}
			return v.Reshape(tensor.Shape{1, shape[0], shape[1]})
		default:
			return nil, fmt.Errorf("webgpu: matmul operand must be 2D or 3D, got rank %d", len(shape))
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
	return a3, b3, len(a.Shape()) == 2 && len(b.Shape()) == 2, nil
}

// readInto copies a GPU result buffer back into the output view's storage.
func (b *Backend) readInto(out *tensor.View, buf *wgpu.Buffer) (*tensor.View, error) {
	raw, err := b.readBuffer(buf, uint64(len(out.Data())*4))
	if err != nil {
		return nil, err
	}
	copy(out.Data(), bytesFloat32(raw))
	return out, nil
}
