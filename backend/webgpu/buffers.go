//go:build windows

package webgpu

import (
	"fmt"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"
)

// float32Bytes reinterprets a float32 slice as its backing bytes.
func float32Bytes(data []float32) []byte {
	if len(data) == 0 {
		return nil
	}
	//nolint:gosec // unsafe.Slice for zero-copy upload, length derived from the slice itself
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*4)
}

// uint32Bytes reinterprets a uint32 slice as its backing bytes.
func uint32Bytes(data []uint32) []byte {
	if len(data) == 0 {
		return nil
	}
	//nolint:gosec // unsafe.Slice for zero-copy upload, length derived from the slice itself
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*4)
}

// bytesFloat32 copies raw GPU bytes into a fresh float32 slice.
func bytesFloat32(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	if len(out) == 0 {
		return out
	}
	//nolint:gosec // unsafe.Slice over mapped staging memory, copied out immediately
	src := unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), len(out))
	copy(out, src)
	return out
}

// createBuffer creates a GPU buffer and uploads initial data.
func (b *Backend) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// createStorageBuffer creates an empty read_write storage buffer.
func (b *Backend) createStorageBuffer(size uint64) *wgpu.Buffer {
	return b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
}

// readBuffer reads data back from a GPU buffer to CPU memory.
// Uses a staging buffer since storage buffers can't be mapped directly.
func (b *Backend) readBuffer(srcBuffer *wgpu.Buffer, size uint64) ([]byte, error) {
	stagingBuffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer stagingBuffer.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(srcBuffer, 0, stagingBuffer, 0, size)
	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)

	err := stagingBuffer.MapAsync(b.device, wgpu.MapModeRead, 0, size)
	if err != nil {
		return nil, fmt.Errorf("webgpu: failed to map staging buffer: %w", err)
	}

	mappedPtr := stagingBuffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	result := make([]byte, size)
	copy(result, mappedSlice)

	stagingBuffer.Unmap()

	return result, nil
}

// dispatch runs one compute pass over the given bind group entries and
// workgroup counts, then blocks on submission.
func (b *Backend) dispatch(name, shaderCode string, entries []wgpu.BindGroupEntry, groupsX, groupsY, groupsZ int) error {
	shader := b.compileShader(name, shaderCode)
	pipeline := b.getOrCreatePipeline(name, shader)

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, entries)
	defer bindGroup.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	computePass := encoder.BeginComputePass(nil)
	computePass.SetPipeline(pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)
	//nolint:gosec // G115: workgroup counts are small non-negative ints
	computePass.DispatchWorkgroups(uint32(groupsX), uint32(groupsY), uint32(groupsZ))
	computePass.End()

	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)
	return nil
}
