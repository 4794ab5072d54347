//go:build windows

// Package webgpu runs the Lattice kernel engines on a real GPU through
// WebGPU compute shaders, using go-webgpu for zero-CGO bindings.
//
// The four kernels mirror the CPU engine exactly: strided broadcast-aware
// addressing for map and zip, a workgroup-shared tree reduction with the
// same chunked partial-result contract, and a tiled batched matmul with
// zero-padded workgroup tiles. Scalar functions reach the GPU by shader
// generation: each kernel.UnaryOp/BinaryOp carries the WGSL expression
// spliced into the shader source, cached per op name.
package webgpu

import (
	"fmt"
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
)

// Config carries the GPU-side tuning constants. They differ from the CPU
// engine defaults because WebGPU caps workgroup invocations at 256.
type Config struct {
	WorkgroupSize  int // 1D workgroup width for map and zip dispatches.
	ReduceBlockDim int // Per-workgroup reduction capacity; power of two, <= 256.
	MatmulTile     int // Square matmul tile edge; MatmulTile^2 <= 256.
}

// DefaultConfig returns the stock GPU launch constants.
func DefaultConfig() Config {
	return Config{
		WorkgroupSize:  256,
		ReduceBlockDim: 256,
		MatmulTile:     16,
	}
}

// Backend executes Lattice kernels on a WebGPU device.
type Backend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	cfg Config

	// Shader and pipeline cache, keyed by shader name.
	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline
	mu        sync.RWMutex
}

// New creates a WebGPU backend with DefaultConfig.
// Returns an error if WebGPU is not available or initialization fails.
func New() (*Backend, error) {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a WebGPU backend with the given launch constants.
func NewWithConfig(cfg Config) (backend *Backend, err error) {
	if cfg.WorkgroupSize <= 0 || cfg.WorkgroupSize > 256 {
		return nil, fmt.Errorf("webgpu: WorkgroupSize must be in (0, 256], got %d", cfg.WorkgroupSize)
	}
	if cfg.ReduceBlockDim <= 0 || cfg.ReduceBlockDim > 256 || cfg.ReduceBlockDim&(cfg.ReduceBlockDim-1) != 0 {
		return nil, fmt.Errorf("webgpu: ReduceBlockDim must be a power of two in (0, 256], got %d", cfg.ReduceBlockDim)
	}
	if cfg.MatmulTile <= 0 || cfg.MatmulTile*cfg.MatmulTile > 256 {
		return nil, fmt.Errorf("webgpu: MatmulTile^2 must be in (0, 256], got %d", cfg.MatmulTile)
	}

	// Recover from panic if the wgpu native library is not found.
	defer func() {
		if r := recover(); r != nil {
			backend = nil
			err = fmt.Errorf("webgpu: native library not available: %v", r)
		}
	}()

	instance, instanceErr := wgpu.CreateInstance(nil)
	if instanceErr != nil {
		return nil, fmt.Errorf("webgpu: failed to create instance: %w", instanceErr)
	}
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request adapter: %w", adapterErr)
	}

	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request device: %w", deviceErr)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to get queue")
	}

	return &Backend{
		instance:  instance,
		adapter:   adapter,
		device:    device,
		queue:     queue,
		cfg:       cfg,
		shaders:   make(map[string]*wgpu.ShaderModule),
		pipelines: make(map[string]*wgpu.ComputePipeline),
	}, nil
}

// Config returns the backend's launch constants.
func (b *Backend) Config() Config {
	return b.cfg
}

// Close releases the GPU device and cached pipelines.
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, p := range b.pipelines {
		p.Release()
	}
	b.pipelines = map[string]*wgpu.ComputePipeline{}
	for _, s := range b.shaders {
		s.Release()
	}
	b.shaders = map[string]*wgpu.ShaderModule{}

	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// compileShader compiles WGSL shader code into a ShaderModule.
// Results are cached in the Backend's shaders map.
func (b *Backend) compileShader(name, code string) *wgpu.ShaderModule {
	b.mu.RLock()
	if shader, exists := b.shaders[name]; exists {
		b.mu.RUnlock()
		return shader
	}
	b.mu.RUnlock()

	shader := b.device.CreateShaderModuleWGSL(code)

	b.mu.Lock()
	b.shaders[name] = shader
	b.mu.Unlock()

	return shader
}

// getOrCreatePipeline returns a cached ComputePipeline or creates a new one.
func (b *Backend) getOrCreatePipeline(name string, shader *wgpu.ShaderModule) *wgpu.ComputePipeline {
	b.mu.RLock()
	if pipeline, exists := b.pipelines[name]; exists {
		b.mu.RUnlock()
		return pipeline
	}
	b.mu.RUnlock()

	// Auto layout (nil) is derived from the shader bindings.
	pipeline := b.device.CreateComputePipelineSimple(nil, shader, "main")

	b.mu.Lock()
	b.pipelines[name] = pipeline
	b.mu.Unlock()

	return pipeline
}
