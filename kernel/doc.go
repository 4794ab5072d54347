// Copyright 2025 The Lattice Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package kernel implements the four data-parallel kernel engines of
// Lattice: elementwise map, elementwise zip, axis tree-reduction, and tiled
// batched matrix multiplication.
//
// # Execution model
//
// Kernels run SIMT-style: a launch spawns a grid of blocks, each block a
// fixed group of threads executing the same kernel body over strided,
// broadcast-aware tensor views. Threads of one block may synchronize at a
// block-wide barrier and share a staging buffer; blocks never communicate.
// On the CPU the substrate is simulated by internal/device; the
// backend/webgpu package runs the same four algorithms on a real GPU.
//
// # Basic Usage
//
//	eng := kernel.NewDefault()
//
//	square := eng.CompileMap(func(x float32) float32 { return x * x })
//	out, err := square(in, nil)
//
//	add := eng.CompileZip(func(a, b float32) float32 { return a + b })
//	sum := eng.CompileReduce(func(a, b float32) float32 { return a + b }, 0)
//	matmul := eng.CompileMatMul()
//
// # Reduction contract
//
// A single reduce launch collapses at most Config.ReduceBlockDim elements
// along the axis per output position: when the axis is longer, the result
// is a partial reduction and the caller re-invokes the kernel until the
// axis length reaches 1 (see ReduceFull). This bounds the shared staging
// buffer of every block and is part of the engine contract.
//
// # Error handling
//
// All shape, rank, and dimension validation happens host-side before a
// launch and fails fast. Kernel bodies never raise: any condition they
// cannot bounds-guard must be prevented from launching.
package kernel
