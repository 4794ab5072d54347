// Copyright 2025 The Lattice Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the strided view abstraction and index arithmetic
// for the Lattice kernel engine.
//
// # Overview
//
// A View is a flat float32 storage plus a Shape and Strides. Several views
// may share one storage: a stride of 0 along a dimension marks it as
// broadcast, so every coordinate along it aliases the same storage slot.
//
// The index arithmetic functions (ToIndex, IndexToPosition, BroadcastIndex)
// convert between flat linear positions and multi-dimensional coordinates
// and apply NumPy-style broadcasting between shapes. They are the addressing
// core shared by every kernel in the kernel package.
//
// # Basic Usage
//
//	v, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out := tensor.Zeros(tensor.Shape{2, 3})
//
// # Broadcasting
//
// Two shapes are compatible if, right-aligned, every paired dimension is
// either equal or 1. BroadcastShapes computes the result shape; kernels use
// BroadcastIndex per thread to collapse an output coordinate into a smaller
// operand's coordinate space.
package tensor
