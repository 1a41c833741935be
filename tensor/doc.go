// Copyright 2026 Taper ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the dense tensors the compression pass runs on.
//
// # Overview
//
// Tensors are the data structure everything else in Taper consumes. This
// package provides:
//   - Tensor[T, B], the generic type-safe tensor
//   - Mode-n unfolding and folding for tensor decompositions
//   - A bridge to gonum matrices for the float64 numerics
//   - Device abstraction (CPU today)
//
// # Basic Usage
//
//	import (
//	    "github.com/taper-ml/taper/tensor"
//	    "github.com/taper-ml/taper/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    // Create tensors
//	    x := tensor.Randn[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{3, 4}, backend)
//
//	    // Tensor operations
//	    z := x.MatMul(y)
//	    _ = z.Shape() // [2 4]
//	}
//
// # Supported Data Types
//
// The DType constraint admits float32 and float64. Layer weights live in
// float32; decomposition numerics run in float64 and cast back. Loading
// converts half-precision checkpoint data up to float32, so no integer or
// half types appear here.
//
// # Unfolding
//
// Decompositions view a tensor as a set of matrices. Unfold produces the
// mode-n matricization in row-major order and Fold inverts it:
//
//	m := x.Unfold(1)                       // [I1, I0*I2*...]
//	back := tensor.Fold(m, 1, x.Shape())   // original shape
//
// # gonum Bridge
//
// ToDense and FromDense convert 2-D float64 tensors to and from gonum
// matrices, where the SVD and least-squares work happens.
package tensor
