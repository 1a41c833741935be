// Copyright 2026 Taper ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the CPU compute backend.
//
// # Overview
//
// The backend runs every tensor operation on the host CPU:
//   - Pure Go kernels, no CGO
//   - Im2col convolutions with per-axis stride, padding and dilation,
//     and grouped (depthwise) kernels
//   - float32 and float64 element types
//   - Batch-parallel kernels across a worker pool
//
// # Basic Usage
//
//	import (
//	    "github.com/taper-ml/taper/backend/cpu"
//	    "github.com/taper-ml/taper/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    x := tensor.Randn[float32](tensor.Shape{2, 3}, backend)
//	    y := x.MulScalar(2)
//	    _ = y
//	}
//
// # Determinism
//
// New sizes the worker pool to the machine. NewSequential builds a
// backend that never spawns goroutines, which keeps profiles and
// float32 accumulation orders stable run to run.
//
// # Thread Safety
//
// The backend is safe for concurrent use. Each tensor operation is
// isolated and does not share mutable state.
package cpu
