// Copyright 2026 Taper ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/taper-ml/taper/internal/backend/cpu"
	"github.com/taper-ml/taper/tensor"
)

// Backend is the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// The backend must satisfy the public tensor.Backend interface.
var _ tensor.Backend = (*Backend)(nil)

// New creates a CPU backend with a worker pool sized to the machine.
//
// Example:
//
//	import (
//	    "github.com/taper-ml/taper/backend/cpu"
//	    "github.com/taper-ml/taper/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    x := tensor.Randn[float32](tensor.Shape{8, 16}, backend)
//	    _ = x
//	}
func New() *Backend {
	return internalcpu.New()
}

// NewSequential creates a CPU backend that never spawns goroutines.
// Useful for debugging and deterministic profiling.
func NewSequential() *Backend {
	return internalcpu.NewSequential()
}
