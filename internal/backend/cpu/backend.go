// Package cpu implements the CPU compute backend.
//
// Kernels operate on flat row-major slices and parallelize across
// goroutines via the internal parallel helpers. Type dispatch happens
// once at the operation boundary.
package cpu

import (
	"github.com/taper-ml/taper/internal/parallel"
	"github.com/taper-ml/taper/internal/tensor"
)

// Verify interface compliance at compile time.
var _ tensor.Backend = (*CPUBackend)(nil)

// CPUBackend implements tensor operations on the host CPU.
type CPUBackend struct {
	device tensor.Device
	pool   parallel.Config
}

// New creates a CPU backend with a worker pool sized to the machine.
func New() *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		pool:   parallel.DefaultConfig(),
	}
}

// NewSequential creates a CPU backend that never spawns goroutines.
// Useful for debugging and deterministic profiling.
func NewSequential() *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		pool:   parallel.Config{Enabled: false},
	}
}

// Name identifies the backend in logs and tensor descriptions.
func (cpu *CPUBackend) Name() string {
	return "cpu"
}

// Device returns the device tensors of this backend live on.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}
