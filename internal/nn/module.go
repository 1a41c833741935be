// Package nn implements the neural network layer model.
//
// It provides the inference-side building blocks the compression pass
// operates on:
//   - Module interface: forward pass plus parameter access and state I/O
//   - Parameter: named weight tensor
//   - Conv2D, Linear: the two layer kinds low-rank factorization targets
//   - Sequential: container the compressor walks and rewrites
//   - ReLU, MaxPool2D, Flatten: supporting inference modules
//
// Layout follows PyTorch's nn.Module conventions adapted to Go generics.
// There is no gradient machinery; modules here only run forward.
package nn

import (
	"github.com/taper-ml/taper/internal/tensor"
)

// Module is the interface every network component implements.
type Module[B tensor.Backend] interface {
	// Forward runs the module on an input batch.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters lists the module's weights, nested modules included.
	// Parameter-free modules return nil.
	Parameters() []*Parameter[B]

	// StateDict exports the parameters keyed by name for serialization.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict restores parameters from a state dictionary and
	// reports missing entries and shape or dtype mismatches.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}
