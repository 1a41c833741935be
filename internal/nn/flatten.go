package nn

import (
	"fmt"

	"github.com/taper-ml/taper/internal/tensor"
)

// Flatten collapses all dimensions after the batch dimension,
// bridging convolutional feature maps to fully connected layers.
type Flatten[B tensor.Backend] struct{}

// NewFlatten creates a Flatten module.
func NewFlatten[B tensor.Backend]() *Flatten[B] {
	return &Flatten[B]{}
}

// Forward reshapes [batch, d1, d2, ...] to [batch, d1*d2*...].
func (f *Flatten[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) < 2 {
		panic(fmt.Sprintf("flatten: expected at least 2-D input, got shape %v", shape))
	}

	rest := 1
	for _, d := range shape[1:] {
		rest *= d
	}
	return input.Reshape(shape[0], rest)
}

// Parameters returns nil; Flatten has no parameters.
func (f *Flatten[B]) Parameters() []*Parameter[B] {
	return nil
}

// String returns the module name.
func (f *Flatten[B]) String() string {
	return "Flatten()"
}

// StateDict returns an empty map; Flatten has no state.
func (f *Flatten[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op for Flatten.
func (f *Flatten[B]) LoadStateDict(map[string]*tensor.RawTensor) error {
	return nil
}
