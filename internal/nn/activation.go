package nn

import (
	"github.com/taper-ml/taper/internal/tensor"
)

// ReLU applies the element-wise rectifier f(x) = max(0, x).
type ReLU[B tensor.Backend] struct{}

// NewReLU creates a ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return &ReLU[B]{}
}

// Forward clamps negative elements to zero.
func (r *ReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	out := input.Clone()
	d := out.Data()
	for i := range d {
		d[i] = max(d[i], 0)
	}
	return out
}

// Parameters returns nil; ReLU has no parameters.
func (r *ReLU[B]) Parameters() []*Parameter[B] {
	return nil
}

// String returns the module name.
func (r *ReLU[B]) String() string {
	return "ReLU()"
}

// StateDict returns an empty map; ReLU has no state.
func (r *ReLU[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op for ReLU.
func (r *ReLU[B]) LoadStateDict(map[string]*tensor.RawTensor) error {
	return nil
}
