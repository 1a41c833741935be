package nn

import (
	"github.com/taper-ml/taper/internal/tensor"
)

// Parameter is a named weight tensor belonging to a module.
//
// Compression replaces parameters wholesale rather than updating them,
// so there is no gradient slot.
type Parameter[B tensor.Backend] struct {
	name   string
	tensor *tensor.Tensor[float32, B]
}

// NewParameter wraps an initialized tensor as a named parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{name: name, tensor: t}
}

// Name returns the name the parameter was registered under.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the underlying weight tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// NumElements returns the parameter's element count.
func (p *Parameter[B]) NumElements() int {
	return p.tensor.NumElements()
}
