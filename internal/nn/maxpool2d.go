package nn

import (
	"fmt"

	"github.com/taper-ml/taper/internal/tensor"
)

// MaxPool2D is a 2-D max pooling layer with no learnable parameters.
//
// Output spatial size is (in - kernelSize)/stride + 1 per axis.
type MaxPool2D[B tensor.Backend] struct {
	kernelSize int
	stride     int
	backend    B
}

// NewMaxPool2D creates a max pooling layer with a square window.
func NewMaxPool2D[B tensor.Backend](kernelSize, stride int, backend B) *MaxPool2D[B] {
	if kernelSize <= 0 || stride <= 0 {
		panic(fmt.Sprintf("maxpool2d: kernel size %d and stride %d must be > 0", kernelSize, stride))
	}
	return &MaxPool2D[B]{kernelSize: kernelSize, stride: stride, backend: backend}
}

// Forward pools the input. Input: [batch, channels, height, width].
func (m *MaxPool2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if len(input.Shape()) != 4 {
		panic(fmt.Sprintf("maxpool2d: expected 4-D input [N,C,H,W], got %dD", len(input.Shape())))
	}
	return tensor.New[float32, B](m.backend.MaxPool2D(input.Raw(), m.kernelSize, m.stride), m.backend)
}

// Parameters returns nil; pooling has no parameters.
func (m *MaxPool2D[B]) Parameters() []*Parameter[B] {
	return nil
}

// String returns a short description of the layer.
func (m *MaxPool2D[B]) String() string {
	return fmt.Sprintf("MaxPool2D(kernel_size=%d, stride=%d)", m.kernelSize, m.stride)
}

// KernelSize returns the pooling window size.
func (m *MaxPool2D[B]) KernelSize() int {
	return m.kernelSize
}

// Stride returns the stride.
func (m *MaxPool2D[B]) Stride() int {
	return m.stride
}

// StateDict returns an empty map; pooling has no state.
func (m *MaxPool2D[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op for MaxPool2D.
func (m *MaxPool2D[B]) LoadStateDict(map[string]*tensor.RawTensor) error {
	return nil
}
