package cpu

import (
	"fmt"

	"github.com/taper-ml/taper/internal/tensor"
)

// Reshape returns a copy of the tensor with a new shape.
// Element order is row-major in both source and result.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	if t.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("reshape: cannot reshape %v to %v", t.Shape(), newShape))
	}

	result, err := tensor.NewRaw(newShape, t.DType(), t.Device())
	if err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	copy(result.Data(), t.Data())
	return result
}

// Transpose permutes the tensor's dimensions. With no axes given, the
// dimension order is reversed.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	nd := len(shape)

	if len(axes) == 0 {
		axes = make([]int, nd)
		for i := range axes {
			axes[i] = nd - 1 - i
		}
	}
	if len(axes) != nd {
		panic(fmt.Sprintf("transpose: got %d axes for %d-D tensor", len(axes), nd))
	}

	seen := make([]bool, nd)
	for _, ax := range axes {
		if ax < 0 || ax >= nd {
			panic(fmt.Sprintf("transpose: axis %d out of range for %d-D tensor", ax, nd))
		}
		if seen[ax] {
			panic(fmt.Sprintf("transpose: duplicate axis %d", ax))
		}
		seen[ax] = true
	}

	newShape := make(tensor.Shape, nd)
	for i, ax := range axes {
		newShape[i] = shape[ax]
	}

	result, err := tensor.NewRaw(newShape, t.DType(), t.Device())
	if err != nil {
		panic(fmt.Sprintf("transpose: %v", err))
	}

	switch t.DType() {
	case tensor.Float32:
		transposeKernel(result.AsFloat32(), t.AsFloat32(), shape, newShape, axes)
	case tensor.Float64:
		transposeKernel(result.AsFloat64(), t.AsFloat64(), shape, newShape, axes)
	default:
		panic(fmt.Sprintf("transpose: unsupported dtype %s", t.DType()))
	}

	return result
}

// transposeKernel copies elements to their permuted positions by walking
// the output index space and translating each index through the axis map.
func transposeKernel[T tensor.DType](dst, src []T, oldShape, newShape tensor.Shape, axes []int) {
	nd := len(oldShape)
	oldStrides := oldShape.ComputeStrides()
	newStrides := newShape.ComputeStrides()

	for f := range dst {
		rem := f
		srcOff := 0
		for d := 0; d < nd; d++ {
			i := rem / newStrides[d]
			rem %= newStrides[d]
			srcOff += i * oldStrides[axes[d]]
		}
		dst[f] = src[srcOff]
	}
}
