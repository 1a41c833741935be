package tensor

import "fmt"

// Tensor is a dense tensor with element type T computed by backend B.
// It wraps a RawTensor with compile-time type safety.
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros[float32](Shape{6, 5}, backend)
//	sum := t.Add(t)
type Tensor[T DType, B Backend] struct {
	raw     *RawTensor
	backend B
}

// New wraps an existing RawTensor.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return &Tensor[T, B]{raw: raw, backend: b}
}

// FromSlice copies a Go slice into a fresh tensor of the given shape.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	if want := shape.NumElements(); want != len(data) {
		return nil, fmt.Errorf("shape %v holds %d elements, got %d", shape, want, len(data))
	}

	var zero T
	raw, err := NewRaw(shape, inferDataType(zero), b.Device())
	if err != nil {
		return nil, err
	}

	t := New[T, B](raw, b)
	copy(t.Data(), data)

	return t, nil
}

// Shape returns the dimensions of the tensor.
func (t *Tensor[T, B]) Shape() Shape {
	return t.raw.Shape()
}

// DType returns the runtime tag matching T.
func (t *Tensor[T, B]) DType() DataType {
	return t.raw.DType()
}

// Device returns where the tensor data lives.
func (t *Tensor[T, B]) Device() Device {
	return t.raw.Device()
}

// NumElements returns the element count.
func (t *Tensor[T, B]) NumElements() int {
	return t.raw.NumElements()
}

// Raw exposes the underlying RawTensor for backend implementations.
func (t *Tensor[T, B]) Raw() *RawTensor {
	return t.raw
}

// Backend returns the backend operations dispatch to.
func (t *Tensor[T, B]) Backend() B {
	return t.backend
}

// Data returns the tensor's storage as a typed slice without copying.
// Writes through the slice are writes to the tensor.
func (t *Tensor[T, B]) Data() []T {
	var zero T
	switch any(zero).(type) {
	case float32:
		return any(t.raw.AsFloat32()).([]T)
	case float64:
		return any(t.raw.AsFloat64()).([]T)
	}
	panic("unsupported element type")
}

// Item returns the value of a one-element tensor. Panics otherwise.
func (t *Tensor[T, B]) Item() T {
	if t.NumElements() != 1 {
		panic(fmt.Sprintf("Item on non-scalar tensor of shape %v", t.Shape()))
	}
	return t.Data()[0]
}

// At reads one element. Panics on out-of-range indices.
func (t *Tensor[T, B]) At(indices ...int) T {
	return t.Data()[t.offsetOf(indices)]
}

// Set writes one element. Panics on out-of-range indices.
func (t *Tensor[T, B]) Set(value T, indices ...int) {
	t.Data()[t.offsetOf(indices)] = value
}

func (t *Tensor[T, B]) offsetOf(indices []int) int {
	shape := t.raw.Shape()
	if len(indices) != len(shape) {
		panic(fmt.Sprintf("got %d indices for a rank-%d tensor", len(indices), len(shape)))
	}

	offset := 0
	for i, stride := range t.raw.Strides() {
		idx := indices[i]
		if idx < 0 || idx >= shape[i] {
			panic(fmt.Sprintf("index %d out of range for dimension %d of size %d", idx, i, shape[i]))
		}
		offset += idx * stride
	}
	return offset
}

// Clone creates a deep copy of the tensor.
func (t *Tensor[T, B]) Clone() *Tensor[T, B] {
	return &Tensor[T, B]{raw: t.raw.Clone(), backend: t.backend}
}

// String describes the tensor without printing its data.
func (t *Tensor[T, B]) String() string {
	return fmt.Sprintf("Tensor[%s]%v on %s", t.raw.DType(), t.raw.Shape(), t.raw.Device())
}

// Float64 returns a float64 copy of the tensor.
// The factorization routines run in float64 regardless of storage type.
func (t *Tensor[T, B]) Float64() *Tensor[float64, B] {
	raw, err := NewRaw(t.Shape(), Float64, t.backend.Device())
	if err != nil {
		panic(err)
	}
	dst := raw.AsFloat64()
	for i, v := range t.Data() {
		dst[i] = float64(v)
	}
	return New[float64, B](raw, t.backend)
}

// Float32 returns a float32 copy of the tensor.
func (t *Tensor[T, B]) Float32() *Tensor[float32, B] {
	raw, err := NewRaw(t.Shape(), Float32, t.backend.Device())
	if err != nil {
		panic(err)
	}
	dst := raw.AsFloat32()
	for i, v := range t.Data() {
		dst[i] = float32(v)
	}
	return New[float32, B](raw, t.backend)
}
