package tensor

import (
	"fmt"
	"unsafe"
)

// Device tags where a tensor's buffer lives. Compression is a one-shot
// CPU pass; the tag exists so backends can report their placement.
type Device int

const (
	CPU Device = iota
)

func (d Device) String() string {
	if d == CPU {
		return "CPU"
	}
	return "Unknown"
}

// RawTensor is the untyped tensor representation: a flat byte buffer
// plus shape, strides and runtime type information. Buffers are owned
// exclusively by their tensor; Clone copies.
type RawTensor struct {
	data    []byte
	shape   Shape
	strides []int
	dtype   DataType
	device  Device
}

// NewRaw allocates a zero-filled tensor of the given shape and type.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("new tensor: %w", err)
	}

	return &RawTensor{
		data:    make([]byte, shape.NumElements()*dtype.Size()),
		shape:   shape.Clone(),
		strides: shape.ComputeStrides(),
		dtype:   dtype,
		device:  device,
	}, nil
}

// Shape returns the dimensions.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the row-major element strides.
func (r *RawTensor) Strides() []int {
	return r.strides
}

// DType returns the element type tag.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// Device returns where the buffer lives.
func (r *RawTensor) Device() Device {
	return r.device
}

// NumElements returns the element count.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the buffer length in bytes.
func (r *RawTensor) ByteSize() int {
	return len(r.data)
}

// Data returns the raw byte buffer.
func (r *RawTensor) Data() []byte {
	return r.data
}

// AsFloat32 reinterprets the buffer as []float32 without copying.
// Panics if the dtype is not Float32.
func (r *RawTensor) AsFloat32() []float32 {
	if r.dtype != Float32 {
		panic(fmt.Sprintf("AsFloat32 called on %s tensor", r.dtype))
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(unsafe.SliceData(r.data))), r.NumElements())
}

// AsFloat64 reinterprets the buffer as []float64 without copying.
// Panics if the dtype is not Float64.
func (r *RawTensor) AsFloat64() []float64 {
	if r.dtype != Float64 {
		panic(fmt.Sprintf("AsFloat64 called on %s tensor", r.dtype))
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(unsafe.SliceData(r.data))), r.NumElements())
}

// Clone deep-copies the tensor, buffer included.
func (r *RawTensor) Clone() *RawTensor {
	out := &RawTensor{
		data:    append([]byte(nil), r.data...),
		shape:   r.shape.Clone(),
		strides: append([]int(nil), r.strides...),
		dtype:   r.dtype,
		device:  r.device,
	}
	return out
}

func (r *RawTensor) String() string {
	return fmt.Sprintf("RawTensor[%s]%v on %s", r.dtype, r.shape, r.device)
}
