// Copyright 2026 Taper ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/taper-ml/taper/internal/tensor"
)

// RawTensor is the low-level dtype-erased tensor: a flat byte buffer
// with shape, strides, dtype and device.
//
// RawTensor provides:
//   - layout and type metadata via Shape(), DType(), Device()
//   - typed views of the buffer via AsFloat32() and AsFloat64()
//   - deep copies via Clone()
//
// Most users should use the high-level Tensor[T, B] type instead; state
// dicts and the loader traffic in RawTensor.
//
// Example:
//
//	raw, err := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
//	if err != nil {
//	    ...
//	}
//	data := raw.AsFloat32()
type RawTensor = tensor.RawTensor

// NewRaw allocates a zeroed RawTensor with the given shape and dtype.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}
