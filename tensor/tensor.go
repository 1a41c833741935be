// Copyright 2026 Taper ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public tensor API of Taper.
//
// The package defines core types for type-safe tensor operations:
//   - Tensor[T, B]: High-level generic tensor
//   - RawTensor: Low-level dtype-erased tensor
//   - Backend: Interface for compute implementations
//   - Shape, DataType, Device: supporting value types
package tensor

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/taper-ml/taper/internal/tensor"
)

// DType is the constraint for tensor element types: float32 or float64.
type DType = tensor.DType

// DataType tags the element type of a RawTensor at runtime.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
)

// Device identifies where tensor data resides.
type Device = tensor.Device

// Device constants.
const (
	CPU Device = tensor.CPU
)

// Shape lists a tensor's dimensions outermost first.
// Shape{2, 3, 4} describes a 3-D tensor with 24 elements.
type Shape = tensor.Shape

// Tensor is a generic type-safe tensor.
//
// T is the element type (float32 or float64) and B the backend the
// operations dispatch to.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Randn[float32](tensor.Shape{2, 3}, backend)
//	y := tensor.Full[float32](tensor.Shape{2, 3}, 0.5, backend)
//	z := x.Add(y)
type Tensor[T DType, B Backend] = tensor.Tensor[T, B]

// New wraps a RawTensor in a typed Tensor. The raw dtype must match T.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return tensor.New[T, B](raw, b)
}

// Zeros creates a zero-filled tensor.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Zeros[T, B](shape, b)
}

// Ones creates a one-filled tensor.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Ones[T, B](shape, b)
}

// Full creates a tensor with every element set to value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	return tensor.Full[T, B](shape, value, b)
}

// Eye creates an n×n identity matrix.
func Eye[T DType, B Backend](n int, b B) *Tensor[T, B] {
	return tensor.Eye[T, B](n, b)
}

// Randn creates a tensor with standard normal entries.
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Randn[T, B](shape, b)
}

// RandnFrom creates a tensor with standard normal entries drawn from rng,
// for reproducible fixtures.
func RandnFrom[T DType, B Backend](shape Shape, rng *rand.Rand, b B) *Tensor[T, B] {
	return tensor.RandnFrom[T, B](shape, rng, b)
}

// Rand creates a tensor with uniform entries in [0, 1).
func Rand[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Rand[T, B](shape, b)
}

// FromSlice creates a tensor from a flat row-major slice.
//
// Example:
//
//	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	return tensor.FromSlice[T, B](data, shape, b)
}

// Fold inverts Unfold: it reshapes a mode-n matricization back into a
// tensor of the given shape.
func Fold[T DType, B Backend](m *Tensor[T, B], mode int, shape Shape) *Tensor[T, B] {
	return tensor.Fold[T, B](m, mode, shape)
}

// ToDense copies a 2-D float64 tensor into a gonum matrix.
func ToDense[B Backend](t *Tensor[float64, B]) *mat.Dense {
	return tensor.ToDense[B](t)
}

// FromDense copies a gonum matrix into a 2-D float64 tensor.
func FromDense[B Backend](m mat.Matrix, b B) *Tensor[float64, B] {
	return tensor.FromDense[B](m, b)
}
