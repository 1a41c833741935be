// Copyright 2026 Taper ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/taper-ml/taper/internal/tensor"

// Backend defines the interface compute backends must implement. It
// covers exactly the operations the layer model and the compression pass
// exercise; there is no training surface.
//
// Implementations:
//   - backend/cpu: pure Go with parallel im2col convolution
//
// Example:
//
//	import (
//	    "github.com/taper-ml/taper/tensor"
//	    "github.com/taper-ml/taper/backend/cpu"
//	)
//
//	backend := cpu.New()
//	x := tensor.Randn[float32](tensor.Shape{2, 3}, backend)
//	y := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	z := x.Add(y)  // dispatches to backend.Add
type Backend interface {
	// Element-wise binary operations (NumPy-style broadcasting).
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor

	// MatMul performs 2-D matrix multiplication: [M, K] @ [K, N] -> [M, N].
	MatMul(a, b *RawTensor) *RawTensor

	// Conv2D performs a 2-D convolution over NCHW input.
	//
	// Kernel shape is [outC, inC/groups, kH, kW]. Stride, padding and
	// dilation are per-axis (height, width) pairs; groups splits input and
	// output channels into independent convolution groups (groups == inC
	// with one channel per group is a depthwise convolution).
	Conv2D(input, kernel *RawTensor, stride, padding, dilation [2]int, groups int) *RawTensor

	// MaxPool2D performs 2-D max pooling over NCHW input.
	MaxPool2D(input *RawTensor, kernelSize, stride int) *RawTensor

	// Layout operations.
	Reshape(x *RawTensor, shape Shape) *RawTensor
	Transpose(x *RawTensor, axes ...int) *RawTensor

	// Scalar operations.
	MulScalar(x *RawTensor, scalar any) *RawTensor

	// Introspection.
	Name() string
	Device() Device
}

// Compile-time check that the internal Backend matches the public one.
var _ Backend = tensor.Backend(nil)
