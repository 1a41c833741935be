// Copyright 2026 Taper ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/taper-ml/taper/internal/nn"
	"github.com/taper-ml/taper/tensor"
)

// Module is the base interface for all network components: a forward
// pass plus parameter access and state I/O.
type Module[B tensor.Backend] = nn.Module[B]

// Parameter is a named weight tensor inside a module.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a parameter with the given name and tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// Layers

// Linear is a fully connected layer. Weight shape is [out, in].
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a linear layer with Xavier initialization.
//
// Example:
//
//	backend := cpu.New()
//	layer := nn.NewLinear(784, 128, true, backend)
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, useBias bool, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, useBias, backend)
}

// Conv2D is a 2-D convolutional layer over NCHW input.
type Conv2D[B tensor.Backend] = nn.Conv2D[B]

// Conv2DConfig sets stride, padding, dilation, groups and bias for a
// Conv2D layer. Pairs are (height, width); zero values normalize to a
// unit stride and dilation, single-group, no-padding layer.
type Conv2DConfig = nn.Conv2DConfig

// DefaultConv2DConfig returns the standard dense convolution config:
// unit stride and dilation, no padding, a single group, with bias.
func DefaultConv2DConfig() Conv2DConfig {
	return nn.DefaultConv2DConfig()
}

// NewConv2D creates a Conv2D layer with Xavier-initialized weights.
//
// Example:
//
//	backend := cpu.New()
//	conv := nn.NewConv2D(1, 32, [2]int{3, 3}, nn.Conv2DConfig{
//	    Stride:  [2]int{1, 1},
//	    Padding: [2]int{1, 1},
//	    Bias:    true,
//	}, backend)
func NewConv2D[B tensor.Backend](inChannels, outChannels int, kernelSize [2]int, cfg Conv2DConfig, backend B) *Conv2D[B] {
	return nn.NewConv2D(inChannels, outChannels, kernelSize, cfg, backend)
}

// MaxPool2D is a 2-D max pooling layer.
type MaxPool2D[B tensor.Backend] = nn.MaxPool2D[B]

// NewMaxPool2D creates a max pooling layer.
//
// Example:
//
//	pool := nn.NewMaxPool2D(2, 2, backend)
func NewMaxPool2D[B tensor.Backend](kernelSize, stride int, backend B) *MaxPool2D[B] {
	return nn.NewMaxPool2D(kernelSize, stride, backend)
}

// Activations

// ReLU is the rectified linear unit activation.
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return nn.NewReLU[B]()
}

// Flatten collapses all dimensions after the batch dimension.
type Flatten[B tensor.Backend] = nn.Flatten[B]

// NewFlatten creates a flatten module.
func NewFlatten[B tensor.Backend]() *Flatten[B] {
	return nn.NewFlatten[B]()
}

// Containers

// Sequential chains modules and runs them in order. The compression
// pass walks Sequential models and rewrites layers in place.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// NewSequential creates a sequential container from the given modules.
//
// Example:
//
//	model := nn.NewSequential[*cpu.Backend](
//	    nn.NewLinear(784, 128, true, backend),
//	    nn.NewReLU[*cpu.Backend](),
//	    nn.NewLinear(128, 10, true, backend),
//	)
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return nn.NewSequential(modules...)
}
