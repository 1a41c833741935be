package nn

import (
	"fmt"

	"github.com/taper-ml/taper/internal/tensor"
)

// Conv2DConfig holds the geometry options of a Conv2D layer.
//
// Zero values for Stride, Dilation and Groups mean their defaults
// ({1,1}, {1,1} and 1); the constructor normalizes them.
type Conv2DConfig struct {
	Stride   [2]int
	Padding  [2]int
	Dilation [2]int
	Groups   int
	Bias     bool
}

// DefaultConv2DConfig returns the standard dense convolution config:
// unit stride and dilation, no padding, a single group, with bias.
func DefaultConv2DConfig() Conv2DConfig {
	return Conv2DConfig{
		Stride:   [2]int{1, 1},
		Dilation: [2]int{1, 1},
		Groups:   1,
		Bias:     true,
	}
}

// Conv2D is a 2-D convolutional layer.
//
//	Input:  [batch, in_channels, height, width]
//	Weight: [out_channels, in_channels/groups, kernel_h, kernel_w]
//	Bias:   [out_channels], optional
//	Output: [batch, out_channels, out_h, out_w]
//
// Stride, padding and dilation are (height, width) pairs. With
// groups == in_channels == out_channels and a one-channel kernel the
// layer is a depthwise convolution, the form the separated stages of a
// CP-factorized convolution take.
type Conv2D[B tensor.Backend] struct {
	inChannels  int
	outChannels int
	kernelSize  [2]int
	stride      [2]int
	padding     [2]int
	dilation    [2]int
	groups      int
	useBias     bool

	weight *Parameter[B]
	bias   *Parameter[B]

	backend B
}

// NewConv2D creates a Conv2D layer with Xavier-initialized weights.
func NewConv2D[B tensor.Backend](inChannels, outChannels int, kernelSize [2]int, cfg Conv2DConfig, backend B) *Conv2D[B] {
	if cfg.Stride == ([2]int{}) {
		cfg.Stride = [2]int{1, 1}
	}
	if cfg.Dilation == ([2]int{}) {
		cfg.Dilation = [2]int{1, 1}
	}
	if cfg.Groups == 0 {
		cfg.Groups = 1
	}

	if inChannels <= 0 || outChannels <= 0 {
		panic(fmt.Sprintf("conv2d: invalid channels in=%d, out=%d", inChannels, outChannels))
	}
	if kernelSize[0] <= 0 || kernelSize[1] <= 0 {
		panic(fmt.Sprintf("conv2d: invalid kernel size %v", kernelSize))
	}
	if cfg.Stride[0] <= 0 || cfg.Stride[1] <= 0 {
		panic(fmt.Sprintf("conv2d: invalid stride %v", cfg.Stride))
	}
	if cfg.Padding[0] < 0 || cfg.Padding[1] < 0 {
		panic(fmt.Sprintf("conv2d: invalid padding %v", cfg.Padding))
	}
	if cfg.Dilation[0] <= 0 || cfg.Dilation[1] <= 0 {
		panic(fmt.Sprintf("conv2d: invalid dilation %v", cfg.Dilation))
	}
	if cfg.Groups <= 0 || inChannels%cfg.Groups != 0 || outChannels%cfg.Groups != 0 {
		panic(fmt.Sprintf("conv2d: groups %d must divide in_channels %d and out_channels %d",
			cfg.Groups, inChannels, outChannels))
	}

	weightShape := tensor.Shape{outChannels, inChannels / cfg.Groups, kernelSize[0], kernelSize[1]}
	fanIn := (inChannels / cfg.Groups) * kernelSize[0] * kernelSize[1]
	fanOut := (outChannels / cfg.Groups) * kernelSize[0] * kernelSize[1]
	weight := NewParameter("weight", Xavier(fanIn, fanOut, weightShape, backend))

	var bias *Parameter[B]
	if cfg.Bias {
		bias = NewParameter("bias", Zeros(tensor.Shape{outChannels}, backend))
	}

	return &Conv2D[B]{
		inChannels:  inChannels,
		outChannels: outChannels,
		kernelSize:  kernelSize,
		stride:      cfg.Stride,
		padding:     cfg.Padding,
		dilation:    cfg.Dilation,
		groups:      cfg.Groups,
		useBias:     cfg.Bias,
		weight:      weight,
		bias:        bias,
		backend:     backend,
	}
}

// Forward performs the convolution.
//
// Input: [batch, in_channels, height, width],
// output: [batch, out_channels, out_h, out_w].
func (c *Conv2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	in := input.Shape()
	if len(in) != 4 {
		panic(fmt.Sprintf("conv2d: expected 4-D input [N,C,H,W], got %dD", len(in)))
	}
	if in[1] != c.inChannels {
		panic(fmt.Sprintf("conv2d: input channels %d != expected %d", in[1], c.inChannels))
	}

	raw := c.backend.Conv2D(
		input.Raw(),
		c.weight.Tensor().Raw(),
		c.stride,
		c.padding,
		c.dilation,
		c.groups,
	)
	y := tensor.New[float32, B](raw, c.backend)

	if c.useBias {
		y = y.Add(c.bias.Tensor().Reshape(1, c.outChannels, 1, 1))
	}

	return y
}

// Parameters returns the layer's parameters.
func (c *Conv2D[B]) Parameters() []*Parameter[B] {
	if c.useBias {
		return []*Parameter[B]{c.weight, c.bias}
	}
	return []*Parameter[B]{c.weight}
}

// String returns a short description of the layer.
func (c *Conv2D[B]) String() string {
	return fmt.Sprintf("Conv2D(in_channels=%d, out_channels=%d, kernel_size=(%d, %d), stride=(%d, %d), padding=(%d, %d), dilation=(%d, %d), groups=%d, bias=%v)",
		c.inChannels, c.outChannels,
		c.kernelSize[0], c.kernelSize[1],
		c.stride[0], c.stride[1],
		c.padding[0], c.padding[1],
		c.dilation[0], c.dilation[1],
		c.groups, c.useBias)
}

// InChannels returns the number of input channels.
func (c *Conv2D[B]) InChannels() int {
	return c.inChannels
}

// OutChannels returns the number of output channels.
func (c *Conv2D[B]) OutChannels() int {
	return c.outChannels
}

// KernelSize returns the kernel size (height, width).
func (c *Conv2D[B]) KernelSize() [2]int {
	return c.kernelSize
}

// Stride returns the stride (height, width).
func (c *Conv2D[B]) Stride() [2]int {
	return c.stride
}

// Padding returns the padding (height, width).
func (c *Conv2D[B]) Padding() [2]int {
	return c.padding
}

// Dilation returns the dilation (height, width).
func (c *Conv2D[B]) Dilation() [2]int {
	return c.dilation
}

// Groups returns the number of convolution groups.
func (c *Conv2D[B]) Groups() int {
	return c.groups
}

// HasBias reports whether the layer carries a bias term.
func (c *Conv2D[B]) HasBias() bool {
	return c.useBias
}

// Weight returns the weight parameter.
func (c *Conv2D[B]) Weight() *Parameter[B] {
	return c.weight
}

// Bias returns the bias parameter, or nil when the layer has none.
func (c *Conv2D[B]) Bias() *Parameter[B] {
	return c.bias
}

// ComputeOutputSize returns the output spatial dimensions for an input size.
func (c *Conv2D[B]) ComputeOutputSize(inputH, inputW int) [2]int {
	outH := (inputH+2*c.padding[0]-c.dilation[0]*(c.kernelSize[0]-1)-1)/c.stride[0] + 1
	outW := (inputW+2*c.padding[1]-c.dilation[1]*(c.kernelSize[1]-1)-1)/c.stride[1] + 1
	return [2]int{outH, outW}
}

// StateDict returns the layer's parameters keyed by name.
func (c *Conv2D[B]) StateDict() map[string]*tensor.RawTensor {
	sd := map[string]*tensor.RawTensor{
		"weight": c.weight.Tensor().Raw(),
	}
	if c.useBias {
		sd["bias"] = c.bias.Tensor().Raw()
	}
	return sd
}

// LoadStateDict copies weight and bias data out of a state dictionary.
func (c *Conv2D[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	w, ok := stateDict["weight"]
	if !ok {
		return fmt.Errorf("state dict has no weight entry")
	}
	want := tensor.Shape{c.outChannels, c.inChannels / c.groups, c.kernelSize[0], c.kernelSize[1]}
	if err := checkParam("weight", w, want); err != nil {
		return err
	}
	copy(c.weight.Tensor().Data(), w.AsFloat32())

	if c.useBias {
		b, ok := stateDict["bias"]
		if !ok {
			return fmt.Errorf("state dict has no bias entry")
		}
		if err := checkParam("bias", b, tensor.Shape{c.outChannels}); err != nil {
			return err
		}
		copy(c.bias.Tensor().Data(), b.AsFloat32())
	}

	return nil
}
