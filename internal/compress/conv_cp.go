package compress

import (
	"fmt"

	"github.com/taper-ml/taper/internal/decomp"
	"github.com/taper-ml/taper/internal/nn"
	"github.com/taper-ml/taper/internal/tensor"
)

// CPConv2D rewrites a convolution as a rank-R CP chain of four stages:
// a pointwise contraction to R channels, a depthwise vertical pass, a
// depthwise horizontal pass, and a pointwise expansion back to the
// output channels. The vertical stage carries the row stride, padding
// and dilation, the horizontal stage the column ones, so the chain
// reproduces the original output size. The bias, when present, moves to
// the final stage.
func CPConv2D[B tensor.Backend](layer *nn.Conv2D[B], rank int) (*nn.Sequential[B], error) {
	if layer.Groups() != 1 {
		return nil, fmt.Errorf("%w: grouped convolution", ErrUnsupported)
	}

	weight := layer.Weight().Tensor().Float64()
	factors, err := decomp.CP(weight, decomp.DefaultCPOptions(rank))
	if err != nil {
		return nil, err
	}
	last, first := factors[0], factors[1]
	vertical, horizontal := factors[2], factors[3]

	inC, outC := layer.InChannels(), layer.OutChannels()
	k := layer.KernelSize()
	stride, padding, dilation := layer.Stride(), layer.Padding(), layer.Dilation()
	backend := layer.Weight().Tensor().Backend()

	pointwiseIn := nn.NewConv2D(inC, rank, [2]int{1, 1}, nn.Conv2DConfig{}, backend)
	verticalConv := nn.NewConv2D(rank, rank, [2]int{k[0], 1}, nn.Conv2DConfig{
		Stride:   [2]int{stride[0], 1},
		Padding:  [2]int{padding[0], 0},
		Dilation: [2]int{dilation[0], 1},
		Groups:   rank,
	}, backend)
	horizontalConv := nn.NewConv2D(rank, rank, [2]int{1, k[1]}, nn.Conv2DConfig{
		Stride:   [2]int{1, stride[1]},
		Padding:  [2]int{0, padding[1]},
		Dilation: [2]int{1, dilation[1]},
		Groups:   rank,
	}, backend)
	pointwiseOut := nn.NewConv2D(rank, outC, [2]int{1, 1}, nn.Conv2DConfig{Bias: layer.HasBias()}, backend)

	// Factor columns scatter into the stage kernels: [rank, inC, 1, 1],
	// [rank, 1, kh, 1], [rank, 1, 1, kw] and [outC, rank, 1, 1].
	w := pointwiseIn.Weight().Tensor().Data()
	for r := 0; r < rank; r++ {
		for s := 0; s < inC; s++ {
			w[r*inC+s] = float32(first.At(s, r))
		}
	}
	w = verticalConv.Weight().Tensor().Data()
	for r := 0; r < rank; r++ {
		for h := 0; h < k[0]; h++ {
			w[r*k[0]+h] = float32(vertical.At(h, r))
		}
	}
	w = horizontalConv.Weight().Tensor().Data()
	for r := 0; r < rank; r++ {
		for x := 0; x < k[1]; x++ {
			w[r*k[1]+x] = float32(horizontal.At(x, r))
		}
	}
	w = pointwiseOut.Weight().Tensor().Data()
	for t := 0; t < outC; t++ {
		for r := 0; r < rank; r++ {
			w[t*rank+r] = float32(last.At(t, r))
		}
	}
	if layer.HasBias() {
		copy(pointwiseOut.Bias().Tensor().Data(), layer.Bias().Tensor().Data())
	}

	return nn.NewSequential[B](pointwiseIn, verticalConv, horizontalConv, pointwiseOut), nil
}

// HeuristicCPRank is the rank used for CP when none is given: a third
// of the largest kernel dimension, floored at one.
func HeuristicCPRank[B tensor.Backend](layer *nn.Conv2D[B]) int {
	rank := 0
	for _, d := range layer.Weight().Tensor().Shape() {
		if d > rank {
			rank = d
		}
	}
	rank /= 3
	if rank < 1 {
		rank = 1
	}
	return rank
}
