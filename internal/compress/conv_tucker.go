package compress

import (
	"fmt"

	"github.com/taper-ml/taper/internal/decomp"
	"github.com/taper-ml/taper/internal/nn"
	"github.com/taper-ml/taper/internal/tensor"
)

// TuckerConv2D rewrites a convolution as a Tucker chain with ranks
// estimated by EVBMF on the kernel's channel-mode unfoldings.
func TuckerConv2D[B tensor.Backend](layer *nn.Conv2D[B]) (*nn.Sequential[B], error) {
	ranks, err := EstimateConvRanks(layer)
	if err != nil {
		return nil, err
	}
	return TuckerConv2DRanks(layer, ranks)
}

// TuckerConv2DRanks rewrites a convolution as a three-stage Tucker
// chain with explicit channel ranks, ordered [output rank, input rank].
// The first stage contracts the input channels, the middle stage is a
// full convolution between the core's channel dimensions carrying the
// original stride, padding and dilation, and the last stage expands to
// the output channels and takes the bias.
func TuckerConv2DRanks[B tensor.Backend](layer *nn.Conv2D[B], ranks [2]int) (*nn.Sequential[B], error) {
	if layer.Groups() != 1 {
		return nil, fmt.Errorf("%w: grouped convolution", ErrUnsupported)
	}

	weight := layer.Weight().Tensor().Float64()
	core, factors, err := decomp.PartialTucker(weight, decomp.TuckerOptions{
		Ranks: ranks[:],
		Modes: []int{0, 1},
	})
	if err != nil {
		return nil, err
	}
	last, first := factors[0], factors[1]
	rankOut, rankIn := ranks[0], ranks[1]

	inC, outC := layer.InChannels(), layer.OutChannels()
	backend := layer.Weight().Tensor().Backend()

	pointwiseIn := nn.NewConv2D(inC, rankIn, [2]int{1, 1}, nn.Conv2DConfig{}, backend)
	coreConv := nn.NewConv2D(rankIn, rankOut, layer.KernelSize(), nn.Conv2DConfig{
		Stride:   layer.Stride(),
		Padding:  layer.Padding(),
		Dilation: layer.Dilation(),
	}, backend)
	pointwiseOut := nn.NewConv2D(rankOut, outC, [2]int{1, 1}, nn.Conv2DConfig{Bias: layer.HasBias()}, backend)

	w := pointwiseIn.Weight().Tensor().Data()
	for r := 0; r < rankIn; r++ {
		for s := 0; s < inC; s++ {
			w[r*inC+s] = float32(first.At(s, r))
		}
	}
	// Core layout [rankOut, rankIn, kh, kw] matches the kernel layout.
	w = coreConv.Weight().Tensor().Data()
	for i, v := range core.Data() {
		w[i] = float32(v)
	}
	w = pointwiseOut.Weight().Tensor().Data()
	for t := 0; t < outC; t++ {
		for r := 0; r < rankOut; r++ {
			w[t*rankOut+r] = float32(last.At(t, r))
		}
	}
	if layer.HasBias() {
		copy(pointwiseOut.Bias().Tensor().Data(), layer.Bias().Tensor().Data())
	}

	return nn.NewSequential[B](pointwiseIn, coreConv, pointwiseOut), nil
}
