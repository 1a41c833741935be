package compress

import (
	"github.com/taper-ml/taper/internal/decomp"
	"github.com/taper-ml/taper/internal/nn"
	"github.com/taper-ml/taper/internal/tensor"
)

// SVDLinear rewrites a linear layer as two stacked linear layers with
// the rank estimated by EVBMF on the weight matrix.
func SVDLinear[B tensor.Backend](layer *nn.Linear[B]) (*nn.Sequential[B], error) {
	rank, err := EstimateLinearRank(layer)
	if err != nil {
		return nil, err
	}
	return SVDLinearRank(layer, rank)
}

// SVDLinearRank rewrites a linear layer as the rank-k pair
// x -> (x V_k) (U_k S_k)^T: a contraction to k features followed by an
// expansion that carries the original bias.
func SVDLinearRank[B tensor.Backend](layer *nn.Linear[B], rank int) (*nn.Sequential[B], error) {
	weight := layer.Weight().Tensor().Float64()
	u, s, v, err := decomp.TruncatedSVD(weight, rank)
	if err != nil {
		return nil, err
	}

	in, out := layer.InFeatures(), layer.OutFeatures()
	backend := layer.Weight().Tensor().Backend()

	first := nn.NewLinear(in, rank, false, backend)
	second := nn.NewLinear(rank, out, layer.HasBias(), backend)

	// First weight [rank, in] is V^T, second [out, rank] is U scaled by
	// the singular values.
	w := first.Weight().Tensor().Data()
	for r := 0; r < rank; r++ {
		for j := 0; j < in; j++ {
			w[r*in+j] = float32(v.At(j, r))
		}
	}
	w = second.Weight().Tensor().Data()
	for o := 0; o < out; o++ {
		for r := 0; r < rank; r++ {
			w[o*rank+r] = float32(u.At(o, r) * s.At(r))
		}
	}
	if layer.HasBias() {
		copy(second.Bias().Tensor().Data(), layer.Bias().Tensor().Data())
	}

	return nn.NewSequential[B](first, second), nil
}
