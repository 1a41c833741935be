package compress

import (
	"fmt"

	"github.com/taper-ml/taper/internal/nn"
	"github.com/taper-ml/taper/internal/tensor"
	"github.com/taper-ml/taper/internal/vbmf"
)

// EstimateConvRanks estimates Tucker ranks for a convolution kernel:
// EVBMF applied to the mode-0 and mode-1 unfoldings yields the output
// and input channel ranks, in that order.
func EstimateConvRanks[B tensor.Backend](layer *nn.Conv2D[B]) ([2]int, error) {
	weight := layer.Weight().Tensor().Float64()

	var ranks [2]int
	for mode := 0; mode < 2; mode++ {
		res, err := vbmf.EVBMF(weight.Unfold(mode), vbmf.Options{})
		if err != nil {
			return ranks, err
		}
		if res.Rank == 0 {
			return ranks, fmt.Errorf("%w: mode %d of kernel %v", ErrZeroRank, mode, weight.Shape())
		}
		ranks[mode] = res.Rank
	}
	return ranks, nil
}

// EstimateLinearRank estimates the SVD rank for a linear layer's weight
// matrix with EVBMF.
func EstimateLinearRank[B tensor.Backend](layer *nn.Linear[B]) (int, error) {
	res, err := vbmf.EVBMF(layer.Weight().Tensor().Float64(), vbmf.Options{})
	if err != nil {
		return 0, err
	}
	if res.Rank == 0 {
		return 0, fmt.Errorf("%w: weight %v", ErrZeroRank, layer.Weight().Tensor().Shape())
	}
	return res.Rank, nil
}
