package compress

import (
	"fmt"
	"sort"
	"strings"

	"github.com/taper-ml/taper/internal/nn"
	"github.com/taper-ml/taper/internal/tensor"
)

// CompressStateDict applies the compression pass to a bare state dict,
// with no model attached. Float32 tensors named "<base>.weight" are
// rewritten: 4-D kernels through the configured convolution method,
// 2-D matrices through truncated SVD. A matching "<base>.bias" moves
// onto the chain's final stage. Everything else copies through
// unchanged.
//
// Chain weights land under the positional names a rewritten module
// would produce, "<base>.0.weight" through "<base>.3.bias", so a model
// whose layers were replaced by Compressor loads the result directly.
//
// Kernels are treated as dense: a state dict does not record grouping,
// so grouped convolutions should be excluded by name beforehand.
func CompressStateDict[B tensor.Backend](stateDict map[string]*tensor.RawTensor, config Config, backend B) (map[string]*tensor.RawTensor, *Report, error) {
	names := make([]string, 0, len(stateDict))
	for name := range stateDict {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]*tensor.RawTensor, len(stateDict))
	report := &Report{}
	consumed := make(map[string]bool, len(stateDict))

	for _, name := range names {
		if consumed[name] {
			continue
		}
		raw := stateDict[name]

		base, isWeight := strings.CutSuffix(name, ".weight")
		if !isWeight || base == "" || raw.DType() != tensor.Float32 {
			out[name] = raw
			continue
		}

		ndim := len(raw.Shape())
		if ndim != 2 && ndim != 4 {
			out[name] = raw
			continue
		}

		bias, hasBias := pairedBias(stateDict, base, raw.Shape()[0])
		before := raw.NumElements()
		if hasBias {
			before += bias.NumElements()
		}
		if before < config.MinParams {
			out[name] = raw
			continue
		}

		stats, chainDict, err := rewriteTensor(raw, bias, hasBias, config, backend)
		if err != nil {
			return nil, nil, fmt.Errorf("tensor %s: %w", name, err)
		}
		for key, value := range chainDict {
			out[base+"."+key] = value
		}
		if hasBias {
			// The bias sorts before its weight, so it was already
			// copied through; pull it back out of the result.
			consumed[base+".bias"] = true
			delete(out, base+".bias")
		}

		stats.Name = base
		stats.ParamsBefore = before
		report.append(stats)
	}
	return out, report, nil
}

// rewriteTensor rebuilds a temporary layer around one weight tensor,
// factorizes it, and returns the chain's state dict.
func rewriteTensor[B tensor.Backend](raw, bias *tensor.RawTensor, hasBias bool, config Config, backend B) (LayerStats, map[string]*tensor.RawTensor, error) {
	shape := raw.Shape()
	c := Compressor[B]{config: config}

	if len(shape) == 4 {
		cfg := nn.DefaultConv2DConfig()
		cfg.Bias = hasBias
		layer := nn.NewConv2D(shape[1], shape[0], [2]int{shape[2], shape[3]}, cfg, backend)
		copy(layer.Weight().Tensor().Data(), raw.AsFloat32())
		if hasBias {
			copy(layer.Bias().Tensor().Data(), bias.AsFloat32())
		}

		chain, ranks, err := c.rewriteConv(layer)
		if err != nil {
			return LayerStats{}, nil, err
		}
		werr, err := ConvChainError(layer, chain)
		if err != nil {
			return LayerStats{}, nil, err
		}
		return LayerStats{
			Method:      config.Conv.String(),
			Shape:       shape,
			Ranks:       ranks,
			ParamsAfter: paramCount(chain.Parameters()),
			WeightError: werr,
		}, chain.StateDict(), nil
	}

	layer := nn.NewLinear(shape[1], shape[0], hasBias, backend)
	copy(layer.Weight().Tensor().Data(), raw.AsFloat32())
	if hasBias {
		copy(layer.Bias().Tensor().Data(), bias.AsFloat32())
	}

	rank := config.LinearRank
	if rank == 0 {
		var err error
		rank, err = EstimateLinearRank(layer)
		if err != nil {
			return LayerStats{}, nil, err
		}
	}
	chain, err := SVDLinearRank(layer, rank)
	if err != nil {
		return LayerStats{}, nil, err
	}
	werr, err := LinearChainError(layer, chain)
	if err != nil {
		return LayerStats{}, nil, err
	}
	return LayerStats{
		Method:      "svd",
		Shape:       shape,
		Ranks:       []int{rank},
		ParamsAfter: paramCount(chain.Parameters()),
		WeightError: werr,
	}, chain.StateDict(), nil
}

// pairedBias returns the bias tensor belonging to a weight, when one
// exists with the expected length.
func pairedBias(stateDict map[string]*tensor.RawTensor, base string, outDim int) (*tensor.RawTensor, bool) {
	bias, ok := stateDict[base+".bias"]
	if !ok || bias.DType() != tensor.Float32 {
		return nil, false
	}
	if len(bias.Shape()) != 1 || bias.NumElements() != outDim {
		return nil, false
	}
	return bias, true
}
