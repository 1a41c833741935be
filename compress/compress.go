// Copyright 2026 Taper ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package compress

import (
	"github.com/taper-ml/taper/internal/compress"
	"github.com/taper-ml/taper/nn"
	"github.com/taper-ml/taper/tensor"
)

// Sentinel errors from the compression pass.
var (
	// ErrZeroRank reports a weight matrix EVBMF finds to be pure noise.
	ErrZeroRank = compress.ErrZeroRank
	// ErrUnsupported reports a layer or chain no rewrite applies to.
	ErrUnsupported = compress.ErrUnsupported
)

// ConvMethod selects the factorization applied to convolutions.
type ConvMethod = compress.ConvMethod

// Convolution rewrite methods.
const (
	// ConvTucker rewrites convolutions through a partial Tucker
	// decomposition of the channel modes, ranks estimated by EVBMF.
	ConvTucker ConvMethod = compress.ConvTucker
	// ConvCP rewrites convolutions through a CP decomposition into
	// separable stages.
	ConvCP ConvMethod = compress.ConvCP
)

// Config sets the policy for a model pass.
type Config = compress.Config

// Compressor applies a Config across a whole model.
type Compressor[B tensor.Backend] = compress.Compressor[B]

// NewCompressor returns a compressor with the given policy.
func NewCompressor[B tensor.Backend](config Config) *Compressor[B] {
	return compress.NewCompressor[B](config)
}

// LayerStats records what happened to one rewritten layer.
type LayerStats = compress.LayerStats

// Report collects the stats of every rewritten layer in a pass.
type Report = compress.Report

// CompressStateDict applies the compression pass to a bare state dict,
// with no model attached: 4-D "<base>.weight" kernels go through the
// configured convolution method, 2-D ones through truncated SVD, and a
// matching "<base>.bias" moves onto the chain's final stage. Chain
// weights land under positional names ("<base>.0.weight", ...), so a
// model rewritten by Compressor loads the result directly.
func CompressStateDict[B tensor.Backend](stateDict map[string]*tensor.RawTensor, config Config, backend B) (map[string]*tensor.RawTensor, *Report, error) {
	return compress.CompressStateDict[B](stateDict, config, backend)
}

// Single-layer rewrites

// CPConv2D factorizes a convolution into a chain of four: pointwise
// contract, depthwise vertical, depthwise horizontal, pointwise expand.
func CPConv2D[B tensor.Backend](layer *nn.Conv2D[B], rank int) (*nn.Sequential[B], error) {
	return compress.CPConv2D[B](layer, rank)
}

// HeuristicCPRank returns the CP rank used when none is configured:
// the largest kernel dimension over three, floored at one.
func HeuristicCPRank[B tensor.Backend](layer *nn.Conv2D[B]) int {
	return compress.HeuristicCPRank[B](layer)
}

// TuckerConv2D factorizes a convolution into a chain of three:
// pointwise contract, core convolution, pointwise expand, with the
// channel ranks estimated by EVBMF.
func TuckerConv2D[B tensor.Backend](layer *nn.Conv2D[B]) (*nn.Sequential[B], error) {
	return compress.TuckerConv2D[B](layer)
}

// TuckerConv2DRanks is TuckerConv2D with fixed [output, input] channel
// ranks.
func TuckerConv2DRanks[B tensor.Backend](layer *nn.Conv2D[B], ranks [2]int) (*nn.Sequential[B], error) {
	return compress.TuckerConv2DRanks[B](layer, ranks)
}

// SVDLinear factorizes a linear layer into two stacked projections,
// rank estimated by EVBMF.
func SVDLinear[B tensor.Backend](layer *nn.Linear[B]) (*nn.Sequential[B], error) {
	return compress.SVDLinear[B](layer)
}

// SVDLinearRank is SVDLinear with a fixed rank.
func SVDLinearRank[B tensor.Backend](layer *nn.Linear[B], rank int) (*nn.Sequential[B], error) {
	return compress.SVDLinearRank[B](layer, rank)
}

// Rank estimation

// EstimateConvRanks estimates Tucker channel ranks for a convolution
// from the mode-0 and mode-1 unfoldings of its kernel.
func EstimateConvRanks[B tensor.Backend](layer *nn.Conv2D[B]) ([2]int, error) {
	return compress.EstimateConvRanks[B](layer)
}

// EstimateLinearRank estimates the SVD rank for a linear layer.
func EstimateLinearRank[B tensor.Backend](layer *nn.Linear[B]) (int, error) {
	return compress.EstimateLinearRank[B](layer)
}

// Diagnostics

// ConvChainError folds a factorized chain back into one dense kernel
// and reports the relative Frobenius error against the original layer.
func ConvChainError[B tensor.Backend](layer *nn.Conv2D[B], chain *nn.Sequential[B]) (float64, error) {
	return compress.ConvChainError[B](layer, chain)
}

// LinearChainError is ConvChainError for factorized linear layers.
func LinearChainError[B tensor.Backend](layer *nn.Linear[B], chain *nn.Sequential[B]) (float64, error) {
	return compress.LinearChainError[B](layer, chain)
}

// ForwardDelta runs two modules on the same input and returns the
// largest absolute difference between their outputs.
func ForwardDelta[B tensor.Backend](a, b nn.Module[B], input *tensor.Tensor[float32, B]) float64 {
	return compress.ForwardDelta[B](a, b, input)
}
