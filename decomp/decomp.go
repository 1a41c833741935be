// Copyright 2026 Taper ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package decomp

import (
	"github.com/taper-ml/taper/internal/decomp"
	"github.com/taper-ml/taper/tensor"
)

// Sentinel errors from the decomposition routines.
var (
	// ErrInvalidRank reports a rank outside [1, dim].
	ErrInvalidRank = decomp.ErrInvalidRank
	// ErrBadShape reports an input with the wrong dimensionality.
	ErrBadShape = decomp.ErrBadShape
	// ErrSVDFailed reports a factorization that did not converge.
	ErrSVDFailed = decomp.ErrSVDFailed
)

// Init selects how CP factor matrices are seeded.
type Init = decomp.Init

// Factor seeding strategies.
const (
	InitAuto   Init = decomp.InitAuto
	InitSVD    Init = decomp.InitSVD
	InitRandom Init = decomp.InitRandom
)

// CPOptions configures a CP decomposition.
type CPOptions = decomp.CPOptions

// DefaultCPOptions returns the options used for convolution kernels.
func DefaultCPOptions(rank int) CPOptions {
	return decomp.DefaultCPOptions(rank)
}

// CP approximates x as a sum of opts.Rank rank-one tensors via
// alternating least squares, returning one factor matrix of shape
// [dim_n, rank] per mode.
func CP[B tensor.Backend](x *tensor.Tensor[float64, B], opts CPOptions) ([]*tensor.Tensor[float64, B], error) {
	return decomp.CP[B](x, opts)
}

// CPToTensor reconstructs the dense tensor a set of CP factors
// describes.
func CPToTensor[B tensor.Backend](factors []*tensor.Tensor[float64, B]) (*tensor.Tensor[float64, B], error) {
	return decomp.CPToTensor[B](factors)
}

// TuckerOptions configures a partial Tucker decomposition.
type TuckerOptions = decomp.TuckerOptions

// PartialTucker computes a Tucker decomposition of x restricted to the
// given modes: a core tensor plus one orthonormal factor matrix of
// shape [dim_m, rank_m] per compressed mode. Modes not listed keep
// their full dimension in the core.
func PartialTucker[B tensor.Backend](x *tensor.Tensor[float64, B], opts TuckerOptions) (*tensor.Tensor[float64, B], []*tensor.Tensor[float64, B], error) {
	return decomp.PartialTucker[B](x, opts)
}

// TuckerToTensor reconstructs the dense tensor from a core and the
// factors applied on the given modes.
func TuckerToTensor[B tensor.Backend](core *tensor.Tensor[float64, B], factors []*tensor.Tensor[float64, B], modes []int) (*tensor.Tensor[float64, B], error) {
	return decomp.TuckerToTensor[B](core, factors, modes)
}

// TruncatedSVD computes the rank-k factorization W ~= U * diag(S) * V^T
// of a 2-D tensor, returning U [m, k], S [k] and V [n, k].
func TruncatedSVD[B tensor.Backend](w *tensor.Tensor[float64, B], rank int) (u, s, v *tensor.Tensor[float64, B], err error) {
	return decomp.TruncatedSVD[B](w, rank)
}
