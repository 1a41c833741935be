// Package decomp implements the low-rank factorizations the compression
// pass is built on: truncated SVD for matrices, CP (canonical polyadic)
// decomposition and partial Tucker decomposition for 4-D convolution
// kernels.
//
// Everything here runs in float64 on gonum dense matrices; tensors enter
// and leave through the mode-n unfolding bridge in the tensor package.
package decomp

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/taper-ml/taper/internal/tensor"
)

var (
	// ErrInvalidRank is returned when a requested rank is out of range
	// for the tensor being factorized.
	ErrInvalidRank = errors.New("decomp: invalid rank")

	// ErrBadShape is returned when a tensor has the wrong number of
	// dimensions for the requested factorization.
	ErrBadShape = errors.New("decomp: bad shape")

	// ErrSVDFailed is returned when the underlying SVD does not converge.
	ErrSVDFailed = errors.New("decomp: SVD failed to converge")
)

// TruncatedSVD computes the rank-k factorization W ~= U * diag(S) * V^T
// of a 2-D tensor.
//
// Returns U [m, k], S [k] and V [n, k], holding the k leading singular
// triplets. The rank must satisfy 1 <= k <= min(m, n).
func TruncatedSVD[B tensor.Backend](w *tensor.Tensor[float64, B], rank int) (u, s, v *tensor.Tensor[float64, B], err error) {
	shape := w.Shape()
	if len(shape) != 2 {
		return nil, nil, nil, fmt.Errorf("%w: expected 2-D tensor, got shape %v", ErrBadShape, shape)
	}

	m, n := shape[0], shape[1]
	if rank < 1 || rank > min(m, n) {
		return nil, nil, nil, fmt.Errorf("%w: rank %d not in [1, %d] for shape %v", ErrInvalidRank, rank, min(m, n), shape)
	}

	var svd mat.SVD
	if ok := svd.Factorize(tensor.ToDense(w), mat.SVDThin); !ok {
		return nil, nil, nil, fmt.Errorf("%w: shape %v", ErrSVDFailed, shape)
	}

	var fullU, fullV mat.Dense
	svd.UTo(&fullU)
	svd.VTo(&fullV)
	values := svd.Values(nil)

	backend := w.Backend()
	u = tensor.FromDense(fullU.Slice(0, m, 0, rank), backend)
	v = tensor.FromDense(fullV.Slice(0, n, 0, rank), backend)

	s = tensor.Zeros[float64](tensor.Shape{rank}, backend)
	copy(s.Data(), values[:rank])

	return u, s, v, nil
}
