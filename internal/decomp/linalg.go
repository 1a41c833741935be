package decomp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/taper-ml/taper/internal/tensor"
)

// khatriRao computes the column-wise Kronecker product of a [I, R] and
// b [J, R]: result [(I*J), R] with out[i*J+j, r] = a[i,r] * b[j,r].
//
// Chained left to right this matches the column ordering of a row-major
// mode-n unfolding, where later modes vary fastest.
func khatriRao(a, b *mat.Dense) *mat.Dense {
	ai, ar := a.Dims()
	bi, br := b.Dims()
	if ar != br {
		panic(fmt.Sprintf("khatri-rao: column mismatch %d vs %d", ar, br))
	}

	out := mat.NewDense(ai*bi, ar, nil)
	for i := 0; i < ai; i++ {
		for j := 0; j < bi; j++ {
			row := i*bi + j
			for r := 0; r < ar; r++ {
				out.Set(row, r, a.At(i, r)*b.At(j, r))
			}
		}
	}
	return out
}

// khatriRaoSkip chains the Khatri-Rao product of all factors except the
// one at index skip, preserving factor order.
func khatriRaoSkip(factors []*mat.Dense, skip int) *mat.Dense {
	var out *mat.Dense
	for i, f := range factors {
		if i == skip {
			continue
		}
		if out == nil {
			out = mat.DenseCopyOf(f)
		} else {
			out = khatriRao(out, f)
		}
	}
	return out
}

// gram computes A^T A.
func gram(a *mat.Dense) *mat.Dense {
	_, c := a.Dims()
	out := mat.NewDense(c, c, nil)
	out.Mul(a.T(), a)
	return out
}

// hadamardGramsSkip computes the element-wise product of the Gram
// matrices of all factors except the one at index skip.
func hadamardGramsSkip(grams []*mat.Dense, skip int) *mat.Dense {
	var out *mat.Dense
	for i, g := range grams {
		if i == skip {
			continue
		}
		if out == nil {
			out = mat.DenseCopyOf(g)
		} else {
			out.MulElem(out, g)
		}
	}
	return out
}

// pinv computes the Moore-Penrose pseudoinverse via SVD, zeroing
// singular values below eps times the largest.
func pinv(a *mat.Dense) (*mat.Dense, error) {
	r, c := a.Dims()

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, fmt.Errorf("%w: pinv of %dx%d matrix", ErrSVDFailed, r, c)
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	values := svd.Values(nil)

	eps := 1e-14
	cutoff := 0.0
	if len(values) > 0 {
		cutoff = eps * values[0] * float64(max(r, c))
	}

	k := len(values)
	sigmaInv := mat.NewDense(k, k, nil)
	for i, sv := range values {
		if sv > cutoff {
			sigmaInv.Set(i, i, 1/sv)
		}
	}

	// pinv(A) = V * Sigma^-1 * U^T
	out := mat.NewDense(c, r, nil)
	var tmp mat.Dense
	tmp.Mul(&v, sigmaInv)
	out.Mul(&tmp, u.T())
	return out, nil
}

// leadingLeftVectors returns the k leading left singular vectors of m
// as a dense [rows, k] matrix.
func leadingLeftVectors(m mat.Matrix, k int) (*mat.Dense, error) {
	r, c := m.Dims()
	if k > min(r, c) {
		return nil, fmt.Errorf("%w: %d leading vectors of a %dx%d matrix", ErrInvalidRank, k, r, c)
	}

	var svd mat.SVD
	if ok := svd.Factorize(m, mat.SVDThin); !ok {
		return nil, fmt.Errorf("%w: %dx%d matrix", ErrSVDFailed, r, c)
	}

	var u mat.Dense
	svd.UTo(&u)
	return u.Slice(0, r, 0, k).(*mat.Dense), nil
}

// modeProduct multiplies tensor x along the given mode by matrix m
// [j, I_mode]: the mode's dimension I_mode becomes j.
func modeProduct[B tensor.Backend](x *tensor.Tensor[float64, B], mode int, m mat.Matrix) *tensor.Tensor[float64, B] {
	j, iMode := m.Dims()
	shape := x.Shape()
	if shape[mode] != iMode {
		panic(fmt.Sprintf("mode product: matrix columns %d != tensor dim %d of mode %d", iMode, shape[mode], mode))
	}

	unfolded := tensor.ToDense(x.Unfold(mode))
	var product mat.Dense
	product.Mul(m, unfolded)

	newShape := shape.Clone()
	newShape[mode] = j
	return tensor.Fold(tensor.FromDense(&product, x.Backend()), mode, newShape)
}

// frobNorm computes the Frobenius norm of a flat data slice.
func frobNorm(data []float64) float64 {
	sum := 0.0
	for _, v := range data {
		sum += v * v
	}
	return math.Sqrt(sum)
}
