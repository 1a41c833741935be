// Package vbmf estimates the rank of a noisy matrix with the global
// analytic solution of empirical variational Bayes matrix factorization
// (Nakajima et al., JMLR 2013). Singular values are shrunk against an
// analytic threshold; the count of survivors is the estimated rank.
//
// The estimator needs no tuning: the noise variance is recovered from
// the spectrum itself when not supplied.
package vbmf

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/taper-ml/taper/internal/tensor"
)

var (
	// ErrBadShape is returned when the input is not a 2-D tensor.
	ErrBadShape = errors.New("vbmf: bad shape")

	// ErrSVDFailed is returned when the spectrum cannot be computed.
	ErrSVDFailed = errors.New("vbmf: SVD failed to converge")
)

// tauBarCoeff scales sqrt(alpha) into the per-shape threshold constant
// tau-bar from the analytic solution.
const tauBarCoeff = 2.5129

// sigmaSearchTol is the absolute bracket width at which the noise
// variance search stops, in the rescaled domain.
const sigmaSearchTol = 1e-5

// Options configures an EVBMF estimate.
type Options struct {
	// Sigma2 fixes the noise variance. Zero or negative means estimate
	// it from the spectrum.
	Sigma2 float64
}

// Result holds the estimated rank and the quantities behind it.
type Result struct {
	// Rank is the number of singular values above the threshold.
	Rank int
	// Sigma2 is the noise variance used for the threshold, estimated
	// unless fixed through Options.
	Sigma2 float64
	// Threshold is the singular value cutoff.
	Threshold float64
	// Observed holds the leading singular values that were examined.
	Observed []float64
	// Shrunk holds the posterior singular values for the retained
	// components, one per retained rank.
	Shrunk []float64
}

// EVBMF estimates the rank of a 2-D tensor observed under additive
// noise. The orientation of the input does not matter: only its
// spectrum and dimensions enter the estimate.
func EVBMF[B tensor.Backend](y *tensor.Tensor[float64, B], opts Options) (Result, error) {
	shape := y.Shape()
	if len(shape) != 2 {
		return Result{}, fmt.Errorf("%w: expected 2-D tensor, got shape %v", ErrBadShape, shape)
	}

	// The analysis assumes the short side first. Singular values are
	// orientation-free, so swapping the dimensions is enough.
	l, m := shape[0], shape[1]
	if l > m {
		l, m = m, l
	}

	var svd mat.SVD
	if ok := svd.Factorize(tensor.ToDense(y), mat.SVDNone); !ok {
		return Result{}, fmt.Errorf("%w: shape %v", ErrSVDFailed, shape)
	}
	s := svd.Values(nil)

	alpha := float64(l) / float64(m)
	tauBar := tauBarCoeff * math.Sqrt(alpha)
	xuBar := (1 + tauBar) * (1 + alpha/tauBar)

	sigma2 := opts.Sigma2
	scale := 1.0
	if sigma2 <= 0 {
		sumSq := 0.0
		for _, sv := range s {
			sumSq += sv * sv
		}
		upper := sumSq / float64(l*m)
		if upper == 0 {
			// A zero matrix has nothing to keep.
			return Result{Observed: s, Shrunk: []float64{}}, nil
		}

		// Index past which the spectrum is treated as pure noise when
		// bracketing the variance.
		idx := int(math.Min(math.Ceil(float64(l)/(1+alpha))-1, float64(l)))
		if idx > l-1 {
			idx = l - 1
		}
		if idx < 0 {
			idx = 0
		}
		tailMean := 0.0
		for _, sv := range s[idx:] {
			tailMean += sv * sv
		}
		tailMean /= float64(len(s[idx:]))
		lower := math.Max(s[idx]*s[idx]/(float64(m)*xuBar), tailMean/float64(m))
		// An exactly low-rank input collapses the bracket.
		if floor := upper * 1e-15; lower < floor {
			lower = floor
		}

		scale = 1 / lower
		for i := range s {
			s[i] *= math.Sqrt(scale)
		}

		sigma2 = goldenMin(func(v float64) float64 {
			return evbObjective(v, l, m, s, xuBar)
		}, lower*scale, upper*scale, sigmaSearchTol)
	}

	threshold := math.Sqrt(float64(m) * sigma2 * xuBar)
	rank := 0
	for _, sv := range s {
		if sv > threshold {
			rank++
		}
	}

	// Shrunk values follow the posterior mean formula for the retained
	// components.
	shrunk := make([]float64, rank)
	for i := range shrunk {
		sv := s[i]
		c := float64(l+m) * sigma2 / (sv * sv)
		disc := (1-c)*(1-c) - 4*float64(l)*float64(m)*sigma2*sigma2/(sv*sv*sv*sv)
		if disc < 0 {
			disc = 0
		}
		shrunk[i] = sv / 2 * (1 - c + math.Sqrt(disc))
	}

	// Report in the input's units.
	sqrtScale := math.Sqrt(scale)
	observed := make([]float64, len(s))
	for i, sv := range s {
		observed[i] = sv / sqrtScale
	}
	for i := range shrunk {
		shrunk[i] /= sqrtScale
	}

	return Result{
		Rank:      rank,
		Sigma2:    sigma2 / scale,
		Threshold: threshold / sqrtScale,
		Observed:  observed,
		Shrunk:    shrunk,
	}, nil
}

// evbObjective is the negative evidence of the noise variance given the
// rescaled spectrum. Components above xuBar carry signal terms, the
// rest are pure noise.
func evbObjective(sigma2 float64, l, m int, s []float64, xuBar float64) float64 {
	alpha := float64(l) / float64(m)
	obj := 0.0
	for _, sv := range s {
		x := sv * sv / (float64(m) * sigma2)
		if x > xuBar {
			t := tau(x, alpha)
			obj += x - t
			obj += math.Log((t + 1) / x)
			obj += alpha * math.Log(t/alpha+1)
		} else {
			obj += x - math.Log(x)
		}
	}
	return obj
}

// tau is the signal strength solving the stationarity condition at a
// rescaled squared singular value x.
func tau(x, alpha float64) float64 {
	b := x - (1 + alpha)
	return 0.5 * (b + math.Sqrt(b*b-4*alpha))
}

// goldenMin minimizes f over [a, b] by golden-section search until the
// bracket is narrower than tol.
func goldenMin(f func(float64) float64, a, b, tol float64) float64 {
	const invPhi = 0.6180339887498949

	x1 := b - invPhi*(b-a)
	x2 := a + invPhi*(b-a)
	f1, f2 := f(x1), f(x2)
	for b-a > tol {
		if f1 <= f2 {
			b, x2, f2 = x2, x1, f1
			x1 = b - invPhi*(b-a)
			f1 = f(x1)
		} else {
			a, x1, f1 = x1, x2, f2
			x2 = a + invPhi*(b-a)
			f2 = f(x2)
		}
	}
	return (a + b) / 2
}
