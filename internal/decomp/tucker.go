package decomp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/taper-ml/taper/internal/tensor"
)

const (
	defaultTuckerIter = 100
	defaultTuckerTol  = 1e-4
)

// TuckerOptions configures a partial Tucker decomposition.
type TuckerOptions struct {
	// Ranks holds the target dimension for each entry of Modes.
	Ranks []int
	// Modes lists the modes to compress. Nil means every mode.
	Modes []int
	// MaxIter bounds the number of HOOI sweeps. Zero means 100.
	MaxIter int
	// Tol stops the sweeps once the change in relative reconstruction
	// error drops below it. Zero means 1e-4.
	Tol float64
}

// PartialTucker computes a Tucker decomposition of x restricted to the
// given modes: a core tensor plus one orthonormal factor matrix of
// shape [dim_m, rank_m] per compressed mode. Modes not listed keep
// their full dimension in the core.
//
// Factors are seeded by higher-order SVD and refined with higher-order
// orthogonal iteration.
func PartialTucker[B tensor.Backend](x *tensor.Tensor[float64, B], opts TuckerOptions) (*tensor.Tensor[float64, B], []*tensor.Tensor[float64, B], error) {
	shape := x.Shape()
	ndim := len(shape)
	if ndim < 2 {
		return nil, nil, fmt.Errorf("%w: Tucker needs at least 2 modes, got shape %v", ErrBadShape, shape)
	}

	modes := opts.Modes
	if modes == nil {
		modes = make([]int, ndim)
		for i := range modes {
			modes[i] = i
		}
	}
	if len(opts.Ranks) != len(modes) {
		return nil, nil, fmt.Errorf("%w: %d ranks for %d modes", ErrInvalidRank, len(opts.Ranks), len(modes))
	}
	seen := make(map[int]bool, len(modes))
	for i, mode := range modes {
		if mode < 0 || mode >= ndim {
			return nil, nil, fmt.Errorf("%w: mode %d out of range for shape %v", ErrBadShape, mode, shape)
		}
		if seen[mode] {
			return nil, nil, fmt.Errorf("%w: mode %d listed twice", ErrBadShape, mode)
		}
		seen[mode] = true
		if r := opts.Ranks[i]; r < 1 || r > shape[mode] {
			return nil, nil, fmt.Errorf("%w: rank %d for mode %d of dimension %d", ErrInvalidRank, r, mode, shape[mode])
		}
	}

	maxIter := opts.MaxIter
	if maxIter <= 0 {
		maxIter = defaultTuckerIter
	}
	tol := opts.Tol
	if tol <= 0 {
		tol = defaultTuckerTol
	}

	factors := make([]*mat.Dense, len(modes))
	for i, mode := range modes {
		u, err := leadingLeftVectors(tensor.ToDense(x.Unfold(mode)), opts.Ranks[i])
		if err != nil {
			return nil, nil, fmt.Errorf("tucker init mode %d: %w", mode, err)
		}
		factors[i] = u
	}

	normX := frobNorm(x.Data())
	var core *tensor.Tensor[float64, B]
	prevErr := math.Inf(1)
	for iter := 0; iter < maxIter; iter++ {
		for i, mode := range modes {
			// Project onto every other compressed mode's current
			// subspace, then refresh this mode's basis from the
			// projection.
			approx := multiModeProject(x, modes, factors, i)
			u, err := leadingLeftVectors(tensor.ToDense(approx.Unfold(mode)), opts.Ranks[i])
			if err != nil {
				return nil, nil, fmt.Errorf("tucker mode %d: %w", mode, err)
			}
			factors[i] = u
		}
		core = multiModeProject(x, modes, factors, -1)
		if normX == 0 {
			break
		}

		// Orthonormal factors leave the core carrying the whole
		// reconstruction norm.
		coreNorm := frobNorm(core.Data())
		errSq := normX*normX - coreNorm*coreNorm
		if errSq < 0 {
			errSq = 0
		}
		relErr := math.Sqrt(errSq) / normX
		if math.Abs(prevErr-relErr) < tol {
			break
		}
		prevErr = relErr
	}

	out := make([]*tensor.Tensor[float64, B], len(modes))
	for i, f := range factors {
		out[i] = tensor.FromDense(f, x.Backend())
	}
	return core, out, nil
}

// TuckerToTensor recomposes a partial Tucker core and its factors back
// into the full tensor.
func TuckerToTensor[B tensor.Backend](core *tensor.Tensor[float64, B], factors []*tensor.Tensor[float64, B], modes []int) (*tensor.Tensor[float64, B], error) {
	if len(factors) != len(modes) {
		return nil, fmt.Errorf("%w: %d factors for %d modes", ErrBadShape, len(factors), len(modes))
	}

	out := core
	for i, mode := range modes {
		shape := out.Shape()
		if mode < 0 || mode >= len(shape) {
			return nil, fmt.Errorf("%w: mode %d out of range for core shape %v", ErrBadShape, mode, shape)
		}
		fs := factors[i].Shape()
		if len(fs) != 2 || fs[1] != shape[mode] {
			return nil, fmt.Errorf("%w: factor %d has shape %v, want [_, %d]", ErrBadShape, i, fs, shape[mode])
		}
		out = modeProduct(out, mode, tensor.ToDense(factors[i]))
	}
	return out, nil
}

// multiModeProject applies factor transposes along the listed modes,
// skipping the factor at index skip. Pass a negative skip to project
// every mode.
func multiModeProject[B tensor.Backend](x *tensor.Tensor[float64, B], modes []int, factors []*mat.Dense, skip int) *tensor.Tensor[float64, B] {
	out := x
	for i, mode := range modes {
		if i == skip {
			continue
		}
		out = modeProduct(out, mode, factors[i].T())
	}
	return out
}
