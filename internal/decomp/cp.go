package decomp

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/taper-ml/taper/internal/tensor"
)

// Init selects how factor matrices are seeded before the alternating
// least squares sweeps.
type Init int

const (
	// InitAuto picks InitSVD for small tensors and InitRandom once any
	// dimension reaches autoInitThreshold.
	InitAuto Init = iota
	// InitSVD seeds each factor with leading left singular vectors of
	// the matching mode unfolding.
	InitSVD
	// InitRandom seeds factors with uniform entries in [0, 1).
	InitRandom
)

func (i Init) String() string {
	switch i {
	case InitAuto:
		return "auto"
	case InitSVD:
		return "svd"
	case InitRandom:
		return "random"
	default:
		return fmt.Sprintf("Init(%d)", int(i))
	}
}

const (
	autoInitThreshold = 256

	defaultCPIter = 100
	defaultCPTol  = 1e-8
)

// CPOptions configures a CP decomposition.
type CPOptions struct {
	// Rank is the number of rank-one components.
	Rank int
	// Init selects factor seeding. The zero value is InitAuto.
	Init Init
	// MaxIter bounds the number of ALS sweeps. Zero means 100.
	MaxIter int
	// Tol stops the sweeps once the change in relative reconstruction
	// error drops below it. Zero means 1e-8.
	Tol float64
	// Rand supplies random factor entries. Nil means a time-seeded
	// source.
	Rand *rand.Rand
}

// DefaultCPOptions returns the options used for convolution kernels.
func DefaultCPOptions(rank int) CPOptions {
	return CPOptions{Rank: rank, MaxIter: defaultCPIter, Tol: defaultCPTol}
}

// CP approximates x as a sum of opts.Rank rank-one tensors via
// alternating least squares, returning one factor matrix of shape
// [dim_n, rank] per mode. No weight vector is kept: reconstruction is
// the plain sum over components of the outer products of factor
// columns.
func CP[B tensor.Backend](x *tensor.Tensor[float64, B], opts CPOptions) ([]*tensor.Tensor[float64, B], error) {
	shape := x.Shape()
	ndim := len(shape)
	if ndim < 2 {
		return nil, fmt.Errorf("%w: CP needs at least 2 modes, got shape %v", ErrBadShape, shape)
	}
	if opts.Rank < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRank, opts.Rank)
	}

	maxIter := opts.MaxIter
	if maxIter <= 0 {
		maxIter = defaultCPIter
	}
	tol := opts.Tol
	if tol <= 0 {
		tol = defaultCPTol
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // factor seeding needs no crypto source
	}

	unfolds := make([]*mat.Dense, ndim)
	for mode := 0; mode < ndim; mode++ {
		unfolds[mode] = tensor.ToDense(x.Unfold(mode))
	}

	factors, err := initFactors(shape, opts.Rank, resolveInit(opts.Init, shape), unfolds, rng)
	if err != nil {
		return nil, err
	}

	grams := make([]*mat.Dense, ndim)
	for mode, f := range factors {
		grams[mode] = gram(f)
	}

	normX := frobNorm(x.Data())
	prevErr := math.Inf(1)
	for iter := 0; iter < maxIter; iter++ {
		var mttkrp *mat.Dense
		for mode := 0; mode < ndim; mode++ {
			mttkrp = new(mat.Dense)
			mttkrp.Mul(unfolds[mode], khatriRaoSkip(factors, mode))

			inv, err := pinv(hadamardGramsSkip(grams, mode))
			if err != nil {
				return nil, fmt.Errorf("cp mode %d: %w", mode, err)
			}
			updated := new(mat.Dense)
			updated.Mul(mttkrp, inv)
			factors[mode] = updated
			grams[mode] = gram(updated)
		}
		if normX == 0 {
			break
		}

		// The squared residual expands into three terms, all cheap once
		// the final mode of the sweep has been updated: <x, x_hat> is
		// the overlap of that mode's MTTKRP with its factor, and
		// ||x_hat||^2 is the total mass of the Hadamard product of all
		// Gram matrices.
		inner := dotDense(mttkrp, factors[ndim-1])
		recSq := matSum(hadamardGramsSkip(grams, -1))
		errSq := normX*normX - 2*inner + recSq
		if errSq < 0 {
			errSq = 0
		}
		relErr := math.Sqrt(errSq) / normX
		if math.Abs(prevErr-relErr) < tol {
			break
		}
		prevErr = relErr
	}

	out := make([]*tensor.Tensor[float64, B], ndim)
	for mode, f := range factors {
		out[mode] = tensor.FromDense(f, x.Backend())
	}
	return out, nil
}

// CPToTensor composes CP factor matrices back into the full tensor.
func CPToTensor[B tensor.Backend](factors []*tensor.Tensor[float64, B]) (*tensor.Tensor[float64, B], error) {
	if len(factors) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 factors, got %d", ErrBadShape, len(factors))
	}

	first := factors[0].Shape()
	if len(first) != 2 || first[1] < 1 {
		return nil, fmt.Errorf("%w: factor 0 has shape %v", ErrBadShape, first)
	}
	rank := first[1]

	shape := make(tensor.Shape, len(factors))
	dense := make([]*mat.Dense, len(factors))
	for i, f := range factors {
		fs := f.Shape()
		if len(fs) != 2 || fs[1] != rank {
			return nil, fmt.Errorf("%w: factor %d has shape %v, want [_, %d]", ErrBadShape, i, fs, rank)
		}
		shape[i] = fs[0]
		dense[i] = tensor.ToDense(f)
	}

	var m mat.Dense
	m.Mul(dense[0], khatriRaoSkip(dense, 0).T())
	return tensor.Fold(tensor.FromDense(&m, factors[0].Backend()), 0, shape), nil
}

func resolveInit(init Init, shape tensor.Shape) Init {
	if init != InitAuto {
		return init
	}
	maxDim := 0
	for _, d := range shape {
		if d > maxDim {
			maxDim = d
		}
	}
	if maxDim >= autoInitThreshold {
		return InitRandom
	}
	return InitSVD
}

func initFactors(shape tensor.Shape, rank int, init Init, unfolds []*mat.Dense, rng *rand.Rand) ([]*mat.Dense, error) {
	factors := make([]*mat.Dense, len(shape))
	for mode, dim := range shape {
		f := mat.NewDense(dim, rank, nil)
		switch init {
		case InitRandom:
			fillUniform(f, rng)
		case InitSVD:
			_, cols := unfolds[mode].Dims()
			k := min(rank, dim, cols)
			u, err := leadingLeftVectors(unfolds[mode], k)
			if err != nil {
				return nil, fmt.Errorf("cp init mode %d: %w", mode, err)
			}
			// Columns past the unfolding's own rank get random entries.
			if k < rank {
				fillUniform(f, rng)
			}
			f.Slice(0, dim, 0, k).(*mat.Dense).Copy(u)
		default:
			return nil, fmt.Errorf("cp init: unknown scheme %v", init)
		}
		factors[mode] = f
	}
	return factors, nil
}

func fillUniform(m *mat.Dense, rng *rand.Rand) {
	raw := m.RawMatrix()
	for i := range raw.Data {
		raw.Data[i] = rng.Float64()
	}
}

func dotDense(a, b mat.Matrix) float64 {
	r, c := a.Dims()
	sum := 0.0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			sum += a.At(i, j) * b.At(i, j)
		}
	}
	return sum
}

func matSum(m mat.Matrix) float64 {
	r, c := m.Dims()
	sum := 0.0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			sum += m.At(i, j)
		}
	}
	return sum
}
