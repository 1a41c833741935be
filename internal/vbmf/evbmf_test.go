package vbmf

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taper-ml/taper/internal/backend/cpu"
	"github.com/taper-ml/taper/internal/tensor"
)

// plantedMatrix builds a rank-r signal plus Gaussian noise of the given
// standard deviation.
func plantedMatrix(t *testing.T, l, m, rank int, noise float64, seed int64) *tensor.Tensor[float64, *cpu.CPUBackend] {
	t.Helper()
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic fixtures
	backend := cpu.New()

	a := tensor.RandnFrom[float64](tensor.Shape{l, rank}, rng, backend)
	b := tensor.RandnFrom[float64](tensor.Shape{rank, m}, rng, backend)
	y := a.MatMul(b)
	for i, data := 0, y.Data(); i < len(data); i++ {
		data[i] += noise * rng.NormFloat64()
	}
	return y
}

func TestEVBMF_PlantedRank(t *testing.T) {
	y := plantedMatrix(t, 30, 60, 3, 0.1, 1)

	res, err := EVBMF(y, Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Rank, "planted rank should survive the threshold")
	assert.Len(t, res.Observed, 30)
	assert.Len(t, res.Shrunk, 3)
	assert.InDelta(t, 0.01, res.Sigma2, 0.008, "noise variance estimate")

	for i, d := range res.Shrunk {
		assert.Less(t, d, res.Observed[i], "shrunk value %d should sit below the observed one", i)
		assert.Greater(t, d, 0.0)
	}
}

func TestEVBMF_PureNoise(t *testing.T) {
	rng := rand.New(rand.NewSource(2)) //nolint:gosec // deterministic fixtures
	y := tensor.RandnFrom[float64](tensor.Shape{50, 100}, rng, cpu.New())

	res, err := EVBMF(y, Options{})
	require.NoError(t, err)

	assert.Equal(t, 0, res.Rank, "iid noise carries no signal")
	assert.Empty(t, res.Shrunk)
	assert.InDelta(t, 1.0, res.Sigma2, 0.2, "noise variance estimate")
}

func TestEVBMF_OrientationInvariant(t *testing.T) {
	y := plantedMatrix(t, 40, 20, 2, 0.05, 3)

	tall, err := EVBMF(y, Options{})
	require.NoError(t, err)
	wide, err := EVBMF(y.T(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, tall.Rank)
	assert.Equal(t, tall.Rank, wide.Rank)
	assert.InDelta(t, tall.Sigma2, wide.Sigma2, 1e-6)
	assert.InDelta(t, tall.Threshold, wide.Threshold, 1e-6)
}

func TestEVBMF_FixedSigma(t *testing.T) {
	backend := cpu.New()
	y := tensor.Zeros[float64](tensor.Shape{3, 4}, backend)
	y.Set(100, 0, 0)
	y.Set(50, 1, 1)
	y.Set(0.1, 2, 2)

	res, err := EVBMF(y, Options{Sigma2: 1})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Rank)
	assert.Equal(t, 1.0, res.Sigma2, "fixed variance must pass through")
	// threshold = sqrt(M * sigma2 * (1+taubar)(1+alpha/taubar)) with
	// L=3, M=4.
	assert.InDelta(t, 4.1333, res.Threshold, 1e-3)

	require.Len(t, res.Shrunk, 2)
	assert.InDelta(t, 100, res.Observed[0], 1e-9)
	assert.InDelta(t, 50, res.Observed[1], 1e-9)
	assert.Less(t, res.Shrunk[0], res.Observed[0])
	assert.Greater(t, res.Shrunk[0], 0.9*res.Observed[0])
	assert.Less(t, res.Shrunk[1], res.Observed[1])
	assert.Greater(t, res.Shrunk[0], res.Shrunk[1])
}

func TestEVBMF_ZeroMatrix(t *testing.T) {
	y := tensor.Zeros[float64](tensor.Shape{4, 5}, cpu.New())

	res, err := EVBMF(y, Options{})
	require.NoError(t, err)

	assert.Equal(t, 0, res.Rank)
	assert.Empty(t, res.Shrunk)
	assert.Zero(t, res.Sigma2)
}

func TestEVBMF_BadShape(t *testing.T) {
	cube := tensor.Zeros[float64](tensor.Shape{2, 2, 2}, cpu.New())

	_, err := EVBMF(cube, Options{})
	require.ErrorIs(t, err, ErrBadShape)
}

func TestGoldenMin(t *testing.T) {
	got := goldenMin(func(x float64) float64 {
		return (x - 2) * (x - 2)
	}, 0, 5, 1e-6)
	assert.InDelta(t, 2.0, got, 1e-4)

	// Degenerate bracket collapses to its midpoint.
	assert.Equal(t, 1.5, goldenMin(func(x float64) float64 { return x }, 1.5, 1.5, 1e-6))
}
