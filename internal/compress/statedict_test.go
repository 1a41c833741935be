package compress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taper-ml/taper/internal/backend/cpu"
	"github.com/taper-ml/taper/internal/nn"
	"github.com/taper-ml/taper/internal/tensor"
)

// rawFrom casts a float64 tensor down to a float32 RawTensor, the form
// checkpoint weights arrive in.
func rawFrom(t *testing.T, values *tensor.Tensor[float64, *cpu.CPUBackend]) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(values.Shape(), tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	dst := raw.AsFloat32()
	for i, v := range values.Data() {
		dst[i] = float32(v)
	}
	return raw
}

func rawVector(t *testing.T, values []float32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(tensor.Shape{len(values)}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	copy(raw.AsFloat32(), values)
	return raw
}

func TestCompressStateDict(t *testing.T) {
	backend := cpu.New()

	small, err := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	meta, err := tensor.NewRaw(tensor.Shape{4}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)

	stateDict := map[string]*tensor.RawTensor{
		"conv.weight": rawFrom(t, cpKernel(t, 6, 4, 3, 3, 2, 32)),
		"conv.bias":   rawVector(t, []float32{0.5, -0.5, 1, -1, 0.25, 2}),
		"fc.weight":   rawFrom(t, lowRankMatrix(t, 8, 12, 2, 0, 21)),
		"fc.bias":     rawVector(t, []float32{1, 2, 3, 4, 5, 6, 7, 8}),
		"skip.weight": small,
		"running":     meta,
	}

	out, report, err := CompressStateDict(stateDict, Config{
		Conv:       ConvCP,
		CPRank:     2,
		LinearRank: 2,
		MinParams:  20,
	}, backend)
	require.NoError(t, err)

	wantShapes := map[string]tensor.Shape{
		"conv.0.weight": {2, 4, 1, 1},
		"conv.1.weight": {2, 1, 3, 1},
		"conv.2.weight": {2, 1, 1, 3},
		"conv.3.weight": {6, 2, 1, 1},
		"conv.3.bias":   {6},
		"fc.0.weight":   {2, 12},
		"fc.1.weight":   {8, 2},
		"fc.1.bias":     {8},
		"skip.weight":   {2, 3},
		"running":       {4},
	}
	require.Len(t, out, len(wantShapes))
	for name, shape := range wantShapes {
		require.Contains(t, out, name)
		assert.True(t, out[name].Shape().Equal(shape), "%s shape = %v, want %v", name, out[name].Shape(), shape)
	}

	for _, gone := range []string{"conv.weight", "conv.bias", "fc.weight", "fc.bias"} {
		assert.NotContains(t, out, gone)
	}

	// Ineligible tensors pass through without copying.
	assert.Same(t, small, out["skip.weight"])
	assert.Same(t, meta, out["running"])

	// The rewritten bias rides the final stage unchanged.
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6, 7, 8}, out["fc.1.bias"].AsFloat32())

	require.Len(t, report.Layers, 2)
	convStats, fcStats := report.Layers[0], report.Layers[1]

	assert.Equal(t, "conv", convStats.Name)
	assert.Equal(t, "cp", convStats.Method)
	assert.Equal(t, []int{2}, convStats.Ranks)
	assert.Equal(t, 6*4*3*3+6, convStats.ParamsBefore)
	assert.Equal(t, 8+6+6+12+6, convStats.ParamsAfter)
	assert.Less(t, convStats.WeightError, 1e-3)

	assert.Equal(t, "fc", fcStats.Name)
	assert.Equal(t, "svd", fcStats.Method)
	assert.Equal(t, []int{2}, fcStats.Ranks)
	assert.Equal(t, 8*12+8, fcStats.ParamsBefore)
	assert.Equal(t, 2*12+8*2+8, fcStats.ParamsAfter)
	assert.Less(t, fcStats.WeightError, 1e-5)
}

func TestCompressStateDict_PassThrough(t *testing.T) {
	backend := cpu.New()

	embed, err := tensor.NewRaw(tensor.Shape{2, 3, 4}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	wide, err := tensor.NewRaw(tensor.Shape{4, 6}, tensor.Float64, tensor.CPU)
	require.NoError(t, err)

	stateDict := map[string]*tensor.RawTensor{
		"embed.weight": embed,
		"stats.weight": wide,
		"lone.bias":    rawVector(t, []float32{1, 2, 3}),
		"odd.weight":   rawFrom(t, lowRankMatrix(t, 4, 6, 1, 0, 7)),
		"odd.bias":     rawVector(t, []float32{9, 9, 9}),
	}

	out, report, err := CompressStateDict(stateDict, Config{LinearRank: 1}, backend)
	require.NoError(t, err)

	// 3-D and float64 weights are not layer weights here.
	assert.Same(t, embed, out["embed.weight"])
	assert.Same(t, wide, out["stats.weight"])
	assert.Contains(t, out, "lone.bias")

	// A bias of the wrong length is not the layer's bias: the weight is
	// rewritten alone and the stray tensor survives.
	assert.Contains(t, out, "odd.0.weight")
	assert.Contains(t, out, "odd.1.weight")
	assert.NotContains(t, out, "odd.1.bias")
	assert.Contains(t, out, "odd.bias")
	assert.NotContains(t, out, "odd.weight")

	require.Len(t, report.Layers, 1)
	assert.Equal(t, "odd", report.Layers[0].Name)
	assert.Equal(t, 24, report.Layers[0].ParamsBefore)
}

func TestCompressStateDict_ZeroRankPropagates(t *testing.T) {
	backend := cpu.New()
	layer := nn.NewLinear(100, 50, false, backend)

	stateDict := map[string]*tensor.RawTensor{
		"noise.weight": layer.Weight().Tensor().Raw(),
	}

	_, _, err := CompressStateDict(stateDict, Config{}, backend)
	require.ErrorIs(t, err, ErrZeroRank)
	assert.ErrorContains(t, err, "noise.weight")
}
