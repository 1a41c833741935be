package compress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taper-ml/taper/internal/backend/cpu"
	"github.com/taper-ml/taper/internal/nn"
	"github.com/taper-ml/taper/internal/tensor"
)

func TestTuckerConv2DRanks_ChainLayout(t *testing.T) {
	backend := cpu.New()
	layer := nn.NewConv2D(8, 10, [2]int{3, 3}, nn.Conv2DConfig{
		Stride:  [2]int{2, 2},
		Padding: [2]int{1, 1},
		Bias:    true,
	}, backend)
	for i, data := 0, layer.Bias().Tensor().Data(); i < len(data); i++ {
		data[i] = 0.25 * float32(i)
	}

	chain, err := TuckerConv2DRanks(layer, [2]int{4, 3})
	require.NoError(t, err)
	require.Equal(t, 3, chain.Len())

	pin, ok := chain.Module(0).(*nn.Conv2D[*cpu.CPUBackend])
	require.True(t, ok)
	assert.Equal(t, 8, pin.InChannels())
	assert.Equal(t, 3, pin.OutChannels())
	assert.Equal(t, [2]int{1, 1}, pin.KernelSize())
	assert.Equal(t, [2]int{1, 1}, pin.Stride())
	assert.False(t, pin.HasBias())

	core, ok := chain.Module(1).(*nn.Conv2D[*cpu.CPUBackend])
	require.True(t, ok)
	assert.Equal(t, 3, core.InChannels())
	assert.Equal(t, 4, core.OutChannels())
	assert.Equal(t, [2]int{3, 3}, core.KernelSize())
	assert.Equal(t, [2]int{2, 2}, core.Stride())
	assert.Equal(t, [2]int{1, 1}, core.Padding())
	assert.False(t, core.HasBias())

	pout, ok := chain.Module(2).(*nn.Conv2D[*cpu.CPUBackend])
	require.True(t, ok)
	assert.Equal(t, 4, pout.InChannels())
	assert.Equal(t, 10, pout.OutChannels())
	assert.Equal(t, [2]int{1, 1}, pout.KernelSize())
	require.True(t, pout.HasBias())
	assert.Equal(t, layer.Bias().Tensor().Data(), pout.Bias().Tensor().Data())
}

func TestTuckerConv2DRanks_MatchesComposedKernel(t *testing.T) {
	backend := cpu.New()
	layer := nn.NewConv2D(5, 6, [2]int{3, 3}, nn.Conv2DConfig{
		Stride:   [2]int{2, 1},
		Padding:  [2]int{0, 2},
		Dilation: [2]int{1, 2},
		Bias:     true,
	}, backend)
	setParam(t, layer.Weight(), tuckerKernel(t, 6, 5, 3, 3, [2]int{2, 3}, 0, 41))
	for i, data := 0, layer.Bias().Tensor().Data(); i < len(data); i++ {
		data[i] = 0.3 * float32(i)
	}

	chain, err := TuckerConv2DRanks(layer, [2]int{2, 3})
	require.NoError(t, err)
	rebuilt, err := convChainKernel(chain)
	require.NoError(t, err)
	twin := denseTwin(t, layer, rebuilt)

	input := randnInput(tensor.Shape{2, 5, 9, 12}, 8)
	assert.Less(t, ForwardDelta[*cpu.CPUBackend](twin, chain, input), 1e-3)

	out := chain.Forward(input)
	size := layer.ComputeOutputSize(9, 12)
	require.True(t, out.Shape().Equal(tensor.Shape{2, 6, size[0], size[1]}), "got %v", out.Shape())
}

func TestTuckerConv2DRanks_ExactRank(t *testing.T) {
	backend := cpu.New()
	layer := nn.NewConv2D(5, 6, [2]int{3, 3}, nn.DefaultConv2DConfig(), backend)
	setParam(t, layer.Weight(), tuckerKernel(t, 6, 5, 3, 3, [2]int{2, 3}, 0, 42))

	chain, err := TuckerConv2DRanks(layer, [2]int{2, 3})
	require.NoError(t, err)

	werr, err := ConvChainError(layer, chain)
	require.NoError(t, err)
	assert.Less(t, werr, 1e-5, "exact channel ranks should be recovered")

	input := randnInput(tensor.Shape{2, 5, 8, 8}, 9)
	assert.Less(t, ForwardDelta[*cpu.CPUBackend](layer, chain, input), 0.01)
}

func TestTuckerConv2D_EstimatesRanks(t *testing.T) {
	backend := cpu.New()
	layer := nn.NewConv2D(12, 16, [2]int{5, 5}, nn.DefaultConv2DConfig(), backend)
	setParam(t, layer.Weight(), tuckerKernel(t, 16, 12, 5, 5, [2]int{2, 3}, 0.01, 11))

	chain, err := TuckerConv2D(layer)
	require.NoError(t, err)
	require.Equal(t, 3, chain.Len())

	core, ok := chain.Module(1).(*nn.Conv2D[*cpu.CPUBackend])
	require.True(t, ok)
	assert.Equal(t, 2, core.OutChannels(), "output channel rank")
	assert.Equal(t, 3, core.InChannels(), "input channel rank")
}

func TestTuckerConv2DRanks_GroupedRejected(t *testing.T) {
	layer := nn.NewConv2D(4, 4, [2]int{3, 3}, nn.Conv2DConfig{Groups: 2}, cpu.New())

	_, err := TuckerConv2DRanks(layer, [2]int{2, 2})
	require.ErrorIs(t, err, ErrUnsupported)
}
