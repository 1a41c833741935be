package compress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taper-ml/taper/internal/backend/cpu"
	"github.com/taper-ml/taper/internal/nn"
	"github.com/taper-ml/taper/internal/tensor"
)

func TestReportTotals(t *testing.T) {
	report := &Report{}
	assert.Zero(t, report.ParamsBefore())
	assert.Zero(t, report.ParamsAfter())
	assert.Zero(t, report.Ratio())

	report.append(LayerStats{Name: "0", ParamsBefore: 600, ParamsAfter: 100})
	report.append(LayerStats{Name: "1", ParamsBefore: 400, ParamsAfter: 150})

	assert.Equal(t, 1000, report.ParamsBefore())
	assert.Equal(t, 250, report.ParamsAfter())
	assert.InDelta(t, 4.0, report.Ratio(), 1e-12)

	assert.InDelta(t, 6.0, report.Layers[0].Ratio(), 1e-12)
	assert.Zero(t, LayerStats{ParamsBefore: 10}.Ratio())
}

func TestForwardDelta(t *testing.T) {
	backend := cpu.New()
	a := nn.NewLinear(4, 3, true, backend)
	b := nn.NewLinear(4, 3, true, backend)
	require.NoError(t, b.LoadStateDict(a.StateDict()))

	input := randnInput(tensor.Shape{2, 4}, 51)
	assert.Zero(t, ForwardDelta[*cpu.CPUBackend](a, b, input))

	b.Weight().Tensor().Data()[0] += 0.5
	assert.Greater(t, ForwardDelta[*cpu.CPUBackend](a, b, input), 0.0)
}

func TestForwardDelta_ShapeMismatchPanics(t *testing.T) {
	backend := cpu.New()
	a := nn.NewLinear(4, 3, true, backend)
	b := nn.NewLinear(4, 5, true, backend)
	input := randnInput(tensor.Shape{2, 4}, 52)

	assert.Panics(t, func() { ForwardDelta[*cpu.CPUBackend](a, b, input) })
}
