package compress

import (
	"fmt"
	"math"

	"github.com/taper-ml/taper/internal/nn"
	"github.com/taper-ml/taper/internal/tensor"
)

// LayerStats records one layer rewrite.
type LayerStats struct {
	// Name is the dotted index path of the layer inside the model.
	Name string
	// Method names the factorization applied: "cp", "tucker" or "svd".
	Method string
	// Shape is the original weight shape.
	Shape tensor.Shape
	// Ranks holds the factorization ranks. CP and SVD keep a single
	// rank, Tucker keeps the output and input channel ranks.
	Ranks []int
	// ParamsBefore and ParamsAfter count the layer's parameters on
	// either side of the rewrite, bias included.
	ParamsBefore int
	ParamsAfter  int
	// WeightError is the relative Frobenius error between the original
	// weight and the weight the chain represents.
	WeightError float64
}

// Ratio is the layer's parameter compression factor.
func (s LayerStats) Ratio() float64 {
	if s.ParamsAfter == 0 {
		return 0
	}
	return float64(s.ParamsBefore) / float64(s.ParamsAfter)
}

// Report aggregates the rewrites of one compression pass.
type Report struct {
	Layers []LayerStats
}

func (r *Report) append(s LayerStats) {
	r.Layers = append(r.Layers, s)
}

// ParamsBefore sums the original parameter counts of the rewritten
// layers.
func (r *Report) ParamsBefore() int {
	total := 0
	for _, l := range r.Layers {
		total += l.ParamsBefore
	}
	return total
}

// ParamsAfter sums the replacement parameter counts of the rewritten
// layers.
func (r *Report) ParamsAfter() int {
	total := 0
	for _, l := range r.Layers {
		total += l.ParamsAfter
	}
	return total
}

// Ratio is the overall compression factor across rewritten layers.
func (r *Report) Ratio() float64 {
	after := r.ParamsAfter()
	if after == 0 {
		return 0
	}
	return float64(r.ParamsBefore()) / float64(after)
}

// ForwardDelta runs both modules on the same input and returns the
// largest absolute difference between their outputs. Panics when the
// output shapes differ.
func ForwardDelta[B tensor.Backend](a, b nn.Module[B], input *tensor.Tensor[float32, B]) float64 {
	outA := a.Forward(input)
	outB := b.Forward(input)
	if !outA.Shape().Equal(outB.Shape()) {
		panic(fmt.Sprintf("compress: forward shapes %v and %v differ", outA.Shape(), outB.Shape()))
	}

	maxDiff := 0.0
	da, db := outA.Data(), outB.Data()
	for i := range da {
		if d := math.Abs(float64(da[i]) - float64(db[i])); d > maxDiff {
			maxDiff = d
		}
	}
	return maxDiff
}
