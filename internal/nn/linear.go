package nn

import (
	"fmt"

	"github.com/taper-ml/taper/internal/tensor"
)

// Linear implements a fully connected layer: y = x @ W.T + b.
//
//   - x: [batch, in_features]
//   - W: [out_features, in_features]
//   - b: [out_features], optional
//   - y: [batch, out_features]
//
// The weight layout matches PyTorch's nn.Linear, so factorizing W with a
// truncated SVD splits the layer into two Linears whose weights are the
// right and left factor matrices.
type Linear[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int
	useBias     bool

	weight *Parameter[B] // [out_features, in_features]
	bias   *Parameter[B] // [out_features] or nil

	backend B
}

// NewLinear creates a Linear layer with Xavier-initialized weights and,
// when useBias is set, a zero bias.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, useBias bool, backend B) *Linear[B] {
	if inFeatures <= 0 || outFeatures <= 0 {
		panic(fmt.Sprintf("linear: invalid features in=%d, out=%d", inFeatures, outFeatures))
	}

	l := &Linear[B]{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		useBias:     useBias,
		backend:     backend,
	}
	l.weight = NewParameter("weight", Xavier(inFeatures, outFeatures, tensor.Shape{outFeatures, inFeatures}, backend))
	if useBias {
		l.bias = NewParameter("bias", Zeros(tensor.Shape{outFeatures}, backend))
	}
	return l
}

// Forward computes y = x @ W.T + b.
//
// Input shape: [batch, in_features], output: [batch, out_features].
func (l *Linear[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	in := input.Shape()
	if len(in) != 2 {
		panic(fmt.Sprintf("linear: expected 2-D input [batch, features], got shape %v", in))
	}
	if in[1] != l.inFeatures {
		panic(fmt.Sprintf("linear: expected input with %d features, got %d", l.inFeatures, in[1]))
	}

	y := input.MatMul(l.weight.Tensor().T())
	if l.useBias {
		y = y.Add(l.bias.Tensor().Reshape(1, l.outFeatures))
	}
	return y
}

// Parameters returns the layer's parameters.
func (l *Linear[B]) Parameters() []*Parameter[B] {
	if l.useBias {
		return []*Parameter[B]{l.weight, l.bias}
	}
	return []*Parameter[B]{l.weight}
}

// Weight returns the weight parameter.
func (l *Linear[B]) Weight() *Parameter[B] {
	return l.weight
}

// Bias returns the bias parameter, or nil when the layer has none.
func (l *Linear[B]) Bias() *Parameter[B] {
	return l.bias
}

// HasBias reports whether the layer carries a bias term.
func (l *Linear[B]) HasBias() bool {
	return l.useBias
}

// InFeatures returns the input width.
func (l *Linear[B]) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the output width.
func (l *Linear[B]) OutFeatures() int {
	return l.outFeatures
}

// String returns a short description of the layer.
func (l *Linear[B]) String() string {
	return fmt.Sprintf("Linear(in_features=%d, out_features=%d, bias=%v)",
		l.inFeatures, l.outFeatures, l.useBias)
}

// StateDict returns the layer's parameters keyed by name.
func (l *Linear[B]) StateDict() map[string]*tensor.RawTensor {
	sd := map[string]*tensor.RawTensor{
		"weight": l.weight.Tensor().Raw(),
	}
	if l.useBias {
		sd["bias"] = l.bias.Tensor().Raw()
	}
	return sd
}

// LoadStateDict copies weight and bias data out of a state dictionary.
func (l *Linear[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	w, ok := stateDict["weight"]
	if !ok {
		return fmt.Errorf("state dict has no weight entry")
	}
	if err := checkParam("weight", w, tensor.Shape{l.outFeatures, l.inFeatures}); err != nil {
		return err
	}
	copy(l.weight.Tensor().Data(), w.AsFloat32())

	if l.useBias {
		b, ok := stateDict["bias"]
		if !ok {
			return fmt.Errorf("state dict has no bias entry")
		}
		if err := checkParam("bias", b, tensor.Shape{l.outFeatures}); err != nil {
			return err
		}
		copy(l.bias.Tensor().Data(), b.AsFloat32())
	}

	return nil
}

// checkParam validates the shape and dtype of an incoming parameter tensor.
func checkParam(name string, raw *tensor.RawTensor, want tensor.Shape) error {
	if !raw.Shape().Equal(want) {
		return fmt.Errorf("%s shape mismatch: expected %v, got %v", name, want, raw.Shape())
	}
	if raw.DType() != tensor.Float32 {
		return fmt.Errorf("%s dtype mismatch: expected float32, got %v", name, raw.DType())
	}
	return nil
}
