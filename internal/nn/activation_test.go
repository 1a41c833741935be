package nn

import (
	"testing"

	"github.com/taper-ml/taper/internal/backend/cpu"
	"github.com/taper-ml/taper/internal/tensor"
)

// TestReLU_Forward tests the rectifier on mixed-sign input.
func TestReLU_Forward(t *testing.T) {
	backend := cpu.New()
	relu := NewReLU[*cpu.CPUBackend]()

	input, _ := tensor.FromSlice([]float32{-2, -0.5, 0, 0.5, 2}, tensor.Shape{5}, backend)
	output := relu.Forward(input)

	expected := []float32{0, 0, 0, 0.5, 2}
	for i, exp := range expected {
		if got := output.Data()[i]; got != exp {
			t.Errorf("output[%d] = %v, want %v", i, got, exp)
		}
	}

	// Input must be unchanged.
	if input.Data()[0] != -2 {
		t.Error("ReLU must not modify its input")
	}
}

// TestMaxPool2D_Layer tests the pooling module.
func TestMaxPool2D_Layer(t *testing.T) {
	backend := cpu.New()
	pool := NewMaxPool2D(2, 2, backend)

	input, _ := tensor.FromSlice([]float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}, tensor.Shape{1, 1, 4, 4}, backend)

	output := pool.Forward(input)

	if !output.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("Output shape: expected [1 1 2 2], got %v", output.Shape())
	}
	expected := []float32{6, 8, 14, 16}
	for i, exp := range expected {
		if got := output.Data()[i]; got != exp {
			t.Errorf("output[%d] = %v, want %v", i, got, exp)
		}
	}
}

// TestFlatten_Forward tests collapsing feature maps for a dense head.
func TestFlatten_Forward(t *testing.T) {
	backend := cpu.New()
	flatten := NewFlatten[*cpu.CPUBackend]()

	input := tensor.Randn[float32](tensor.Shape{2, 3, 4, 5}, backend)
	output := flatten.Forward(input)

	if !output.Shape().Equal(tensor.Shape{2, 60}) {
		t.Errorf("Output shape: expected [2 60], got %v", output.Shape())
	}
}
