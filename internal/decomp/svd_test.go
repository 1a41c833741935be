package decomp

import (
	"errors"
	"math"
	"testing"

	"github.com/taper-ml/taper/internal/backend/cpu"
	"github.com/taper-ml/taper/internal/tensor"
)

// svdReconstruct composes u * diag(s) * v^T back into flat row-major
// data.
func svdReconstruct(t *testing.T, u, s, v *tensor.Tensor[float64, *cpu.CPUBackend]) []float64 {
	t.Helper()
	m := u.Shape()[0]
	n := v.Shape()[0]
	rank := s.Shape()[0]

	out := make([]float64, m*n)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			sum := 0.0
			for r := 0; r < rank; r++ {
				sum += u.At(i, r) * s.At(r) * v.At(j, r)
			}
			out[i*n+j] = sum
		}
	}
	return out
}

// TestTruncatedSVD_ExactLowRank tests that a rank-2 matrix is
// reconstructed exactly from its two leading components.
func TestTruncatedSVD_ExactLowRank(t *testing.T) {
	backend := cpu.New()

	// Product of a 4x2 and a 2x3 matrix, so rank 2 exactly.
	w, err := tensor.FromSlice([]float64{
		1, 2, 0,
		0, 1, 3,
		1, 3, 3,
		2, 3, -3,
	}, tensor.Shape{4, 3}, backend)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}

	u, s, v, err := TruncatedSVD(w, 2)
	if err != nil {
		t.Fatalf("TruncatedSVD failed: %v", err)
	}

	if !u.Shape().Equal(tensor.Shape{4, 2}) {
		t.Errorf("u shape: expected [4 2], got %v", u.Shape())
	}
	if !s.Shape().Equal(tensor.Shape{2}) {
		t.Errorf("s shape: expected [2], got %v", s.Shape())
	}
	if !v.Shape().Equal(tensor.Shape{3, 2}) {
		t.Errorf("v shape: expected [3 2], got %v", v.Shape())
	}
	if s.At(0) < s.At(1) || s.At(1) <= 0 {
		t.Errorf("Singular values not sorted positive: %v, %v", s.At(0), s.At(1))
	}

	got := svdReconstruct(t, u, s, v)
	for i, want := range w.Data() {
		if math.Abs(got[i]-want) > 1e-10 {
			t.Errorf("reconstruction[%d] = %v, want %v", i, got[i], want)
		}
	}
}

// TestTruncatedSVD_FullRank tests exact reconstruction at full rank on
// a random matrix.
func TestTruncatedSVD_FullRank(t *testing.T) {
	w := randnTensor(tensor.Shape{5, 4}, 1)

	u, s, v, err := TruncatedSVD(w, 4)
	if err != nil {
		t.Fatalf("TruncatedSVD failed: %v", err)
	}

	got := svdReconstruct(t, u, s, v)
	if rel := relFrobError(t, w.Data(), got); rel > 1e-10 {
		t.Errorf("Full-rank reconstruction error %v, want < 1e-10", rel)
	}
}

// TestTruncatedSVD_TruncationError tests that dropping the trailing
// component costs exactly its singular value.
func TestTruncatedSVD_TruncationError(t *testing.T) {
	w := randnTensor(tensor.Shape{6, 3}, 2)

	_, sFull, _, err := TruncatedSVD(w, 3)
	if err != nil {
		t.Fatalf("TruncatedSVD failed: %v", err)
	}

	u, s, v, err := TruncatedSVD(w, 2)
	if err != nil {
		t.Fatalf("TruncatedSVD failed: %v", err)
	}

	got := svdReconstruct(t, u, s, v)
	diff := 0.0
	for i, want := range w.Data() {
		d := got[i] - want
		diff += d * d
	}
	if dropped := sFull.At(2); math.Abs(math.Sqrt(diff)-dropped) > 1e-10 {
		t.Errorf("Truncation error %v, want dropped singular value %v", math.Sqrt(diff), dropped)
	}
}

// TestTruncatedSVD_Errors tests rank and shape validation.
func TestTruncatedSVD_Errors(t *testing.T) {
	backend := cpu.New()
	w := tensor.Zeros[float64](tensor.Shape{4, 3}, backend)

	if _, _, _, err := TruncatedSVD(w, 0); !errors.Is(err, ErrInvalidRank) {
		t.Errorf("rank 0: expected ErrInvalidRank, got %v", err)
	}
	if _, _, _, err := TruncatedSVD(w, 4); !errors.Is(err, ErrInvalidRank) {
		t.Errorf("rank past min dimension: expected ErrInvalidRank, got %v", err)
	}

	cube := tensor.Zeros[float64](tensor.Shape{2, 2, 2}, backend)
	if _, _, _, err := TruncatedSVD(cube, 1); !errors.Is(err, ErrBadShape) {
		t.Errorf("3-D input: expected ErrBadShape, got %v", err)
	}
}
