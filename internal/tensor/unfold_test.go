package tensor

import (
	"fmt"
	"testing"
)

// rangeTensor builds a tensor holding 0, 1, 2, ... in row-major order.
func rangeTensor(t *testing.T, shape Shape) *Tensor[float64, *MockBackend] {
	t.Helper()
	data := make([]float64, shape.NumElements())
	for i := range data {
		data[i] = float64(i)
	}
	tensor, err := FromSlice(data, shape, NewMockBackend())
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	return tensor
}

// TestUnfoldMode0 checks that the mode-0 unfolding of a row-major
// tensor is a plain reshape.
func TestUnfoldMode0(t *testing.T) {
	x := rangeTensor(t, Shape{2, 3, 4})

	m := x.Unfold(0)

	wantShape(t, "Unfold(0) shape", m.Shape(), Shape{2, 12})
	for i, v := range m.Data() {
		wantF64(t, fmt.Sprintf("Unfold(0)[%d]", i), v, float64(i))
	}
}

func TestUnfoldMode1(t *testing.T) {
	x := rangeTensor(t, Shape{2, 3, 4})

	m := x.Unfold(1)

	wantShape(t, "Unfold(1) shape", m.Shape(), Shape{3, 8})
	rows := [][]float64{
		{0, 1, 2, 3, 12, 13, 14, 15},
		{4, 5, 6, 7, 16, 17, 18, 19},
		{8, 9, 10, 11, 20, 21, 22, 23},
	}
	for i, row := range rows {
		for j, want := range row {
			wantF64(t, fmt.Sprintf("Unfold(1)[%d,%d]", i, j), m.At(i, j), want)
		}
	}
}

func TestUnfoldMode2(t *testing.T) {
	x := rangeTensor(t, Shape{2, 3, 4})

	m := x.Unfold(2)

	wantShape(t, "Unfold(2) shape", m.Shape(), Shape{4, 6})
	rows := [][]float64{
		{0, 4, 8, 12, 16, 20},
		{1, 5, 9, 13, 17, 21},
		{2, 6, 10, 14, 18, 22},
		{3, 7, 11, 15, 19, 23},
	}
	for i, row := range rows {
		for j, want := range row {
			wantF64(t, fmt.Sprintf("Unfold(2)[%d,%d]", i, j), m.At(i, j), want)
		}
	}
}

// TestUnfoldMatrixModes pins the matrix special cases: mode 0 is the
// identity, mode 1 the transpose.
func TestUnfoldMatrixModes(t *testing.T) {
	x := rangeTensor(t, Shape{2, 3})

	m0 := x.Unfold(0)
	wantShape(t, "Unfold(0) of matrix", m0.Shape(), Shape{2, 3})
	for i := range x.Data() {
		wantF64(t, fmt.Sprintf("Unfold(0)[%d]", i), m0.Data()[i], x.Data()[i])
	}

	m1 := x.Unfold(1)
	wantShape(t, "Unfold(1) of matrix", m1.Shape(), Shape{3, 2})
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			wantF64(t, fmt.Sprintf("Unfold(1)[%d,%d]", j, i), m1.At(j, i), x.At(i, j))
		}
	}
}

// TestFoldRoundtrip inverts every unfolding of a rank-4 tensor.
func TestFoldRoundtrip(t *testing.T) {
	shape := Shape{2, 3, 4, 5}
	x := rangeTensor(t, shape)

	for mode := 0; mode < len(shape); mode++ {
		m := x.Unfold(mode)
		back := Fold(m, mode, shape)

		wantShape(t, fmt.Sprintf("Fold(mode=%d) shape", mode), back.Shape(), shape)
		for i := range x.Data() {
			if x.Data()[i] != back.Data()[i] {
				t.Fatalf("Fold(mode=%d) roundtrip diverged at %d: %v vs %v", mode, i, x.Data()[i], back.Data()[i])
			}
		}
	}
}

func TestFoldShapeMismatchPanics(t *testing.T) {
	x := rangeTensor(t, Shape{2, 3, 4})
	m := x.Unfold(1)

	defer func() {
		if recover() == nil {
			t.Error("Fold with wrong target shape should panic")
		}
	}()
	Fold(m, 1, Shape{2, 3, 5})
}
