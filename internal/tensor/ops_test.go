package tensor

import (
	"fmt"
	"testing"
)

// TestAddSubMul exercises the element-wise trio on matching shapes.
func TestAddSubMul(t *testing.T) {
	backend := NewMockBackend()
	a, _ := FromSlice([]float64{2, -1, 0.5, 4}, Shape{2, 2}, backend)
	b, _ := FromSlice([]float64{1, 3, -0.5, 2}, Shape{2, 2}, backend)

	for i, want := range []float64{3, 2, 0, 6} {
		wantF64(t, fmt.Sprintf("Add[%d]", i), a.Add(b).Data()[i], want)
	}
	for i, want := range []float64{1, -4, 1, 2} {
		wantF64(t, fmt.Sprintf("Sub[%d]", i), a.Sub(b).Data()[i], want)
	}
	for i, want := range []float64{2, -3, -0.25, 8} {
		wantF64(t, fmt.Sprintf("Mul[%d]", i), a.Mul(b).Data()[i], want)
	}
}

// TestAddBroadcast adds a row vector to a matrix, the pattern bias
// addition uses.
func TestAddBroadcast(t *testing.T) {
	backend := NewMockBackend()
	m, _ := FromSlice([]float32{0, 1, 2, 3, 4, 5}, Shape{2, 3}, backend)
	row, _ := FromSlice([]float32{100, 200, 300}, Shape{1, 3}, backend)

	sum := m.Add(row)

	wantShape(t, "broadcast sum", sum.Shape(), Shape{2, 3})
	for i, want := range []float32{100, 201, 302, 103, 204, 305} {
		wantF32(t, fmt.Sprintf("sum[%d]", i), sum.Data()[i], want)
	}
}

// TestMulScalar scales a vector in one call.
func TestMulScalar(t *testing.T) {
	backend := NewMockBackend()
	v, _ := FromSlice([]float32{-4, 0, 6}, Shape{3}, backend)

	for i, want := range []float32{-2, 0, 3} {
		wantF32(t, fmt.Sprintf("scaled[%d]", i), v.MulScalar(0.5).Data()[i], want)
	}
}

// TestMatMul pins a hand-computed square and a rectangular product.
func TestMatMul(t *testing.T) {
	backend := NewMockBackend()

	a, _ := FromSlice([]float32{2, 0, 1, 3}, Shape{2, 2}, backend)
	b, _ := FromSlice([]float32{4, 1, 2, 5}, Shape{2, 2}, backend)
	p := a.MatMul(b)
	wantShape(t, "square product", p.Shape(), Shape{2, 2})
	wantF32(t, "p[0,0]", p.At(0, 0), 8)
	wantF32(t, "p[0,1]", p.At(0, 1), 2)
	wantF32(t, "p[1,0]", p.At(1, 0), 10)
	wantF32(t, "p[1,1]", p.At(1, 1), 16)

	c, _ := FromSlice([]float64{1, 2, 3, 4, 5, 6}, Shape{2, 3}, backend)
	ones, _ := FromSlice([]float64{1, 1, 1}, Shape{3, 1}, backend)
	sums := c.MatMul(ones)
	wantShape(t, "row sums", sums.Shape(), Shape{2, 1})
	wantF64(t, "first row sum", sums.At(0, 0), 6)
	wantF64(t, "second row sum", sums.At(1, 0), 15)
}

// TestReshape keeps row-major element order under a new shape.
func TestReshape(t *testing.T) {
	backend := NewMockBackend()
	v, _ := FromSlice([]float32{9, 8, 7, 6, 5, 4}, Shape{6}, backend)

	m := v.Reshape(2, 3)

	wantShape(t, "reshape", m.Shape(), Shape{2, 3})
	wantF32(t, "m[0,0]", m.At(0, 0), 9)
	wantF32(t, "m[0,2]", m.At(0, 2), 7)
	wantF32(t, "m[1,0]", m.At(1, 0), 6)
	wantF32(t, "m[1,2]", m.At(1, 2), 4)
}

// TestTranspose checks the matrix shortcut and an explicit permutation.
func TestTranspose(t *testing.T) {
	backend := NewMockBackend()

	m, _ := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3}, backend)
	mt := m.T()
	wantShape(t, "T", mt.Shape(), Shape{3, 2})
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			wantF32(t, fmt.Sprintf("T[%d,%d]", j, i), mt.At(j, i), m.At(i, j))
		}
	}

	data := make([]float64, 24)
	for i := range data {
		data[i] = float64(i)
	}
	cube, _ := FromSlice(data, Shape{2, 3, 4}, backend)
	moved := cube.Transpose(2, 0, 1)
	wantShape(t, "permuted", moved.Shape(), Shape{4, 2, 3})
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 4; k++ {
				wantF64(t, fmt.Sprintf("moved[%d,%d,%d]", k, i, j), moved.At(k, i, j), cube.At(i, j, k))
			}
		}
	}
}
