package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ToDense copies a 2-D float64 tensor into a gonum dense matrix.
// The factorization routines hand their matrices to gonum for SVD and
// least-squares work; this is the bridge.
func ToDense[B Backend](t *Tensor[float64, B]) *mat.Dense {
	shape := t.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("ToDense: expected 2-D tensor, got shape %v", shape))
	}
	data := make([]float64, len(t.Data()))
	copy(data, t.Data())
	return mat.NewDense(shape[0], shape[1], data)
}

// FromDense copies a gonum matrix into a 2-D float64 tensor.
func FromDense[B Backend](m mat.Matrix, b B) *Tensor[float64, B] {
	r, c := m.Dims()
	t := Zeros[float64, B](Shape{r, c}, b)
	data := t.Data()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			data[i*c+j] = m.At(i, j)
		}
	}
	return t
}
