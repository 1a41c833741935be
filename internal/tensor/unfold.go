package tensor

import "fmt"

// Unfold returns the mode-n matricization of the tensor: a 2-D tensor of
// shape [I_n, prod(other dims)] whose columns enumerate the remaining axes
// in row-major order. This matches the C-ordering convention
// unfold(X, n) = reshape(moveaxis(X, n, 0), (I_n, -1)), which is the
// convention the decomposition routines are written against.
//
// Panics if mode is out of range.
func (t *Tensor[T, B]) Unfold(mode int) *Tensor[T, B] {
	shape := t.Shape()
	if mode < 0 || mode >= len(shape) {
		panic(fmt.Sprintf("unfold: mode %d out of range for %d-D tensor", mode, len(shape)))
	}

	rows := shape[mode]
	cols := t.NumElements() / rows

	out := Zeros[T, B](Shape{rows, cols}, t.backend)

	src := t.Data()
	dst := out.Data()
	srcStrides := shape.ComputeStrides()
	colStrides := unfoldColStrides(shape, mode)

	idx := make([]int, len(shape))
	for f := range src {
		// Decompose the flat index, then split into (row, col).
		rem := f
		for d := range shape {
			idx[d] = rem / srcStrides[d]
			rem %= srcStrides[d]
		}
		col := 0
		for d := range shape {
			if d != mode {
				col += idx[d] * colStrides[d]
			}
		}
		dst[idx[mode]*cols+col] = src[f]
	}

	return out
}

// Fold is the inverse of Unfold: it reassembles a [shape[mode], rest]
// matrix into a tensor of the given shape.
func Fold[T DType, B Backend](m *Tensor[T, B], mode int, shape Shape) *Tensor[T, B] {
	mShape := m.Shape()
	if len(mShape) != 2 {
		panic(fmt.Sprintf("fold: expected 2-D input, got shape %v", mShape))
	}
	if mode < 0 || mode >= len(shape) {
		panic(fmt.Sprintf("fold: mode %d out of range for target shape %v", mode, shape))
	}
	if mShape[0] != shape[mode] || mShape[1]*mShape[0] != shape.NumElements() {
		panic(fmt.Sprintf("fold: matrix %v does not match mode-%d unfolding of %v", mShape, mode, shape))
	}

	out := Zeros[T, B](shape, m.Backend())

	src := m.Data()
	dst := out.Data()
	dstStrides := shape.ComputeStrides()
	colStrides := unfoldColStrides(shape, mode)
	cols := mShape[1]

	idx := make([]int, len(shape))
	for f := range dst {
		rem := f
		for d := range shape {
			idx[d] = rem / dstStrides[d]
			rem %= dstStrides[d]
		}
		col := 0
		for d := range shape {
			if d != mode {
				col += idx[d] * colStrides[d]
			}
		}
		dst[f] = src[idx[mode]*cols+col]
	}

	return out
}

// unfoldColStrides computes, for each axis except mode, the stride of that
// axis within the unfolded column space (remaining axes kept in original
// order, last axis fastest).
func unfoldColStrides(shape Shape, mode int) []int {
	strides := make([]int, len(shape))
	acc := 1
	for d := len(shape) - 1; d >= 0; d-- {
		if d == mode {
			continue
		}
		strides[d] = acc
		acc *= shape[d]
	}
	return strides
}
