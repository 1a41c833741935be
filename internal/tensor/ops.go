package tensor

// Operations delegate to the backend and wrap the untyped result.
// Shape checks live in the backend, which panics on misuse.

// Add is element-wise addition with broadcasting.
//
// Example:
//
//	a := tensor.Ones[float32](Shape{4, 1}, backend)
//	b := tensor.Ones[float32](Shape{4, 6}, backend)
//	c := a.Add(b) // shape [4, 6]
func (t *Tensor[T, B]) Add(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Add(t.raw, other.raw), t.backend)
}

// Sub is element-wise subtraction with broadcasting.
func (t *Tensor[T, B]) Sub(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Sub(t.raw, other.raw), t.backend)
}

// Mul is element-wise multiplication with broadcasting.
func (t *Tensor[T, B]) Mul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Mul(t.raw, other.raw), t.backend)
}

// MulScalar scales every element.
func (t *Tensor[T, B]) MulScalar(scalar T) *Tensor[T, B] {
	return New[T, B](t.backend.MulScalar(t.raw, scalar), t.backend)
}

// MatMul multiplies 2-D matrices: (M, K) @ (K, N) gives (M, N).
func (t *Tensor[T, B]) MatMul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.MatMul(t.raw, other.raw), t.backend)
}

// Reshape reinterprets the data under a new shape with the same
// element count.
func (t *Tensor[T, B]) Reshape(dims ...int) *Tensor[T, B] {
	return New[T, B](t.backend.Reshape(t.raw, Shape(dims)), t.backend)
}

// Transpose permutes dimensions. With no axes every dimension is
// reversed, which for 2-D is the standard transpose.
//
// Example:
//
//	t := tensor.Randn[float32](Shape{2, 5, 7}, backend)
//	p := t.Transpose(2, 0, 1) // shape [7, 2, 5]
func (t *Tensor[T, B]) Transpose(axes ...int) *Tensor[T, B] {
	return New[T, B](t.backend.Transpose(t.raw, axes...), t.backend)
}

// T swaps the two dimensions of a matrix. Panics on other ranks.
func (t *Tensor[T, B]) T() *Tensor[T, B] {
	if len(t.Shape()) != 2 {
		panic("T requires a 2-D tensor")
	}
	return t.Transpose(1, 0)
}
