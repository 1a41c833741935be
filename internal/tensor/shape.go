package tensor

import (
	"fmt"
	"slices"
)

// Shape holds tensor dimensions, outermost first.
type Shape []int

// NumElements returns the element count implied by the shape.
// A zero-length shape is a scalar and counts as one element.
func (s Shape) NumElements() int {
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// Validate returns an error unless every dimension is positive.
func (s Shape) Validate() error {
	for i, d := range s {
		if d <= 0 {
			return fmt.Errorf("shape %v: dimension %d is %d, want > 0", s, i, d)
		}
	}
	return nil
}

// Equal reports whether the two shapes have the same dimensions.
func (s Shape) Equal(other Shape) bool {
	return slices.Equal(s, other)
}

// Clone returns an independent copy of the shape.
func (s Shape) Clone() Shape {
	return slices.Clone(s)
}

// ComputeStrides returns row-major element strides: the innermost
// dimension is contiguous and each stride is the product of the
// dimensions after it.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	step := 1
	for i := len(s) - 1; i >= 0; i-- {
		strides[i] = step
		step *= s[i]
	}
	return strides
}

// BroadcastShapes resolves two shapes under NumPy broadcasting:
// aligned from the right, each dimension pair must be equal or contain
// a 1, and missing leading dimensions count as 1.
//
// The second result reports whether any dimension actually needs
// broadcasting (false when the shapes already match).
//
// Examples:
//
//	(3, 1) + (3, 5) → (3, 5), true, nil
//	(3, 5) + (3, 5) → (3, 5), false, nil
//	(3, 4) + (3, 5) → nil, false, error
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	n := max(len(a), len(b))
	out := make(Shape, n)
	broadcast := false

	for i := 1; i <= n; i++ {
		da, db := 1, 1
		if i <= len(a) {
			da = a[len(a)-i]
		}
		if i <= len(b) {
			db = b[len(b)-i]
		}

		switch {
		case da == db:
			out[n-i] = da
		case da == 1:
			out[n-i] = db
			broadcast = true
		case db == 1:
			out[n-i] = da
			broadcast = true
		default:
			return nil, false, fmt.Errorf("cannot broadcast %v with %v (dimension %d: %d vs %d)", a, b, n-i, da, db)
		}
	}

	return out, broadcast, nil
}
