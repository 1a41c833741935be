package tensor

import (
	"math"
	"math/rand"
)

// Zeros allocates a zero-filled tensor.
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros[float32](Shape{3, 4}, backend)
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var zero T
	raw, err := NewRaw(shape, inferDataType(zero), b.Device())
	if err != nil {
		panic(err)
	}
	return New[T, B](raw, b)
}

// Ones allocates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T, B](shape, T(1), b)
}

// Full allocates a tensor filled with one value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Eye allocates an n by n identity matrix.
func Eye[T DType, B Backend](n int, b B) *Tensor[T, B] {
	t := Zeros[T, B](Shape{n, n}, b)
	data := t.Data()
	for i := 0; i < n; i++ {
		data[i*n+i] = T(1)
	}
	return t
}

// Randn draws from the standard normal distribution via the Box-Muller
// transform, consuming the shared math/rand source. See RandnFrom for a
// seeded variant.
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return randnFill[T, B](shape, b, rand.Float64)
}

// RandnFrom is Randn with an explicit random source, so callers that need
// reproducible factor initializations can seed one.
func RandnFrom[T DType, B Backend](shape Shape, rng *rand.Rand, b B) *Tensor[T, B] {
	return randnFill[T, B](shape, b, rng.Float64)
}

func randnFill[T DType, B Backend](shape Shape, b B, uniform func() float64) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()

	for i := 0; i < len(data); i += 2 {
		u1 := uniform()
		u2 := uniform()
		if u1 <= 0 {
			u1 = math.SmallestNonzeroFloat64
		}
		r := math.Sqrt(-2.0 * math.Log(u1))
		data[i] = T(r * math.Cos(2.0*math.Pi*u2))
		if i+1 < len(data) {
			data[i+1] = T(r * math.Sin(2.0*math.Pi*u2))
		}
	}
	return t
}

// Rand draws uniformly from [0, 1).
func Rand[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = T(rand.Float64())
	}
	return t
}
