package nn

import (
	"math"
	"math/rand"

	"github.com/taper-ml/taper/internal/tensor"
)

// Xavier initializes a weight tensor from the Glorot uniform distribution
// U(-b, b) with b = sqrt(6 / (fanIn + fanOut)).
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	raw, err := tensor.NewRaw(shape, tensor.Float32, backend.Device())
	if err != nil {
		panic(err)
	}

	limit := math.Sqrt(6.0 / float64(fanIn+fanOut))
	data := raw.AsFloat32()
	for i := range data {
		//nolint:gosec // weight init needs no crypto randomness
		data[i] = float32(limit * (2*rand.Float64() - 1))
	}

	return tensor.New[float32, B](raw, backend)
}

// Zeros creates a float32 tensor filled with zeros, the usual bias init.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Zeros[float32](shape, backend)
}
