package cpu

import (
	"fmt"

	"github.com/taper-ml/taper/internal/tensor"
)

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	switch a.DType() {
	case tensor.Float32:
		return binary(cpu, "add", a, b, func(x, y float32) float32 { return x + y })
	case tensor.Float64:
		return binary(cpu, "add", a, b, func(x, y float64) float64 { return x + y })
	default:
		panic(fmt.Sprintf("add: unsupported dtype %s", a.DType()))
	}
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	switch a.DType() {
	case tensor.Float32:
		return binary(cpu, "sub", a, b, func(x, y float32) float32 { return x - y })
	case tensor.Float64:
		return binary(cpu, "sub", a, b, func(x, y float64) float64 { return x - y })
	default:
		panic(fmt.Sprintf("sub: unsupported dtype %s", a.DType()))
	}
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	switch a.DType() {
	case tensor.Float32:
		return binary(cpu, "mul", a, b, func(x, y float32) float32 { return x * y })
	case tensor.Float64:
		return binary(cpu, "mul", a, b, func(x, y float64) float64 { return x * y })
	default:
		panic(fmt.Sprintf("mul: unsupported dtype %s", a.DType()))
	}
}

// MulScalar multiplies every element by a scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	result := x.Clone()
	switch x.DType() {
	case tensor.Float32:
		s := scalarAs[float32](scalar)
		data := result.AsFloat32()
		for i := range data {
			data[i] *= s
		}
	case tensor.Float64:
		s := scalarAs[float64](scalar)
		data := result.AsFloat64()
		for i := range data {
			data[i] *= s
		}
	default:
		panic(fmt.Sprintf("mulscalar: unsupported dtype %s", x.DType()))
	}
	return result
}

func scalarAs[T tensor.DType](scalar any) T {
	switch v := scalar.(type) {
	case float32:
		return T(v)
	case float64:
		return T(v)
	case int:
		return T(v)
	default:
		panic(fmt.Sprintf("unsupported scalar type %T", scalar))
	}
}

// data reinterprets a raw tensor's buffer as a typed slice.
func data[T tensor.DType](r *tensor.RawTensor) []T {
	var zero T
	switch any(zero).(type) {
	case float32:
		return any(r.AsFloat32()).([]T)
	default:
		return any(r.AsFloat64()).([]T)
	}
}

// binary applies op element-wise, broadcasting the smaller operand.
func binary[T tensor.DType](cpu *CPUBackend, name string, a, b *tensor.RawTensor, op func(T, T) T) *tensor.RawTensor {
	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	result, err := tensor.NewRaw(outShape, a.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	dst := data[T](result)
	av := data[T](a)
	bv := data[T](b)

	if !needsBroadcast {
		for i := range dst {
			dst[i] = op(av[i], bv[i])
		}
		return result
	}

	broadcastLoop(dst, av, bv, a.Shape(), b.Shape(), outShape, op)
	return result
}

// broadcastLoop walks the output index space and gathers operand elements
// through broadcast-aware strides (stride 0 on size-1 dimensions).
func broadcastLoop[T tensor.DType](dst, a, b []T, aShape, bShape, outShape tensor.Shape, op func(T, T) T) {
	nd := len(outShape)
	aStrides := broadcastStrides(aShape, outShape)
	bStrides := broadcastStrides(bShape, outShape)
	outStrides := outShape.ComputeStrides()

	for f := range dst {
		rem := f
		aOff, bOff := 0, 0
		for d := 0; d < nd; d++ {
			i := rem / outStrides[d]
			rem %= outStrides[d]
			aOff += i * aStrides[d]
			bOff += i * bStrides[d]
		}
		dst[f] = op(a[aOff], b[bOff])
	}
}

// broadcastStrides right-aligns an operand shape against the output shape
// and zeroes the stride of every broadcast dimension.
func broadcastStrides(opShape, outShape tensor.Shape) []int {
	strides := make([]int, len(outShape))
	opStrides := opShape.ComputeStrides()
	shift := len(outShape) - len(opShape)
	for d := range opShape {
		if opShape[d] != 1 {
			strides[d+shift] = opStrides[d]
		}
	}
	return strides
}
