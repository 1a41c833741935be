package cpu

import (
	"fmt"

	"github.com/taper-ml/taper/internal/parallel"
	"github.com/taper-ml/taper/internal/tensor"
)

// MatMul performs 2-D matrix multiplication: [M, K] @ [K, N] -> [M, N].
// Rows of the result are computed in parallel.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	sa, sb := a.Shape(), b.Shape()

	if len(sa) != 2 || len(sb) != 2 {
		panic(fmt.Sprintf("matmul: want 2-D operands, got %dD and %dD", len(sa), len(sb)))
	}

	m, k, n := sa[0], sa[1], sb[1]
	if sb[0] != k {
		panic(fmt.Sprintf("matmul: cannot multiply %v by %v", sa, sb))
	}

	out, err := tensor.NewRaw(tensor.Shape{m, n}, a.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("matmul: %v", err))
	}

	switch a.DType() {
	case tensor.Float32:
		matmulKernel(out.AsFloat32(), a.AsFloat32(), b.AsFloat32(), m, k, n, cpu.pool)
	case tensor.Float64:
		matmulKernel(out.AsFloat64(), a.AsFloat64(), b.AsFloat64(), m, k, n, cpu.pool)
	default:
		panic(fmt.Sprintf("matmul: dtype %s not supported", a.DType()))
	}

	return out
}

// matmulKernel computes C[i,j] = sum_k A[i,k] * B[k,j] row by row.
// The j/k loop order keeps B accesses sequential within the inner loop.
func matmulKernel[T tensor.DType](c, a, b []T, m, k, n int, pool parallel.Config) {
	parallel.For(m, func(i int) {
		row := c[i*n : (i+1)*n]
		for j := range row {
			row[j] = 0
		}
		for kIdx := 0; kIdx < k; kIdx++ {
			aik := a[i*k+kIdx]
			bRow := b[kIdx*n : (kIdx+1)*n]
			for j, bv := range bRow {
				row[j] += aik * bv
			}
		}
	}, pool)
}
