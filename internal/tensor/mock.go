package tensor

import "fmt"

// Verify that MockBackend implements Backend.
var _ Backend = (*MockBackend)(nil)

// MockBackend is a naive reference backend for tests. Every operation is
// implemented as directly as possible; the optimized CPU backend is
// cross-checked against it.
type MockBackend struct{}

// NewMockBackend creates a new MockBackend.
func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

// Name returns the backend name.
func (m *MockBackend) Name() string {
	return "mock"
}

// Device returns the device type.
func (m *MockBackend) Device() Device {
	return CPU
}

// Add performs element-wise addition with broadcasting.
func (m *MockBackend) Add(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (m *MockBackend) Sub(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (m *MockBackend) Mul(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x * y })
}

func (m *MockBackend) elementWise(a, b *RawTensor, op func(float64, float64) float64) *RawTensor {
	outShape, _, err := BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(err)
	}

	result, err := NewRaw(outShape, a.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	outStrides := outShape.ComputeStrides()
	idx := make([]int, len(outShape))
	n := outShape.NumElements()
	for f := 0; f < n; f++ {
		rem := f
		for d := range outShape {
			idx[d] = rem / outStrides[d]
			rem %= outStrides[d]
		}
		x := valueAt(a, broadcastOffset(a.Shape(), outShape, idx))
		y := valueAt(b, broadcastOffset(b.Shape(), outShape, idx))
		setValueAt(result, f, op(x, y))
	}
	return result
}

// broadcastOffset maps a multi-index in the broadcast output shape to a
// flat offset in a (possibly smaller) operand shape.
func broadcastOffset(opShape, outShape Shape, outIdx []int) int {
	opStrides := opShape.ComputeStrides()
	offset := 0
	shift := len(outShape) - len(opShape)
	for d := range opShape {
		i := outIdx[d+shift]
		if opShape[d] == 1 {
			i = 0
		}
		offset += i * opStrides[d]
	}
	return offset
}

func valueAt(r *RawTensor, offset int) float64 {
	switch r.DType() {
	case Float32:
		return float64(r.AsFloat32()[offset])
	case Float64:
		return r.AsFloat64()[offset]
	default:
		panic("unsupported dtype")
	}
}

func setValueAt(r *RawTensor, offset int, v float64) {
	switch r.DType() {
	case Float32:
		r.AsFloat32()[offset] = float32(v)
	case Float64:
		r.AsFloat64()[offset] = v
	default:
		panic("unsupported dtype")
	}
}

// MatMul performs naive 2-D matrix multiplication.
func (m *MockBackend) MatMul(a, b *RawTensor) *RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: expected 2-D operands, got %v @ %v", aShape, bShape))
	}
	if aShape[1] != bShape[0] {
		panic(fmt.Sprintf("matmul: inner dimensions mismatch %v @ %v", aShape, bShape))
	}

	M, K, N := aShape[0], aShape[1], bShape[1]
	result, err := NewRaw(Shape{M, N}, a.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	for i := 0; i < M; i++ {
		for j := 0; j < N; j++ {
			sum := 0.0
			for k := 0; k < K; k++ {
				sum += valueAt(a, i*K+k) * valueAt(b, k*N+j)
			}
			setValueAt(result, i*N+j, sum)
		}
	}
	return result
}

// Conv2D performs a naive direct 2-D convolution with per-axis stride,
// padding and dilation, and channel groups.
func (m *MockBackend) Conv2D(input, kernel *RawTensor, stride, padding, dilation [2]int, groups int) *RawTensor {
	in, k := input.Shape(), kernel.Shape()
	if len(in) != 4 || len(k) != 4 {
		panic(fmt.Sprintf("conv2d: expected 4-D input and kernel, got %v, %v", in, k))
	}
	n, cIn, h, w := in[0], in[1], in[2], in[3]
	cOut, kcIn, kh, kw := k[0], k[1], k[2], k[3]
	if cIn%groups != 0 || cOut%groups != 0 || kcIn != cIn/groups {
		panic(fmt.Sprintf("conv2d: channel/group mismatch: input %v kernel %v groups %d", in, k, groups))
	}

	hOut := convOutSize(h, kh, stride[0], padding[0], dilation[0])
	wOut := convOutSize(w, kw, stride[1], padding[1], dilation[1])

	result, err := NewRaw(Shape{n, cOut, hOut, wOut}, input.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	ocPerGroup := cOut / groups
	for b := 0; b < n; b++ {
		for oc := 0; oc < cOut; oc++ {
			g := oc / ocPerGroup
			for oh := 0; oh < hOut; oh++ {
				for ow := 0; ow < wOut; ow++ {
					sum := 0.0
					for ic := 0; ic < kcIn; ic++ {
						for y := 0; y < kh; y++ {
							ih := oh*stride[0] - padding[0] + y*dilation[0]
							if ih < 0 || ih >= h {
								continue
							}
							for x := 0; x < kw; x++ {
								iw := ow*stride[1] - padding[1] + x*dilation[1]
								if iw < 0 || iw >= w {
									continue
								}
								inOff := ((b*cIn+g*kcIn+ic)*h+ih)*w + iw
								kOff := ((oc*kcIn+ic)*kh+y)*kw + x
								sum += valueAt(input, inOff) * valueAt(kernel, kOff)
							}
						}
					}
					setValueAt(result, ((b*cOut+oc)*hOut+oh)*wOut+ow, sum)
				}
			}
		}
	}
	return result
}

// convOutSize computes one spatial output dimension of a convolution.
func convOutSize(in, kernel, stride, padding, dilation int) int {
	return (in+2*padding-dilation*(kernel-1)-1)/stride + 1
}

// MaxPool2D performs naive 2-D max pooling.
func (m *MockBackend) MaxPool2D(input *RawTensor, kernelSize, stride int) *RawTensor {
	in := input.Shape()
	if len(in) != 4 {
		panic(fmt.Sprintf("maxpool2d: expected 4-D input, got %v", in))
	}
	n, c, h, w := in[0], in[1], in[2], in[3]
	hOut := (h-kernelSize)/stride + 1
	wOut := (w-kernelSize)/stride + 1

	result, err := NewRaw(Shape{n, c, hOut, wOut}, input.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	for b := 0; b < n; b++ {
		for ch := 0; ch < c; ch++ {
			for oh := 0; oh < hOut; oh++ {
				for ow := 0; ow < wOut; ow++ {
					best := valueAt(input, ((b*c+ch)*h+oh*stride)*w+ow*stride)
					for y := 0; y < kernelSize; y++ {
						for x := 0; x < kernelSize; x++ {
							v := valueAt(input, ((b*c+ch)*h+oh*stride+y)*w+ow*stride+x)
							if v > best {
								best = v
							}
						}
					}
					setValueAt(result, ((b*c+ch)*hOut+oh)*wOut+ow, best)
				}
			}
		}
	}
	return result
}

// Reshape returns a copy with a new shape.
func (m *MockBackend) Reshape(t *RawTensor, newShape Shape) *RawTensor {
	if newShape.NumElements() != t.NumElements() {
		panic(fmt.Sprintf("reshape: cannot reshape %v to %v", t.Shape(), newShape))
	}
	result := t.Clone()
	result.shape = newShape.Clone()
	result.strides = newShape.ComputeStrides()
	return result
}

// Transpose permutes dimensions; with no axes it reverses them.
func (m *MockBackend) Transpose(t *RawTensor, axes ...int) *RawTensor {
	shape := t.Shape()
	nd := len(shape)
	if len(axes) == 0 {
		axes = make([]int, nd)
		for i := range axes {
			axes[i] = nd - 1 - i
		}
	}
	if len(axes) != nd {
		panic(fmt.Sprintf("transpose: got %d axes for %d-D tensor", len(axes), nd))
	}

	newShape := make(Shape, nd)
	for i, ax := range axes {
		newShape[i] = shape[ax]
	}

	result, err := NewRaw(newShape, t.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	oldStrides := shape.ComputeStrides()
	newStrides := newShape.ComputeStrides()
	idx := make([]int, nd)
	n := t.NumElements()
	for f := 0; f < n; f++ {
		rem := f
		for d := 0; d < nd; d++ {
			idx[d] = rem / newStrides[d]
			rem %= newStrides[d]
		}
		src := 0
		for d := 0; d < nd; d++ {
			src += idx[d] * oldStrides[axes[d]]
		}
		setValueAt(result, f, valueAt(t, src))
	}
	return result
}

// MulScalar multiplies every element by a scalar.
func (m *MockBackend) MulScalar(x *RawTensor, scalar any) *RawTensor {
	s := toFloat64(scalar)
	result := x.Clone()
	n := result.NumElements()
	for f := 0; f < n; f++ {
		setValueAt(result, f, valueAt(x, f)*s)
	}
	return result
}

func toFloat64(scalar any) float64 {
	switch v := scalar.(type) {
	case float32:
		return float64(v)
	case float64:
		return v
	default:
		panic(fmt.Sprintf("unsupported scalar type %T", scalar))
	}
}
