package cpu

import (
	"fmt"

	"github.com/taper-ml/taper/internal/parallel"
	"github.com/taper-ml/taper/internal/tensor"
)

// MaxPool2D performs 2-D max pooling over NCHW input.
// Output spatial size is (H - kernelSize)/stride + 1 per axis; no padding.
func (cpu *CPUBackend) MaxPool2D(input *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	inShape := input.Shape()
	if len(inShape) != 4 {
		panic(fmt.Sprintf("maxpool2d: input must be 4-D [N,C,H,W], got %dD", len(inShape)))
	}
	if kernelSize < 1 || stride < 1 {
		panic(fmt.Sprintf("maxpool2d: kernel %d and stride %d must be positive", kernelSize, stride))
	}

	n, c, h, w := inShape[0], inShape[1], inShape[2], inShape[3]
	hOut := (h-kernelSize)/stride + 1
	wOut := (w-kernelSize)/stride + 1
	if hOut <= 0 || wOut <= 0 {
		panic(fmt.Sprintf("maxpool2d: empty output for input %dx%d kernel %d stride %d", h, w, kernelSize, stride))
	}

	output, err := tensor.NewRaw(tensor.Shape{n, c, hOut, wOut}, input.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("maxpool2d: %v", err))
	}

	switch input.DType() {
	case tensor.Float32:
		maxPoolKernel(output.AsFloat32(), input.AsFloat32(), n, c, h, w, hOut, wOut, kernelSize, stride, cpu.pool)
	case tensor.Float64:
		maxPoolKernel(output.AsFloat64(), input.AsFloat64(), n, c, h, w, hOut, wOut, kernelSize, stride, cpu.pool)
	default:
		panic(fmt.Sprintf("maxpool2d: unsupported dtype %s", input.DType()))
	}

	return output
}

func maxPoolKernel[T tensor.DType](out, in []T, n, c, h, w, hOut, wOut, kernelSize, stride int, pool parallel.Config) {
	parallel.For2D(n, c, func(b, ch int) {
		inChan := (b*c + ch) * h * w
		outChan := (b*c + ch) * hOut * wOut
		for oh := 0; oh < hOut; oh++ {
			for ow := 0; ow < wOut; ow++ {
				hStart := oh * stride
				wStart := ow * stride
				best := in[inChan+hStart*w+wStart]
				for kh := 0; kh < kernelSize; kh++ {
					row := inChan + (hStart+kh)*w + wStart
					for kw := 0; kw < kernelSize; kw++ {
						if v := in[row+kw]; v > best {
							best = v
						}
					}
				}
				out[outChan+oh*wOut+ow] = best
			}
		}
	}, pool)
}
