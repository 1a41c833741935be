package cpu

import (
	"fmt"

	"github.com/taper-ml/taper/internal/parallel"
	"github.com/taper-ml/taper/internal/tensor"
)

// Conv2D performs a 2-D convolution over NCHW input using im2col.
//
// Input shape: [N, C_in, H, W], kernel shape: [C_out, C_in/groups, K_h, K_w],
// output shape: [N, C_out, H_out, W_out]. Stride, padding and dilation are
// (height, width) pairs. With groups > 1 the input and output channels are
// split into independent groups; groups == C_in with one kernel channel is a
// depthwise convolution.
//
// The im2col transform turns each convolution group into a single matrix
// multiplication (Chellapilla et al., 2006).
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, stride, padding, dilation [2]int, groups int) *tensor.RawTensor {
	inShape := input.Shape()
	kShape := kernel.Shape()

	if len(inShape) != 4 {
		panic(fmt.Sprintf("conv2d: input must be 4-D [N,C,H,W], got %dD", len(inShape)))
	}
	if len(kShape) != 4 {
		panic(fmt.Sprintf("conv2d: kernel must be 4-D [C_out,C_in/groups,K_h,K_w], got %dD", len(kShape)))
	}
	if stride[0] < 1 || stride[1] < 1 {
		panic(fmt.Sprintf("conv2d: stride must be positive, got %v", stride))
	}
	if dilation[0] < 1 || dilation[1] < 1 {
		panic(fmt.Sprintf("conv2d: dilation must be positive, got %v", dilation))
	}

	n, cIn, h, w := inShape[0], inShape[1], inShape[2], inShape[3]
	cOut, kcIn, kh, kw := kShape[0], kShape[1], kShape[2], kShape[3]

	if groups < 1 || cIn%groups != 0 || cOut%groups != 0 {
		panic(fmt.Sprintf("conv2d: groups %d must divide input channels %d and output channels %d", groups, cIn, cOut))
	}
	if kcIn != cIn/groups {
		panic(fmt.Sprintf("conv2d: kernel channels %d != input channels %d / groups %d", kcIn, cIn, groups))
	}

	hOut := outDim(h, kh, stride[0], padding[0], dilation[0])
	wOut := outDim(w, kw, stride[1], padding[1], dilation[1])
	if hOut <= 0 || wOut <= 0 {
		panic(fmt.Sprintf("conv2d: empty output %dx%d for input %dx%d kernel %dx%d", hOut, wOut, h, w, kh, kw))
	}

	output, err := tensor.NewRaw(tensor.Shape{n, cOut, hOut, wOut}, input.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("conv2d: %v", err))
	}

	geom := convGeom{
		n: n, cIn: cIn, h: h, w: w,
		cOut: cOut, kh: kh, kw: kw,
		hOut: hOut, wOut: wOut,
		stride: stride, padding: padding, dilation: dilation,
		groups: groups,
	}

	switch input.DType() {
	case tensor.Float32:
		conv2dKernel(output.AsFloat32(), input.AsFloat32(), kernel.AsFloat32(), geom, cpu.pool)
	case tensor.Float64:
		conv2dKernel(output.AsFloat64(), input.AsFloat64(), kernel.AsFloat64(), geom, cpu.pool)
	default:
		panic(fmt.Sprintf("conv2d: unsupported dtype %s", input.DType()))
	}

	return output
}

// outDim computes one spatial output dimension.
func outDim(in, kernel, stride, padding, dilation int) int {
	return (in+2*padding-dilation*(kernel-1)-1)/stride + 1
}

// convGeom carries the resolved convolution geometry.
type convGeom struct {
	n, cIn, h, w int
	cOut, kh, kw int
	hOut, wOut   int
	stride       [2]int
	padding      [2]int
	dilation     [2]int
	groups       int
}

// conv2dKernel runs im2col + matmul once per channel group.
//
// For group g:
//  1. im2col gathers input patches into colBuf [N*H_out*W_out, (C_in/g)*K_h*K_w]
//  2. the group's kernel slice is already a [C_out/g, (C_in/g)*K_h*K_w] matrix
//  3. their product, scattered back to NCHW, is the group's output channels
func conv2dKernel[T tensor.DType](out, in, ker []T, g convGeom, pool parallel.Config) {
	cInG := g.cIn / g.groups
	cOutG := g.cOut / g.groups
	colWidth := cInG * g.kh * g.kw
	colHeight := g.n * g.hOut * g.wOut

	colBuf := make([]T, colHeight*colWidth)
	spatial := g.hOut * g.wOut

	for grp := 0; grp < g.groups; grp++ {
		im2col(colBuf, in, g, grp)

		kerBase := grp * cOutG * colWidth
		outChanBase := grp * cOutG

		// One output channel per row of the group's kernel matrix.
		parallel.For2D(g.n, cOutG, func(b, oc int) {
			kRow := ker[kerBase+oc*colWidth : kerBase+(oc+1)*colWidth]
			outBase := (b*g.cOut + outChanBase + oc) * spatial
			colBase := b * spatial * colWidth
			for p := 0; p < spatial; p++ {
				col := colBuf[colBase+p*colWidth : colBase+(p+1)*colWidth]
				sum := T(0)
				for k, kv := range kRow {
					sum += kv * col[k]
				}
				out[outBase+p] = sum
			}
		}, pool)
	}
}

// im2col gathers the patches of one channel group into colBuf, one row per
// output position. Out-of-bounds taps read as zero.
func im2col[T tensor.DType](colBuf, in []T, g convGeom, grp int) {
	cInG := g.cIn / g.groups
	colWidth := cInG * g.kh * g.kw
	chanBase := grp * cInG

	colIdx := 0
	for b := 0; b < g.n; b++ {
		for oh := 0; oh < g.hOut; oh++ {
			hStart := oh*g.stride[0] - g.padding[0]
			for ow := 0; ow < g.wOut; ow++ {
				wStart := ow*g.stride[1] - g.padding[1]
				bufIdx := colIdx * colWidth

				for c := 0; c < cInG; c++ {
					inChan := (b*g.cIn + chanBase + c) * g.h * g.w
					for kh := 0; kh < g.kh; kh++ {
						ih := hStart + kh*g.dilation[0]
						for kw := 0; kw < g.kw; kw++ {
							iw := wStart + kw*g.dilation[1]
							if ih >= 0 && ih < g.h && iw >= 0 && iw < g.w {
								colBuf[bufIdx] = in[inChan+ih*g.w+iw]
							} else {
								colBuf[bufIdx] = 0
							}
							bufIdx++
						}
					}
				}
				colIdx++
			}
		}
	}
}
