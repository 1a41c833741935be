package compress

import (
	"fmt"
	"math"

	"github.com/taper-ml/taper/internal/decomp"
	"github.com/taper-ml/taper/internal/nn"
	"github.com/taper-ml/taper/internal/tensor"
)

// ConvChainError measures the relative Frobenius error between a
// convolution's kernel and the dense kernel its factorized replacement
// represents.
func ConvChainError[B tensor.Backend](layer *nn.Conv2D[B], chain *nn.Sequential[B]) (float64, error) {
	rebuilt, err := convChainKernel(chain)
	if err != nil {
		return 0, err
	}
	want := layer.Weight().Tensor().Float64()
	if !want.Shape().Equal(rebuilt.Shape()) {
		return 0, fmt.Errorf("%w: chain kernel %v against layer kernel %v", ErrUnsupported, rebuilt.Shape(), want.Shape())
	}
	return relativeError(want.Data(), rebuilt.Data()), nil
}

// LinearChainError measures the relative Frobenius error between a
// linear layer's weight and the product of its replacement pair.
func LinearChainError[B tensor.Backend](layer *nn.Linear[B], chain *nn.Sequential[B]) (float64, error) {
	if chain.Len() != 2 {
		return 0, fmt.Errorf("%w: linear chain of %d stages", ErrUnsupported, chain.Len())
	}
	first, err := linearAt(chain, 0)
	if err != nil {
		return 0, err
	}
	second, err := linearAt(chain, 1)
	if err != nil {
		return 0, err
	}

	rebuilt := second.Weight().Tensor().Float64().MatMul(first.Weight().Tensor().Float64())
	want := layer.Weight().Tensor().Float64()
	if !want.Shape().Equal(rebuilt.Shape()) {
		return 0, fmt.Errorf("%w: chain weight %v against layer weight %v", ErrUnsupported, rebuilt.Shape(), want.Shape())
	}
	return relativeError(want.Data(), rebuilt.Data()), nil
}

// convChainKernel folds a CP (four stages) or Tucker (three stages)
// convolution chain back into one dense kernel.
func convChainKernel[B tensor.Backend](chain *nn.Sequential[B]) (*tensor.Tensor[float64, B], error) {
	switch chain.Len() {
	case 4:
		first, err := pointwiseFactor(chain, 0, true)
		if err != nil {
			return nil, err
		}
		vertical, err := depthwiseFactor(chain, 1)
		if err != nil {
			return nil, err
		}
		horizontal, err := depthwiseFactor(chain, 2)
		if err != nil {
			return nil, err
		}
		last, err := pointwiseFactor(chain, 3, false)
		if err != nil {
			return nil, err
		}
		return decomp.CPToTensor([]*tensor.Tensor[float64, B]{last, first, vertical, horizontal})

	case 3:
		first, err := pointwiseFactor(chain, 0, true)
		if err != nil {
			return nil, err
		}
		core, err := convAt(chain, 1)
		if err != nil {
			return nil, err
		}
		last, err := pointwiseFactor(chain, 2, false)
		if err != nil {
			return nil, err
		}
		coreTensor := core.Weight().Tensor().Float64()
		return decomp.TuckerToTensor(coreTensor, []*tensor.Tensor[float64, B]{last, first}, []int{0, 1})

	default:
		return nil, fmt.Errorf("%w: convolution chain of %d stages", ErrUnsupported, chain.Len())
	}
}

// pointwiseFactor reads a 1x1 convolution kernel [o, i, 1, 1] as a
// float64 factor matrix, transposed to [i, o] when requested.
func pointwiseFactor[B tensor.Backend](chain *nn.Sequential[B], index int, transposed bool) (*tensor.Tensor[float64, B], error) {
	conv, err := convAt(chain, index)
	if err != nil {
		return nil, err
	}
	if k := conv.KernelSize(); k != [2]int{1, 1} {
		return nil, fmt.Errorf("%w: chain stage %d has kernel %v, want 1x1", ErrUnsupported, index, k)
	}

	o, i := conv.OutChannels(), conv.InChannels()
	w := conv.Weight().Tensor().Data()
	if !transposed {
		data := make([]float64, len(w))
		for j, v := range w {
			data[j] = float64(v)
		}
		return tensor.FromSlice(data, tensor.Shape{o, i}, conv.Weight().Tensor().Backend())
	}

	data := make([]float64, len(w))
	for oi := 0; oi < o; oi++ {
		for ii := 0; ii < i; ii++ {
			data[ii*o+oi] = float64(w[oi*i+ii])
		}
	}
	return tensor.FromSlice(data, tensor.Shape{i, o}, conv.Weight().Tensor().Backend())
}

// depthwiseFactor reads a depthwise kernel [r, 1, k, 1] or [r, 1, 1, k]
// as a [k, r] float64 factor matrix.
func depthwiseFactor[B tensor.Backend](chain *nn.Sequential[B], index int) (*tensor.Tensor[float64, B], error) {
	conv, err := convAt(chain, index)
	if err != nil {
		return nil, err
	}
	k := conv.KernelSize()
	if k[0] != 1 && k[1] != 1 {
		return nil, fmt.Errorf("%w: chain stage %d has kernel %v, want a 1-wide stripe", ErrUnsupported, index, k)
	}
	if conv.Groups() != conv.OutChannels() {
		return nil, fmt.Errorf("%w: chain stage %d is not depthwise", ErrUnsupported, index)
	}

	r := conv.OutChannels()
	taps := k[0] * k[1]
	w := conv.Weight().Tensor().Data()
	data := make([]float64, len(w))
	for ri := 0; ri < r; ri++ {
		for j := 0; j < taps; j++ {
			data[j*r+ri] = float64(w[ri*taps+j])
		}
	}
	return tensor.FromSlice(data, tensor.Shape{taps, r}, conv.Weight().Tensor().Backend())
}

func convAt[B tensor.Backend](chain *nn.Sequential[B], index int) (*nn.Conv2D[B], error) {
	conv, ok := chain.Module(index).(*nn.Conv2D[B])
	if !ok {
		return nil, fmt.Errorf("%w: chain stage %d is not a convolution", ErrUnsupported, index)
	}
	return conv, nil
}

func linearAt[B tensor.Backend](chain *nn.Sequential[B], index int) (*nn.Linear[B], error) {
	layer, ok := chain.Module(index).(*nn.Linear[B])
	if !ok {
		return nil, fmt.Errorf("%w: chain stage %d is not linear", ErrUnsupported, index)
	}
	return layer, nil
}

// relativeError computes ||want - got||_F / ||want||_F over flat data.
func relativeError(want, got []float64) float64 {
	num, den := 0.0, 0.0
	for i := range want {
		d := want[i] - got[i]
		num += d * d
		den += want[i] * want[i]
	}
	if den == 0 {
		if num == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return math.Sqrt(num / den)
}
