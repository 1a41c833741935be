// Package compress rewrites trained layers as low-rank chains: CP or
// Tucker factorizations turn one convolution into a short sequence of
// cheaper convolutions, truncated SVD turns one linear layer into two.
// Ranks come from the caller or from EVBMF estimates on the weight
// spectrum.
//
// Each rewrite is a one-shot, layer-local transformation of the learned
// weights. Nothing here trains or fine-tunes: the replacement chain
// approximates the original layer's function with fewer parameters.
package compress

import (
	"errors"
	"fmt"

	"github.com/taper-ml/taper/internal/nn"
	"github.com/taper-ml/taper/internal/tensor"
)

var (
	// ErrZeroRank is returned when rank estimation keeps no component.
	ErrZeroRank = errors.New("compress: estimated rank is zero")

	// ErrUnsupported is returned for layers the rewrites cannot
	// express, such as grouped convolutions.
	ErrUnsupported = errors.New("compress: unsupported layer")
)

// ConvMethod selects the factorization applied to convolutions.
type ConvMethod int

const (
	// ConvTucker rewrites convolutions through a partial Tucker
	// decomposition of the channel modes, ranks estimated by EVBMF.
	ConvTucker ConvMethod = iota
	// ConvCP rewrites convolutions through a CP decomposition into
	// separable stages.
	ConvCP
)

func (m ConvMethod) String() string {
	switch m {
	case ConvTucker:
		return "tucker"
	case ConvCP:
		return "cp"
	default:
		return fmt.Sprintf("ConvMethod(%d)", int(m))
	}
}

// Config sets the policy for a model pass.
type Config struct {
	// Conv picks the convolution rewrite. The zero value is Tucker.
	Conv ConvMethod
	// CPRank fixes the CP rank. Zero falls back to the max-dimension
	// heuristic of HeuristicCPRank.
	CPRank int
	// LinearRank fixes the rank for linear layers. Zero estimates it
	// with EVBMF.
	LinearRank int
	// MinParams skips layers with fewer parameters than this.
	MinParams int
}

// Compressor applies a Config across a whole model.
type Compressor[B tensor.Backend] struct {
	config Config
}

// NewCompressor returns a compressor with the given policy.
func NewCompressor[B tensor.Backend](config Config) *Compressor[B] {
	return &Compressor[B]{config: config}
}

// Compress walks the model and replaces every eligible convolution and
// linear layer in place with its factorized chain. Nested Sequentials
// are descended into; other modules pass through untouched.
func (c *Compressor[B]) Compress(model *nn.Sequential[B]) (*Report, error) {
	report := &Report{}
	if err := c.walk(model, "", report); err != nil {
		return nil, err
	}
	return report, nil
}

func (c *Compressor[B]) walk(seq *nn.Sequential[B], prefix string, report *Report) error {
	for i := 0; i < seq.Len(); i++ {
		name := fmt.Sprintf("%s%d", prefix, i)
		switch m := seq.Module(i).(type) {
		case *nn.Sequential[B]:
			if err := c.walk(m, name+".", report); err != nil {
				return err
			}

		case *nn.Conv2D[B]:
			before := paramCount(m.Parameters())
			if before < c.config.MinParams || m.Groups() != 1 {
				continue
			}
			chain, ranks, err := c.rewriteConv(m)
			if err != nil {
				return fmt.Errorf("layer %s: %w", name, err)
			}
			werr, err := ConvChainError(m, chain)
			if err != nil {
				return fmt.Errorf("layer %s: %w", name, err)
			}
			seq.Replace(i, chain)
			report.append(LayerStats{
				Name:         name,
				Method:       c.config.Conv.String(),
				Shape:        m.Weight().Tensor().Shape(),
				Ranks:        ranks,
				ParamsBefore: before,
				ParamsAfter:  paramCount(chain.Parameters()),
				WeightError:  werr,
			})

		case *nn.Linear[B]:
			before := paramCount(m.Parameters())
			if before < c.config.MinParams {
				continue
			}
			rank := c.config.LinearRank
			if rank == 0 {
				var err error
				rank, err = EstimateLinearRank(m)
				if err != nil {
					return fmt.Errorf("layer %s: %w", name, err)
				}
			}
			chain, err := SVDLinearRank(m, rank)
			if err != nil {
				return fmt.Errorf("layer %s: %w", name, err)
			}
			werr, err := LinearChainError(m, chain)
			if err != nil {
				return fmt.Errorf("layer %s: %w", name, err)
			}
			seq.Replace(i, chain)
			report.append(LayerStats{
				Name:         name,
				Method:       "svd",
				Shape:        m.Weight().Tensor().Shape(),
				Ranks:        []int{rank},
				ParamsBefore: before,
				ParamsAfter:  paramCount(chain.Parameters()),
				WeightError:  werr,
			})
		}
	}
	return nil
}

func (c *Compressor[B]) rewriteConv(layer *nn.Conv2D[B]) (*nn.Sequential[B], []int, error) {
	switch c.config.Conv {
	case ConvTucker:
		ranks, err := EstimateConvRanks(layer)
		if err != nil {
			return nil, nil, err
		}
		chain, err := TuckerConv2DRanks(layer, ranks)
		if err != nil {
			return nil, nil, err
		}
		return chain, ranks[:], nil

	case ConvCP:
		rank := c.config.CPRank
		if rank == 0 {
			rank = HeuristicCPRank(layer)
		}
		chain, err := CPConv2D(layer, rank)
		if err != nil {
			return nil, nil, err
		}
		return chain, []int{rank}, nil

	default:
		return nil, nil, fmt.Errorf("%w: conv method %v", ErrUnsupported, c.config.Conv)
	}
}

func paramCount[B tensor.Backend](params []*nn.Parameter[B]) int {
	total := 0
	for _, p := range params {
		total += p.NumElements()
	}
	return total
}
