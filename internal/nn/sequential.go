package nn

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/taper-ml/taper/internal/tensor"
)

// Sequential chains modules so each module's output feeds the next.
//
// The compression pass walks a Sequential, factorizes eligible layers
// and swaps the replacements in with Replace. A replacement is often
// itself a Sequential (a chain of smaller convolutions), which nests
// naturally since Sequential implements Module.
type Sequential[B tensor.Backend] struct {
	modules []Module[B]
}

// NewSequential builds the container from modules in execution order.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return &Sequential[B]{modules: modules}
}

// Forward pipes the input through every module in order.
func (s *Sequential[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	x := input
	for _, m := range s.modules {
		x = m.Forward(x)
	}
	return x
}

// Parameters concatenates every module's parameters in order.
func (s *Sequential[B]) Parameters() []*Parameter[B] {
	var out []*Parameter[B]
	for _, m := range s.modules {
		out = append(out, m.Parameters()...)
	}
	return out
}

// Add appends a module.
func (s *Sequential[B]) Add(module Module[B]) {
	s.modules = append(s.modules, module)
}

// Len returns the number of modules.
func (s *Sequential[B]) Len() int {
	return len(s.modules)
}

// Module returns the module at index. Panics when out of bounds.
func (s *Sequential[B]) Module(index int) Module[B] {
	s.checkIndex(index)
	return s.modules[index]
}

// Replace swaps the module at index for another. Panics when out of bounds.
func (s *Sequential[B]) Replace(index int, module Module[B]) {
	s.checkIndex(index)
	s.modules[index] = module
}

func (s *Sequential[B]) checkIndex(index int) {
	if index < 0 || index >= len(s.modules) {
		panic(fmt.Sprintf("sequential: index %d out of bounds [0, %d)", index, len(s.modules)))
	}
}

// StateDict returns all parameters keyed by "<index>.<name>".
func (s *Sequential[B]) StateDict() map[string]*tensor.RawTensor {
	sd := make(map[string]*tensor.RawTensor)
	for i, m := range s.modules {
		for name, raw := range m.StateDict() {
			sd[fmt.Sprintf("%d.%s", i, name)] = raw
		}
	}
	return sd
}

// LoadStateDict routes "<index>.<name>" entries to the matching modules.
// Modules with no entries in the dict keep their current weights.
func (s *Sequential[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for i, m := range s.modules {
		prefix := strconv.Itoa(i) + "."

		sub := make(map[string]*tensor.RawTensor)
		for k, raw := range stateDict {
			if rest, ok := strings.CutPrefix(k, prefix); ok {
				sub[rest] = raw
			}
		}
		if len(sub) == 0 {
			continue
		}

		if err := m.LoadStateDict(sub); err != nil {
			return fmt.Errorf("module %d: %w", i, err)
		}
	}
	return nil
}
