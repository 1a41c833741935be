// Copyright 2026 Taper ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"testing"

	"github.com/taper-ml/taper/internal/backend/cpu"
	"github.com/taper-ml/taper/nn"
	"github.com/taper-ml/taper/tensor"
)

// TestModuleInterface verifies that concrete types implement Module.
func TestModuleInterface(t *testing.T) {
	backend := cpu.New()

	tests := []struct {
		name   string
		module nn.Module[*cpu.CPUBackend]
		input  tensor.Shape
	}{
		{
			name:   "Linear",
			module: nn.NewLinear(10, 5, true, backend),
			input:  tensor.Shape{2, 10},
		},
		{
			name:   "Conv2D",
			module: nn.NewConv2D(3, 4, [2]int{3, 3}, nn.DefaultConv2DConfig(), backend),
			input:  tensor.Shape{2, 3, 8, 8},
		},
		{
			name: "Sequential",
			module: nn.NewSequential[*cpu.CPUBackend](
				nn.NewLinear(10, 5, true, backend),
				nn.NewReLU[*cpu.CPUBackend](),
			),
			input: tensor.Shape{2, 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := tensor.Randn[float32](tt.input, backend)
			if out := tt.module.Forward(input); out == nil {
				t.Fatal("Forward() returned nil")
			}

			if params := tt.module.Parameters(); len(params) == 0 {
				t.Error("Parameters() is empty, expected trainable parameters")
			}

			stateDict := tt.module.StateDict()
			if len(stateDict) == 0 {
				t.Error("StateDict() is empty, expected parameter entries")
			}
			if err := tt.module.LoadStateDict(stateDict); err != nil {
				t.Errorf("LoadStateDict() round trip failed: %v", err)
			}
		})
	}
}

// TestSequentialRewrite verifies the container surface the compression
// pass depends on.
func TestSequentialRewrite(t *testing.T) {
	backend := cpu.New()
	model := nn.NewSequential[*cpu.CPUBackend](
		nn.NewLinear(6, 4, true, backend),
		nn.NewReLU[*cpu.CPUBackend](),
	)

	if model.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", model.Len())
	}

	replacement := nn.NewSequential[*cpu.CPUBackend](
		nn.NewLinear(6, 2, false, backend),
		nn.NewLinear(2, 4, true, backend),
	)
	model.Replace(0, replacement)

	if _, ok := model.Module(0).(*nn.Sequential[*cpu.CPUBackend]); !ok {
		t.Errorf("Module(0) = %T, want *nn.Sequential", model.Module(0))
	}

	out := model.Forward(tensor.Randn[float32](tensor.Shape{3, 6}, backend))
	if !out.Shape().Equal(tensor.Shape{3, 4}) {
		t.Errorf("Forward shape = %v, want [3 4]", out.Shape())
	}
}
