// Copyright 2026 Taper ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the neural network layer model.
//
// # Overview
//
// This package contains the inference-side building blocks the
// compression pass operates on:
//   - Layers: Conv2D, Linear
//   - Supporting modules: ReLU, MaxPool2D, Flatten
//   - Containers: Sequential
//   - Utilities: Module interface, Parameter
//
// There is no gradient machinery; modules only run forward.
//
// # Basic Usage
//
//	import (
//	    "github.com/taper-ml/taper/nn"
//	    "github.com/taper-ml/taper/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    model := nn.NewSequential[*cpu.Backend](
//	        nn.NewConv2D(1, 6, [2]int{5, 5}, nn.DefaultConv2DConfig(), backend),
//	        nn.NewReLU[*cpu.Backend](),
//	        nn.NewMaxPool2D(2, 2, backend),
//	        nn.NewFlatten[*cpu.Backend](),
//	        nn.NewLinear(864, 10, true, backend),
//	    )
//
//	    output := model.Forward(input) // [batch, 10]
//	}
//
// # State I/O
//
// Every module exports its parameters through StateDict and restores
// them through LoadStateDict, keyed by dotted positional paths
// ("0.weight", "4.bias"). The loader package reads and writes these
// maps as safetensors files.
package nn
