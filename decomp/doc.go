// Copyright 2026 Taper ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package decomp provides the tensor decompositions layer compression
// is built on.
//
// # Overview
//
// Three factorizations, all running in float64 on gonum:
//   - CP: rank-R sum of rank-one tensors via alternating least squares
//   - PartialTucker: core tensor plus orthonormal factors on selected
//     modes, via HOSVD seeding and orthogonal iteration
//   - TruncatedSVD: leading singular triplets of a matrix
//
// CPToTensor and TuckerToTensor reconstruct dense tensors from factors,
// which is how reconstruction error gets measured.
//
// # Basic Usage
//
//	import (
//	    "github.com/taper-ml/taper/decomp"
//	    "github.com/taper-ml/taper/tensor"
//	    "github.com/taper-ml/taper/backend/cpu"
//	)
//
//	backend := cpu.New()
//	kernel := tensor.Randn[float64](tensor.Shape{16, 8, 3, 3}, backend)
//
//	factors, err := decomp.CP(kernel, decomp.DefaultCPOptions(4))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	approx, _ := decomp.CPToTensor(factors)
//	_ = approx
//
// Layer weights are float32; callers convert with Tensor.Float64 before
// decomposing and cast factors back afterwards.
package decomp
