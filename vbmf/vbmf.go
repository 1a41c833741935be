// Copyright 2026 Taper ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package vbmf estimates matrix rank by empirical variational Bayesian
// matrix factorization.
//
// EVBMF treats a matrix as low-rank signal plus iid Gaussian noise,
// fits the noise variance by evidence maximization, and keeps only the
// singular values that survive the resulting threshold. The count of
// survivors is the rank estimate the compression pass feeds into
// Tucker and SVD factorizations, which is what makes the pass free of
// tuning knobs.
//
// Example:
//
//	import (
//	    "github.com/taper-ml/taper/vbmf"
//	    "github.com/taper-ml/taper/tensor"
//	    "github.com/taper-ml/taper/backend/cpu"
//	)
//
//	backend := cpu.New()
//	w := tensor.Randn[float64](tensor.Shape{64, 128}, backend)
//
//	res, err := vbmf.EVBMF(w, vbmf.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Rank)
package vbmf

import (
	"github.com/taper-ml/taper/internal/vbmf"
	"github.com/taper-ml/taper/tensor"
)

// Sentinel errors from rank estimation.
var (
	// ErrBadShape reports an input that is not a 2-D matrix.
	ErrBadShape = vbmf.ErrBadShape
	// ErrSVDFailed reports a spectrum computation that did not converge.
	ErrSVDFailed = vbmf.ErrSVDFailed
)

// Options configures EVBMF.
type Options = vbmf.Options

// Result holds the rank estimate and the spectrum evidence behind it.
type Result = vbmf.Result

// EVBMF estimates the rank of a 2-D matrix. With Options zero the
// noise variance is fit by evidence maximization; a fixed Sigma2 skips
// the fit.
func EVBMF[B tensor.Backend](y *tensor.Tensor[float64, B], opts Options) (Result, error) {
	return vbmf.EVBMF[B](y, opts)
}
