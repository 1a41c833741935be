// Copyright 2026 Taper ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package compress rewrites trained models into low-rank form.
//
// # Overview
//
// One-shot post-training compression: no data, no fine-tuning, weights
// only. Convolutions become chains of smaller convolutions (CP or
// partial Tucker factorization), linear layers become two stacked
// projections (truncated SVD). Ranks are fixed by the caller or
// estimated from the weights themselves with EVBMF.
//
// # Basic Usage
//
//	import (
//	    "github.com/taper-ml/taper/compress"
//	    "github.com/taper-ml/taper/backend/cpu"
//	)
//
//	compressor := compress.NewCompressor[*cpu.Backend](compress.Config{
//	    Conv:      compress.ConvTucker,
//	    MinParams: 1000,
//	})
//	report, err := compressor.Compress(model)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%.1fx fewer parameters\n", report.Ratio())
//
// The model is modified in place; layers too small to profit and
// grouped convolutions are left untouched. The returned Report lists
// every rewritten layer with its ranks, parameter counts and weight
// reconstruction error.
//
// # Single Layers
//
// CPConv2D, TuckerConv2D and SVDLinear rewrite one layer and return
// the replacement chain without touching any model, for callers that
// want the decision logic themselves.
package compress
