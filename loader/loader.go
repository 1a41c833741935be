// Copyright 2026 Taper ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package loader reads and writes model weights as safetensors files.
//
// Reading converts F16 and BF16 tensors up to float32; F32 and F64 pass
// through at native width. Writing keeps each tensor's native dtype.
//
// Example:
//
//	import (
//	    "github.com/taper-ml/taper/loader"
//	    "github.com/taper-ml/taper/backend/cpu"
//	)
//
//	backend := cpu.New()
//	stateDict, err := loader.LoadStateDict("model.safetensors", backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := model.LoadStateDict(stateDict); err != nil {
//	    log.Fatal(err)
//	}
//
// For selective access, Open returns a Reader that parses the header
// up front and loads tensors on demand.
package loader

import (
	"github.com/taper-ml/taper/internal/loader"
	"github.com/taper-ml/taper/tensor"
)

// Sentinel errors from safetensors parsing.
var (
	// ErrBadHeader reports a file that does not parse as safetensors.
	ErrBadHeader = loader.ErrBadHeader
	// ErrTensorNotFound reports a name absent from the table.
	ErrTensorNotFound = loader.ErrTensorNotFound
	// ErrUnsupportedDType reports a dtype outside F16, BF16, F32, F64.
	ErrUnsupportedDType = loader.ErrUnsupportedDType
)

// Safetensors dtype names.
const (
	DTypeF16  = loader.DTypeF16
	DTypeBF16 = loader.DTypeBF16
	DTypeF32  = loader.DTypeF32
	DTypeF64  = loader.DTypeF64
)

// TensorInfo is one entry of the safetensors header table.
type TensorInfo = loader.TensorInfo

// Reader reads tensors out of a safetensors file on demand.
type Reader = loader.Reader

// Open opens a safetensors file and parses its header. The tensor data
// stays on disk until loaded.
func Open(path string) (*Reader, error) {
	return loader.Open(path)
}

// LoadStateDict reads every tensor in the file into a state dict.
func LoadStateDict(path string, backend tensor.Backend) (map[string]*tensor.RawTensor, error) {
	return loader.LoadStateDict(path, backend)
}

// SaveStateDict writes a state dict as a safetensors file, tensors in
// sorted name order, with an optional metadata block.
func SaveStateDict(path string, stateDict map[string]*tensor.RawTensor, metadata map[string]string) error {
	return loader.SaveStateDict(path, stateDict, metadata)
}
