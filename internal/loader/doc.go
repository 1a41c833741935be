// Package loader reads and writes model weights in the safetensors
// format (the Hugging Face standard): an 8-byte little-endian header
// length, a JSON table mapping tensor names to dtype, shape and data
// offsets, then the raw tensor bytes.
//
// Float16 and bfloat16 tensors are widened to float32 on load, so a
// state dict read here always fits the two float dtypes the rest of
// the tree works with. Writing keeps each tensor's native dtype.
//
// Example:
//
//	weights, err := loader.LoadStateDict("model.safetensors", backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := model.LoadStateDict(weights); err != nil {
//	    log.Fatal(err)
//	}
package loader
