package loader

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/taper-ml/taper/internal/tensor"
)

// SaveStateDict writes a state dict as a safetensors file. Tensors are
// laid out in name order with their native dtype.
func SaveStateDict(path string, stateDict map[string]*tensor.RawTensor, metadata map[string]string) error {
	names := make([]string, 0, len(stateDict))
	for name := range stateDict {
		names = append(names, name)
	}
	sort.Strings(names)

	table := make(map[string]any, len(stateDict)+1)
	if len(metadata) > 0 {
		table["__metadata__"] = metadata
	}
	offset := int64(0)
	for _, name := range names {
		raw := stateDict[name]
		size := int64(raw.ByteSize())
		table[name] = TensorInfo{
			DType:       dtypeName(raw.DType()),
			Shape:       append([]int(nil), raw.Shape()...),
			DataOffsets: [2]int64{offset, offset + size},
		}
		offset += size
	}
	headerJSON, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("loader: header: %w", err)
	}

	file, err := os.Create(path) //nolint:gosec // G304: output paths come from the caller
	if err != nil {
		return fmt.Errorf("loader: %w", err)
	}
	w := bufio.NewWriter(file)

	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(headerJSON)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		_ = file.Close()
		return fmt.Errorf("loader: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		_ = file.Close()
		return fmt.Errorf("loader: %w", err)
	}
	for _, name := range names {
		if _, err := w.Write(stateDict[name].Data()); err != nil {
			_ = file.Close()
			return fmt.Errorf("loader: tensor %s: %w", name, err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = file.Close()
		return fmt.Errorf("loader: %w", err)
	}
	return file.Close()
}

func dtypeName(dt tensor.DataType) string {
	switch dt {
	case tensor.Float64:
		return DTypeF64
	default:
		return DTypeF32
	}
}
