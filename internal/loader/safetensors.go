package loader

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"

	"github.com/taper-ml/taper/internal/tensor"
)

var (
	// ErrBadHeader is returned when the file does not parse as
	// safetensors.
	ErrBadHeader = errors.New("loader: bad safetensors header")

	// ErrTensorNotFound is returned for names absent from the table.
	ErrTensorNotFound = errors.New("loader: tensor not found")

	// ErrUnsupportedDType is returned for dtypes outside F16, BF16, F32
	// and F64.
	ErrUnsupportedDType = errors.New("loader: unsupported dtype")
)

// Safetensors dtype names handled here.
const (
	DTypeF16  = "F16"
	DTypeBF16 = "BF16"
	DTypeF32  = "F32"
	DTypeF64  = "F64"
)

// A corrupt length prefix should fail fast instead of allocating.
const maxHeaderSize = 100 << 20

// TensorInfo is one entry of the header table.
type TensorInfo struct {
	DType       string   `json:"dtype"`
	Shape       []int    `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// fileHeader is the parsed JSON table: the reserved __metadata__ key
// plus one TensorInfo per tensor.
type fileHeader struct {
	Metadata map[string]string
	Tensors  map[string]TensorInfo
}

func (h *fileHeader) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	h.Tensors = make(map[string]TensorInfo, len(raw))
	for key, value := range raw {
		if key == "__metadata__" {
			if err := json.Unmarshal(value, &h.Metadata); err != nil {
				return fmt.Errorf("metadata: %w", err)
			}
			continue
		}
		var info TensorInfo
		if err := json.Unmarshal(value, &info); err != nil {
			return fmt.Errorf("tensor %s: %w", key, err)
		}
		h.Tensors[key] = info
	}
	return nil
}

// Reader reads tensors out of a safetensors file on demand.
type Reader struct {
	file       *os.File
	header     fileHeader
	dataOffset int64
}

// Open opens a safetensors file and parses its header. The tensor data
// stays on disk until loaded.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path) //nolint:gosec // G304: model paths come from the caller
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}

	var headerLen uint64
	if err := binary.Read(file, binary.LittleEndian, &headerLen); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("%w: reading length: %v", ErrBadHeader, err)
	}
	if headerLen > maxHeaderSize {
		_ = file.Close()
		return nil, fmt.Errorf("%w: length %d exceeds %d bytes", ErrBadHeader, headerLen, maxHeaderSize)
	}

	raw := make([]byte, headerLen)
	if _, err := io.ReadFull(file, raw); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	var header fileHeader
	if err := json.Unmarshal(raw, &header); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}

	return &Reader{
		file:       file,
		header:     header,
		dataOffset: int64(8 + headerLen), //nolint:gosec // G115: capped by maxHeaderSize
	}, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Metadata returns the __metadata__ map, nil when absent.
func (r *Reader) Metadata() map[string]string {
	return r.header.Metadata
}

// Names returns all tensor names in the file, sorted.
func (r *Reader) Names() []string {
	names := make([]string, 0, len(r.header.Tensors))
	for name := range r.header.Tensors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Info returns the table entry for one tensor.
func (r *Reader) Info(name string) (TensorInfo, error) {
	info, ok := r.header.Tensors[name]
	if !ok {
		return TensorInfo{}, fmt.Errorf("%w: %s", ErrTensorNotFound, name)
	}
	return info, nil
}

// Load reads one tensor, converting F16 and BF16 data to float32.
func (r *Reader) Load(name string, backend tensor.Backend) (*tensor.RawTensor, error) {
	info, err := r.Info(name)
	if err != nil {
		return nil, err
	}
	shape := tensor.Shape(info.Shape)
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("loader: tensor %s: %w", name, err)
	}

	data, err := r.readData(name, info)
	if err != nil {
		return nil, err
	}
	return decodeTensor(name, info.DType, shape, data, backend.Device())
}

func (r *Reader) readData(name string, info TensorInfo) ([]byte, error) {
	start, end := info.DataOffsets[0], info.DataOffsets[1]
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: tensor %s offsets [%d, %d]", ErrBadHeader, name, start, end)
	}

	data := make([]byte, end-start)
	if _, err := r.file.ReadAt(data, r.dataOffset+start); err != nil {
		return nil, fmt.Errorf("loader: tensor %s: %w", name, err)
	}
	return data, nil
}

// decodeTensor turns raw little-endian bytes into a RawTensor,
// widening the half-precision dtypes.
func decodeTensor(name, dtype string, shape tensor.Shape, data []byte, device tensor.Device) (*tensor.RawTensor, error) {
	n := shape.NumElements()

	switch dtype {
	case DTypeF32, DTypeF64:
		dt := tensor.Float32
		if dtype == DTypeF64 {
			dt = tensor.Float64
		}
		if len(data) != n*dt.Size() {
			return nil, fmt.Errorf("%w: tensor %s has %d bytes for shape %v", ErrBadHeader, name, len(data), shape)
		}
		raw, err := tensor.NewRaw(shape, dt, device)
		if err != nil {
			return nil, fmt.Errorf("loader: tensor %s: %w", name, err)
		}
		copy(raw.Data(), data)
		return raw, nil

	case DTypeF16:
		if len(data) != 2*n {
			return nil, fmt.Errorf("%w: tensor %s has %d bytes for shape %v", ErrBadHeader, name, len(data), shape)
		}
		raw, err := tensor.NewRaw(shape, tensor.Float32, device)
		if err != nil {
			return nil, fmt.Errorf("loader: tensor %s: %w", name, err)
		}
		dst := raw.AsFloat32()
		for i := range dst {
			dst[i] = float16.Frombits(binary.LittleEndian.Uint16(data[2*i:])).Float32()
		}
		return raw, nil

	case DTypeBF16:
		if len(data) != 2*n {
			return nil, fmt.Errorf("%w: tensor %s has %d bytes for shape %v", ErrBadHeader, name, len(data), shape)
		}
		raw, err := tensor.NewRaw(shape, tensor.Float32, device)
		if err != nil {
			return nil, fmt.Errorf("loader: tensor %s: %w", name, err)
		}
		copy(raw.AsFloat32(), bfloat16.DecodeFloat32(data))
		return raw, nil

	default:
		return nil, fmt.Errorf("%w: tensor %s is %s", ErrUnsupportedDType, name, dtype)
	}
}

// LoadStateDict reads every tensor in the file into a state dict.
func LoadStateDict(path string, backend tensor.Backend) (map[string]*tensor.RawTensor, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = r.Close()
	}()

	stateDict := make(map[string]*tensor.RawTensor, len(r.header.Tensors))
	for _, name := range r.Names() {
		raw, err := r.Load(name, backend)
		if err != nil {
			return nil, err
		}
		stateDict[name] = raw
	}
	return stateDict, nil
}
