// Package tensor provides the dense tensor types and operations for the
// taper compression library.
package tensor

// DType constrains tensor element types. Layer parameters are stored as
// float32; the factorization routines run in float64 and cast back.
type DType interface {
	~float32 | ~float64
}

// DataType is the runtime tag matching a tensor's element type.
type DataType int

const (
	Float32 DataType = iota
	Float64
)

// Size returns the width of one element in bytes.
func (dt DataType) Size() int {
	if dt == Float64 {
		return 8
	}
	if dt != Float32 {
		panic("unknown data type")
	}
	return 4
}

func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	}
	return "unknown"
}

// inferDataType maps the compile-time element type to its runtime tag.
func inferDataType[T DType](zero T) DataType {
	switch any(zero).(type) {
	case float64:
		return Float64
	case float32:
		return Float32
	}
	panic("unsupported element type")
}
