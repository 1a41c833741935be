package tensor

import (
	"math"
	"math/rand"
	"slices"
	"testing"
)

func wantF32(t *testing.T, msg string, got, want float32) {
	t.Helper()
	if math.Abs(float64(got-want)) > 1e-6 {
		t.Errorf("%s: got %v, want %v", msg, got, want)
	}
}

func wantF64(t *testing.T, msg string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s: got %v, want %v", msg, got, want)
	}
}

func wantShape(t *testing.T, msg string, got, want Shape) {
	t.Helper()
	if !got.Equal(want) {
		t.Errorf("%s: got shape %v, want %v", msg, got, want)
	}
}

// TestDataTypeTags checks size, name and inference for both dtypes.
func TestDataTypeTags(t *testing.T) {
	if Float32.Size() != 4 || Float64.Size() != 8 {
		t.Errorf("Size: float32=%d float64=%d, want 4 and 8", Float32.Size(), Float64.Size())
	}
	if Float32.String() != "float32" || Float64.String() != "float64" {
		t.Errorf("String: %q and %q", Float32, Float64)
	}
	if inferDataType(float32(0)) != Float32 {
		t.Error("inferDataType(float32) != Float32")
	}
	if inferDataType(float64(0)) != Float64 {
		t.Error("inferDataType(float64) != Float64")
	}
}

// TestShapeNumElements covers scalars through rank-4 shapes.
func TestShapeNumElements(t *testing.T) {
	for _, tc := range []struct {
		shape Shape
		n     int
	}{
		{Shape{}, 1},
		{Shape{7}, 7},
		{Shape{2, 5}, 10},
		{Shape{16, 6, 5, 5}, 2400},
		{Shape{1, 1}, 1},
	} {
		if got := tc.shape.NumElements(); got != tc.n {
			t.Errorf("NumElements(%v) = %d, want %d", tc.shape, got, tc.n)
		}
	}
}

// TestShapeValidate accepts positive dims and rejects zero or negative ones.
func TestShapeValidate(t *testing.T) {
	for _, tc := range []struct {
		shape   Shape
		wantErr bool
	}{
		{Shape{4}, false},
		{Shape{2, 5}, false},
		{Shape{6, 1, 3}, false},
		{Shape{0}, true},
		{Shape{2, 0, 3}, true},
		{Shape{-2}, true},
		{Shape{5, -1}, true},
	} {
		err := tc.shape.Validate()
		if (err != nil) != tc.wantErr {
			t.Errorf("Validate(%v): err = %v, wantErr %v", tc.shape, err, tc.wantErr)
		}
	}
}

// TestShapeEqualClone checks equality semantics and clone independence.
func TestShapeEqualClone(t *testing.T) {
	a := Shape{2, 5}
	if !a.Equal(Shape{2, 5}) || a.Equal(Shape{5, 2}) || a.Equal(Shape{2, 5, 1}) {
		t.Errorf("Equal misbehaves for %v", a)
	}
	if !(Shape{}).Equal(Shape{}) {
		t.Error("empty shapes should be equal")
	}

	c := a.Clone()
	c[0] = 9
	if a[0] != 2 {
		t.Error("Clone should not share storage")
	}
}

// TestComputeStrides checks row-major stride layout.
func TestComputeStrides(t *testing.T) {
	for _, tc := range []struct {
		shape Shape
		want  []int
	}{
		{Shape{6}, []int{1}},
		{Shape{2, 5}, []int{5, 1}},
		{Shape{4, 3, 2}, []int{6, 2, 1}},
		{Shape{}, []int{}},
	} {
		if got := tc.shape.ComputeStrides(); !slices.Equal(got, tc.want) {
			t.Errorf("ComputeStrides(%v) = %v, want %v", tc.shape, got, tc.want)
		}
	}
}

// TestBroadcastShapes checks the resolved shape and the needs-broadcast flag.
func TestBroadcastShapes(t *testing.T) {
	for _, tc := range []struct {
		a, b      Shape
		want      Shape
		broadcast bool
		wantErr   bool
	}{
		{Shape{4, 1}, Shape{4, 6}, Shape{4, 6}, true, false},
		{Shape{1, 6}, Shape{4, 6}, Shape{4, 6}, true, false},
		{Shape{4, 6}, Shape{4, 6}, Shape{4, 6}, false, false},
		{Shape{6}, Shape{4, 6}, Shape{4, 6}, true, false},
		{Shape{1}, Shape{2, 3}, Shape{2, 3}, true, false},
		{Shape{4, 5}, Shape{4, 6}, nil, false, true},
		{Shape{2, 6}, Shape{4, 6}, nil, false, true},
	} {
		got, broadcast, err := BroadcastShapes(tc.a, tc.b)
		if (err != nil) != tc.wantErr {
			t.Errorf("BroadcastShapes(%v, %v): err = %v, wantErr %v", tc.a, tc.b, err, tc.wantErr)
			continue
		}
		if tc.wantErr {
			continue
		}
		if !got.Equal(tc.want) || broadcast != tc.broadcast {
			t.Errorf("BroadcastShapes(%v, %v) = %v, %v; want %v, %v",
				tc.a, tc.b, got, broadcast, tc.want, tc.broadcast)
		}
	}
}

// TestNewRaw checks allocation, metadata and the zero-copy float views.
func TestNewRaw(t *testing.T) {
	raw, err := NewRaw(Shape{2, 5}, Float64, CPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	wantShape(t, "raw shape", raw.Shape(), Shape{2, 5})
	if raw.DType() != Float64 || raw.Device() != CPU {
		t.Errorf("metadata: %s on %s", raw.DType(), raw.Device())
	}
	if raw.NumElements() != 10 || raw.ByteSize() != 80 {
		t.Errorf("10 float64s should occupy 80 bytes, got %d in %d", raw.NumElements(), raw.ByteSize())
	}

	view := raw.AsFloat64()
	view[3] = 2.5
	if raw.AsFloat64()[3] != 2.5 {
		t.Error("AsFloat64 must alias the buffer")
	}

	if _, err := NewRaw(Shape{3, 0}, Float32, CPU); err == nil {
		t.Error("zero dimension should be rejected")
	}
}

// TestRawTensorClone checks that clones own their buffer.
func TestRawTensorClone(t *testing.T) {
	raw, _ := NewRaw(Shape{4}, Float32, CPU)
	raw.AsFloat32()[2] = 1.5

	c := raw.Clone()
	c.AsFloat32()[2] = -8

	if got := raw.AsFloat32()[2]; got != 1.5 {
		t.Errorf("original[2] changed to %v after clone write", got)
	}
	if got := c.AsFloat32()[2]; got != -8 {
		t.Errorf("clone[2] = %v, want -8", got)
	}
}

// TestFromSlice checks the copy-in path and its length validation.
func TestFromSlice(t *testing.T) {
	backend := NewMockBackend()

	m, err := FromSlice([]float32{5, 4, 3, 2, 1, 0}, Shape{3, 2}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	wantShape(t, "FromSlice shape", m.Shape(), Shape{3, 2})
	wantF32(t, "m[0,0]", m.At(0, 0), 5)
	wantF32(t, "m[2,1]", m.At(2, 1), 0)

	if _, err := FromSlice([]float32{1, 2}, Shape{3, 2}, backend); err == nil {
		t.Error("short slice should be rejected")
	}
}

// TestAtSetItem covers indexed access and the scalar accessor.
func TestAtSetItem(t *testing.T) {
	backend := NewMockBackend()

	m := Zeros[float64](Shape{2, 4}, backend)
	m.Set(-3.25, 1, 3)
	wantF64(t, "after Set", m.At(1, 3), -3.25)
	wantF64(t, "neighbor untouched", m.At(1, 2), 0)

	s, _ := FromSlice([]float64{11}, Shape{1}, backend)
	wantF64(t, "Item", s.Item(), 11)
}

// TestTensorClone checks deep copy through the typed wrapper.
func TestTensorClone(t *testing.T) {
	backend := NewMockBackend()
	m, _ := FromSlice([]float32{2, 4, 6, 8}, Shape{2, 2}, backend)

	c := m.Clone()
	c.Set(0, 1, 1)

	wantF32(t, "original kept", m.At(1, 1), 8)
	wantF32(t, "clone written", c.At(1, 1), 0)
}

// TestWidenNarrow checks the float64 working copies used by the
// factorization routines and the cast back to float32.
func TestWidenNarrow(t *testing.T) {
	backend := NewMockBackend()
	m, _ := FromSlice([]float32{0.5, -1.75, 2, 0}, Shape{2, 2}, backend)

	wide := m.Float64()
	if wide.DType() != Float64 {
		t.Fatalf("Float64 gave %s", wide.DType())
	}
	wantShape(t, "widened shape", wide.Shape(), Shape{2, 2})
	wantF64(t, "wide[0,0]", wide.At(0, 0), 0.5)
	wantF64(t, "wide[0,1]", wide.At(0, 1), -1.75)

	narrow := wide.Float32()
	if narrow.DType() != Float32 {
		t.Fatalf("Float32 gave %s", narrow.DType())
	}
	wantF32(t, "narrow[0,1]", narrow.At(0, 1), -1.75)
}

// TestCreationHelpers covers Zeros, Ones, Full and Eye fills.
func TestCreationHelpers(t *testing.T) {
	backend := NewMockBackend()

	for i, v := range Zeros[float32](Shape{3, 3}, backend).Data() {
		if v != 0 {
			t.Fatalf("Zeros[%d] = %v", i, v)
		}
	}
	for i, v := range Ones[float64](Shape{5}, backend).Data() {
		if v != 1 {
			t.Fatalf("Ones[%d] = %v", i, v)
		}
	}
	for i, v := range Full(Shape{4}, float32(-0.5), backend).Data() {
		if v != -0.5 {
			t.Fatalf("Full[%d] = %v", i, v)
		}
	}

	eye := Eye[float64](3, backend)
	wantShape(t, "Eye shape", eye.Shape(), Shape{3, 3})
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			wantF64(t, "Eye entry", eye.At(i, j), want)
		}
	}
}

// TestRandnFrom checks that an explicit source is deterministic and that
// the plain variant fills the requested shape.
func TestRandnFrom(t *testing.T) {
	backend := NewMockBackend()

	wantShape(t, "Randn shape", Randn[float32](Shape{5, 7}, backend).Shape(), Shape{5, 7})

	a := RandnFrom[float64](Shape{4, 4}, rand.New(rand.NewSource(7)), backend)
	b := RandnFrom[float64](Shape{4, 4}, rand.New(rand.NewSource(7)), backend)
	if !slices.Equal(a.Data(), b.Data()) {
		t.Fatal("same seed should reproduce the same tensor")
	}
}
