package compute

import (
	"encoding/binary"
	"math"
)

// Value is a by-value kernel argument, bound to a uniform slot.
type Value interface {
	// WGSL returns the type the argument is declared with.
	WGSL() string
	// Bytes returns the little-endian encoding uploaded to the device.
	Bytes() []byte
}

// Int32 is a scalar i32 argument.
type Int32 int32

// WGSL implements Value.
func (Int32) WGSL() string { return "i32" }

// Bytes implements Value.
func (v Int32) Bytes() []byte {
	buf := make([]byte, 4)
	//nolint:gosec // G115: two's complement reinterpretation is intended
	binary.LittleEndian.PutUint32(buf, uint32(v))
	return buf
}

// Float32 is a scalar f32 argument.
type Float32 float32

// WGSL implements Value.
func (Float32) WGSL() string { return "f32" }

// Bytes implements Value.
func (v Float32) Bytes() []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(v)))
	return buf
}

// Int2 is a vec2<i32> argument.
type Int2 [2]int32

// WGSL implements Value.
func (Int2) WGSL() string { return "vec2<i32>" }

// Bytes implements Value.
func (v Int2) Bytes() []byte { return packInts(v[:]) }

// Int4 is a vec4<i32> argument.
type Int4 [4]int32

// WGSL implements Value.
func (Int4) WGSL() string { return "vec4<i32>" }

// Bytes implements Value.
func (v Int4) Bytes() []byte { return packInts(v[:]) }

// Float4 is a vec4<f32> argument and the element unit of device tensors.
type Float4 [4]float32

// WGSL implements Value.
func (Float4) WGSL() string { return "vec4<f32>" }

// Bytes implements Value.
func (v Float4) Bytes() []byte {
	buf := make([]byte, 16)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Dot returns the dot product of v and o.
func (v Float4) Dot(o Float4) float32 {
	return v[0]*o[0] + v[1]*o[1] + v[2]*o[2] + v[3]*o[3]
}

// Exp applies exp element-wise.
func (v Float4) Exp() Float4 {
	for i := range v {
		v[i] = float32(math.Exp(float64(v[i])))
	}
	return v
}

// Scale multiplies every lane by s.
func (v Float4) Scale(s float32) Float4 {
	for i := range v {
		v[i] *= s
	}
	return v
}

// Splat returns a Float4 with every lane set to s.
func Splat(s float32) Float4 {
	return Float4{s, s, s, s}
}

func packInts(v []int32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		//nolint:gosec // G115: two's complement reinterpretation is intended
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(x))
	}
	return buf
}

// Int3 is a launch extent (work size) along X, Y and Z.
type Int3 struct {
	X, Y, Z int
}

// Count returns X*Y*Z.
func (v Int3) Count() int {
	return v.X * v.Y * v.Z
}

// WorkGroupCount returns the number of work-groups needed to cover global with
// work-groups of size local, rounding up along each axis.
func WorkGroupCount(global, local Int3) Int3 {
	return Int3{
		X: (global.X + local.X - 1) / local.X,
		Y: (global.Y + local.Y - 1) / local.Y,
		Z: (global.Z + local.Z - 1) / local.Z,
	}
}

// LinearIndex returns the vec4 index of slice z at (x, y) of batch element b in
// linear tensor storage: slices outermost, batch innermost. size is the
// tensor's SizeWithDepth, whose X already includes the batch factor.
func LinearIndex(size Int4, batch, x, y, z, b int) int {
	return (z*int(size[1])+y)*int(size[0]) + x*batch + b
}
