package compute

import (
	"fmt"
	"strings"

	"github.com/x448/float16"
)

// Precision selects the arithmetic type of generated kernels.
type Precision int

// Supported calculation precisions.
const (
	// F32 computes and stores intermediates in 32-bit floats.
	F32 Precision = iota
	// F16 computes and stores intermediates in 16-bit floats.
	F16
	// F32F16 accumulates in 32-bit floats and stores intermediates in 16-bit floats.
	F32F16
)

// String returns a human-readable name for the precision.
func (p Precision) String() string {
	switch p {
	case F32:
		return "f32"
	case F16:
		return "f16"
	case F32F16:
		return "f32_f16"
	default:
		return "unknown"
	}
}

// ParsePrecision converts a name such as "f16" into a Precision.
func ParsePrecision(s string) (Precision, error) {
	switch strings.ToLower(s) {
	case "", "f32", "float32":
		return F32, nil
	case "f16", "float16":
		return F16, nil
	case "f32_f16", "f32f16", "mixed":
		return F32F16, nil
	default:
		return F32, fmt.Errorf("unknown precision %q (want f32|f16|f32_f16)", s)
	}
}

// NeedsF16 reports whether kernels of this precision use the f16 extension.
func (p Precision) NeedsF16() bool {
	return p == F16 || p == F32F16
}

// FLT returns the WGSL scalar type behind the FLT alias.
func (p Precision) FLT() string {
	if p.NeedsF16() {
		return "f16"
	}
	return "f32"
}

// FLT4 returns the WGSL vector type behind the FLT4 alias.
func (p Precision) FLT4() string {
	return "vec4<" + p.FLT() + ">"
}

// Round converts v the way TO_FLT4 does on the device: through half precision
// when FLT is f16, unchanged otherwise.
func (p Precision) Round(v Float4) Float4 {
	if !p.NeedsF16() {
		return v
	}
	return v.RoundHalf()
}

// RoundHalf rounds every lane to the nearest representable float16 value.
func (v Float4) RoundHalf() Float4 {
	for i := range v {
		v[i] = float16.Fromfloat32(v[i]).Float32()
	}
	return v
}
