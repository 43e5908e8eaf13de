// Package tensor describes device tensors as seen by kernel generators:
// element data type, storage layout and BHWC shape.
package tensor

import (
	"fmt"
	"strings"
)

// DataType is the element type a tensor is stored with on the device.
type DataType int

// Supported storage data types.
const (
	Float32 DataType = iota
	Float16
)

// Size returns the byte size of one scalar element.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	case Float16:
		return 2
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float16:
		return "float16"
	default:
		return "unknown"
	}
}

// WGSL returns the WGSL scalar type used to store elements of this type.
func (dt DataType) WGSL() string {
	if dt == Float16 {
		return "f16"
	}
	return "f32"
}

// ParseDataType converts a name such as "float32" or "f16" into a DataType.
func ParseDataType(s string) (DataType, error) {
	switch strings.ToLower(s) {
	case "", "float32", "f32", "fp32":
		return Float32, nil
	case "float16", "f16", "fp16", "half":
		return Float16, nil
	default:
		return Float32, fmt.Errorf("unknown data type %q (want float32|float16)", s)
	}
}
