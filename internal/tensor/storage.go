package tensor

import (
	"fmt"
	"strings"
)

// StorageType selects how a tensor's 4-channel slices are laid out in device memory.
type StorageType int

// Supported storage types.
const (
	// Buffer is a linear storage buffer of 4-wide vectors.
	Buffer StorageType = iota
	// Texture2D stores slices stacked along the texture's Y axis.
	Texture2D
	// TextureArray stores one slice per array layer.
	TextureArray
)

// String returns a human-readable name for the storage type.
func (st StorageType) String() string {
	switch st {
	case Buffer:
		return "buffer"
	case Texture2D:
		return "texture_2d"
	case TextureArray:
		return "texture_array"
	default:
		return "unknown"
	}
}

// IsTexture reports whether the storage is backed by a texture object.
func (st StorageType) IsTexture() bool {
	return st == Texture2D || st == TextureArray
}

// ParseStorageType converts a storage name into a StorageType.
func ParseStorageType(s string) (StorageType, error) {
	switch strings.ToLower(s) {
	case "", "buffer":
		return Buffer, nil
	case "texture_2d", "texture2d":
		return Texture2D, nil
	case "texture_array", "texturearray":
		return TextureArray, nil
	default:
		return Buffer, fmt.Errorf("unknown storage type %q (want buffer|texture_2d|texture_array)", s)
	}
}

// Descriptor is the element layout and addressing mode of one tensor.
type Descriptor struct {
	DataType DataType
	Storage  StorageType
}

// String returns a compact description such as "float32/buffer".
func (d Descriptor) String() string {
	return d.DataType.String() + "/" + d.Storage.String()
}

// Validate checks that the descriptor names known enumerators.
func (d Descriptor) Validate() error {
	if d.DataType != Float32 && d.DataType != Float16 {
		return fmt.Errorf("invalid data type %d", d.DataType)
	}
	if d.Storage < Buffer || d.Storage > TextureArray {
		return fmt.Errorf("invalid storage type %d", d.Storage)
	}
	return nil
}

// Device identifies where tensor memory lives.
type Device int

// Supported devices.
const (
	CPU Device = iota
	WebGPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}
