package compute

import "github.com/born-ml/kernels/internal/tensor"

// Memory is an opaque reference to device-resident tensor storage.
type Memory interface {
	Device() tensor.Device
	Descriptor() tensor.Descriptor
	ByteSize() int
}

// HostMemory is Memory that the host can address directly, one vec4 at a time.
type HostMemory interface {
	Memory
	Load(i int) Float4
	Store(i int, v Float4)
}

// Tensor is a borrowed handle to a device tensor. Kernels only read its
// metadata and memory; they never own it.
type Tensor interface {
	Shape() tensor.BHWC
	Descriptor() tensor.Descriptor
	Channels() int
	Batch() int
	// Depth is the number of 4-channel slices.
	Depth() int
	Memory() Memory
	MemoryForWriting() Memory
	// SizeWithDepth packs (W*B, H, C, Depth).
	SizeWithDepth() Int4
}
