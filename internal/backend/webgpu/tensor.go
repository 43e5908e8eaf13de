//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"
	"github.com/x448/float16"

	"github.com/born-ml/kernels/internal/compute"
	"github.com/born-ml/kernels/internal/tensor"
)

const storageUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst

// Buffer is a storage buffer of vec4 elements on the device.
type Buffer struct {
	buffer *wgpu.Buffer
	size   uint64
	desc   tensor.Descriptor
}

// Device returns tensor.WebGPU.
func (m *Buffer) Device() tensor.Device { return tensor.WebGPU }

// Descriptor returns the element type and storage kind.
func (m *Buffer) Descriptor() tensor.Descriptor { return m.desc }

// ByteSize returns the size of the buffer in bytes.
func (m *Buffer) ByteSize() int { return int(m.size) } //nolint:gosec // G115: sizes come from int

// Tensor is a BHWC tensor resident in a device storage buffer.
type Tensor struct {
	backend *Backend
	shape   tensor.BHWC
	memory  *Buffer
}

// NewTensor allocates a zeroed device tensor. Texture storage is rejected.
func (b *Backend) NewTensor(shape tensor.BHWC, desc tensor.Descriptor) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if desc.Storage.IsTexture() {
		return nil, fmt.Errorf("webgpu: %s storage is not supported", desc.Storage)
	}
	elems := shape.B * shape.H * shape.W * shape.Slices()
	size := uint64(elems * 4 * desc.DataType.Size()) //nolint:gosec // G115: non-negative
	t := &Tensor{
		backend: b,
		shape:   shape,
		memory:  &Buffer{buffer: b.bufferPool.Acquire(size, storageUsage), size: size, desc: desc},
	}
	// Pooled buffers may hold a previous tensor's data.
	if err := t.write(make([]byte, size)); err != nil {
		t.Release()
		return nil, err
	}
	return t, nil
}

// Shape returns the logical shape.
func (t *Tensor) Shape() tensor.BHWC { return t.shape }

// Descriptor returns the element type and storage kind.
func (t *Tensor) Descriptor() tensor.Descriptor { return t.memory.desc }

// Channels returns C.
func (t *Tensor) Channels() int { return t.shape.C }

// Batch returns B.
func (t *Tensor) Batch() int { return t.shape.B }

// Depth returns the number of channel slices.
func (t *Tensor) Depth() int { return t.shape.Slices() }

// Memory returns the storage buffer.
func (t *Tensor) Memory() compute.Memory { return t.memory }

// MemoryForWriting returns the storage buffer.
func (t *Tensor) MemoryForWriting() compute.Memory { return t.memory }

// SizeWithDepth packs (W*B, H, C, Slices).
func (t *Tensor) SizeWithDepth() compute.Int4 {
	//nolint:gosec // G115: tensor extents fit in i32
	return compute.Int4{
		int32(t.shape.W * t.shape.B),
		int32(t.shape.H),
		int32(t.shape.C),
		int32(t.shape.Slices()),
	}
}

// Release returns the storage buffer to the pool.
func (t *Tensor) Release() {
	if t.memory != nil && t.memory.buffer != nil {
		t.backend.bufferPool.Put(t.memory.buffer, t.memory.size, storageUsage)
		t.memory.buffer = nil
	}
}

// Upload copies values laid out in BHWC order to the device.
func (t *Tensor) Upload(values []float32) error {
	if len(values) != t.shape.NumElements() {
		return fmt.Errorf("webgpu: upload of %d values into %s", len(values), t.shape)
	}
	data := make([]byte, t.memory.size)
	t.each(func(byteOffset, flat int) {
		putElement(data[byteOffset:], t.memory.desc.DataType, values[flat])
	})
	return t.write(data)
}

// Download flushes pending dispatches and reads the tensor in BHWC order.
func (t *Tensor) Download() ([]float32, error) {
	t.backend.Flush()
	data, err := t.backend.readBuffer(t.memory.buffer, t.memory.size)
	if err != nil {
		return nil, err
	}
	out := make([]float32, t.shape.NumElements())
	t.each(func(byteOffset, flat int) {
		out[flat] = element(data[byteOffset:], t.memory.desc.DataType)
	})
	return out, nil
}

// each visits every logical element with its byte offset and BHWC offset.
func (t *Tensor) each(f func(byteOffset, flat int)) {
	s := t.shape
	size := t.SizeWithDepth()
	scalar := t.memory.desc.DataType.Size()
	flat := 0
	for b := 0; b < s.B; b++ {
		for y := 0; y < s.H; y++ {
			for x := 0; x < s.W; x++ {
				for c := 0; c < s.C; c++ {
					idx := compute.LinearIndex(size, s.B, x, y, c/4, b)
					f((idx*4+c%4)*scalar, flat)
					flat++
				}
			}
		}
	}
}

func putElement(dst []byte, dt tensor.DataType, v float32) {
	if dt == tensor.Float16 {
		binary.LittleEndian.PutUint16(dst, float16.Fromfloat32(v).Bits())
		return
	}
	binary.LittleEndian.PutUint32(dst, math.Float32bits(v))
}

func element(src []byte, dt tensor.DataType) float32 {
	if dt == tensor.Float16 {
		return float16.Frombits(binary.LittleEndian.Uint16(src)).Float32()
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(src))
}

// write stages data in a mapped buffer and copies it into the tensor.
func (t *Tensor) write(data []byte) error {
	if t.memory.buffer == nil {
		return fmt.Errorf("webgpu: tensor %s was released", t.shape)
	}
	b := t.backend
	staging := b.createBuffer(data, wgpu.BufferUsageCopySrc)
	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(staging, 0, t.memory.buffer, 0, t.memory.size)
	b.queueCommand(encoder.Finish(nil), staging)
	return nil
}

// createBuffer creates a GPU buffer holding data.
func (b *Backend) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// readBuffer reads data back from a GPU buffer to CPU memory.
// Uses a staging buffer since storage buffers can't be mapped directly.
func (b *Backend) readBuffer(src *wgpu.Buffer, size uint64) ([]byte, error) {
	staging := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer staging.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src, 0, staging, 0, size)
	b.queue.Submit(encoder.Finish(nil))

	if err := staging.MapAsync(b.device, wgpu.MapModeRead, 0, size); err != nil {
		return nil, fmt.Errorf("webgpu: failed to map staging buffer: %w", err)
	}
	mappedPtr := staging.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	result := make([]byte, size)
	copy(result, mappedSlice)
	staging.Unmap()

	return result, nil
}
