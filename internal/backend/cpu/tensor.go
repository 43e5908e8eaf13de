package cpu

import (
	"fmt"

	"github.com/born-ml/kernels/internal/compute"
	"github.com/born-ml/kernels/internal/tensor"
)

// Buffer is host memory holding one vec4 per slice element. Stores into a
// float16 buffer are rounded to half precision.
type Buffer struct {
	desc tensor.Descriptor
	data []compute.Float4
}

// NewBuffer allocates n zeroed vec4 elements.
func NewBuffer(desc tensor.Descriptor, n int) *Buffer {
	return &Buffer{desc: desc, data: make([]compute.Float4, n)}
}

// Device returns tensor.CPU.
func (b *Buffer) Device() tensor.Device { return tensor.CPU }

// Descriptor returns the element type and storage kind.
func (b *Buffer) Descriptor() tensor.Descriptor { return b.desc }

// ByteSize returns the size of the buffer as the device would allocate it.
func (b *Buffer) ByteSize() int { return len(b.data) * 4 * b.desc.DataType.Size() }

// Len returns the number of vec4 elements.
func (b *Buffer) Len() int { return len(b.data) }

// Load reads element i.
func (b *Buffer) Load(i int) compute.Float4 { return b.data[i] }

// Store writes element i.
func (b *Buffer) Store(i int, v compute.Float4) {
	if b.desc.DataType == tensor.Float16 {
		v = v.RoundHalf()
	}
	b.data[i] = v
}

// Tensor is a BHWC tensor backed by a Buffer. Channels are grouped into
// 4-wide slices; padding lanes of the last slice are zero after Upload.
type Tensor struct {
	shape  tensor.BHWC
	buffer *Buffer
}

// NewTensor allocates a zeroed tensor.
func NewTensor(shape tensor.BHWC, desc tensor.Descriptor) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	n := shape.B * shape.H * shape.W * shape.Slices()
	return &Tensor{shape: shape, buffer: NewBuffer(desc, n)}, nil
}

// Shape returns the logical shape.
func (t *Tensor) Shape() tensor.BHWC { return t.shape }

// Descriptor returns the element type and storage kind.
func (t *Tensor) Descriptor() tensor.Descriptor { return t.buffer.desc }

// Channels returns C.
func (t *Tensor) Channels() int { return t.shape.C }

// Batch returns B.
func (t *Tensor) Batch() int { return t.shape.B }

// Depth returns the number of channel slices.
func (t *Tensor) Depth() int { return t.shape.Slices() }

// Memory returns the backing buffer.
func (t *Tensor) Memory() compute.Memory { return t.buffer }

// MemoryForWriting returns the backing buffer.
func (t *Tensor) MemoryForWriting() compute.Memory { return t.buffer }

// Buffer returns the backing buffer.
func (t *Tensor) Buffer() *Buffer { return t.buffer }

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

// Upload copies values laid out in BHWC order into the tensor.
func (t *Tensor) Upload(values []float32) error {
	if len(values) != t.shape.NumElements() {
		return fmt.Errorf("cpu: upload of %d values into %s", len(values), t.shape)
	}
	t.each(func(idx, lane, flat int) {
		v := t.buffer.Load(idx)
		v[lane] = values[flat]
		t.buffer.Store(idx, v)
	})
	return nil
}

// Download returns the tensor contents in BHWC order.
func (t *Tensor) Download() []float32 {
	out := make([]float32, t.shape.NumElements())
	t.each(func(idx, lane, flat int) {
		out[flat] = t.buffer.Load(idx)[lane]
	})
	return out
}

// each visits every logical element with its vec4 index, lane and BHWC offset.
func (t *Tensor) each(f func(idx, lane, flat int)) {
	s := t.shape
	size := t.SizeWithDepth()
	flat := 0
	for b := 0; b < s.B; b++ {
		for y := 0; y < s.H; y++ {
			for x := 0; x < s.W; x++ {
				for c := 0; c < s.C; c++ {
					f(compute.LinearIndex(size, s.B, x, y, c/4, b), c%4, flat)
					flat++
				}
			}
		}
	}
}
