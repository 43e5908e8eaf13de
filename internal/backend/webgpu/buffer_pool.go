//go:build windows

package webgpu

import (
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
)

const (
	// Size thresholds for buffer categories.
	smallThreshold  = 4 * 1024    // 4KB
	mediumThreshold = 1024 * 1024 // 1MB
	maxPoolSize     = 32          // Max idle buffers per category
)

// sizeClass buckets buffers so small requests never pin large buffers.
type sizeClass int

const (
	smallClass sizeClass = iota
	mediumClass
	largeClass
	numClasses
)

func classOf(size uint64) sizeClass {
	switch {
	case size < smallThreshold:
		return smallClass
	case size < mediumThreshold:
		return mediumClass
	default:
		return largeClass
	}
}

type pooledBuffer struct {
	buffer *wgpu.Buffer
	size   uint64
	usage  wgpu.BufferUsage
}

// PoolStats describes buffer pool usage.
type PoolStats struct {
	Allocated uint64
	Released  uint64
	Hits      uint64
	Misses    uint64
	Idle      int
}

// BufferPool reuses tensor storage buffers between tensors of similar size.
type BufferPool struct {
	device *wgpu.Device

	mu    sync.Mutex
	idle  [numClasses][]pooledBuffer
	stats PoolStats
}

// NewBufferPool creates a new buffer pool for the given device.
func NewBufferPool(device *wgpu.Device) *BufferPool {
	return &BufferPool{device: device}
}

// Acquire returns an idle buffer of at least size bytes with all of usage,
// or creates one.
func (p *BufferPool) Acquire(size uint64, usage wgpu.BufferUsage) *wgpu.Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()

	c := classOf(size)
	for i, pb := range p.idle[c] {
		if pb.size >= size && pb.usage&usage == usage {
			p.idle[c] = append(p.idle[c][:i], p.idle[c][i+1:]...)
			p.stats.Hits++
			return pb.buffer
		}
	}

	p.stats.Misses++
	p.stats.Allocated++
	return p.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: usage,
		Size:  size,
	})
}

// Put returns a buffer to the pool. If its class is full the buffer is
// released immediately.
func (p *BufferPool) Put(buffer *wgpu.Buffer, size uint64, usage wgpu.BufferUsage) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.Released++
	c := classOf(size)
	if len(p.idle[c]) >= maxPoolSize {
		buffer.Release()
		return
	}
	p.idle[c] = append(p.idle[c], pooledBuffer{buffer: buffer, size: size, usage: usage})
}

// Clear releases all idle buffers.
func (p *BufferPool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for c := range p.idle {
		for _, pb := range p.idle[c] {
			pb.buffer.Release()
		}
		p.idle[c] = nil
	}
}

// Stats returns a snapshot of pool usage.
func (p *BufferPool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.stats
	for c := range p.idle {
		s.Idle += len(p.idle[c])
	}
	return s
}
