//go:build windows

// Package webgpu runs compiled kernels on a GPU through WebGPU.
// Uses go-webgpu (github.com/go-webgpu/webgpu) for zero-CGO WebGPU bindings.
package webgpu

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/born-ml/kernels/internal/tensor"
)

// Backend owns a WebGPU device and queue. It implements compute.Compiler and
// compute.Queue.
type Backend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	bufferPool *BufferPool
	logger     *slog.Logger

	// Dispatches are accumulated and submitted together on Flush, or when
	// maxBatchSize is reached.
	pendingCommands []*wgpu.CommandBuffer
	// transient buffers and bind groups live until their commands are submitted.
	transient    []releaser
	pendingMu    sync.Mutex
	maxBatchSize int
}

type releaser interface {
	Release()
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger used for device events.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		b.logger = logger
	}
}

// WithMaxBatchSize submits pending dispatches once n have accumulated.
// Zero (the default) submits only on Flush.
func WithMaxBatchSize(n int) Option {
	return func(b *Backend) {
		b.maxBatchSize = n
	}
}

// New creates a new WebGPU backend.
// Returns an error if WebGPU is not available or initialization fails.
func New(opts ...Option) (backend *Backend, err error) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			backend = nil
			err = fmt.Errorf("webgpu: native library not available: %v", r)
		}
	}()

	instance, err := wgpu.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("webgpu: failed to create instance: %w", err)
	}
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request adapter: %w", adapterErr)
	}

	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request device: %w", deviceErr)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to get queue")
	}

	b := &Backend{
		instance:   instance,
		adapter:    adapter,
		device:     device,
		queue:      queue,
		bufferPool: NewBufferPool(device),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return "WebGPU"
}

// Device returns the compute device.
func (b *Backend) Device() tensor.Device {
	return tensor.WebGPU
}

// Flush submits all pending dispatches and frees their argument buffers.
func (b *Backend) Flush() {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()
	b.flushLocked()
}

// queueCommand adds a command buffer and the objects it references to the
// pending batch.
func (b *Backend) queueCommand(cmd *wgpu.CommandBuffer, transient ...releaser) {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()

	b.pendingCommands = append(b.pendingCommands, cmd)
	b.transient = append(b.transient, transient...)
	if b.maxBatchSize > 0 && len(b.pendingCommands) >= b.maxBatchSize {
		b.flushLocked()
	}
}

// flushLocked submits all pending command buffers (must hold pendingMu lock).
func (b *Backend) flushLocked() {
	if len(b.pendingCommands) == 0 {
		return
	}
	b.queue.Submit(b.pendingCommands...)
	for _, cmd := range b.pendingCommands {
		cmd.Release()
	}
	b.pendingCommands = b.pendingCommands[:0]
	for _, r := range b.transient {
		r.Release()
	}
	b.transient = b.transient[:0]
}

// Release releases all WebGPU resources.
// Must be called when the backend is no longer needed.
func (b *Backend) Release() {
	b.Flush()

	if b.bufferPool != nil {
		b.bufferPool.Clear()
		b.bufferPool = nil
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// PoolStats returns buffer pool statistics.
func (b *Backend) PoolStats() PoolStats {
	return b.bufferPool.Stats()
}

// IsAvailable checks if WebGPU is available on this system.
func IsAvailable() (available bool) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	instance, err := wgpu.CreateInstance(nil)
	if err != nil {
		return false
	}
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()

	return true
}
