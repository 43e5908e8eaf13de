// Package cpu implements the reference compute device. Programs compile to
// their host emulation, and every dispatch runs each work-group as a set of
// goroutines synchronized by a barrier, with fresh work-group memory.
package cpu

import (
	"log/slog"

	"github.com/born-ml/kernels/internal/parallel"
	"github.com/born-ml/kernels/internal/tensor"
)

// CPUBackend compiles and runs programs on the host.
// It implements compute.Compiler and compute.Queue.
type CPUBackend struct {
	device   tensor.Device
	parallel parallel.Config
	logger   *slog.Logger
}

// Option configures a CPUBackend.
type Option func(*CPUBackend)

// WithWorkers limits how many work-groups run at once. Zero or one runs
// them sequentially.
func WithWorkers(n int) Option {
	return func(cpu *CPUBackend) {
		cpu.parallel = parallel.Config{Enabled: n > 1, NumWorkers: n}
	}
}

// WithLogger sets the logger used for dispatch events.
func WithLogger(logger *slog.Logger) Option {
	return func(cpu *CPUBackend) {
		cpu.logger = logger
	}
}

// New creates a new CPU backend.
func New(opts ...Option) *CPUBackend {
	cpu := &CPUBackend{
		device:   tensor.CPU,
		parallel: parallel.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(cpu)
	}
	return cpu
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}
