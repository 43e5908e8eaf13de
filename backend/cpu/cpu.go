// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/kernels/internal/backend/cpu"
	"github.com/born-ml/kernels/softmax"
)

// Backend is the CPU reference device.
type Backend = internalcpu.CPUBackend

// Tensor is a host-resident BHWC tensor.
type Tensor = internalcpu.Tensor

// Option configures a Backend.
type Option = internalcpu.Option

// Compile-time checks that Backend can compile and run operations.
var (
	_ softmax.Compiler = (*Backend)(nil)
	_ softmax.Queue    = (*Backend)(nil)
	_ softmax.Tensor   = (*Tensor)(nil)
)

// New creates a new CPU backend.
func New(opts ...Option) *Backend {
	return internalcpu.New(opts...)
}

// WithWorkers limits how many work-groups run at once.
func WithWorkers(n int) Option {
	return internalcpu.WithWorkers(n)
}

// NewTensor allocates a zeroed tensor.
func NewTensor(shape softmax.BHWC, desc softmax.Descriptor) (*Tensor, error) {
	return internalcpu.NewTensor(shape, desc)
}
