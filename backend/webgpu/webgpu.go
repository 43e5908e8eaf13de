//go:build windows

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU device for kernels.
//
// Example:
//
//	gpu, err := webgpu.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer gpu.Release()
//
//	cache := softmax.NewProgramCache(gpu)
//	x, _ := gpu.NewTensor(softmax.BHWC{B: 1, H: 1, W: 1, C: 1000}, desc)
package webgpu

import (
	internalwebgpu "github.com/born-ml/kernels/internal/backend/webgpu"
	"github.com/born-ml/kernels/softmax"
)

// Backend is the WebGPU device. Call Release() when done.
type Backend = internalwebgpu.Backend

// Compile-time checks that Backend can compile and run operations.
var (
	_ softmax.Compiler = (*Backend)(nil)
	_ softmax.Queue    = (*Backend)(nil)
)

// New creates a new WebGPU backend.
//
// Returns an error if WebGPU initialization fails (e.g., no compatible GPU).
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// IsAvailable checks if WebGPU is available on the current system.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
