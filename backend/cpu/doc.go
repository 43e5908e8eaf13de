// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go reference device for kernels.
//
// # Overview
//
// Programs are checked and bound to their host emulation instead of being
// compiled to machine code. A dispatch runs:
//   - every work-group concurrently, bounded by the worker count
//   - one goroutine per lane, synchronized by work-group barriers
//   - fresh work-group memory for each group
//
// Results match the WebGPU device for the same program and inputs, which
// makes this device the reference in tests.
//
// # Basic Usage
//
//	device := cpu.New()
//	x, _ := cpu.NewTensor(softmax.BHWC{B: 2, H: 1, W: 1, C: 10}, desc)
//	_ = x.Upload(values)
//
// # Thread Safety
//
// A Backend may be shared. Tensors are not synchronized; do not upload to
// a tensor while a dispatch reads it.
package cpu
