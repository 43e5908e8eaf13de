// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package softmax provides a fused channel softmax for tensors with a 1x1
// spatial extent, such as the logits at the end of a classifier.
//
// # Overview
//
// An operation is built from an OperationDef, compiled once through a
// program cache and dispatched any number of times:
//   - one 32-lane work-group per batch element
//   - channels are read in 4-wide slices; the last slice is masked
//   - elementwise operations can be fused after normalization
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/kernels/backend/cpu"
//	    "github.com/born-ml/kernels/softmax"
//	)
//
//	func main() {
//	    device := cpu.New()
//	    desc := softmax.Descriptor{DataType: softmax.Float32, Storage: softmax.Buffer}
//	    op, _ := softmax.New(softmax.OperationDef{Src: desc, Dst: desc, BatchSupport: true})
//	    _ = op.Compile(softmax.CreationContext{Cache: softmax.NewProgramCache(device)})
//
//	    shape := softmax.BHWC{B: 1, H: 1, W: 1, C: 3}
//	    src, _ := cpu.NewTensor(shape, desc)
//	    dst, _ := cpu.NewTensor(shape, desc)
//	    _ = src.Upload([]float32{1, 2, 3})
//	    op.SetSrc(src)
//	    op.SetDst(dst)
//	    _ = op.AddToQueue(device)
//	    fmt.Println(dst.Download()) // [0.0900 0.2447 0.6652]
//	}
//
// # Numerical Range
//
// Inputs are exponentiated without subtracting the channel maximum, so large
// logits overflow to +Inf. Scale or shift inputs beforehand when needed.
package softmax
