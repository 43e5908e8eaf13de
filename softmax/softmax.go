// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package softmax

import (
	"github.com/born-ml/kernels/internal/compute"
	"github.com/born-ml/kernels/internal/ops/elementwise"
	internalsoftmax "github.com/born-ml/kernels/internal/ops/softmax"
	"github.com/born-ml/kernels/internal/tensor"
)

// Softmax1x1 is a compile-once, dispatch-many channel softmax.
type Softmax1x1 = internalsoftmax.Softmax1x1

// OperationDef configures the tensors, precision and batch support of an operation.
type OperationDef = internalsoftmax.OperationDef

// Option configures a Softmax1x1.
type Option = internalsoftmax.Option

// State is the lifecycle state of an operation.
type State = internalsoftmax.State

// Lifecycle states.
const (
	Uncompiled = internalsoftmax.Uncompiled
	Compiled   = internalsoftmax.Compiled
)

// EntryPoint is the name of the generated kernel function.
const EntryPoint = internalsoftmax.EntryPoint

// Tensor description.
type (
	Descriptor  = tensor.Descriptor
	DataType    = tensor.DataType
	StorageType = tensor.StorageType
	BHWC        = tensor.BHWC
)

// Data types.
const (
	Float32 = tensor.Float32
	Float16 = tensor.Float16
)

// Storage types.
const (
	Buffer       = tensor.Buffer
	Texture2D    = tensor.Texture2D
	TextureArray = tensor.TextureArray
)

// Precision selects the arithmetic type of the generated kernel.
type Precision = compute.Precision

// Precisions.
const (
	F32    = compute.F32
	F16    = compute.F16
	F32F16 = compute.F32F16
)

// Device collaborators.
type (
	Tensor          = compute.Tensor
	Queue           = compute.Queue
	Compiler        = compute.Compiler
	ProgramCache    = compute.ProgramCache
	CreationContext = compute.CreationContext
	Program         = compute.Program
	LinkedOperation = compute.LinkedOperation
	Float4          = compute.Float4
	LaunchSize      = compute.Int3
)

// Errors returned by Compile and AddToQueue. Match them with errors.Is.
var (
	ErrCompilation     = compute.ErrCompilation
	ErrArgumentBinding = compute.ErrArgumentBinding
	ErrInvalidState    = compute.ErrInvalidState
)

// Typed errors, for errors.As.
type (
	CompilationError     = compute.CompilationError
	ArgumentBindingError = compute.ArgumentBindingError
	InvalidStateError    = compute.InvalidStateError
)

// Fusable elementwise operations.
type (
	ReLU        = elementwise.ReLU
	MultiplyAdd = elementwise.MultiplyAdd
)

// New creates an uncompiled operation.
func New(def OperationDef, opts ...Option) (*Softmax1x1, error) {
	return internalsoftmax.New(def, opts...)
}

// WithLinked fuses elementwise operations into the normalization pass.
func WithLinked(ops ...LinkedOperation) Option {
	return internalsoftmax.WithLinked(ops...)
}

// NewProgramCache creates a cache that compiles each distinct program once.
func NewProgramCache(c Compiler) *ProgramCache {
	return compute.NewProgramCache(c)
}

// GenerateProgram returns the kernel program for def without compiling it.
func GenerateProgram(def OperationDef, linked ...LinkedOperation) (*Program, error) {
	return internalsoftmax.GenerateProgram(def, linked)
}

// MaskForLastPlane returns the lane mask of the last 4-channel slice.
func MaskForLastPlane(channels int) Float4 {
	return internalsoftmax.MaskForLastPlane(channels)
}
