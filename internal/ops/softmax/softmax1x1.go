package softmax

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/born-ml/kernels/internal/compute"
	"github.com/born-ml/kernels/internal/tensor"
)

// State is the lifecycle state of a Softmax1x1.
type State int

// Lifecycle states. Compiled is terminal until Release.
const (
	Uncompiled State = iota
	Compiled
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case Uncompiled:
		return "uncompiled"
	case Compiled:
		return "compiled"
	default:
		return "unknown"
	}
}

// Option configures a Softmax1x1.
type Option func(*Softmax1x1)

// WithLinked fuses elementwise operations into the normalization pass. They
// run in the given order on every output slice.
func WithLinked(ops ...compute.LinkedOperation) Option {
	return func(op *Softmax1x1) {
		op.linked = append(op.linked, ops...)
	}
}

// WithLogger sets the logger used for compile events.
func WithLogger(logger *slog.Logger) Option {
	return func(op *Softmax1x1) {
		op.logger = logger
	}
}

// Softmax1x1 is a compile-once, dispatch-many softmax over the channels of a
// 1x1 tensor.
type Softmax1x1 struct {
	def    OperationDef
	layout layout
	linked []compute.LinkedOperation
	logger *slog.Logger

	src, dst compute.Tensor

	// kernel is owned exclusively by this operation.
	kernel *compute.Kernel
}

// New creates an uncompiled operation for def.
func New(def OperationDef, opts ...Option) (*Softmax1x1, error) {
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("softmax1x1: %w", err)
	}
	op := &Softmax1x1{
		def:    def,
		layout: newLayout(def),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(op)
	}
	compute.IndexLinked(op.linked)
	return op, nil
}

// Definition returns the operation's configuration.
func (op *Softmax1x1) Definition() OperationDef { return op.def }

// State reports whether the operation has a compiled kernel.
func (op *Softmax1x1) State() State {
	if op.kernel == nil {
		return Uncompiled
	}
	return Compiled
}

// SetSrc sets the tensor read by subsequent dispatches.
func (op *Softmax1x1) SetSrc(t compute.Tensor) { op.src = t }

// SetDst sets the tensor written by subsequent dispatches.
func (op *Softmax1x1) SetDst(t compute.Tensor) { op.dst = t }

// Source returns the program text Compile would build.
func (op *Softmax1x1) Source() (string, error) {
	p, err := generate(op.def, op.layout, op.linked)
	if err != nil {
		return "", err
	}
	return p.Source, nil
}

// Compile generates the program and obtains a kernel for it from the cache.
// Compiling again replaces the kernel; the cache returns the same compiled
// program for identical source.
func (op *Softmax1x1) Compile(cc compute.CreationContext) error {
	if cc.Cache == nil {
		return &compute.CompilationError{Entry: EntryPoint, Err: errors.New("creation context has no program cache")}
	}
	program, err := generate(op.def, op.layout, op.linked)
	if err != nil {
		return err
	}
	kernel, err := cc.Cache.GetOrCreateKernel(program, EntryPoint)
	if err != nil {
		return err
	}
	op.kernel = kernel
	op.logger.Debug("softmax1x1 compiled",
		"program", program.Hash()[:12],
		"precision", op.def.Precision.String(),
		"batched", op.layout.batched(),
		"linked", len(op.linked))
	return nil
}

// AddToQueue binds arguments and dispatches the kernel. Binding stops at the
// first error and nothing is dispatched.
func (op *Softmax1x1) AddToQueue(q compute.Queue) error {
	if op.kernel == nil {
		return &compute.InvalidStateError{Op: "softmax1x1: AddToQueue", State: op.State().String()}
	}
	if q == nil {
		return &compute.InvalidStateError{Op: "softmax1x1: AddToQueue", State: "without a queue"}
	}
	if err := op.checkTensors(); err != nil {
		return err
	}

	k := op.kernel
	k.ResetBindingCounter()
	if err := k.SetMemoryAuto(op.src.Memory()); err != nil {
		return fmt.Errorf("softmax1x1: bind src: %w", err)
	}
	if err := compute.BindArgs(k, op.linked); err != nil {
		return fmt.Errorf("softmax1x1: %w", err)
	}
	if err := k.SetMemoryAuto(op.dst.MemoryForWriting()); err != nil {
		return fmt.Errorf("softmax1x1: bind dst: %w", err)
	}
	if err := k.SetBytesAuto(op.src.SizeWithDepth()); err != nil {
		return fmt.Errorf("softmax1x1: bind tensor_size: %w", err)
	}
	depth := op.src.Depth()
	//nolint:gosec // G115: slice counts fit in i32
	if err := k.SetBytesAuto(compute.Int2{int32(depth), int32(tensor.DivideRoundUp(depth, lanes))}); err != nil {
		return fmt.Errorf("softmax1x1: bind size: %w", err)
	}
	if err := op.layout.bindExtra(k, op.dst); err != nil {
		return fmt.Errorf("softmax1x1: bind batch: %w", err)
	}
	if err := k.SetBytesAuto(MaskForLastPlane(op.src.Channels())); err != nil {
		return fmt.Errorf("softmax1x1: bind mask: %w", err)
	}

	return q.DispatchImplicit(k, op.GridSize(), op.WorkGroupSize())
}

// GridSize returns the global work size: one 32-lane work-group per batch
// element of the destination.
func (op *Softmax1x1) GridSize() compute.Int3 {
	batch := 1
	if op.dst != nil {
		batch = op.dst.Batch()
	}
	return compute.Int3{X: lanes, Y: batch, Z: 1}
}

// WorkGroupSize returns the local work size.
func (op *Softmax1x1) WorkGroupSize() compute.Int3 {
	return compute.Int3{X: lanes, Y: 1, Z: 1}
}

// Release drops the compiled kernel. The operation returns to Uncompiled.
func (op *Softmax1x1) Release() {
	op.kernel = nil
}

func (op *Softmax1x1) checkTensors() error {
	if op.src == nil {
		return &compute.ArgumentBindingError{Slot: -1, Name: "src_data", Details: "source tensor not set"}
	}
	if op.dst == nil {
		return &compute.ArgumentBindingError{Slot: -1, Name: "dst_data", Details: "destination tensor not set"}
	}
	if shape := op.src.Shape(); shape.H != 1 || shape.W != 1 {
		return &compute.ArgumentBindingError{
			Slot:    -1,
			Name:    "src_data",
			Details: fmt.Sprintf("spatial extent of %s is not 1x1", shape),
		}
	}
	if err := op.layout.checkTensor("src_data", op.src); err != nil {
		return err
	}
	if err := op.layout.checkTensor("dst_data", op.dst); err != nil {
		return err
	}
	if op.src.Channels() != op.dst.Channels() || op.src.Batch() != op.dst.Batch() {
		return &compute.ArgumentBindingError{
			Slot:    -1,
			Name:    "dst_data",
			Details: fmt.Sprintf("shape %s does not match source %s", op.dst.Shape(), op.src.Shape()),
		}
	}
	return nil
}
