package compute

import (
	"fmt"
	"strings"
)

// LinkingContext names the variables a linked fragment operates on.
type LinkingContext struct {
	VarName string // FLT4 value being produced
	X, Y, S string // spatial and slice coordinates
	B       string // batch coordinate, empty when the kernel is not batched
}

// LinkedOperation is an elementwise post-processing step fused into the tail
// of another kernel.
type LinkedOperation interface {
	// SetLinkIndex makes argument names unique within the host kernel.
	SetLinkIndex(i int)
	// Args declares the extra kernel arguments, in binding order.
	Args() []Arg
	// BindArguments binds the values declared by Args.
	BindArguments(k *Kernel) error
	// CoreCode returns WGSL statements transforming ctx.VarName in place.
	CoreCode(ctx LinkingContext) string
	// Apply is the host equivalent of CoreCode.
	Apply(v Float4) Float4
}

// LinkName returns the per-link argument name for base.
func LinkName(base string, index int) string {
	return fmt.Sprintf("%s_link%d", base, index)
}

// IndexLinked assigns consecutive link indices.
func IndexLinked(ops []LinkedOperation) {
	for i, op := range ops {
		op.SetLinkIndex(i)
	}
}

// LinkArgs concatenates the argument declarations of all linked operations.
func LinkArgs(ops []LinkedOperation) []Arg {
	var args []Arg
	for _, op := range ops {
		args = append(args, op.Args()...)
	}
	return args
}

// BindArgs binds the arguments of every linked operation, stopping at the
// first failure.
func BindArgs(k *Kernel, ops []LinkedOperation) error {
	for i, op := range ops {
		if err := op.BindArguments(k); err != nil {
			return fmt.Errorf("linked operation %d: %w", i, err)
		}
	}
	return nil
}

// PostProcess returns the concatenated fragments of all linked operations.
func PostProcess(ops []LinkedOperation, ctx LinkingContext) string {
	var sb strings.Builder
	for _, op := range ops {
		sb.WriteString(op.CoreCode(ctx))
	}
	return sb.String()
}

// ApplyLinked runs the host equivalents of all linked operations in order.
func ApplyLinked(ops []LinkedOperation, v Float4) Float4 {
	for _, op := range ops {
		v = op.Apply(v)
	}
	return v
}
