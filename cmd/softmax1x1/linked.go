package main

import (
	"github.com/spf13/pflag"

	"github.com/born-ml/kernels/internal/compute"
	"github.com/born-ml/kernels/internal/ops/elementwise"
)

// linkedFlags selects the elementwise operations fused after the softmax.
type linkedFlags struct {
	mul, add  float32
	relu      bool
	reluAlpha float32
	reluClip  float32
}

func (l *linkedFlags) register(fs *pflag.FlagSet) {
	fs.Float32Var(&l.mul, "mul", 1, "Fuse res*mul+add after normalization")
	fs.Float32Var(&l.add, "add", 0, "Offset of the fused multiply-add")
	fs.BoolVar(&l.relu, "relu", false, "Fuse a ReLU after normalization (and after --mul/--add)")
	fs.Float32Var(&l.reluAlpha, "relu-alpha", 0, "Leaky ReLU slope for negative values")
	fs.Float32Var(&l.reluClip, "relu-clip", 0, "Upper bound of the ReLU (0 = none)")
}

func (l *linkedFlags) ops(fs *pflag.FlagSet) []compute.LinkedOperation {
	var ops []compute.LinkedOperation
	if fs.Changed("mul") || fs.Changed("add") {
		ops = append(ops, &elementwise.MultiplyAdd{Mul: l.mul, Add: l.add})
	}
	if l.relu {
		ops = append(ops, &elementwise.ReLU{Alpha: l.reluAlpha, Clip: l.reluClip})
	}
	return ops
}
