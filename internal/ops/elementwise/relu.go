package elementwise

import (
	"fmt"

	"github.com/born-ml/kernels/internal/compute"
)

// ReLU computes max(x, 0). A non-zero Alpha turns it into a leaky ReLU
// (x < 0 becomes Alpha*x); a non-zero Clip caps the result at Clip.
type ReLU struct {
	Alpha float32
	Clip  float32

	link int
}

// SetLinkIndex implements compute.LinkedOperation.
func (r *ReLU) SetLinkIndex(i int) { r.link = i }

// Args implements compute.LinkedOperation.
func (r *ReLU) Args() []compute.Arg {
	var args []compute.Arg
	if r.Alpha != 0 {
		args = append(args, compute.Arg{Name: compute.LinkName("alpha", r.link), Kind: compute.Bytes, Type: "f32"})
	}
	if r.Clip != 0 {
		args = append(args, compute.Arg{Name: compute.LinkName("clip", r.link), Kind: compute.Bytes, Type: "f32"})
	}
	return args
}

// BindArguments implements compute.LinkedOperation.
func (r *ReLU) BindArguments(k *compute.Kernel) error {
	if r.Alpha != 0 {
		if err := k.SetBytesAuto(compute.Float32(r.Alpha)); err != nil {
			return err
		}
	}
	if r.Clip != 0 {
		if err := k.SetBytesAuto(compute.Float32(r.Clip)); err != nil {
			return err
		}
	}
	return nil
}

// CoreCode implements compute.LinkedOperation.
func (r *ReLU) CoreCode(ctx compute.LinkingContext) string {
	v := ctx.VarName
	var code string
	if r.Alpha != 0 {
		code = fmt.Sprintf("      %[1]s = max(%[1]s, FLT4(0.0)) + FLT4(FLT(%[2]s)) * min(%[1]s, FLT4(0.0));\n",
			v, compute.LinkName("alpha", r.link))
	} else {
		code = fmt.Sprintf("      %[1]s = max(%[1]s, FLT4(0.0));\n", v)
	}
	if r.Clip != 0 {
		code += fmt.Sprintf("      %[1]s = min(%[1]s, FLT4(FLT(%[2]s)));\n", v, compute.LinkName("clip", r.link))
	}
	return code
}

// Apply implements compute.LinkedOperation.
func (r *ReLU) Apply(v compute.Float4) compute.Float4 {
	for i, x := range v {
		if x < 0 {
			x *= r.Alpha
		}
		if r.Clip != 0 && x > r.Clip {
			x = r.Clip
		}
		v[i] = x
	}
	return v
}
