package elementwise

import (
	"fmt"

	"github.com/born-ml/kernels/internal/compute"
)

// MultiplyAdd computes x*Mul + Add with scalar coefficients.
type MultiplyAdd struct {
	Mul float32
	Add float32

	link int
}

// SetLinkIndex implements compute.LinkedOperation.
func (m *MultiplyAdd) SetLinkIndex(i int) { m.link = i }

// Args implements compute.LinkedOperation.
func (m *MultiplyAdd) Args() []compute.Arg {
	return []compute.Arg{
		{Name: compute.LinkName("mul", m.link), Kind: compute.Bytes, Type: "f32"},
		{Name: compute.LinkName("add", m.link), Kind: compute.Bytes, Type: "f32"},
	}
}

// BindArguments implements compute.LinkedOperation.
func (m *MultiplyAdd) BindArguments(k *compute.Kernel) error {
	if err := k.SetBytesAuto(compute.Float32(m.Mul)); err != nil {
		return err
	}
	return k.SetBytesAuto(compute.Float32(m.Add))
}

// CoreCode implements compute.LinkedOperation.
func (m *MultiplyAdd) CoreCode(ctx compute.LinkingContext) string {
	return fmt.Sprintf("      %[1]s = %[1]s * FLT4(FLT(%[2]s)) + FLT4(FLT(%[3]s));\n",
		ctx.VarName, compute.LinkName("mul", m.link), compute.LinkName("add", m.link))
}

// Apply implements compute.LinkedOperation.
func (m *MultiplyAdd) Apply(v compute.Float4) compute.Float4 {
	for i := range v {
		v[i] = v[i]*m.Mul + m.Add
	}
	return v
}
