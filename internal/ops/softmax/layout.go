package softmax

import (
	"fmt"

	"github.com/born-ml/kernels/internal/compute"
	"github.com/born-ml/kernels/internal/tensor"
)

// layout is the batch-dependent shape of the kernel, picked once from
// OperationDef.BatchSupport.
type layout interface {
	batched() bool
	// extraArgs are declared between size and mask.
	extraArgs() []compute.Arg
	// prologue opens the entry point.
	prologue() string
	bindExtra(k *compute.Kernel, dst compute.Tensor) error
	// checkTensor rejects tensors the layout cannot address.
	checkTensor(name string, t compute.Tensor) error
	// batchOf returns the batch element of a work-group, the batch count used
	// for addressing, and whether the work-group has anything to do.
	batchOf(inv *compute.Invocation) (b, count int, ok bool)
}

func newLayout(def OperationDef) layout {
	if def.BatchSupport {
		return batchedLayout{}
	}
	return flatLayout{}
}

// flatLayout addresses tensors with three coordinates; batch is always 1.
type flatLayout struct{}

func (flatLayout) batched() bool            { return false }
func (flatLayout) extraArgs() []compute.Arg { return nil }
func (flatLayout) prologue() string         { return "" }

func (flatLayout) bindExtra(*compute.Kernel, compute.Tensor) error { return nil }

func (flatLayout) checkTensor(name string, t compute.Tensor) error {
	if t.Batch() != 1 {
		return &compute.ArgumentBindingError{
			Slot:    -1,
			Name:    name,
			Details: fmt.Sprintf("batch %d requires a batched definition", t.Batch()),
		}
	}
	return nil
}

func (flatLayout) batchOf(*compute.Invocation) (int, int, bool) { return 0, 1, true }

// batchedLayout adds a batch coordinate bound to the second launch dimension.
type batchedLayout struct{}

func (batchedLayout) batched() bool { return true }

func (batchedLayout) extraArgs() []compute.Arg {
	return []compute.Arg{{Name: "BATCH_SIZE", Kind: compute.Bytes, Type: "i32"}}
}

func (batchedLayout) prologue() string {
	return "  let B = i32(gid.y);\n" +
		"  if (B >= BATCH_SIZE) {\n" +
		"    return;\n" +
		"  }\n"
}

func (batchedLayout) bindExtra(k *compute.Kernel, dst compute.Tensor) error {
	//nolint:gosec // G115: batch counts fit in i32
	return k.SetBytesAuto(compute.Int32(dst.Batch()))
}

func (batchedLayout) checkTensor(string, compute.Tensor) error { return nil }

func (batchedLayout) batchOf(inv *compute.Invocation) (int, int, bool) {
	v, _ := inv.Value("BATCH_SIZE").(compute.Int32)
	count := int(v)
	b := inv.GroupID.Y
	return b, count, b < count
}

// accessor renders WGSL declarations, reads and writes for one tensor.
type accessor struct {
	name    string
	desc    tensor.Descriptor
	batched bool
}

// declType returns the WGSL declaration of the tensor binding, without the
// attributes, and the bare type.
func (a accessor) declType(write bool) (decl, typ string) {
	elem := a.desc.DataType.WGSL()
	format := "rgba32float"
	if a.desc.DataType == tensor.Float16 {
		format = "rgba16float"
	}
	switch a.desc.Storage {
	case tensor.Texture2D:
		typ = "texture_2d<f32>"
		if write {
			typ = "texture_storage_2d<" + format + ", write>"
		}
		return "var " + a.name + ": " + typ, typ
	case tensor.TextureArray:
		typ = "texture_2d_array<f32>"
		if write {
			typ = "texture_storage_2d_array<" + format + ", write>"
		}
		return "var " + a.name + ": " + typ, typ
	default:
		typ = "array<vec4<" + elem + ">>"
		access := "read"
		if write {
			access = "read_write"
		}
		return "var<storage, " + access + "> " + a.name + ": " + typ, typ
	}
}

func (a accessor) xCoord(x string) string {
	if a.batched {
		return "(" + x + ") * BATCH_SIZE + B"
	}
	return x
}

func (a accessor) index(x, y, z string) string {
	return fmt.Sprintf("u32(((%s) * tensor_size.y + (%s)) * tensor_size.x + %s)", z, y, a.xCoord(x))
}

// read returns a vec4<f32> expression loading slice z at (x, y).
func (a accessor) read(x, y, z string) string {
	switch a.desc.Storage {
	case tensor.Texture2D:
		return fmt.Sprintf("textureLoad(%s, vec2<i32>(%s, (%s) * tensor_size.w + (%s)), 0)", a.name, a.xCoord(x), y, z)
	case tensor.TextureArray:
		return fmt.Sprintf("textureLoad(%s, vec2<i32>(%s, %s), %s, 0)", a.name, a.xCoord(x), y, z)
	default:
		return fmt.Sprintf("vec4<f32>(%s[%s])", a.name, a.index(x, y, z))
	}
}

// write returns a statement storing the FLT4 value at slice z of (x, y).
func (a accessor) write(value, x, y, z string) string {
	switch a.desc.Storage {
	case tensor.Texture2D:
		return fmt.Sprintf("textureStore(%s, vec2<i32>(%s, (%s) * tensor_size.w + (%s)), vec4<f32>(%s));",
			a.name, a.xCoord(x), y, z, value)
	case tensor.TextureArray:
		return fmt.Sprintf("textureStore(%s, vec2<i32>(%s, %s), %s, vec4<f32>(%s));",
			a.name, a.xCoord(x), y, z, value)
	default:
		return fmt.Sprintf("%s[%s] = vec4<%s>(%s);", a.name, a.index(x, y, z), a.desc.DataType.WGSL(), value)
	}
}
