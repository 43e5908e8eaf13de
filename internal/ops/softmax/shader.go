package softmax

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/born-ml/kernels/internal/compute"
)

// EntryPoint is the name of the generated kernel function.
const EntryPoint = "main_function"

const (
	// lanes is the work-group size; each lane strides over every 32nd slice.
	lanes = 32
	// sharedSlots holds one partial sum per lane as vec4s: 8 * 4 == 32.
	sharedSlots = 8
)

var softmaxTemplate = template.Must(template.New("softmax1x1").Parse(
	`{{if .EnableF16}}enable f16;

{{end}}alias FLT = {{.FLT}};
alias FLT4 = {{.FLT4}};

{{range .Bindings}}@group(0) @binding({{.Index}}) {{.Decl}};
{{end}}
var<workgroup> tmp: array<vec4<f32>, {{.SharedSlots}}>;

@compute @workgroup_size({{.Lanes}}, 1, 1)
fn {{.Entry}}(
    @builtin(local_invocation_id) lid: vec3<u32>,
    @builtin(workgroup_id) gid: vec3<u32>,
) {
{{.Prologue}}  var offset = 0;
  var sum: f32 = 0.0;
  var s = 0;
  let tid = i32(lid.x);
  loop {
    let z = offset + tid;
    if (z < size.x) {
      let mask_temp = select(vec4<f32>(1.0), mask, z == size.x - 1);
      let src = {{.ReadSrc}};
      sum += dot(mask_temp, exp(src));
      offset += {{.Lanes}};
    }
    continuing {
      s++;
      break if s >= size.y;
    }
  }

  tmp[tid / 4][tid % 4] = sum;
  workgroupBarrier();
  if (tid == 0) {
{{range .Slots}}    sum {{if eq . 0}}={{else}}+={{end}} dot(vec4<f32>(1.0), tmp[{{.}}]);
{{end}}    tmp[0].x = 1.0 / sum;
  }
  workgroupBarrier();
  sum = tmp[0].x;

  offset = 0;
  s = 0;
  loop {
    let z = offset + tid;
    if (z < size.x) {
      var res = FLT4(exp({{.ReadSrc}}) * sum);
{{.PostProcess}}      {{.WriteDst}}
      offset += {{.Lanes}};
    }
    continuing {
      s++;
      break if s >= size.y;
    }
  }
}
`))

type bindingDecl struct {
	Index int
	Decl  string
}

type shaderData struct {
	EnableF16   bool
	FLT, FLT4   string
	Bindings    []bindingDecl
	SharedSlots int
	Lanes       int
	Slots       []int
	Entry       string
	Prologue    string
	ReadSrc     string
	PostProcess string
	WriteDst    string
}

// GenerateProgram builds the softmax program for def with linked operations
// applied to every normalized slice before it is written.
func GenerateProgram(def OperationDef, linked []compute.LinkedOperation) (*compute.Program, error) {
	if err := def.Validate(); err != nil {
		return nil, &compute.CompilationError{Entry: EntryPoint, Err: err}
	}
	return generate(def, newLayout(def), linked)
}

func generate(def OperationDef, l layout, linked []compute.LinkedOperation) (*compute.Program, error) {
	src := accessor{name: "src_data", desc: def.Src, batched: l.batched()}
	dst := accessor{name: "dst_data", desc: def.Dst, batched: l.batched()}
	srcDecl, srcType := src.declType(false)
	dstDecl, dstType := dst.declType(true)

	args := []compute.Arg{{Name: src.name, Kind: compute.MemoryRead, Type: srcType, Desc: def.Src}}
	args = append(args, compute.LinkArgs(linked)...)
	args = append(args,
		compute.Arg{Name: dst.name, Kind: compute.MemoryWrite, Type: dstType, Desc: def.Dst},
		compute.Arg{Name: "tensor_size", Kind: compute.Bytes, Type: "vec4<i32>"},
		compute.Arg{Name: "size", Kind: compute.Bytes, Type: "vec2<i32>"},
	)
	args = append(args, l.extraArgs()...)
	args = append(args, compute.Arg{Name: "mask", Kind: compute.Bytes, Type: "vec4<f32>"})

	seen := make(map[string]bool, len(args))
	bindings := make([]bindingDecl, len(args))
	for i, a := range args {
		if seen[a.Name] {
			return nil, &compute.CompilationError{Entry: EntryPoint, Err: fmt.Errorf("duplicate argument %q", a.Name)}
		}
		seen[a.Name] = true
		switch a.Name {
		case src.name:
			bindings[i] = bindingDecl{Index: i, Decl: srcDecl}
		case dst.name:
			bindings[i] = bindingDecl{Index: i, Decl: dstDecl}
		default:
			bindings[i] = bindingDecl{Index: i, Decl: "var<uniform> " + a.Name + ": " + a.Type}
		}
	}

	ctx := compute.LinkingContext{VarName: "res", X: "0", Y: "0", S: "z"}
	if l.batched() {
		ctx.B = "B"
	}

	slots := make([]int, sharedSlots)
	for i := range slots {
		slots[i] = i
	}

	data := shaderData{
		EnableF16:   def.needsF16(),
		FLT:         def.Precision.FLT(),
		FLT4:        def.Precision.FLT4(),
		Bindings:    bindings,
		SharedSlots: sharedSlots,
		Lanes:       lanes,
		Slots:       slots,
		Entry:       EntryPoint,
		Prologue:    l.prologue(),
		ReadSrc:     src.read("0", "0", "z"),
		PostProcess: compute.PostProcess(linked, ctx),
		WriteDst:    dst.write("res", "0", "0", "z"),
	}

	var sb strings.Builder
	if err := softmaxTemplate.Execute(&sb, data); err != nil {
		return nil, &compute.CompilationError{Entry: EntryPoint, Err: err}
	}

	return &compute.Program{
		Source:        sb.String(),
		Entry:         EntryPoint,
		Args:          args,
		WorkGroupSize: compute.Int3{X: lanes, Y: 1, Z: 1},
		SharedFloats:  sharedSlots * 4,
		Emulation:     emulation(def.Precision, l, linked),
	}, nil
}
