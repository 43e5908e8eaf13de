package softmax_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/kernels/internal/backend/cpu"
	"github.com/born-ml/kernels/internal/compute"
	"github.com/born-ml/kernels/internal/ops/elementwise"
	"github.com/born-ml/kernels/internal/ops/softmax"
	"github.com/born-ml/kernels/internal/tensor"
)

var f32 = tensor.Descriptor{DataType: tensor.Float32, Storage: tensor.Buffer}

func def(batched bool) softmax.OperationDef {
	return softmax.OperationDef{Src: f32, Dst: f32, Precision: compute.F32, BatchSupport: batched}
}

// recordingQueue captures the dispatch instead of running it.
type recordingQueue struct {
	calls    int
	bindings []compute.Binding
	global   compute.Int3
	local    compute.Int3
}

func (q *recordingQueue) DispatchImplicit(k *compute.Kernel, global, local compute.Int3) error {
	q.calls++
	q.bindings = k.Bindings()
	q.global, q.local = global, local
	return nil
}

func newTensor(t *testing.T, shape tensor.BHWC, desc tensor.Descriptor, values []float32) *cpu.Tensor {
	t.Helper()
	tt, err := cpu.NewTensor(shape, desc)
	require.NoError(t, err)
	if values != nil {
		require.NoError(t, tt.Upload(values))
	}
	return tt
}

// run compiles op on a fresh CPU device and dispatches it once.
func run(t *testing.T, op *softmax.Softmax1x1, src, dst *cpu.Tensor) *cpu.CPUBackend {
	t.Helper()
	backend := cpu.New()
	require.NoError(t, op.Compile(compute.CreationContext{Cache: compute.NewProgramCache(backend)}))
	op.SetSrc(src)
	op.SetDst(dst)
	require.NoError(t, op.AddToQueue(backend))
	return backend
}

func reference(x []float32) []float32 {
	var sum float64
	for _, v := range x {
		sum += math.Exp(float64(v))
	}
	out := make([]float32, len(x))
	for i, v := range x {
		out[i] = float32(math.Exp(float64(v)) / sum)
	}
	return out
}

func TestMaskForLastPlane(t *testing.T) {
	tests := []struct {
		channels int
		want     compute.Float4
	}{
		{1, compute.Float4{1, 0, 0, 0}},
		{2, compute.Float4{1, 1, 0, 0}},
		{3, compute.Float4{1, 1, 1, 0}},
		{4, compute.Float4{1, 1, 1, 1}},
		{5, compute.Float4{1, 0, 0, 0}},
		{8, compute.Float4{1, 1, 1, 1}},
		{130, compute.Float4{1, 1, 0, 0}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, softmax.MaskForLastPlane(tt.channels), "channels=%d", tt.channels)
	}
}

func TestSoftmax1x1_ThreeChannels(t *testing.T) {
	shape := tensor.BHWC{B: 1, H: 1, W: 1, C: 3}
	src := newTensor(t, shape, f32, []float32{1, 2, 3})
	dst := newTensor(t, shape, f32, nil)

	op, err := softmax.New(def(false))
	require.NoError(t, err)
	run(t, op, src, dst)

	got := dst.Download()
	assert.InDeltaSlice(t, []float32{0.0900, 0.2447, 0.6652}, got, 1e-4)
	// The padding lane is never part of the sum.
	assert.InDelta(t, 1.0, got[0]+got[1]+got[2], 1e-6)
}

func TestSoftmax1x1_SingleChannel(t *testing.T) {
	shape := tensor.BHWC{B: 1, H: 1, W: 1, C: 1}
	for _, x := range []float32{-20, 0, 7.5} {
		src := newTensor(t, shape, f32, []float32{x})
		dst := newTensor(t, shape, f32, nil)
		op, err := softmax.New(def(false))
		require.NoError(t, err)
		run(t, op, src, dst)
		assert.InDelta(t, 1.0, dst.Download()[0], 1e-6, "x=%v", x)
	}
}

func TestSoftmax1x1_ManyRounds(t *testing.T) {
	// 300 channels: 75 slices, so each lane handles up to three slices.
	const c = 300
	values := make([]float32, c)
	for i := range values {
		values[i] = float32(math.Sin(float64(i))) * 3
	}
	shape := tensor.BHWC{B: 1, H: 1, W: 1, C: c}
	src := newTensor(t, shape, f32, values)
	dst := newTensor(t, shape, f32, nil)

	op, err := softmax.New(def(false))
	require.NoError(t, err)
	run(t, op, src, dst)

	got := dst.Download()
	assert.InDeltaSlice(t, reference(values), got, 1e-6)
	var sum float64
	for _, v := range got {
		sum += float64(v)
	}
	assert.InDelta(t, 1.0, sum, 1e-4)
}

func TestSoftmax1x1_RepeatIsBitIdentical(t *testing.T) {
	shape := tensor.BHWC{B: 1, H: 1, W: 1, C: 70}
	values := make([]float32, shape.C)
	for i := range values {
		values[i] = float32(i%11) * 0.37
	}
	src := newTensor(t, shape, f32, values)
	dst := newTensor(t, shape, f32, nil)

	op, err := softmax.New(def(false))
	require.NoError(t, err)
	backend := run(t, op, src, dst)
	first := dst.Download()

	for i := 0; i < 5; i++ {
		require.NoError(t, op.AddToQueue(backend))
		assert.Equal(t, first, dst.Download())
	}
}

func TestSoftmax1x1_BatchesAreIndependent(t *testing.T) {
	shape := tensor.BHWC{B: 3, H: 1, W: 1, C: 6}
	values := []float32{
		1, 2, 3, 4, 5, 6,
		0, 0, 0, 0, 0, 0,
		-1, 10, -1, 0.5, 2, 3,
	}
	src := newTensor(t, shape, f32, values)
	dst := newTensor(t, shape, f32, nil)

	op, err := softmax.New(def(true))
	require.NoError(t, err)
	run(t, op, src, dst)

	got := dst.Download()
	for b := 0; b < shape.B; b++ {
		row := values[b*6 : b*6+6]
		assert.InDeltaSlice(t, reference(row), got[b*6:b*6+6], 1e-6, "batch %d", b)
	}

	// Changing one batch element leaves the others untouched.
	values[0] = 50
	require.NoError(t, src.Upload(values))
	prev := got
	run(t, op, src, dst)
	got = dst.Download()
	assert.Equal(t, prev[6:], got[6:])
	assert.NotEqual(t, prev[:6], got[:6])
}

func TestSoftmax1x1_LaunchGeometry(t *testing.T) {
	shape := tensor.BHWC{B: 4, H: 1, W: 1, C: 9}
	op, err := softmax.New(def(true))
	require.NoError(t, err)
	require.NoError(t, op.Compile(compute.CreationContext{Cache: compute.NewProgramCache(cpu.New())}))
	op.SetSrc(newTensor(t, shape, f32, nil))
	op.SetDst(newTensor(t, shape, f32, nil))

	q := &recordingQueue{}
	require.NoError(t, op.AddToQueue(q))
	assert.Equal(t, compute.Int3{X: 32, Y: 4, Z: 1}, q.global)
	assert.Equal(t, compute.Int3{X: 32, Y: 1, Z: 1}, q.local)
	assert.Equal(t, q.global, op.GridSize())
	assert.Equal(t, q.local, op.WorkGroupSize())

	names := make([]string, len(q.bindings))
	for i, b := range q.bindings {
		names[i] = b.Arg.Name
	}
	assert.Equal(t, []string{"src_data", "dst_data", "tensor_size", "size", "BATCH_SIZE", "mask"}, names)
	assert.Equal(t, compute.Int4{4, 1, 9, 3}, q.bindings[2].Value)
	assert.Equal(t, compute.Int2{3, 1}, q.bindings[3].Value)
	assert.Equal(t, compute.Int32(4), q.bindings[4].Value)
	assert.Equal(t, compute.Float4{1, 0, 0, 0}, q.bindings[5].Value)
}

func TestSoftmax1x1_FlatGeometry(t *testing.T) {
	shape := tensor.BHWC{B: 1, H: 1, W: 1, C: 200}
	op, err := softmax.New(def(false))
	require.NoError(t, err)
	require.NoError(t, op.Compile(compute.CreationContext{Cache: compute.NewProgramCache(cpu.New())}))
	op.SetSrc(newTensor(t, shape, f32, nil))
	op.SetDst(newTensor(t, shape, f32, nil))

	q := &recordingQueue{}
	require.NoError(t, op.AddToQueue(q))
	assert.Equal(t, compute.Int3{X: 32, Y: 1, Z: 1}, q.global)
	require.Len(t, q.bindings, 5)
	assert.Equal(t, compute.Int2{50, 2}, q.bindings[3].Value)
	assert.Equal(t, compute.Float4{1, 1, 1, 1}, q.bindings[4].Value)
}

func TestSoftmax1x1_AddToQueueBeforeCompile(t *testing.T) {
	op, err := softmax.New(def(false))
	require.NoError(t, err)
	assert.Equal(t, softmax.Uncompiled, op.State())

	q := &recordingQueue{}
	err = op.AddToQueue(q)
	require.ErrorIs(t, err, compute.ErrInvalidState)
	var stateErr *compute.InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, "uncompiled", stateErr.State)
	assert.Zero(t, q.calls)
}

func TestSoftmax1x1_NilQueue(t *testing.T) {
	op, err := softmax.New(def(true))
	require.NoError(t, err)
	require.NoError(t, op.Compile(compute.CreationContext{Cache: compute.NewProgramCache(cpu.New())}))
	shape := tensor.BHWC{B: 1, H: 1, W: 1, C: 3}
	op.SetSrc(newTensor(t, shape, f32, []float32{1, 2, 3}))
	op.SetDst(newTensor(t, shape, f32, nil))

	err = op.AddToQueue(nil)
	require.ErrorIs(t, err, compute.ErrInvalidState)
	assert.Equal(t, softmax.Compiled, op.State())
}

func TestSoftmax1x1_ReleaseReturnsToUncompiled(t *testing.T) {
	op, err := softmax.New(def(false))
	require.NoError(t, err)
	require.NoError(t, op.Compile(compute.CreationContext{Cache: compute.NewProgramCache(cpu.New())}))
	assert.Equal(t, softmax.Compiled, op.State())
	op.Release()
	assert.Equal(t, softmax.Uncompiled, op.State())
	assert.ErrorIs(t, op.AddToQueue(&recordingQueue{}), compute.ErrInvalidState)
}

func TestSoftmax1x1_CompileWithoutCache(t *testing.T) {
	op, err := softmax.New(def(false))
	require.NoError(t, err)
	assert.ErrorIs(t, op.Compile(compute.CreationContext{}), compute.ErrCompilation)
	assert.Equal(t, softmax.Uncompiled, op.State())
}

func TestSoftmax1x1_BindingFailures(t *testing.T) {
	shape := tensor.BHWC{B: 1, H: 1, W: 1, C: 4}
	half := tensor.Descriptor{DataType: tensor.Float16, Storage: tensor.Buffer}

	tests := []struct {
		name     string
		src, dst func(t *testing.T) *cpu.Tensor
		wantArg  string
	}{
		{
			name:    "SrcDescriptorMismatch",
			src:     func(t *testing.T) *cpu.Tensor { return newTensor(t, shape, half, nil) },
			dst:     func(t *testing.T) *cpu.Tensor { return newTensor(t, shape, f32, nil) },
			wantArg: "src_data",
		},
		{
			name:    "DstDescriptorMismatch",
			src:     func(t *testing.T) *cpu.Tensor { return newTensor(t, shape, f32, nil) },
			dst:     func(t *testing.T) *cpu.Tensor { return newTensor(t, shape, half, nil) },
			wantArg: "dst_data",
		},
		{
			name:    "SpatialExtent",
			src:     func(t *testing.T) *cpu.Tensor { return newTensor(t, tensor.BHWC{B: 1, H: 2, W: 1, C: 4}, f32, nil) },
			dst:     func(t *testing.T) *cpu.Tensor { return newTensor(t, shape, f32, nil) },
			wantArg: "src_data",
		},
		{
			name:    "BatchOnFlatDefinition",
			src:     func(t *testing.T) *cpu.Tensor { return newTensor(t, tensor.BHWC{B: 2, H: 1, W: 1, C: 4}, f32, nil) },
			dst:     func(t *testing.T) *cpu.Tensor { return newTensor(t, tensor.BHWC{B: 2, H: 1, W: 1, C: 4}, f32, nil) },
			wantArg: "src_data",
		},
		{
			name:    "ChannelMismatch",
			src:     func(t *testing.T) *cpu.Tensor { return newTensor(t, shape, f32, nil) },
			dst:     func(t *testing.T) *cpu.Tensor { return newTensor(t, tensor.BHWC{B: 1, H: 1, W: 1, C: 8}, f32, nil) },
			wantArg: "dst_data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := softmax.New(def(false))
			require.NoError(t, err)
			require.NoError(t, op.Compile(compute.CreationContext{Cache: compute.NewProgramCache(cpu.New())}))
			op.SetSrc(tt.src(t))
			op.SetDst(tt.dst(t))

			q := &recordingQueue{}
			err = op.AddToQueue(q)
			require.ErrorIs(t, err, compute.ErrArgumentBinding)
			var bindErr *compute.ArgumentBindingError
			require.ErrorAs(t, err, &bindErr)
			assert.Equal(t, tt.wantArg, bindErr.Name)
			assert.Zero(t, q.calls, "nothing is dispatched after a binding failure")
		})
	}
}

func TestSoftmax1x1_MissingTensors(t *testing.T) {
	op, err := softmax.New(def(false))
	require.NoError(t, err)
	require.NoError(t, op.Compile(compute.CreationContext{Cache: compute.NewProgramCache(cpu.New())}))
	assert.ErrorIs(t, op.AddToQueue(&recordingQueue{}), compute.ErrArgumentBinding)
}

func TestSoftmax1x1_Linked(t *testing.T) {
	shape := tensor.BHWC{B: 1, H: 1, W: 1, C: 5}
	values := []float32{0.5, -1, 2, 0, 1}
	src := newTensor(t, shape, f32, values)
	dst := newTensor(t, shape, f32, nil)

	scale := &elementwise.MultiplyAdd{Mul: 10, Add: -2}
	relu := &elementwise.ReLU{Clip: 4}
	op, err := softmax.New(def(false), softmax.WithLinked(scale, relu))
	require.NoError(t, err)

	text, err := op.Source()
	require.NoError(t, err)
	assert.Contains(t, text, "mul_link0")
	assert.Contains(t, text, "clip_link1")

	run(t, op, src, dst)
	want := reference(values)
	for i := range want {
		v := want[i]*10 - 2
		v = float32(math.Max(0, math.Min(4, float64(v))))
		want[i] = v
	}
	assert.InDeltaSlice(t, want, dst.Download(), 1e-5)

	q := &recordingQueue{}
	require.NoError(t, op.AddToQueue(q))
	names := make([]string, len(q.bindings))
	for i, b := range q.bindings {
		names[i] = b.Arg.Name
	}
	assert.Equal(t, []string{"src_data", "mul_link0", "add_link0", "clip_link1", "dst_data", "tensor_size", "size", "mask"}, names)
}

func TestSoftmax1x1_HalfPrecision(t *testing.T) {
	half := tensor.Descriptor{DataType: tensor.Float16, Storage: tensor.Buffer}
	shape := tensor.BHWC{B: 1, H: 1, W: 1, C: 7}
	values := []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7}
	src := newTensor(t, shape, half, values)
	dst := newTensor(t, shape, half, nil)

	op, err := softmax.New(softmax.OperationDef{Src: half, Dst: half, Precision: compute.F16})
	require.NoError(t, err)
	run(t, op, src, dst)

	got := dst.Download()
	assert.InDeltaSlice(t, reference(values), got, 2e-3)
	for _, v := range got {
		assert.Equal(t, v, compute.Float4{v}.RoundHalf()[0], "stored value is representable in f16")
	}
}

func TestSoftmax1x1_SharedCache(t *testing.T) {
	backend := cpu.New()
	cache := compute.NewProgramCache(backend)
	for i := 0; i < 3; i++ {
		op, err := softmax.New(def(true))
		require.NoError(t, err)
		require.NoError(t, op.Compile(compute.CreationContext{Cache: cache}))
	}
	stats := cache.Stats()
	assert.Equal(t, 1, stats.Programs)
	assert.EqualValues(t, 1, stats.Misses)
	assert.EqualValues(t, 2, stats.Hits)
}

func TestNew_InvalidDefinition(t *testing.T) {
	_, err := softmax.New(softmax.OperationDef{Src: f32, Dst: f32, Precision: compute.Precision(9)})
	assert.Error(t, err)
}

func TestSoftmax1x1_MaskFollowsChannels(t *testing.T) {
	op, err := softmax.New(def(true))
	require.NoError(t, err)
	assert.Equal(t, def(true), op.Definition())
	backend := cpu.New()
	require.NoError(t, op.Compile(compute.CreationContext{Cache: compute.NewProgramCache(backend)}))

	for _, channels := range []int{3, 5, 8, 1, 130} {
		shape := tensor.BHWC{B: 2, H: 1, W: 1, C: channels}
		values := make([]float32, shape.NumElements())
		for i := range values {
			values[i] = float32(i%7) * 0.25
		}
		dst := newTensor(t, shape, f32, nil)
		op.SetSrc(newTensor(t, shape, f32, values))
		op.SetDst(dst)
		require.NoError(t, op.AddToQueue(backend), "C=%d", channels)

		got := dst.Download()
		for b := 0; b < shape.B; b++ {
			row := values[b*channels : (b+1)*channels]
			assert.InDeltaSlice(t, reference(row), got[b*channels:(b+1)*channels], 1e-5, "C=%d batch %d", channels, b)
		}
	}
}

func TestSoftmax1x1_MaskFollowsChannelsHalfIntermediates(t *testing.T) {
	op, err := softmax.New(softmax.OperationDef{Src: f32, Dst: f32, Precision: compute.F32F16, BatchSupport: true})
	require.NoError(t, err)
	backend := cpu.New(cpu.WithWorkers(1))
	require.NoError(t, op.Compile(compute.CreationContext{Cache: compute.NewProgramCache(backend)}))

	for _, channels := range []int{6, 4, 9} {
		shape := tensor.BHWC{B: 40, H: 1, W: 1, C: channels}
		values := make([]float32, shape.NumElements())
		for i := range values {
			values[i] = float32(i%5) * 0.5
		}
		dst := newTensor(t, shape, f32, nil)
		op.SetSrc(newTensor(t, shape, f32, values))
		op.SetDst(dst)
		require.NoError(t, op.AddToQueue(backend), "C=%d", channels)

		got := dst.Download()
		for b := 0; b < shape.B; b++ {
			row := values[b*channels : (b+1)*channels]
			assert.InDeltaSlice(t, reference(row), got[b*channels:(b+1)*channels], 2e-3, "C=%d batch %d", channels, b)
		}
	}
}
