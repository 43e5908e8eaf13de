//go:build windows

package webgpu

import (
	"fmt"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/born-ml/kernels/internal/compute"
	"github.com/born-ml/kernels/internal/tensor"
)

// DispatchImplicit records a compute pass for k over the global grid. The
// pass is submitted with the next Flush or Download.
func (b *Backend) DispatchImplicit(k *compute.Kernel, global, local compute.Int3) error {
	pl, ok := k.Handle().(*pipeline)
	if !ok {
		return fmt.Errorf("webgpu: kernel %q was not compiled for the WebGPU device", k.Entry())
	}
	if err := k.Missing(); err != nil {
		return err
	}
	if local != k.Program().WorkGroupSize {
		return fmt.Errorf("webgpu: local size %v does not match declared work-group size %v", local, k.Program().WorkGroupSize)
	}

	bindings := k.Bindings()
	entries := make([]wgpu.BindGroupEntry, 0, len(bindings))
	transient := make([]releaser, 0, len(bindings)+2)
	for i, bnd := range bindings {
		slot := uint32(i) //nolint:gosec // G115: slot counts are small
		if bnd.Arg.Kind.IsMemory() {
			mem, ok := bnd.Memory.(*Buffer)
			if !ok || bnd.Memory.Device() != tensor.WebGPU || mem.buffer == nil {
				releaseAll(transient)
				return &compute.ArgumentBindingError{
					Slot:    i,
					Name:    bnd.Arg.Name,
					Details: fmt.Sprintf("memory on %s is not a live WebGPU buffer", bnd.Memory.Device()),
				}
			}
			entries = append(entries, wgpu.BufferBindingEntry(slot, mem.buffer, 0, mem.size))
			continue
		}
		uniform, size := b.createUniformBuffer(bnd.Value.Bytes())
		transient = append(transient, uniform)
		entries = append(entries, wgpu.BufferBindingEntry(slot, uniform, 0, size))
	}

	layout := pl.pipeline.GetBindGroupLayout(0)
	bindGroup := b.device.CreateBindGroupSimple(layout, entries)
	transient = append(transient, bindGroup, layout)

	groups := compute.WorkGroupCount(global, local)
	encoder := b.device.CreateCommandEncoder(nil)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(pl.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	//nolint:gosec // G115: work-group counts are non-negative
	pass.DispatchWorkgroups(uint32(groups.X), uint32(groups.Y), uint32(groups.Z))
	pass.End()
	b.queueCommand(encoder.Finish(nil), transient...)

	compute.CountDispatch("webgpu", k.Entry())
	b.logger.Debug("webgpu dispatch", "entry", k.Entry(), "groups", groups.Count())
	return nil
}

// createUniformBuffer creates a uniform buffer with proper alignment.
// Uniform buffers require 16-byte alignment.
func (b *Backend) createUniformBuffer(data []byte) (*wgpu.Buffer, uint64) {
	size := uint64(len(data))
	alignedSize := (size + 15) &^ 15

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:             alignedSize,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, alignedSize)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), alignedSize)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer, alignedSize
}

func releaseAll(rs []releaser) {
	for _, r := range rs {
		r.Release()
	}
}
