package cpu

import (
	"context"
	"fmt"
	"sync"

	"github.com/born-ml/kernels/internal/compute"
	"github.com/born-ml/kernels/internal/parallel"
	"github.com/born-ml/kernels/internal/tensor"
)

// DispatchImplicit runs k over the global grid and returns when every
// work-group has finished. Work-groups run concurrently; lanes of one group
// share fresh work-group memory and a barrier.
func (cpu *CPUBackend) DispatchImplicit(k *compute.Kernel, global, local compute.Int3) error {
	return cpu.DispatchContext(context.Background(), k, global, local)
}

// DispatchContext is DispatchImplicit with cancellation between work-groups.
func (cpu *CPUBackend) DispatchContext(ctx context.Context, k *compute.Kernel, global, local compute.Int3) error {
	fn, ok := k.Handle().(compute.LaneFunc)
	if !ok {
		return fmt.Errorf("cpu: kernel %q was not compiled for the CPU device", k.Entry())
	}
	if err := k.Missing(); err != nil {
		return err
	}
	p := k.Program()
	if local != p.WorkGroupSize {
		return fmt.Errorf("cpu: local size %v does not match declared work-group size %v", local, p.WorkGroupSize)
	}
	args := k.Bindings()
	for i, b := range args {
		if !b.Arg.Kind.IsMemory() {
			continue
		}
		if _, ok := b.Memory.(compute.HostMemory); !ok || b.Memory.Device() != tensor.CPU {
			return &compute.ArgumentBindingError{
				Slot:    i,
				Name:    b.Arg.Name,
				Details: fmt.Sprintf("memory on %s is not addressable by the CPU device", b.Memory.Device()),
			}
		}
	}

	groups := compute.WorkGroupCount(global, local)
	n := groups.Count()
	perPlane := groups.X * groups.Y
	err := parallel.Run(ctx, n, func(_ context.Context, i int) error {
		group := compute.Int3{X: i % groups.X, Y: (i / groups.X) % groups.Y, Z: i / perPlane}
		return runGroup(fn, group, local, p.SharedFloats, args)
	}, cpu.parallel)
	if err != nil {
		return fmt.Errorf("cpu: dispatch %s: %w", k.Entry(), err)
	}

	compute.CountDispatch("cpu", k.Entry())
	cpu.logger.Debug("cpu dispatch",
		"entry", k.Entry(),
		"groups", n,
		"lanes", local.Count())
	return nil
}

// runGroup executes one work-group. A panicking lane breaks the barrier so
// the others unwind, and the first panic is reported as an error.
func runGroup(fn compute.LaneFunc, group, local compute.Int3, sharedFloats int, args []compute.Binding) error {
	lanes := local.Count()
	shared := make([]float32, sharedFloats)
	bar := newBarrier(lanes)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for l := 0; l < lanes; l++ {
		lid := compute.Int3{X: l % local.X, Y: (l / local.X) % local.Y, Z: l / (local.X * local.Y)}
		gid := compute.Int3{
			X: group.X*local.X + lid.X,
			Y: group.Y*local.Y + lid.Y,
			Z: group.Z*local.Z + lid.Z,
		}
		inv := compute.NewInvocation(lid, group, gid, shared, args, bar.wait)

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					bar.abort()
					if r == errBarrierBroken {
						return
					}
					mu.Lock()
					if firstErr == nil {
						firstErr = fmt.Errorf("work-group %v lane %v: %v", group, lid, r)
					}
					mu.Unlock()
					return
				}
				bar.leave()
			}()
			fn(inv)
		}()
	}
	wg.Wait()
	return firstErr
}
